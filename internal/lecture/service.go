// Package lecture は講義の検索・詳細・ブックマーク・登録リクエストの
// ドメインロジックを提供する。
package lecture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gamee/devoot-go/internal/model"
	"github.com/gamee/devoot-go/internal/security"
)

// Backend はこのサービスが使うバックエンドAPIのインターフェース。
// api.Clientが実装する。
type Backend interface {
	SearchLectures(ctx context.Context, limit int, options map[string]string) ([]model.Lecture, error)
	GetLectureDetail(ctx context.Context, token string, lectureID int64) (*model.Lecture, error)
	ReportLecture(ctx context.Context, token string, lectureID int64) error
	RegisterLecture(ctx context.Context, token, sourceURL string) error
	AddBookmark(ctx context.Context, token, profileID string, lectureID int64) (*model.Bookmark, error)
	RemoveBookmark(ctx context.Context, token, profileID string, bookmarkID int64) error
}

// URLValidator は講義URLの事前検証インターフェース。
// security.URLGuardServiceを抽象化してテスタビリティを向上させる。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Service は講義に関するドメインロジックを提供する。
type Service struct {
	backend  Backend
	urlGuard URLValidator
	logger   *slog.Logger

	// searchLimit は検索時の既定の取得件数。
	searchLimit int
}

// NewService はServiceを生成する。searchLimitが0以下の場合は8を使う。
// urlGuardがnilの場合はsecurity.NewURLGuardを使う。
func NewService(backend Backend, urlGuard URLValidator, searchLimit int, logger *slog.Logger) *Service {
	if urlGuard == nil {
		urlGuard = security.NewURLGuard()
	}
	if searchLimit <= 0 {
		searchLimit = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend:     backend,
		urlGuard:    urlGuard,
		logger:      logger,
		searchLimit: searchLimit,
	}
}

// Search は講義を検索する。ホーム画面の人気・新着一覧に使われる。
// 失敗時はログのみで空のスライスを返す（一覧表示は空のまま継続する）。
func (s *Service) Search(ctx context.Context, options map[string]string) []model.Lecture {
	lectures, err := s.backend.SearchLectures(ctx, s.searchLimit, options)
	if err != nil {
		s.logger.Error("講義の検索に失敗しました", slog.String("error", err.Error()))
		return []model.Lecture{}
	}
	return lectures
}

// Detail は講義の詳細を取得する。
// 説明文はHTML断片の場合があるため、表示側はPlainSummaryを併用する。
func (s *Service) Detail(ctx context.Context, token string, lectureID int64) (*model.Lecture, error) {
	lecture, err := s.backend.GetLectureDetail(ctx, token, lectureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lecture detail: %w", err)
	}
	return lecture, nil
}

// AddBookmark は講義をブックマークに追加する。
func (s *Service) AddBookmark(ctx context.Context, token, profileID string, lectureID int64) (*model.Bookmark, error) {
	bookmark, err := s.backend.AddBookmark(ctx, token, profileID, lectureID)
	if err != nil {
		return nil, fmt.Errorf("failed to add bookmark: %w", err)
	}
	s.logger.Info("ブックマークを追加しました",
		slog.String("profile_id", profileID),
		slog.Int64("lecture_id", lectureID),
	)
	return bookmark, nil
}

// RemoveBookmark はブックマークを削除する。
func (s *Service) RemoveBookmark(ctx context.Context, token, profileID string, bookmarkID int64) error {
	if err := s.backend.RemoveBookmark(ctx, token, profileID, bookmarkID); err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return nil
}

// Report は講義を通報する。
func (s *Service) Report(ctx context.Context, token string, lectureID int64) error {
	if err := s.backend.ReportLecture(ctx, token, lectureID); err != nil {
		return fmt.Errorf("failed to report lecture: %w", err)
	}
	return nil
}

// Register は未収載講義の登録をリクエストする。
// バックエンドへ送る前にURLを検証し、不正なURLは
// model.ErrCodeInvalidSourceURLのAPIErrorとして返す。
func (s *Service) Register(ctx context.Context, token, sourceURL string) error {
	if err := s.urlGuard.ValidateURL(sourceURL); err != nil {
		s.logger.Warn("講義URLの検証に失敗しました",
			slog.String("source_url", sourceURL),
			slog.String("error", err.Error()),
		)
		return model.NewInvalidSourceURLError(err.Error())
	}

	if err := s.backend.RegisterLecture(ctx, token, sourceURL); err != nil {
		return fmt.Errorf("failed to register lecture: %w", err)
	}

	s.logger.Info("講義の登録をリクエストしました", slog.String("source_url", sourceURL))
	return nil
}
