// Package review は講義レビューのドメインロジックを提供する。
// ユーザー入力のレビュー本文は送信前にサニタイズされる。
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"

	"github.com/gamee/devoot-go/internal/model"
)

// Backend はこのサービスが使うバックエンドAPIのインターフェース。
// api.Clientが実装する。
type Backend interface {
	GetLectureReviews(ctx context.Context, lectureID int64, page int) ([]model.Review, error)
	GetMyReview(ctx context.Context, token string, lectureID int64) (*model.Review, error)
	CreateReview(ctx context.Context, token string, lectureID int64, content string, rating float64) (*model.Review, error)
	UpdateReview(ctx context.Context, token string, reviewID, lectureID int64, content string, rating float64) (*model.Review, error)
	DeleteReview(ctx context.Context, token string, reviewID int64) error
	ReportReview(ctx context.Context, token string, reviewID int64) error
}

// Service はレビューに関するドメインロジックを提供する。
type Service struct {
	backend Backend
	policy  *bluemonday.Policy
	logger  *slog.Logger
}

// NewService はServiceを生成する。
// レビュー本文はプレーンテキストのみ許可するポリシーでサニタイズされ、
// タグはすべて除去される。
func NewService(backend Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend: backend,
		policy:  bluemonday.StrictPolicy(),
		logger:  logger,
	}
}

// ListByLecture は講義のレビュー一覧をページ指定で取得する。
func (s *Service) ListByLecture(ctx context.Context, lectureID int64, page int) ([]model.Review, error) {
	reviews, err := s.backend.GetLectureReviews(ctx, lectureID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// MyReview はログイン中ユーザー自身のレビューを取得する。
func (s *Service) MyReview(ctx context.Context, token string, lectureID int64) (*model.Review, error) {
	review, err := s.backend.GetMyReview(ctx, token, lectureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get my review: %w", err)
	}
	return review, nil
}

// Write はレビューを登録する。本文はサニタイズしてから送信する。
func (s *Service) Write(ctx context.Context, token string, lectureID int64, content string, rating float64) (*model.Review, error) {
	created, err := s.backend.CreateReview(ctx, token, lectureID, s.policy.Sanitize(content), rating)
	if err != nil {
		return nil, fmt.Errorf("failed to write review: %w", err)
	}
	s.logger.Info("レビューを登録しました",
		slog.Int64("lecture_id", lectureID),
		slog.Int64("review_id", created.ID),
	)
	return created, nil
}

// Edit は既存レビューを更新する。本文はサニタイズしてから送信する。
func (s *Service) Edit(ctx context.Context, token string, reviewID, lectureID int64, content string, rating float64) (*model.Review, error) {
	updated, err := s.backend.UpdateReview(ctx, token, reviewID, lectureID, s.policy.Sanitize(content), rating)
	if err != nil {
		return nil, fmt.Errorf("failed to edit review: %w", err)
	}
	return updated, nil
}

// Delete はレビューを削除する。
func (s *Service) Delete(ctx context.Context, token string, reviewID int64) error {
	if err := s.backend.DeleteReview(ctx, token, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// Report はレビューを通報する。
func (s *Service) Report(ctx context.Context, token string, reviewID int64) error {
	if err := s.backend.ReportReview(ctx, token, reviewID); err != nil {
		return fmt.Errorf("failed to report review: %w", err)
	}
	return nil
}
