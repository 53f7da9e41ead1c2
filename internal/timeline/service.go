// Package timeline はフォロー中ユーザーの活動タイムラインの
// ページング取得を提供する。
package timeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gamee/devoot-go/internal/model"
)

// Backend はこのサービスが使うバックエンドAPIのインターフェース。
// api.Clientが実装する。
type Backend interface {
	GetTimeline(ctx context.Context, token string, page, size int) (*model.TimelinePage, error)
}

// Service はタイムライン取得のドメインロジックを提供する。
type Service struct {
	backend  Backend
	logger   *slog.Logger
	pageSize int
}

// NewService はServiceを生成する。pageSizeが0以下の場合は10を使う。
func NewService(backend Backend, pageSize int, logger *slog.Logger) *Service {
	if pageSize <= 0 {
		pageSize = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend:  backend,
		logger:   logger,
		pageSize: pageSize,
	}
}

// Fetch は指定ページのタイムラインを取得する。
func (s *Service) Fetch(ctx context.Context, token string, page int) (*model.TimelinePage, error) {
	result, err := s.backend.GetTimeline(ctx, token, page, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timeline: %w", err)
	}
	return result, nil
}
