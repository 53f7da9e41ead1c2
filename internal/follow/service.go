// Package follow はフォローリクエストのドメインロジックを提供する。
package follow

import (
	"context"
	"fmt"
	"log/slog"
)

// Backend はこのサービスが使うバックエンドAPIのインターフェース。
// api.Clientが実装する。
type Backend interface {
	AcceptFollow(ctx context.Context, token string, followID int64) error
}

// Service はフォローに関するドメインロジックを提供する。
type Service struct {
	backend Backend
	logger  *slog.Logger
}

// NewService はServiceを生成する。
func NewService(backend Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend: backend,
		logger:  logger,
	}
}

// Accept はフォローリクエストを承認する。
// followIDが不正な場合はバックエンドを呼ばずにエラーを返す。
// バックエンドの失敗は呼び出し元へ伝播する（UI側で承認ボタンの
// 状態を戻すために失敗が観測可能でなければならない）。
func (s *Service) Accept(ctx context.Context, token string, followID int64) error {
	if followID <= 0 {
		return fmt.Errorf("invalid follow id: %d", followID)
	}

	if err := s.backend.AcceptFollow(ctx, token, followID); err != nil {
		s.logger.Error("フォローリクエストの承認に失敗しました",
			slog.Int64("follow_id", followID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to accept follow request: %w", err)
	}

	s.logger.Info("フォローリクエストを承認しました", slog.Int64("follow_id", followID))
	return nil
}
