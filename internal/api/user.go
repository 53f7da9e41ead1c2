package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gamee/devoot-go/internal/model"
)

// GetProfile はログイン中ユーザーのプロフィールを取得する。
// バックエンドにプロフィールが存在しない場合（404）は
// model.ErrProfileNotFoundを返す。会員登録フローへの誘導に使われる。
func (c *Client) GetProfile(ctx context.Context, token string) (*model.Profile, error) {
	var profile model.Profile
	err := c.do(ctx, http.MethodGet, "/api/users/profile-info", token, nil, nil, &profile)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("profile fetch: %w", model.ErrProfileNotFound)
		}
		return nil, err
	}
	return &profile, nil
}

// bookmarksResponse はブックマーク一覧APIのレスポンス。
// キー "in-progress" にブックマーク済みで未完了の講義が入る。
type bookmarksResponse struct {
	InProgress []model.InProgressItem `json:"in-progress"`
}

// GetInProgress は指定プロフィールの進行中（ブックマーク済み未完了）講義を取得する。
func (c *Client) GetInProgress(ctx context.Context, token, profileID string) ([]model.InProgressItem, error) {
	var resp bookmarksResponse
	path := fmt.Sprintf("/api/users/%s/bookmarks", profileID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.InProgress, nil
}

// CreateTodo は新しいTodoをバックエンドに登録し、サーバー確定後の値を返す。
// 失敗はそのまま呼び出し元へ伝播する。
func (c *Client) CreateTodo(ctx context.Context, token, profileID string, todo model.Todo) (*model.Todo, error) {
	var created model.Todo
	path := fmt.Sprintf("/api/users/%s/todos", profileID)
	err := c.do(ctx, http.MethodPost, path, token, nil, todo, &created)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, model.NewTodoCreateError(apiErr.Status)
		}
		return nil, err
	}
	return &created, nil
}

// GetContributions は指定プロフィールの日別活動数（量子化前）を取得する。
func (c *Client) GetContributions(ctx context.Context, token, profileID string) ([]model.RawContribution, error) {
	var raw []model.RawContribution
	path := fmt.Sprintf("/api/users/%s/contributions", profileID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
