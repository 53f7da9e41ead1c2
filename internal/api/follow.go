package api

import (
	"context"
	"fmt"
	"net/http"
)

// AcceptFollow はフォローリクエストを承認する。
// 失敗はそのまま呼び出し元へ伝播する。
func (c *Client) AcceptFollow(ctx context.Context, token string, followID int64) error {
	path := fmt.Sprintf("/api/follows/%d/accept", followID)
	return c.do(ctx, http.MethodPost, path, token, nil, struct{}{}, nil)
}
