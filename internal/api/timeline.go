package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gamee/devoot-go/internal/model"
)

// GetTimeline はフォロー中ユーザーの活動タイムラインをページ指定で取得する。
// sizeが0以下の場合は10件に制限する。
func (c *Client) GetTimeline(ctx context.Context, token string, page, size int) (*model.TimelinePage, error) {
	if size <= 0 {
		size = 10
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var result model.TimelinePage
	if err := c.do(ctx, http.MethodGet, "/api/timeline", token, q, nil, &result); err != nil {
		return nil, err
	}
	result.Page = page
	result.PageSize = size
	return &result, nil
}
