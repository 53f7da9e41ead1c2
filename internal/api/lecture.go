package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gamee/devoot-go/internal/model"
)

// SearchLectures は講義を検索する。認証不要。
// limitが0以下の場合は8件に制限する。optionsはそのままクエリに
// 引き渡される（order=popular 等）。
func (c *Client) SearchLectures(ctx context.Context, limit int, options map[string]string) ([]model.Lecture, error) {
	if limit <= 0 {
		limit = 8
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	for k, v := range options {
		q.Set(k, v)
	}

	var lectures []model.Lecture
	if err := c.do(ctx, http.MethodGet, "/lectures/search", "", q, nil, &lectures); err != nil {
		return nil, err
	}
	return lectures, nil
}

// GetLectureDetail は講義の詳細を取得する。
// tokenが空の場合は未ログイン向けのレスポンスになる。
func (c *Client) GetLectureDetail(ctx context.Context, token string, lectureID int64) (*model.Lecture, error) {
	var lecture model.Lecture
	path := fmt.Sprintf("/api/lectures/%d", lectureID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, nil, &lecture); err != nil {
		return nil, err
	}
	return &lecture, nil
}

// ReportLecture は講義を通報する。
func (c *Client) ReportLecture(ctx context.Context, token string, lectureID int64) error {
	path := fmt.Sprintf("/api/lectures/%d/report", lectureID)
	return c.do(ctx, http.MethodPost, path, token, nil, struct{}{}, nil)
}

// registerLectureRequest は講義登録リクエストのボディ。
type registerLectureRequest struct {
	SourceURL string `json:"sourceUrl"`
}

// RegisterLecture は未収載講義の登録をリクエストする。
// URLの事前検証は呼び出し側（lectureサービス）の責務。
func (c *Client) RegisterLecture(ctx context.Context, token, sourceURL string) error {
	body := registerLectureRequest{SourceURL: sourceURL}
	return c.do(ctx, http.MethodPost, "/api/lecture-requests/create", token, nil, body, nil)
}

// addBookmarkRequest はブックマーク追加リクエストのボディ。
type addBookmarkRequest struct {
	LectureID int64 `json:"lectureId"`
}

// AddBookmark は講義をブックマークに追加する。
func (c *Client) AddBookmark(ctx context.Context, token, profileID string, lectureID int64) (*model.Bookmark, error) {
	var bookmark model.Bookmark
	path := fmt.Sprintf("/api/users/%s/bookmarks", profileID)
	body := addBookmarkRequest{LectureID: lectureID}
	if err := c.do(ctx, http.MethodPost, path, token, nil, body, &bookmark); err != nil {
		return nil, err
	}
	return &bookmark, nil
}

// RemoveBookmark はブックマークを削除する。
func (c *Client) RemoveBookmark(ctx context.Context, token, profileID string, bookmarkID int64) error {
	path := fmt.Sprintf("/api/users/%s/bookmarks/%d", profileID, bookmarkID)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil, nil)
}
