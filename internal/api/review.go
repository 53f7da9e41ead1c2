package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gamee/devoot-go/internal/model"
)

// reviewRequest はレビュー登録・更新リクエストのボディ。
type reviewRequest struct {
	LectureID int64   `json:"lectureId"`
	Content   string  `json:"content"`
	Rating    float64 `json:"rating"`
}

// GetLectureReviews は講義のレビュー一覧をページ指定で取得する。認証不要。
func (c *Client) GetLectureReviews(ctx context.Context, lectureID int64, page int) ([]model.Review, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	var reviews []model.Review
	path := fmt.Sprintf("/api/reviews/lectures/%d", lectureID)
	if err := c.do(ctx, http.MethodGet, path, "", q, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// GetMyReview はログイン中ユーザー自身のレビューを取得する。
func (c *Client) GetMyReview(ctx context.Context, token string, lectureID int64) (*model.Review, error) {
	var review model.Review
	path := fmt.Sprintf("/api/reviews/lectures/%d/my-review", lectureID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, nil, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// CreateReview はレビューを登録し、サーバー確定後の値を返す。
func (c *Client) CreateReview(ctx context.Context, token string, lectureID int64, content string, rating float64) (*model.Review, error) {
	var created model.Review
	body := reviewRequest{LectureID: lectureID, Content: content, Rating: rating}
	if err := c.do(ctx, http.MethodPost, "/api/reviews", token, nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateReview は既存レビューを更新する。
func (c *Client) UpdateReview(ctx context.Context, token string, reviewID, lectureID int64, content string, rating float64) (*model.Review, error) {
	var updated model.Review
	path := fmt.Sprintf("/api/reviews/%d", reviewID)
	body := reviewRequest{LectureID: lectureID, Content: content, Rating: rating}
	if err := c.do(ctx, http.MethodPatch, path, token, nil, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteReview はレビューを削除する。
func (c *Client) DeleteReview(ctx context.Context, token string, reviewID int64) error {
	path := fmt.Sprintf("/api/reviews/%d", reviewID)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil, nil)
}

// ReportReview はレビューを通報する。
func (c *Client) ReportReview(ctx context.Context, token string, reviewID int64) error {
	path := fmt.Sprintf("/api/reviews/%d/report", reviewID)
	return c.do(ctx, http.MethodPost, path, token, nil, struct{}{}, nil)
}
