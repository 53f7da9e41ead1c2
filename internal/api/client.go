// Package api はdevootバックエンドAPIのHTTPクライアントを提供する。
// エンドポイントごとのメソッドと、レート制限・ログ・メトリクスを含む
// 共通のリクエスト処理を持つ。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/gamee/devoot-go/internal/metrics"
	"github.com/gamee/devoot-go/internal/model"
)

// Client はdevootバックエンドAPIのクライアント。
// 全リクエストはクライアント側レートリミッターを通過してから発行される。
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
}

// Config はClientの設定。
type Config struct {
	// BaseURL はバックエンドのベースURL。テストではhttptestのURLを渡す。
	BaseURL string
	// Timeout はHTTPクライアントのタイムアウト。0の場合は10秒。
	Timeout time.Duration
	// RatePerMin は1分あたりの最大リクエスト数。0の場合は120。
	RatePerMin int
	// Burst はバーストサイズ。0の場合は30。
	Burst int
}

// NewClient はClientの新しいインスタンスを生成する。
// loggerまたはcollectorがnilの場合は既定値を使う。
func NewClient(cfg Config, logger *slog.Logger, collector metrics.MetricsCollector) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerMin <= 0 {
		cfg.RatePerMin = 120
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RatePerMin)/60.0), cfg.Burst),
		logger:     logger,
		metrics:    collector,
	}
}

// do は共通のリクエスト処理を行う。
// レートリミッター待機、リクエストID付与、Bearerトークン付与、
// ステータス・レイテンシのメトリクス記録を含む。
// 2xx以外のステータスはAPIErrorとして返す。outがnilでない場合は
// レスポンスボディをJSONデコードする。
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("レートリミッター待機が中断されました: %w", err)
	}

	reqURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("リクエストURLの構築に失敗しました: %w", err)
	}
	if query != nil {
		reqURL.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordAPILatency(time.Since(start))
	if err != nil {
		c.logger.Error("バックエンドAPIの呼び出しに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("バックエンドAPIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.RecordAPIStatus(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// ボディは読み捨てる（接続再利用のため）
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.Error("バックエンドAPIがエラーステータスを返しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return model.NewBackendStatusError(resp.StatusCode, path)
	}

	if out == nil {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}
