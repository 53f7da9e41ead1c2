// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gamee/devoot-go/internal/activity"
	"github.com/gamee/devoot-go/internal/api"
	"github.com/gamee/devoot-go/internal/config"
	"github.com/gamee/devoot-go/internal/identity"
	"github.com/gamee/devoot-go/internal/logger"
	"github.com/gamee/devoot-go/internal/metrics"
	"github.com/gamee/devoot-go/internal/model"
	"github.com/gamee/devoot-go/internal/session"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("METRICS_PORT")
		if port == "" {
			port = "9091"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("api_base_url", cfg.APIBaseURL),
	)

	return runClient(cfg)
}

// runClient はクライアントコアを起動する。
// IdP・バックエンドクライアント・両ストアをワイヤリングし、
// セッション復元を行った後、SIGINTまたはSIGTERMの受信まで稼働する。
func runClient(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. 認証情報キャッシュとIdPプロバイダー
	credStore, err := identity.OpenCredentialStore(ctx, cfg.CredentialCachePath)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer credStore.Close()

	provider := identity.NewBrowserProvider(identity.BrowserProviderConfig{
		Google:       identity.NewGoogleApp(cfg.GoogleClientID, cfg.GoogleClientSecret),
		Github:       identity.NewGithubApp(cfg.GithubClientID, cfg.GithubClientSecret),
		CredStore:    credStore,
		CallbackPort: cfg.CallbackPort,
	}, logger.For("identity"))

	// 3. バックエンドAPIクライアント
	apiClient := api.NewClient(api.Config{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.HTTPTimeout,
		RatePerMin: cfg.RateLimitPerMin,
		Burst:      cfg.RateLimitBurst,
	}, logger.For("api"), collector)

	// 4. ストア
	sessionStore := session.NewStore(provider, apiClient, nil, logger.For("session"), collector)
	defer sessionStore.Close()

	low, mid, high := cfg.LevelThresholds()
	levelFn := model.LevelThresholds{Low: low, Mid: mid, High: high}.Level
	activityStore := activity.NewStore(apiClient, sessionStore, levelFn, logger.For("activity"), collector)
	defer activityStore.Close()

	// 購読はセッション復元の前に開始する。復元で公開される初回の
	// ログイン状態もエッジ判定の対象になる。
	activityStore.Start(ctx)

	// 5. メトリクスエンドポイント
	metricsSrv := startMetricsServer(cfg.MetricsPort, registry)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	// 6. セッション復元
	if err := sessionStore.RestoreSession(ctx); err != nil {
		return fmt.Errorf("session restore failed: %w", err)
	}

	slog.Info("client core is running",
		slog.String("metrics_port", cfg.MetricsPort),
	)

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

// startMetricsServer は/metricsと/healthzを提供するHTTPサーバーを起動する。
func startMetricsServer(port string, registry *prometheus.Registry) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler(registry))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	return srv
}

// runHealthcheck はメトリクスエンドポイントの死活確認を行う。
// コンテナのヘルスチェックから利用される。
func runHealthcheck(port string) error {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://localhost:" + port + "/healthz")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}
