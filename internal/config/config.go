package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Backend
	APIBaseURL  string
	HTTPTimeout time.Duration

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GithubClientID     string
	GithubClientSecret string
	CallbackPort       string

	// Credential cache
	CredentialCachePath string

	// Rate Limit（バックエンドAPIに対するクライアント側の自衛）
	RateLimitPerMin int
	RateLimitBurst  int

	// Contribution
	LevelLow  int
	LevelMid  int
	LevelHigh int

	// Search / Timeline
	SearchLimit      int
	TimelinePageSize int

	// Metrics
	MetricsPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.APIBaseURL = os.Getenv("API_BASE_URL")
	if cfg.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}

	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if cfg.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}

	cfg.GithubClientID = os.Getenv("GITHUB_CLIENT_ID")
	if cfg.GithubClientID == "" {
		missing = append(missing, "GITHUB_CLIENT_ID")
	}

	cfg.GithubClientSecret = os.Getenv("GITHUB_CLIENT_SECRET")
	if cfg.GithubClientSecret == "" {
		missing = append(missing, "GITHUB_CLIENT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", 10*time.Second)
	cfg.CallbackPort = getEnvString("CALLBACK_PORT", "8484")
	cfg.CredentialCachePath = getEnvString("CREDENTIAL_CACHE_PATH", defaultCredentialCachePath())
	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MIN", 120)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 30)
	cfg.LevelLow = getEnvInt("CONTRIB_LEVEL_LOW", 1)
	cfg.LevelMid = getEnvInt("CONTRIB_LEVEL_MID", 3)
	cfg.LevelHigh = getEnvInt("CONTRIB_LEVEL_HIGH", 6)
	cfg.SearchLimit = getEnvInt("SEARCH_LIMIT", 8)
	cfg.TimelinePageSize = getEnvInt("TIMELINE_PAGE_SIZE", 10)
	cfg.MetricsPort = getEnvString("METRICS_PORT", "9091")

	if cfg.LevelLow > cfg.LevelMid || cfg.LevelMid > cfg.LevelHigh {
		return nil, fmt.Errorf("contribution level thresholds must be non-decreasing: %d, %d, %d",
			cfg.LevelLow, cfg.LevelMid, cfg.LevelHigh)
	}

	return cfg, nil
}

// LevelThresholds は設定値から段階導出の閾値を組み立てる。
func (c *Config) LevelThresholds() (low, mid, high int) {
	return c.LevelLow, c.LevelMid, c.LevelHigh
}

// defaultCredentialCachePath は認証情報キャッシュの既定パスを返す。
// ホームディレクトリが取得できない場合はカレントディレクトリを使う。
func defaultCredentialCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "devoot-credentials.db"
	}
	return filepath.Join(home, ".devoot", "credentials.db")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
