package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gamee/devoot-go/internal/model"
)

// tokenRefreshMargin は失効前にリフレッシュを行う余裕時間。
const tokenRefreshMargin = time.Minute

// BrowserProvider はブラウザ経由のOAuthフローでログインするProvider実装。
// ローカルのコールバックサーバーで認可コードを受け取り、
// リフレッシュトークンをCredentialStoreに永続化する。
type BrowserProvider struct {
	apps         map[Kind]*OAuthApp
	credStore    CredentialStore
	logger       *slog.Logger
	callbackPort string

	// openBrowser はテストで差し替え可能なブラウザ起動関数。
	openBrowser func(url string) error

	mu           sync.Mutex
	user         *model.AuthUser
	kind         Kind
	accessToken  string
	refreshToken string
	expiry       time.Time
	subscribers  map[int]func(*model.AuthUser)
	nextSubID    int
}

// BrowserProviderConfig はBrowserProviderの設定。
type BrowserProviderConfig struct {
	Google       *OAuthApp
	Github       *OAuthApp
	CredStore    CredentialStore
	CallbackPort string
}

// NewBrowserProvider はBrowserProviderを生成する。
func NewBrowserProvider(cfg BrowserProviderConfig, logger *slog.Logger) *BrowserProvider {
	if logger == nil {
		logger = slog.Default()
	}
	apps := make(map[Kind]*OAuthApp)
	if cfg.Google != nil {
		apps[KindGoogle] = cfg.Google
	}
	if cfg.Github != nil {
		apps[KindGithub] = cfg.Github
	}
	return &BrowserProvider{
		apps:         apps,
		credStore:    cfg.CredStore,
		logger:       logger,
		callbackPort: cfg.CallbackPort,
		openBrowser:  openSystemBrowser,
		subscribers:  make(map[int]func(*model.AuthUser)),
	}
}

// SignIn はブラウザでの対話的ログインフローを実行する。
// コールバック受信前にctxがキャンセルされた場合は
// model.ErrSignInCancelledを返す（ユーザー中断として扱う）。
func (p *BrowserProvider) SignIn(ctx context.Context, kind Kind) (*model.AuthUser, error) {
	app, ok := p.apps[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported identity provider: %s", kind)
	}

	state := uuid.New().String()
	redirectURI := fmt.Sprintf("http://127.0.0.1:%s/callback", p.callbackPort)

	code, err := p.waitForCallback(ctx, app.LoginURL(state, redirectURI), state)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("interactive sign-in: %w", model.ErrSignInCancelled)
		}
		return nil, err
	}

	tokens, err := app.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	user, err := app.FetchUser(ctx, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	p.mu.Lock()
	p.user = user
	p.kind = kind
	p.accessToken = tokens.AccessToken
	p.refreshToken = tokens.RefreshToken
	p.expiry = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	p.mu.Unlock()

	p.logger.Info("IdPログインに成功しました",
		slog.String("provider", string(kind)),
		slog.String("handle", user.Handle),
	)

	p.notify(user)
	return user, nil
}

// waitForCallback はローカルのコールバックサーバーを起動してブラウザを開き、
// 認可コードの受信を待つ。state不一致のコールバックは無視する。
func (p *BrowserProvider) waitForCallback(ctx context.Context, loginURL, state string) (string, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if errMsg := q.Get("error"); errMsg != "" {
			http.Error(w, "sign-in failed", http.StatusBadRequest)
			select {
			case errCh <- model.NewProviderFailedError(errMsg):
			default:
			}
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>ログインが完了しました。このタブを閉じてください。</body></html>")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	})

	ln, err := net.Listen("tcp", "127.0.0.1:"+p.callbackPort)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server: %w", err)
	}
	srv := &http.Server{Handler: r}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- err:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := p.openBrowser(loginURL); err != nil {
		return "", fmt.Errorf("failed to open browser: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		return "", err
	case code := <-codeCh:
		return code, nil
	}
}

// Token は現在のBearerトークンを返す。失効間近の場合はリフレッシュする。
func (p *BrowserProvider) Token(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	kind := p.kind
	refreshToken := p.refreshToken
	accessToken := p.accessToken
	expiry := p.expiry
	p.mu.Unlock()

	if accessToken == "" && refreshToken == "" {
		return "", model.ErrNotAuthenticated
	}

	if !forceRefresh && accessToken != "" && time.Until(expiry) > tokenRefreshMargin {
		return accessToken, nil
	}

	if refreshToken == "" {
		return "", model.ErrNotAuthenticated
	}

	app, ok := p.apps[kind]
	if !ok {
		return "", fmt.Errorf("unsupported identity provider: %s", kind)
	}

	tokens, err := app.Refresh(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	p.mu.Lock()
	p.accessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		p.refreshToken = tokens.RefreshToken
	}
	p.expiry = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	p.mu.Unlock()

	return tokens.AccessToken, nil
}

// Subscribe は認証状態変化の通知を購読する。
func (p *BrowserProvider) Subscribe(fn func(user *model.AuthUser)) (cancel func()) {
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// Restore は永続化済み認証情報からセッションの復元を試みる。
// 復元できない場合も「ユーザーなし」を通知してnilを返す（正常系）。
// CredentialStoreの読み込み自体が失敗した場合のみエラーを返す。
func (p *BrowserProvider) Restore(ctx context.Context) error {
	if p.credStore == nil {
		p.notify(nil)
		return nil
	}

	cred, err := p.credStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil {
		p.notify(nil)
		return nil
	}

	kind := Kind(cred.Provider)
	app, ok := p.apps[kind]
	if !ok {
		p.logger.Warn("保存済み認証情報のプロバイダーが未設定です",
			slog.String("provider", cred.Provider),
		)
		p.notify(nil)
		return nil
	}

	tokens, err := app.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		// リフレッシュトークン失効。再ログインが必要。
		p.logger.Warn("セッション復元に失敗しました",
			slog.String("provider", cred.Provider),
			slog.String("error", err.Error()),
		)
		p.notify(nil)
		return nil
	}

	user, err := app.FetchUser(ctx, tokens.AccessToken)
	if err != nil {
		p.logger.Warn("復元時のユーザー情報取得に失敗しました",
			slog.String("error", err.Error()),
		)
		p.notify(nil)
		return nil
	}

	p.mu.Lock()
	p.user = user
	p.kind = kind
	p.accessToken = tokens.AccessToken
	p.refreshToken = cred.RefreshToken
	if tokens.RefreshToken != "" {
		p.refreshToken = tokens.RefreshToken
	}
	p.expiry = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	p.mu.Unlock()

	p.logger.Info("セッションを復元しました",
		slog.String("provider", cred.Provider),
		slog.String("handle", user.Handle),
	)

	p.notify(user)
	return nil
}

// Persist は現在のセッションの認証情報を永続化する。
// ログインしていない場合はmodel.ErrNotAuthenticatedを返す。
func (p *BrowserProvider) Persist(ctx context.Context) error {
	p.mu.Lock()
	user := p.user
	kind := p.kind
	refreshToken := p.refreshToken
	p.mu.Unlock()

	if user == nil || refreshToken == "" {
		return model.ErrNotAuthenticated
	}
	if p.credStore == nil {
		return nil
	}

	cred := &model.Credential{
		Handle:       user.Handle,
		Provider:     string(kind),
		RefreshToken: refreshToken,
		SavedAt:      time.Now(),
	}
	if err := p.credStore.Save(ctx, cred); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// SignOut はセッションを破棄し、永続化済み認証情報を削除する。
func (p *BrowserProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.user = nil
	p.accessToken = ""
	p.refreshToken = ""
	p.expiry = time.Time{}
	p.mu.Unlock()

	if p.credStore != nil {
		if err := p.credStore.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear credential: %w", err)
		}
	}

	p.notify(nil)
	return nil
}

// notify は全購読者へ認証状態変化を通知する。
// 呼び出し中の購読追加・解除と衝突しないよう、ロック外で呼び出す。
func (p *BrowserProvider) notify(user *model.AuthUser) {
	p.mu.Lock()
	fns := make([]func(*model.AuthUser), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

// openSystemBrowser はOS標準の方法でURLをブラウザで開く。
func openSystemBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// compile-time interface check
var _ Provider = (*BrowserProvider)(nil)
