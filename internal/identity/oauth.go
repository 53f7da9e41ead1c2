package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gamee/devoot-go/internal/model"
)

const (
	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

	defaultGithubAuthURL     = "https://github.com/login/oauth/authorize"
	defaultGithubTokenURL    = "https://github.com/login/oauth/access_token"
	defaultGithubUserInfoURL = "https://api.github.com/user"
)

// OAuthApp は1つのIdPに対するOAuthクライアント設定と操作を持つ。
type OAuthApp struct {
	Kind         Kind
	ClientID     string
	ClientSecret string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	httpClient *http.Client
}

// NewGoogleApp はGoogle OAuth用のOAuthAppを生成する。
func NewGoogleApp(clientID, clientSecret string) *OAuthApp {
	return &OAuthApp{
		Kind:         KindGoogle,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthURL:      defaultGoogleAuthURL,
		TokenURL:     defaultGoogleTokenURL,
		UserInfoURL:  defaultGoogleUserInfoURL,
		httpClient:   http.DefaultClient,
	}
}

// NewGithubApp はGitHub OAuth用のOAuthAppを生成する。
func NewGithubApp(clientID, clientSecret string) *OAuthApp {
	return &OAuthApp{
		Kind:         KindGithub,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthURL:      defaultGithubAuthURL,
		TokenURL:     defaultGithubTokenURL,
		UserInfoURL:  defaultGithubUserInfoURL,
		httpClient:   http.DefaultClient,
	}
}

// LoginURL は認証URLを生成する。
func (a *OAuthApp) LoginURL(state, redirectURI string) string {
	params := url.Values{
		"client_id":     {a.ClientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"state":         {state},
	}
	switch a.Kind {
	case KindGoogle:
		params.Set("scope", "openid email profile")
		params.Set("access_type", "offline")
		params.Set("prompt", "consent")
	case KindGithub:
		params.Set("scope", "read:user user:email")
	}
	return a.AuthURL + "?" + params.Encode()
}

// tokenResponse はトークンエンドポイントのレスポンス。
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// ExchangeCode は認可コードをアクセストークンに交換する。
func (a *OAuthApp) ExchangeCode(ctx context.Context, code, redirectURI string) (*tokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {a.ClientID},
		"client_secret": {a.ClientSecret},
		"redirect_uri":  {redirectURI},
		"grant_type":    {"authorization_code"},
	}
	return a.postToken(ctx, data)
}

// Refresh はリフレッシュトークンで新しいアクセストークンを取得する。
func (a *OAuthApp) Refresh(ctx context.Context, refreshToken string) (*tokenResponse, error) {
	data := url.Values{
		"client_id":     {a.ClientID},
		"client_secret": {a.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}
	return a.postToken(ctx, data)
}

// postToken はトークンエンドポイントへのPOSTとレスポンス検証を行う。
func (a *OAuthApp) postToken(ctx context.Context, data url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &tokenResp, nil
}

// googleUserInfo はGoogleのユーザー情報エンドポイントのレスポンス。
type googleUserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// githubUserInfo はGitHubのユーザー情報エンドポイントのレスポンス。
type githubUserInfo struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// FetchUser はアクセストークンでIdPのユーザー情報を取得する。
func (a *OAuthApp) FetchUser(ctx context.Context, accessToken string) (*model.AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	switch a.Kind {
	case KindGithub:
		var info githubUserInfo
		if err := json.Unmarshal(body, &info); err != nil {
			return nil, fmt.Errorf("failed to parse user info response: %w", err)
		}
		if info.ID == 0 {
			return nil, fmt.Errorf("empty user id in user info response")
		}
		return &model.AuthUser{
			Handle:      strconv.FormatInt(info.ID, 10),
			Provider:    string(KindGithub),
			Email:       info.Email,
			DisplayName: info.Name,
		}, nil
	default:
		var info googleUserInfo
		if err := json.Unmarshal(body, &info); err != nil {
			return nil, fmt.Errorf("failed to parse user info response: %w", err)
		}
		if info.Sub == "" {
			return nil, fmt.Errorf("empty sub in user info response")
		}
		return &model.AuthUser{
			Handle:      info.Sub,
			Provider:    string(KindGoogle),
			Email:       info.Email,
			DisplayName: info.Name,
		}, nil
	}
}
