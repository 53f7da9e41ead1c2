// Package model はドメインモデルを定義する。
package model

import "time"

// AuthUser は外部IdPが発行したユーザー情報を表す。
// ハンドルはIdP側が管理する不透明な識別子であり、バックエンドの
// プロフィールIDとは別物。
type AuthUser struct {
	Handle      string // IdP側のユーザー識別子
	Provider    string // "google", "github"
	Email       string
	DisplayName string
}

// Identity はセッションが保持するログイン状態のスナップショットを表す。
// 値として扱い、公開時に丸ごと差し替える。部分的な更新は行わない。
type Identity struct {
	User      *AuthUser
	Token     string // IdP発行の短命Bearerトークン
	ProfileID string // バックエンドが採番した安定ID
	Tags      []string
	Nickname  string
	Loaded    bool // プロフィール取得済みかどうか
}

// Authenticated はトークンを保持しているかどうかを返す。
// プロフィール未取得（Loaded=false）でもトークンがあればtrue。
func (i Identity) Authenticated() bool {
	return i.Token != ""
}

// Complete はプロフィールまで揃った完全なログイン状態かどうかを返す。
// 不変条件: ProfileID・Tags・Nicknameが定義されるのは
// Loaded=trueかつToken非空の場合に限る。
func (i Identity) Complete() bool {
	return i.Loaded && i.Token != ""
}

// Profile はバックエンドのプロフィール取得APIのレスポンスを表す。
type Profile struct {
	ProfileID string   `json:"profileId"`
	Tags      []string `json:"tags"`
	Nickname  string   `json:"nickname"`
}

// Credential はIdPのローカル永続化に保存する認証情報を表す。
// 次回起動時に対話的ログインなしでセッションを復元するために使う。
type Credential struct {
	Handle       string
	Provider     string
	RefreshToken string
	SavedAt      time.Time
}
