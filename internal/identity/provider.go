// Package identity は外部IdPとの認証フロー、トークン管理、
// 認証状態の購読、認証情報のローカル永続化を提供する。
package identity

import (
	"context"

	"github.com/gamee/devoot-go/internal/model"
)

// Kind は対話的ログインに使うIdPの種別を表す。
type Kind string

const (
	// KindGoogle はGoogleアカウントによるログインを示す。
	KindGoogle Kind = "google"
	// KindGithub はGitHubアカウントによるログインを示す。
	KindGithub Kind = "github"
)

// Provider はIdPとのやり取りを抽象化するインターフェース。
// セッションストアはこのインターフェースのみに依存する。
type Provider interface {
	// SignIn は対話的ログインフローを実行する。
	// ユーザーが中断した場合はmodel.ErrSignInCancelledを返す。
	SignIn(ctx context.Context, kind Kind) (*model.AuthUser, error)

	// Token は現在のBearerトークンを返す。
	// forceRefreshがtrueの場合、または失効している場合はリフレッシュする。
	// ログインしていない場合はmodel.ErrNotAuthenticatedを返す。
	Token(ctx context.Context, forceRefresh bool) (string, error)

	// Subscribe は認証状態変化の通知を購読する。
	// ログイン・ログアウト・セッション復元のたびにfnが呼ばれる。
	// userがnilの場合は「ユーザーなし」を意味する。
	// 返されたcancelを呼ぶと購読を解除する。
	Subscribe(fn func(user *model.AuthUser)) (cancel func())

	// Restore は永続化済み認証情報からセッションの復元を試みる。
	// 復元の成否にかかわらず、初回の認証状態が購読者へ通知されてから
	// 戻る（1回限りの復元完了シグナル）。
	Restore(ctx context.Context) error

	// Persist は現在のセッションの認証情報をローカル永続化に保存する。
	// 次回起動時のRestoreで対話的ログインなしに復元できるようにする。
	Persist(ctx context.Context) error

	// SignOut はIdPからログアウトし、永続化済み認証情報を破棄する。
	SignOut(ctx context.Context) error
}
