package model

import (
	"errors"
	"fmt"
)

// 分類用のセンチネルエラー。
// ストアのアクション境界でerrors.Isによる振り分けに使う。
var (
	// ErrSignInCancelled はユーザーがポップアップを閉じる等で
	// 対話的ログインを中断したことを表す。状態変更なしの無害な結果。
	ErrSignInCancelled = errors.New("sign-in cancelled by user")

	// ErrProfileNotFound はIdPログイン成功後にバックエンドの
	// プロフィールが存在しないことを表す。会員登録フローへの誘導契機。
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNotAuthenticated はトークン未保持の状態で認証必須の
	// 操作を呼び出したことを表す。
	ErrNotAuthenticated = errors.New("not authenticated")
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, backend, system
	Action   string // ユーザー向け対処方法
	Status   int    // HTTPステータス（バックエンド由来の場合のみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeProviderFailed   = "PROVIDER_FAILED"
	ErrCodeProfileFetch     = "PROFILE_FETCH_FAILED"
	ErrCodeTodoCreate       = "TODO_CREATE_FAILED"
	ErrCodeInvalidSourceURL = "INVALID_SOURCE_URL"
	ErrCodeBackendStatus    = "BACKEND_STATUS"
	ErrCodeRateLimited      = "RATE_LIMITED"
)

// NewProviderFailedError はIdP側の認証失敗エラーを生成する。
// ユーザー中断（ErrSignInCancelled）とは区別される。
func NewProviderFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderFailed,
		Message:  fmt.Sprintf("外部認証に失敗しました: %s", reason),
		Category: "auth",
		Action:   "しばらく待ってから再度ログインしてください。",
	}
}

// NewProfileFetchError はプロフィール取得失敗エラーを生成する。
func NewProfileFetchError(status int) *APIError {
	return &APIError{
		Code:     ErrCodeProfileFetch,
		Message:  fmt.Sprintf("プロフィールの取得に失敗しました（HTTP %d）", status),
		Category: "backend",
		Action:   "通信環境を確認し、再度お試しください。",
		Status:   status,
	}
}

// NewTodoCreateError はTodo登録失敗エラーを生成する。
// この経路のみ呼び出し元へ伝播する（楽観的UIの巻き戻しに必要）。
func NewTodoCreateError(status int) *APIError {
	return &APIError{
		Code:     ErrCodeTodoCreate,
		Message:  fmt.Sprintf("Todoの登録に失敗しました（HTTP %d）", status),
		Category: "backend",
		Action:   "入力内容を確認し、再度お試しください。",
		Status:   status,
	}
}

// NewInvalidSourceURLError は講義登録リクエストのURL検証失敗エラーを生成する。
func NewInvalidSourceURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSourceURL,
		Message:  fmt.Sprintf("無効な講義URLです: %s", reason),
		Category: "validation",
		Action:   "公開されている講義ページのURL（http:// または https://）を入力してください。",
	}
}

// NewBackendStatusError はバックエンドのエラーステータスを表すエラーを生成する。
func NewBackendStatusError(status int, path string) *APIError {
	return &APIError{
		Code:     ErrCodeBackendStatus,
		Message:  fmt.Sprintf("バックエンドがステータス %d を返しました: %s", status, path),
		Category: "backend",
		Action:   "しばらく待ってから再度お試しください。",
		Status:   status,
	}
}
