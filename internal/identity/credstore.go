package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gamee/devoot-go/internal/model"
)

// CredentialStore は認証情報の永続化インターフェース。
// IdPの「ローカル永続化」に相当し、再起動後のセッション復元に使う。
type CredentialStore interface {
	Save(ctx context.Context, cred *model.Credential) error
	Load(ctx context.Context) (*model.Credential, error)
	Clear(ctx context.Context) error
	Close() error
}

// SQLiteCredentialStore は認証情報をローカルのSQLiteファイルに保存する。
// 認証情報は常に1件のみ保持する（最後にログインしたユーザー）。
type SQLiteCredentialStore struct {
	db *sql.DB
}

// OpenCredentialStore は指定パスのSQLiteを開き、スキーマを初期化する。
// 親ディレクトリが存在しない場合は作成する。
func OpenCredentialStore(ctx context.Context, path string) (*SQLiteCredentialStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("認証情報キャッシュのディレクトリ作成に失敗しました: %w", err)
		}
	}

	// modernc.org/sqlite のドライバー名は "sqlite"。
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("認証情報キャッシュのオープンに失敗しました: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS credentials (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		handle TEXT NOT NULL,
		provider TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("認証情報キャッシュのスキーマ初期化に失敗しました: %w", err)
	}

	return &SQLiteCredentialStore{db: db}, nil
}

// Save は認証情報を保存する。既存の1件を上書きする。
func (s *SQLiteCredentialStore) Save(ctx context.Context, cred *model.Credential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, handle, provider, refresh_token, saved_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   handle = excluded.handle,
		   provider = excluded.provider,
		   refresh_token = excluded.refresh_token,
		   saved_at = excluded.saved_at`,
		cred.Handle, cred.Provider, cred.RefreshToken, cred.SavedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("認証情報の保存に失敗しました: %w", err)
	}
	return nil
}

// Load は保存済みの認証情報を返す。未保存の場合は(nil, nil)。
func (s *SQLiteCredentialStore) Load(ctx context.Context) (*model.Credential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT handle, provider, refresh_token, saved_at FROM credentials WHERE id = 1`)

	var cred model.Credential
	var savedAt string
	if err := row.Scan(&cred.Handle, &cred.Provider, &cred.RefreshToken, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("認証情報の読み込みに失敗しました: %w", err)
	}

	t, err := time.Parse(time.RFC3339, savedAt)
	if err != nil {
		return nil, fmt.Errorf("認証情報の保存日時のパースに失敗しました: %w", err)
	}
	cred.SavedAt = t
	return &cred, nil
}

// Clear は保存済みの認証情報を削除する。
func (s *SQLiteCredentialStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("認証情報の削除に失敗しました: %w", err)
	}
	return nil
}

// Close はデータベース接続を閉じる。
func (s *SQLiteCredentialStore) Close() error {
	return s.db.Close()
}

// compile-time interface check
var _ CredentialStore = (*SQLiteCredentialStore)(nil)
