// Package session はログイン状態を単一所有する状態コンテナを提供する。
// IdPからのトークン取得とバックエンドのプロフィール取得を調停し、
// ログイン状態のスナップショットを購読者へ公開する。
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gamee/devoot-go/internal/identity"
	"github.com/gamee/devoot-go/internal/metrics"
	"github.com/gamee/devoot-go/internal/model"
)

// Outcome は対話的ログインの結果を表す。
type Outcome string

const (
	// OutcomeCancelled はユーザーがログインを中断したことを示す。状態変更なし。
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeNeedsProfile はIdPログインは成功したがバックエンドに
	// プロフィールが存在しないことを示す。会員登録フローへの誘導契機。
	OutcomeNeedsProfile Outcome = "needs_profile"
	// OutcomeSignedIn はトークン取得とプロフィール取得の両方が
	// 成功し、ログイン状態が完全に揃ったことを示す。
	OutcomeSignedIn Outcome = "signed_in"
	// OutcomeFailed はIdP側の認証失敗を示す。
	OutcomeFailed Outcome = "failed"
)

// ProfileFetcher はバックエンドのプロフィール取得インターフェース。
// api.Clientが実装する。
type ProfileFetcher interface {
	GetProfile(ctx context.Context, token string) (*model.Profile, error)
}

// Navigator は画面遷移のインターフェース。ログアウト後のホーム遷移に使う。
type Navigator interface {
	NavigateHome()
}

// Store はログイン状態を単一所有するストア。
// 状態の公開は常にスナップショット丸ごとの差し替えで行い、
// 部分的に定義された状態を購読者へ見せない。
type Store struct {
	provider identity.Provider
	profiles ProfileFetcher
	nav      Navigator
	logger   *slog.Logger
	metrics  metrics.MetricsCollector

	mu          sync.Mutex
	identity    model.Identity
	watchers    map[int]func(model.Identity)
	nextWatchID int
	unsubscribe func()
}

// NewStore はStoreを生成する。navはnilでもよい（遷移なし）。
func NewStore(provider identity.Provider, profiles ProfileFetcher, nav Navigator, logger *slog.Logger, collector metrics.MetricsCollector) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Store{
		provider: provider,
		profiles: profiles,
		nav:      nav,
		logger:   logger,
		metrics:  collector,
		watchers: make(map[int]func(model.Identity)),
	}
}

// SignIn は指定IdPでの対話的ログインを実行する。
//
// 結果は3値:
//   - OutcomeCancelled: ユーザー中断。状態変更なし、エラーなし。
//   - OutcomeNeedsProfile: IdPログイン成功、プロフィール未登録。
//     トークンとIdPユーザーのみ保持し、プロフィール項目は未設定のまま。
//   - OutcomeSignedIn: 全項目が揃った完全なログイン。認証情報を永続化する。
//
// IdP側の失敗はOutcomeFailedとエラーの両方で返す。
func (s *Store) SignIn(ctx context.Context, kind identity.Kind) (Outcome, error) {
	user, err := s.provider.SignIn(ctx, kind)
	if err != nil {
		if errors.Is(err, model.ErrSignInCancelled) {
			// 中断は無害な結果として扱い、ログも控えめにする
			s.logger.Info("ログインが中断されました", slog.String("provider", string(kind)))
			s.metrics.RecordSignIn(string(kind), string(OutcomeCancelled))
			return OutcomeCancelled, nil
		}
		s.logger.Error("IdPログインに失敗しました",
			slog.String("provider", string(kind)),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSignIn(string(kind), string(OutcomeFailed))
		return OutcomeFailed, fmt.Errorf("sign-in failed: %w", err)
	}

	token, err := s.provider.Token(ctx, true)
	if err != nil {
		s.logger.Error("トークン取得に失敗しました",
			slog.String("provider", string(kind)),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSignIn(string(kind), string(OutcomeFailed))
		return OutcomeFailed, fmt.Errorf("token acquisition failed: %w", err)
	}

	profile, err := s.profiles.GetProfile(ctx, token)
	if err != nil {
		// プロフィール未登録は想定内の結果。トークンとIdPユーザーのみ保持し、
		// 会員登録フローへ誘導する。
		s.logger.Warn("プロフィール取得に失敗しました。会員登録が必要です",
			slog.String("provider", string(kind)),
			slog.String("error", err.Error()),
		)
		s.publish(model.Identity{User: user, Token: token})
		s.metrics.RecordSignIn(string(kind), string(OutcomeNeedsProfile))
		return OutcomeNeedsProfile, nil
	}

	s.publish(model.Identity{
		User:      user,
		Token:     token,
		ProfileID: profile.ProfileID,
		Tags:      profile.Tags,
		Nickname:  profile.Nickname,
		Loaded:    true,
	})

	// 次回起動時の復元のために認証情報を永続化する。
	// 失敗してもログイン自体は成立しているため、ログのみ。
	if err := s.provider.Persist(ctx); err != nil {
		s.logger.Warn("認証情報の永続化に失敗しました", slog.String("error", err.Error()))
	}

	s.logger.Info("ログインしました",
		slog.String("provider", string(kind)),
		slog.String("profile_id", profile.ProfileID),
	)
	s.metrics.RecordSignIn(string(kind), string(OutcomeSignedIn))
	return OutcomeSignedIn, nil
}

// RestoreSession はIdPの認証状態変化の購読を開始し、
// 永続化済み認証情報からの復元を試みる。
// 起動時に1回だけ呼ぶ。購読はストアの生存期間続き、Closeで解除される。
// 初回の認証状態が反映されてから戻る。
func (s *Store) RestoreSession(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return fmt.Errorf("session restore already started")
	}
	s.mu.Unlock()

	cancel := s.provider.Subscribe(func(user *model.AuthUser) {
		s.onAuthStateChanged(ctx, user)
	})

	s.mu.Lock()
	s.unsubscribe = cancel
	s.mu.Unlock()

	if err := s.provider.Restore(ctx); err != nil {
		return fmt.Errorf("session restore failed: %w", err)
	}
	return nil
}

// onAuthStateChanged はIdPの認証状態変化を処理する。
// ユーザーありならトークンを取得してプロフィールを取得し、
// 取得失敗時は「定義済みだが未ロード」の状態に留める（エラーを外へ出さない）。
// ユーザーなしなら全項目を一括でクリアする。
func (s *Store) onAuthStateChanged(ctx context.Context, user *model.AuthUser) {
	if user == nil {
		s.publish(model.Identity{})
		return
	}

	token, err := s.provider.Token(ctx, true)
	if err != nil {
		s.logger.Error("認証状態変化時のトークン取得に失敗しました",
			slog.String("error", err.Error()),
		)
		s.publish(model.Identity{User: user})
		return
	}

	profile, err := s.profiles.GetProfile(ctx, token)
	if err != nil {
		s.logger.Error("認証状態変化時のプロフィール取得に失敗しました",
			slog.String("error", err.Error()),
		)
		s.publish(model.Identity{User: user, Token: token})
		return
	}

	s.publish(model.Identity{
		User:      user,
		Token:     token,
		ProfileID: profile.ProfileID,
		Tags:      profile.Tags,
		Nickname:  profile.Nickname,
		Loaded:    true,
	})
}

// SignOut はIdPからログアウトし、全項目を一括でクリアして
// ホーム画面へ遷移する。
func (s *Store) SignOut(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	if err != nil {
		s.logger.Error("IdPログアウトに失敗しました", slog.String("error", err.Error()))
	}

	// IdP側の失敗にかかわらずローカル状態はクリアする
	s.publish(model.Identity{})

	if s.nav != nil {
		s.nav.NavigateHome()
	}
	return err
}

// Identity は現在のログイン状態のスナップショットを返す。
// 呼び出しのたびに現在値を読むこと。アクション境界をまたいで
// 保持したコピーは古くなっている可能性がある。
func (s *Store) Identity() model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.identity)
}

// OnChange はログイン状態の変化を購読する。
// fnには公開時点のスナップショットが渡される。
// 返されたcancelを呼ぶと購読を解除する。
func (s *Store) OnChange(fn func(model.Identity)) (cancel func()) {
	s.mu.Lock()
	id := s.nextWatchID
	s.nextWatchID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// Close は認証状態変化の購読を解除する。プロセス終了時に呼ぶ。
func (s *Store) Close() {
	s.mu.Lock()
	cancel := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// publish はログイン状態を丸ごと差し替え、購読者へ通知する。
// 通知はロック外で行う。
func (s *Store) publish(id model.Identity) {
	s.mu.Lock()
	s.identity = id
	fns := make([]func(model.Identity), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	snap := snapshot(id)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// snapshot はTagsとUserを複製したIdentityのコピーを返す。
func snapshot(id model.Identity) model.Identity {
	if id.Tags != nil {
		tags := make([]string, len(id.Tags))
		copy(tags, id.Tags)
		id.Tags = tags
	}
	if id.User != nil {
		u := *id.User
		id.User = &u
	}
	return id
}
