package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gamee/devoot-go/internal/identity"
	"github.com/gamee/devoot-go/internal/model"
)

// --- モック定義 ---

type mockProvider struct {
	signInFn  func(ctx context.Context, kind identity.Kind) (*model.AuthUser, error)
	tokenFn   func(ctx context.Context, forceRefresh bool) (string, error)
	restoreFn func(ctx context.Context) error
	persistFn func(ctx context.Context) error
	signOutFn func(ctx context.Context) error

	subscriber func(user *model.AuthUser)
	persisted  int
}

func (m *mockProvider) SignIn(ctx context.Context, kind identity.Kind) (*model.AuthUser, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, kind)
	}
	return &model.AuthUser{Handle: "handle-1", Provider: string(kind)}, nil
}

func (m *mockProvider) Token(ctx context.Context, forceRefresh bool) (string, error) {
	if m.tokenFn != nil {
		return m.tokenFn(ctx, forceRefresh)
	}
	return "token-1", nil
}

func (m *mockProvider) Subscribe(fn func(user *model.AuthUser)) (cancel func()) {
	m.subscriber = fn
	return func() { m.subscriber = nil }
}

func (m *mockProvider) Restore(ctx context.Context) error {
	if m.restoreFn != nil {
		return m.restoreFn(ctx)
	}
	return nil
}

func (m *mockProvider) Persist(ctx context.Context) error {
	m.persisted++
	if m.persistFn != nil {
		return m.persistFn(ctx)
	}
	return nil
}

func (m *mockProvider) SignOut(ctx context.Context) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx)
	}
	return nil
}

type mockProfileFetcher struct {
	getProfileFn func(ctx context.Context, token string) (*model.Profile, error)
}

func (m *mockProfileFetcher) GetProfile(ctx context.Context, token string) (*model.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, token)
	}
	return &model.Profile{ProfileID: "devoot1", Tags: []string{"go"}, Nickname: "devoot"}, nil
}

type mockNavigator struct {
	homeCount int
}

func (m *mockNavigator) NavigateHome() { m.homeCount++ }

// --- compile-time interface checks ---
var _ identity.Provider = (*mockProvider)(nil)
var _ ProfileFetcher = (*mockProfileFetcher)(nil)
var _ Navigator = (*mockNavigator)(nil)

// --- テスト ---

func TestSignIn_Cancelled_NoStateChange(t *testing.T) {
	provider := &mockProvider{
		signInFn: func(ctx context.Context, kind identity.Kind) (*model.AuthUser, error) {
			return nil, fmt.Errorf("popup closed: %w", model.ErrSignInCancelled)
		},
	}
	store := NewStore(provider, &mockProfileFetcher{}, nil, nil, nil)

	outcome, err := store.SignIn(context.Background(), identity.KindGoogle)
	if err != nil {
		t.Fatalf("SignIn() error = %v, want nil", err)
	}
	if outcome != OutcomeCancelled {
		t.Errorf("outcome = %q, want %q", outcome, OutcomeCancelled)
	}

	// トークンもプロフィール項目も一切変化しないこと
	id := store.Identity()
	if id.Token != "" || id.ProfileID != "" || id.Nickname != "" || id.Tags != nil || id.Loaded {
		t.Errorf("identity mutated on cancelled sign-in: %+v", id)
	}
}

func TestSignIn_Authenticated_AllFieldsSetTogether(t *testing.T) {
	provider := &mockProvider{}
	store := NewStore(provider, &mockProfileFetcher{}, nil, nil, nil)

	outcome, err := store.SignIn(context.Background(), identity.KindGoogle)
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if outcome != OutcomeSignedIn {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeSignedIn)
	}

	// トークン・プロフィールID・タグ・ニックネームが同時に揃うこと
	id := store.Identity()
	if id.Token == "" {
		t.Error("expected non-empty token")
	}
	if id.ProfileID != "devoot1" {
		t.Errorf("ProfileID = %q, want %q", id.ProfileID, "devoot1")
	}
	if len(id.Tags) != 1 || id.Tags[0] != "go" {
		t.Errorf("Tags = %v, want [go]", id.Tags)
	}
	if id.Nickname != "devoot" {
		t.Errorf("Nickname = %q, want %q", id.Nickname, "devoot")
	}
	if !id.Loaded {
		t.Error("expected Loaded = true")
	}
	if !id.Complete() {
		t.Error("expected Complete() = true")
	}

	// 認証情報が永続化されること
	if provider.persisted != 1 {
		t.Errorf("Persist called %d times, want 1", provider.persisted)
	}
}

func TestSignIn_ProfileMissing_NeedsProfile(t *testing.T) {
	provider := &mockProvider{}
	profiles := &mockProfileFetcher{
		getProfileFn: func(ctx context.Context, token string) (*model.Profile, error) {
			return nil, model.ErrProfileNotFound
		},
	}
	store := NewStore(provider, profiles, nil, nil, nil)

	outcome, err := store.SignIn(context.Background(), identity.KindGithub)
	if err != nil {
		t.Fatalf("SignIn() error = %v, want nil", err)
	}
	if outcome != OutcomeNeedsProfile {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeNeedsProfile)
	}

	// トークンとIdPユーザーは保持され、プロフィール項目は未設定のまま
	id := store.Identity()
	if id.Token == "" {
		t.Error("expected token to be kept")
	}
	if id.User == nil {
		t.Error("expected raw identity to be kept")
	}
	if id.ProfileID != "" || id.Nickname != "" || id.Tags != nil {
		t.Errorf("profile fields set on needs-profile outcome: %+v", id)
	}
	if id.Loaded {
		t.Error("expected Loaded = false")
	}

	// 未完了のログインは永続化されないこと
	if provider.persisted != 0 {
		t.Errorf("Persist called %d times, want 0", provider.persisted)
	}
}

func TestSignIn_ProviderFailure_ReturnsError(t *testing.T) {
	provider := &mockProvider{
		signInFn: func(ctx context.Context, kind identity.Kind) (*model.AuthUser, error) {
			return nil, errors.New("network unreachable")
		},
	}
	store := NewStore(provider, &mockProfileFetcher{}, nil, nil, nil)

	outcome, err := store.SignIn(context.Background(), identity.KindGoogle)
	if err == nil {
		t.Fatal("expected error")
	}
	if outcome != OutcomeFailed {
		t.Errorf("outcome = %q, want %q", outcome, OutcomeFailed)
	}
	if store.Identity().Authenticated() {
		t.Error("identity mutated on provider failure")
	}
}

func TestRestoreSession_UserPresent_PopulatesIdentity(t *testing.T) {
	provider := &mockProvider{}
	provider.restoreFn = func(ctx context.Context) error {
		provider.subscriber(&model.AuthUser{Handle: "handle-1", Provider: "google"})
		return nil
	}
	store := NewStore(provider, &mockProfileFetcher{}, nil, nil, nil)

	if err := store.RestoreSession(context.Background()); err != nil {
		t.Fatalf("RestoreSession() error = %v", err)
	}
	defer store.Close()

	id := store.Identity()
	if !id.Complete() {
		t.Errorf("expected complete identity after restore, got %+v", id)
	}
}

func TestRestoreSession_NoUser_ClearsIdentity(t *testing.T) {
	provider := &mockProvider{}
	provider.restoreFn = func(ctx context.Context) error {
		provider.subscriber(nil)
		return nil
	}
	store := NewStore(provider, &mockProfileFetcher{}, nil, nil, nil)

	if err := store.RestoreSession(context.Background()); err != nil {
		t.Fatalf("RestoreSession() error = %v", err)
	}
	defer store.Close()

	id := store.Identity()
	if id.Token != "" || id.ProfileID != "" || id.Loaded {
		t.Errorf("expected cleared identity, got %+v", id)
	}
}

func TestRestoreSession_ProfileFetchFails_DefinedButNotLoaded(t *testing.T) {
	provider := &mockProvider{}
	provider.restoreFn = func(ctx context.Context) error {
		provider.subscriber(&model.AuthUser{Handle: "handle-1", Provider: "google"})
		return nil
	}
	profiles := &mockProfileFetcher{
		getProfileFn: func(ctx context.Context, token string) (*model.Profile, error) {
			return nil, errors.New("backend down")
		},
	}
	store := NewStore(provider, profiles, nil, nil, nil)

	// プロフィール取得失敗はこの境界を越えてエラーにならないこと
	if err := store.RestoreSession(context.Background()); err != nil {
		t.Fatalf("RestoreSession() error = %v, want nil", err)
	}
	defer store.Close()

	id := store.Identity()
	if id.Token == "" {
		t.Error("expected token to be kept")
	}
	if id.Loaded {
		t.Error("expected Loaded = false after profile fetch failure")
	}
	if id.ProfileID != "" {
		t.Errorf("ProfileID = %q, want empty", id.ProfileID)
	}
}

func TestRestoreSession_CalledTwice_ReturnsError(t *testing.T) {
	provider := &mockProvider{}
	store := NewStore(provider, &mockProfileFetcher{}, nil, nil, nil)

	if err := store.RestoreSession(context.Background()); err != nil {
		t.Fatalf("first RestoreSession() error = %v", err)
	}
	defer store.Close()

	if err := store.RestoreSession(context.Background()); err == nil {
		t.Error("expected error on second RestoreSession()")
	}
}

func TestSignOut_ClearsIdentityAndNavigatesHome(t *testing.T) {
	provider := &mockProvider{}
	nav := &mockNavigator{}
	store := NewStore(provider, &mockProfileFetcher{}, nav, nil, nil)

	if _, err := store.SignIn(context.Background(), identity.KindGoogle); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if err := store.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}

	id := store.Identity()
	if id.Token != "" || id.ProfileID != "" || id.Nickname != "" || id.Tags != nil || id.Loaded {
		t.Errorf("expected cleared identity after sign-out, got %+v", id)
	}
	if nav.homeCount != 1 {
		t.Errorf("NavigateHome called %d times, want 1", nav.homeCount)
	}
}

func TestOnChange_ReceivesSnapshots(t *testing.T) {
	provider := &mockProvider{}
	store := NewStore(provider, &mockProfileFetcher{}, nil, nil, nil)

	var got []model.Identity
	cancel := store.OnChange(func(id model.Identity) {
		got = append(got, id)
	})
	defer cancel()

	if _, err := store.SignIn(context.Background(), identity.KindGoogle); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if !got[0].Complete() {
		t.Errorf("expected complete identity in notification, got %+v", got[0])
	}

	// 購読解除後は通知されないこと
	cancel()
	if err := store.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("notification after cancel: got %d, want 1", len(got))
	}
}
