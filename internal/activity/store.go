// Package activity はTodo・進行中講義・活動カレンダーを単一所有する
// 状態コンテナを提供する。ログイン状態の変化を購読し、トークンと
// プロフィールIDが両方揃ったときに依存コレクションを取得する。
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gamee/devoot-go/internal/metrics"
	"github.com/gamee/devoot-go/internal/model"
)

// IdentitySource はログイン状態の読み取り専用アクセスを提供する。
// session.Storeが実装する。このストアはログイン状態を参照するのみで、
// 変更は一切行わない。
type IdentitySource interface {
	// Identity は現在のログイン状態のスナップショットを返す。
	Identity() model.Identity
	// OnChange はログイン状態変化の購読を開始し、解除関数を返す。
	OnChange(fn func(model.Identity)) (cancel func())
}

// Backend はこのストアが使うバックエンドAPIのインターフェース。
// api.Clientが実装する。
type Backend interface {
	GetInProgress(ctx context.Context, token, profileID string) ([]model.InProgressItem, error)
	CreateTodo(ctx context.Context, token, profileID string, todo model.Todo) (*model.Todo, error)
	GetContributions(ctx context.Context, token, profileID string) ([]model.RawContribution, error)
}

// Store はTodo・進行中講義・活動カレンダーを単一所有するストア。
type Store struct {
	backend Backend
	ids     IdentitySource
	levelFn model.LevelFunc
	logger  *slog.Logger
	metrics metrics.MetricsCollector

	// now はテストで差し替え可能な現在時刻関数。
	now func() time.Time

	mu            sync.Mutex
	todos         []model.Todo
	inProgress    []model.InProgressItem
	contributions []model.ContributionDay
	cur           cursor

	// refreshGen / contribGen は実行中リクエストの世代。取得開始時の
	// 世代と完了時の世代が一致しない場合、そのレスポンスは破棄される。
	refreshGen uint64
	contribGen uint64

	// coupled はトークンとプロフィールIDが「両方定義済み」の状態にあるか
	// どうかのラッチ。false→trueの遷移時のみリフレッシュを発火させる。
	coupled     bool
	cancelWatch func()
}

// NewStore はStoreを生成する。levelFnがnilの場合は既定の閾値を使う。
func NewStore(backend Backend, ids IdentitySource, levelFn model.LevelFunc, logger *slog.Logger, collector metrics.MetricsCollector) *Store {
	if levelFn == nil {
		levelFn = model.DefaultLevelFunc()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	s := &Store{
		backend: backend,
		ids:     ids,
		levelFn: levelFn,
		logger:  logger,
		metrics: collector,
		now:     time.Now,
	}
	s.cur = newCursor(s.now())
	return s
}

// Start はログイン状態変化の購読を開始する。
// 購読開始時点で既にトークンとプロフィールIDが揃っている場合も
// 1回だけリフレッシュを発火させる（ログイン済みでの起動に対応）。
func (s *Store) Start(ctx context.Context) {
	s.cancelWatch = s.ids.OnChange(func(id model.Identity) {
		s.onIdentityChanged(ctx, id)
	})
	s.onIdentityChanged(ctx, s.ids.Identity())
}

// Close はログイン状態変化の購読を解除する。
func (s *Store) Close() {
	if s.cancelWatch != nil {
		s.cancelWatch()
		s.cancelWatch = nil
	}
}

// onIdentityChanged はログイン状態の変化を処理する。
// 「トークンとプロフィールIDが両方定義済み」へのエッジでのみ
// リフレッシュを発火させる。両方定義済みのまま別項目が変化しても
// 再発火しない。どちらかが未定義に戻ったらラッチを解除する。
func (s *Store) onIdentityChanged(ctx context.Context, id model.Identity) {
	both := id.Token != "" && id.ProfileID != ""

	s.mu.Lock()
	fire := both && !s.coupled
	s.coupled = both
	s.mu.Unlock()

	if !fire {
		return
	}

	// 失敗はRefreshInProgress内でログ済み。前回のコレクションが維持される。
	_ = s.RefreshInProgress(ctx, id.Token, id.ProfileID)
}

// RefreshInProgress は進行中（ブックマーク済み未完了）講義を取得し、
// コレクションを丸ごと差し替える。失敗時はログのみで前回の
// コレクションを維持する。取得中に新しいリフレッシュが始まっていた
// 場合、そのレスポンスは破棄される。
func (s *Store) RefreshInProgress(ctx context.Context, token, profileID string) error {
	s.mu.Lock()
	s.refreshGen++
	gen := s.refreshGen
	s.mu.Unlock()

	items, err := s.backend.GetInProgress(ctx, token, profileID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.refreshGen {
		s.metrics.RecordStaleDropped()
		s.logger.Debug("古いリフレッシュ結果を破棄しました",
			slog.Uint64("generation", gen),
		)
		return nil
	}

	if err != nil {
		s.metrics.RecordRefresh("failure")
		s.logger.Error("進行中講義の取得に失敗しました",
			slog.String("profile_id", profileID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("refresh in-progress: %w", err)
	}

	s.inProgress = items
	s.metrics.RecordRefresh("success")
	s.logger.Info("進行中講義を更新しました",
		slog.String("profile_id", profileID),
		slog.Int("count", len(items)),
	)
	return nil
}

// AddTodo は新しいTodoをバックエンドに登録し、サーバー確定後の値を
// ローカルのコレクション末尾に追加して返す。
// 失敗はそのまま呼び出し元へ返す（楽観的UIの巻き戻しに必要なため、
// この操作だけは失敗が観測可能でなければならない）。
// 失敗時、コレクションは変化しない。
func (s *Store) AddTodo(ctx context.Context, todo model.Todo, token, profileID string) (*model.Todo, error) {
	created, err := s.backend.CreateTodo(ctx, token, profileID, todo)
	if err != nil {
		s.logger.Error("Todoの登録に失敗しました",
			slog.String("profile_id", profileID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.mu.Lock()
	s.todos = append(s.todos, *created)
	s.mu.Unlock()

	s.metrics.RecordTodoCreated()
	return created, nil
}

// NavigateYear は選択年をoffsetだけ移動する。
// 選択日の年も同じだけ移動し、月日は保持する。2月29日が非うるう年に
// 移動した場合、表示上は3月1日にロールフォワードされるが、内部では
// 月日を保持するため、逆方向に同じだけ移動すれば元の選択日に戻る。
func (s *Store) NavigateYear(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.shiftYear(offset)
}

// NavigateDay は選択日をoffset日移動する。月・年の繰り上がりは暦に従う。
func (s *Store) NavigateDay(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.shiftDay(offset)
}

// SetSelectedDate は選択日を丸ごと置き換える。
func (s *Store) SetSelectedDate(date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.setDate(date)
}

// UpdateContributions は量子化前の日別活動データから段階を導出し、
// 活動カレンダーを丸ごと差し替える。末尾（最新）エントリの年が
// 選択年と異なる場合、選択年を最新データに合わせる。
// 空データの場合はカレンダーをクリアし、選択年は変更しない。
func (s *Store) UpdateContributions(rawDays []model.RawContribution) {
	days := make([]model.ContributionDay, 0, len(rawDays))
	for _, raw := range rawDays {
		days = append(days, model.ContributionDay{
			Date:  raw.Date,
			Count: raw.Count,
			Level: s.levelFn(raw.Count),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.contributions = days
	if len(days) > 0 {
		latest := days[len(days)-1].Date.Year()
		if latest != s.cur.year {
			s.cur.year = latest
		}
	}
}

// RefreshContributions はバックエンドから日別活動データを取得し、
// UpdateContributionsで反映する。失敗時はログのみで前回の
// カレンダーを維持する。古いレスポンスは破棄される。
func (s *Store) RefreshContributions(ctx context.Context, token, profileID string) error {
	s.mu.Lock()
	s.contribGen++
	gen := s.contribGen
	s.mu.Unlock()

	raw, err := s.backend.GetContributions(ctx, token, profileID)

	s.mu.Lock()
	stale := gen != s.contribGen
	s.mu.Unlock()

	if stale {
		s.metrics.RecordStaleDropped()
		return nil
	}
	if err != nil {
		s.logger.Error("活動データの取得に失敗しました",
			slog.String("profile_id", profileID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("refresh contributions: %w", err)
	}

	s.UpdateContributions(raw)
	return nil
}

// Todos はTodoコレクションのコピーを返す。順序はサーバー確定順。
func (s *Store) Todos() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

// InProgress は進行中講義コレクションのコピーを返す。
func (s *Store) InProgress() []model.InProgressItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.InProgressItem, len(s.inProgress))
	copy(out, s.inProgress)
	return out
}

// Contributions は活動カレンダーのコピーを返す。
func (s *Store) Contributions() []model.ContributionDay {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ContributionDay, len(s.contributions))
	copy(out, s.contributions)
	return out
}

// SelectedYear は現在の選択年を返す。
func (s *Store) SelectedYear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.year
}

// SelectedDate は現在の選択日を返す。
func (s *Store) SelectedDate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.selectedDate()
}
