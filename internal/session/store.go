// Package session хранит состояние аутентификации клиента консоли: текущую сессию,
// идентичность пользователя и его профиль.
//
// Store обновляется только вызовом Initialize и событиями бэкенда (вход, выход,
// обновление токена). Наблюдатели подписываются через Subscribe и получают
// Snapshot после каждого изменения.
//
// Каждый переход увеличивает поколение; результат загрузки профиля или
// первичной проверки, начатой в старом поколении, отбрасывается. Так быстрый
// выход и повторный вход не оставляют в Store профиль предыдущего пользователя.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
)

// Auth: часть клиента бэкенда, нужная Store.
type Auth interface {
	GetSession(ctx context.Context) (*models.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(fn func(models.AuthChange)) func()
}

// Snapshot: согласованный срез состояния Store.
type Snapshot struct {
	Session        *models.Session
	User           *models.UserIdentity
	Profile        *models.Profile
	Loading        bool   // идёт первичная проверка сессии
	ProfileLoading bool   // профиль для текущего пользователя ещё загружается
	Version        uint64 // растёт с каждым изменением
}

// HasSession сообщает, есть ли активная сессия.
func (s Snapshot) HasSession() bool {
	return s.Session != nil
}

// Store: состояние аутентификации одного клиента консоли.
type Store struct {
	auth     Auth
	profiles *ProfileLoader
	log      *slog.Logger

	mu             sync.Mutex
	session        *models.Session
	user           *models.UserIdentity
	profile        *models.Profile
	loading        bool
	profileLoading bool
	version        uint64
	generation     uint64
	observers      map[int]func(Snapshot)
	nextObserver   int
	stopListening  func()
}

// New создаёт Store в состоянии первичной проверки (Loading = true).
func New(auth Auth, profiles *ProfileLoader, log *slog.Logger) *Store {
	return &Store{
		auth:      auth,
		profiles:  profiles,
		log:       log,
		loading:   true,
		observers: make(map[int]func(Snapshot)),
	}
}

// Snapshot возвращает текущее состояние.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Session:        s.session,
		User:           s.user,
		Profile:        s.profile,
		Loading:        s.loading,
		ProfileLoading: s.profileLoading,
		Version:        s.version,
	}
}

// Listen подключает Store к потоку событий бэкенда. Повторный вызов ничего не делает.
func (s *Store) Listen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopListening != nil {
		return
	}
	s.stopListening = s.auth.OnAuthStateChange(s.handleAuthChange)
}

// Close отключает Store от событий бэкенда.
func (s *Store) Close() {
	s.mu.Lock()
	stop := s.stopListening
	s.stopListening = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Initialize однократно запрашивает у бэкенда существующую сессию, загружает
// профиль и снимает Loading. Ошибка проверки логируется и трактуется как отсутствие сессии.
func (s *Store) Initialize(ctx context.Context) {
	const op = "session.Initialize"

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	sess, err := s.auth.GetSession(ctx)
	if err != nil {
		s.log.Error("failed to check session", sl.Op(op), sl.Err(err))
		sess = nil
	}

	var profile *models.Profile
	if sess != nil {
		profile = s.profiles.Load(ctx, sess.User.ID)
	}

	s.mu.Lock()
	if gen == s.generation {
		s.setSessionLocked(sess)
		s.profile = profile
	} else {
		s.log.Debug("initial session probe superseded by auth event", sl.Op(op))
	}
	s.loading = false
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// handleAuthChange применяет событие бэкенда: сессия и пользователь меняются
// сразу, профиль сбрасывается до завершения новой загрузки. Loading не трогается.
func (s *Store) handleAuthChange(change models.AuthChange) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	prevUser := s.user
	s.setSessionLocked(change.Session)

	keepProfile := change.Event == models.AuthTokenRefreshed &&
		prevUser != nil && s.user != nil && prevUser.ID == s.user.ID && s.profile != nil
	if !keepProfile {
		s.profile = nil
	}
	user := s.user
	s.profileLoading = user != nil && !keepProfile
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)

	if user == nil || keepProfile {
		return
	}

	profile := s.profiles.Load(context.Background(), user.ID)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.Debug("discarding superseded profile fetch", slog.String("user_id", user.ID))
		return
	}
	s.profile = profile
	s.profileLoading = false
	snap = s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) setSessionLocked(sess *models.Session) {
	s.session = sess
	if sess == nil {
		s.user = nil
		return
	}
	u := sess.User
	s.user = &u
}

func (s *Store) commitLocked() Snapshot {
	s.version++
	return s.snapshotLocked()
}

// Subscribe регистрирует наблюдателя, вызываемого после каждого изменения.
// Наблюдатели вызываются вне блокировки и могут читать Snapshot.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.observers))
	for id := 0; id < s.nextObserver; id++ {
		if fn, ok := s.observers[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// SignIn запрашивает вход. Состояние Store изменится по событию бэкенда,
// а не синхронно с возвратом.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	const op = "session.SignIn"
	if _, err := s.auth.SignInWithPassword(ctx, email, password); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SignOut запрашивает завершение сессии. Как и SignIn, локальное состояние
// меняется асинхронно через событие.
func (s *Store) SignOut(ctx context.Context) error {
	const op = "session.SignOut"
	if err := s.auth.SignOut(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Await ждёт состояния, удовлетворяющего ready, или отмены ctx.
// Возвращает последнее наблюдённое состояние.
func (s *Store) Await(ctx context.Context, ready func(Snapshot) bool) (Snapshot, error) {
	ch := make(chan Snapshot, 1)
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		if ready(snap) {
			select {
			case ch <- snap:
			default:
			}
		}
	})
	defer unsubscribe()

	if snap := s.Snapshot(); ready(snap) {
		return snap, nil
	}
	select {
	case snap := <-ch:
		return snap, nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

// Settled: готовность для Await: первичная проверка завершена и профиль не загружается.
func Settled(s Snapshot) bool {
	return !s.Loading && !s.ProfileLoading
}
