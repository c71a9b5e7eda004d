// Package console держит клиентов консоли: по одному на браузер, опознаваемый
// по cookie. Клиент объединяет хранилище сессии, автоматы доступа, язык
// интерфейса и панель одобрения ресторанов.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PRECISEKY/food-admin-panel/internal/dashboard"
	"github.com/PRECISEKY/food-admin-panel/internal/guard"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/locale"
	"github.com/PRECISEKY/food-admin-panel/internal/metrics"
	"github.com/PRECISEKY/food-admin-panel/internal/session"
)

// AuthClient: клиент аутентификации бэкенда, привязанный к одному клиенту консоли.
type AuthClient interface {
	session.Auth
	Close() error
}

// ConnectFunc открывает клиент аутентификации для идентификатора клиента консоли.
type ConnectFunc func(ctx context.Context, clientID string) (AuthClient, error)

// Options: зависимости реестра.
type Options struct {
	Connect         ConnectFunc
	Profiles        session.ProfileRepository
	Repository      dashboard.Repository
	Publisher       dashboard.Publisher
	DefaultLanguage locale.Language
	IdleTTL         time.Duration
}

// Registry: клиенты консоли по идентификатору.
type Registry struct {
	opts Options
	log  *slog.Logger
	now  func() time.Time

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry создаёт пустой реестр.
func NewRegistry(opts Options, log *slog.Logger) *Registry {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = locale.English
	}
	return &Registry{
		opts:    opts,
		log:     log,
		now:     time.Now,
		clients: make(map[string]*Client),
	}
}

// NewClientID генерирует идентификатор для нового браузера.
func NewClientID() string {
	return uuid.NewString()
}

// Get возвращает клиента с идентификатором id, создавая его при первом обращении.
// lang задаёт начальный язык нового клиента; пустое значение, язык по умолчанию.
func (r *Registry) Get(ctx context.Context, id string, lang locale.Language) (*Client, error) {
	const op = "console.Registry.Get"

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: invalid client id: %w", op, err)
	}

	if c := r.lookup(id); c != nil {
		return c, nil
	}

	// Подключение к бэкенду идёт без блокировки реестра: медленный redis
	// не должен задерживать запросы уже известных клиентов.
	auth, err := r.opts.Connect(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if lang == "" {
		lang = r.opts.DefaultLanguage
	}

	r.mu.Lock()
	if c, ok := r.clients[id]; ok {
		r.mu.Unlock()
		c.touch(r.now())
		// Параллельный запрос того же браузера успел раньше.
		if cErr := auth.Close(); cErr != nil {
			r.log.Warn("failed to close redundant auth client", slog.String("client_id", id), sl.Err(cErr))
		}
		return c, nil
	}
	c := newClient(id, auth, lang, r.opts, r.log.With(slog.String("client_id", id)))
	c.touch(r.now())
	r.clients[id] = c
	metrics.ActiveClients.Set(float64(len(r.clients)))
	r.mu.Unlock()

	r.log.Debug("console client created", slog.String("client_id", id))
	return c, nil
}

func (r *Registry) lookup(id string) *Client {
	r.mu.Lock()
	c, ok := r.clients[id]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	c.touch(r.now())
	return c
}

// Len возвращает число живых клиентов.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep закрывает клиентов, не обращавшихся дольше IdleTTL. Возвращает число закрытых.
func (r *Registry) Sweep() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.opts.IdleTTL)

	r.mu.Lock()
	var idle []*Client
	for id, c := range r.clients {
		if c.lastSeen().Before(cutoff) {
			idle = append(idle, c)
			delete(r.clients, id)
		}
	}
	metrics.ActiveClients.Set(float64(len(r.clients)))
	r.mu.Unlock()

	for _, c := range idle {
		c.close()
	}
	if len(idle) > 0 {
		r.log.Info("idle console clients closed", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Run периодически вызывает Sweep до отмены ctx.
func (r *Registry) Run(ctx context.Context) {
	if r.opts.IdleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(r.opts.IdleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close закрывает всех клиентов.
func (r *Registry) Close() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	metrics.ActiveClients.Set(0)
	r.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Notice: сообщение, показываемое пользователю при следующей отрисовке страницы.
type Notice struct {
	Error bool
	Text  string
}

// Client: состояние одного браузера.
type Client struct {
	ID        string
	Store     *session.Store
	Admin     *guard.Guard
	Owner     *guard.Guard
	Locale    *locale.Provider
	Document  *locale.Attributes
	Dashboard *dashboard.Controller

	auth    AuthClient
	log     *slog.Logger
	cancel  context.CancelFunc
	unwatch []func()

	mu      sync.Mutex
	seen    time.Time
	notices []Notice
}

func newClient(id string, auth AuthClient, lang locale.Language, opts Options, log *slog.Logger) *Client {
	doc := &locale.Attributes{}
	store := session.New(auth, session.NewProfileLoader(opts.Profiles, log), log)

	c := &Client{
		ID:        id,
		Store:     store,
		Admin:     guard.New(guard.Admin, log),
		Owner:     guard.New(guard.Restaurant, log),
		Locale:    locale.NewProvider(lang, doc),
		Document:  doc,
		Dashboard: dashboard.New(opts.Repository, opts.Publisher, log),
		auth:      auth,
		log:       log,
	}
	c.unwatch = append(c.unwatch, c.Admin.Watch(store), c.Owner.Watch(store))
	store.Listen()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go store.Initialize(ctx)

	return c
}

// Guard возвращает автомат доступа для требования.
func (c *Client) Guard(req guard.Requirement) *guard.Guard {
	if req.Name == guard.Restaurant.Name {
		return c.Owner
	}
	return c.Admin
}

// AddNotice запоминает сообщение для следующей страницы.
func (c *Client) AddNotice(n Notice) {
	c.mu.Lock()
	c.notices = append(c.notices, n)
	c.mu.Unlock()
}

// TakeNotices возвращает накопленные сообщения и очищает очередь.
func (c *Client) TakeNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

func (c *Client) touch(now time.Time) {
	c.mu.Lock()
	c.seen = now
	c.mu.Unlock()
}

func (c *Client) lastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen
}

func (c *Client) close() {
	c.cancel()
	for _, fn := range c.unwatch {
		fn()
	}
	c.Store.Close()
	if err := c.auth.Close(); err != nil {
		c.log.Warn("failed to close auth client", sl.Err(err))
	}
}
