// Package guard реализует автомат доступа к защищённым разделам консоли.
//
// Состояние вычисляется заново из Snapshot хранилища сессии при каждом его
// изменении; прошлые решения не запоминаются.
package guard

import (
	"log/slog"
	"sync"

	"github.com/PRECISEKY/food-admin-panel/internal/metrics"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/session"
)

// State: наблюдаемое состояние автомата.
type State int

const (
	Checking State = iota
	Denied
	Granted
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// Requirement описывает защищённый раздел.
type Requirement struct {
	Name      string
	Role      models.Role // пустая роль: достаточно сессии
	LoginPath string
}

// Стандартные требования консоли.
var (
	Admin = Requirement{Name: "admin", LoginPath: "/login"}

	Restaurant = Requirement{Name: "restaurant", Role: models.RoleRestaurant, LoginPath: "/restaurant/login"}
)

// Evaluate: чистая функция решения.
func Evaluate(s session.Snapshot, req Requirement) State {
	if s.Loading {
		return Checking
	}
	if !s.HasSession() {
		return Denied
	}
	if req.Role == "" {
		return Granted
	}
	if s.Profile == nil || s.Profile.Role != req.Role {
		return Denied
	}
	return Granted
}

// Guard хранит текущее состояние автомата для одного требования.
type Guard struct {
	req Requirement
	log *slog.Logger

	mu      sync.Mutex
	state   State
	version uint64
	seen    bool
}

// New создаёт автомат в состоянии Checking.
func New(req Requirement, log *slog.Logger) *Guard {
	return &Guard{
		req: req,
		log: log.With(slog.String("guard", req.Name)),
	}
}

// Requirement возвращает требование автомата.
func (g *Guard) Requirement() Requirement {
	return g.req
}

// State возвращает последнее вычисленное состояние.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Observe пересчитывает состояние по снимку. Снимки старше уже учтённого игнорируются.
func (g *Guard) Observe(s session.Snapshot) State {
	g.mu.Lock()
	if g.seen && s.Version < g.version {
		state := g.state
		g.mu.Unlock()
		return state
	}
	g.seen = true
	g.version = s.Version
	from := g.state
	g.state = Evaluate(s, g.req)
	to := g.state
	g.mu.Unlock()

	if from != to {
		g.log.Debug("guard transition", slog.String("from", from.String()), slog.String("to", to.String()))
		metrics.GuardTransitions.WithLabelValues(g.req.Name, from.String(), to.String()).Inc()
	}
	return to
}

// Watch подписывает автомат на изменения хранилища и сразу учитывает текущий снимок.
// Возвращает функцию отписки.
func (g *Guard) Watch(store *session.Store) func() {
	unsubscribe := store.Subscribe(func(s session.Snapshot) { g.Observe(s) })
	g.Observe(store.Snapshot())
	return unsubscribe
}
