// Package views отрисовывает HTML-страницы консоли из встроенных шаблонов.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/locale"
	"github.com/PRECISEKY/food-admin-panel/internal/menu"
)

//go:embed templates/*.html
var files embed.FS

// Имена страниц.
const (
	Login               = "login"
	Checking            = "checking"
	Dashboard           = "dashboard"
	RestaurantDashboard = "restaurant_dashboard"
	Menu                = "menu"
)

// Page: общие данные страницы.
type Page struct {
	Lang     string
	Dir      string
	Language locale.Language
	Title    string
	Path     string
	User     string
	Notices  []console.Notice
	Data     any
}

// T переводит строку на язык страницы.
func (p Page) T(key string, args ...any) string {
	return locale.T(p.Language, key, args...)
}

// NewPage заполняет общие поля из состояния клиента и забирает его уведомления.
func NewPage(c *console.Client, r *http.Request, title string, data any) Page {
	lang, dir := c.Document.Snapshot()
	p := Page{
		Lang:     lang,
		Dir:      dir,
		Language: c.Locale.Language(),
		Title:    title,
		Path:     r.URL.Path,
		Notices:  c.TakeNotices(),
		Data:     data,
	}
	if snap := c.Store.Snapshot(); snap.User != nil {
		p.User = snap.User.Email
	}
	return p
}

// LoginForm: данные формы входа.
type LoginForm struct {
	Action string
	Email  string
	Error  string
}

// MenuData: данные страницы меню.
type MenuData struct {
	Query      string
	Items      []menu.Item
	Categories []menu.Category
	Counts     map[string]int
}

// Renderer хранит разобранные шаблоны.
type Renderer struct {
	pages map[string]*template.Template
}

// New разбирает встроенные шаблоны.
func New() (*Renderer, error) {
	const op = "views.New"

	layout, err := template.ParseFS(files, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{Login, Checking, Dashboard, RestaurantDashboard, Menu} {
		base, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t, err := base.ParseFS(files, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// MustNew: New, паникующий при ошибке. Шаблоны встроены, поэтому ошибка означает ошибку сборки.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Render пишет страницу name с кодом status.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("views.Render: unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("views.Render: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
