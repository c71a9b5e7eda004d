// Package handlertest: браузер для тестов обработчиков: хранит cookie клиента
// консоли между запросами.
package handlertest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PRECISEKY/food-admin-panel/internal/config"
	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/console/consoletest"
	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/session"
)

// Console: настройки клиентов консоли для тестов.
var Console = config.Console{
	CookieName:      "fap_client",
	GuardWait:       time.Second,
	LoginWait:       2 * time.Second,
	DefaultLanguage: "en",
}

// Browser отправляет запросы к обработчику, сохраняя cookie клиента.
type Browser struct {
	t        *testing.T
	reg      *console.Registry
	handler  http.Handler
	clientID string
}

// NewBrowser оборачивает h резолвером клиента консоли.
func NewBrowser(t *testing.T, reg *console.Registry, h http.Handler) *Browser {
	t.Helper()
	return &Browser{
		t:       t,
		reg:     reg,
		handler: middlewarectx.ClientResolver(reg, Console, consoletest.NoopLogger())(h),
	}
}

// Do выполняет запрос.
func (b *Browser) Do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.clientID != "" {
		req.AddCookie(&http.Cookie{Name: Console.CookieName, Value: b.clientID})
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == Console.CookieName {
			b.clientID = c.Value
		}
	}
	return rec
}

// Get выполняет GET.
func (b *Browser) Get(path string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

// PostForm отправляет форму.
func (b *Browser) PostForm(path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.Do(req)
}

// Client возвращает клиента консоли браузера, создавая его при необходимости.
func (b *Browser) Client() *console.Client {
	b.t.Helper()
	if b.clientID == "" {
		b.clientID = console.NewClientID()
	}
	c, err := b.reg.Get(context.Background(), b.clientID, "")
	require.NoError(b.t, err)
	return c
}

// SignIn входит напрямую через хранилище и ждёт, пока состояние устоится.
func (b *Browser) SignIn(email, password string) {
	b.t.Helper()
	c := b.Client()
	require.NoError(b.t, c.Store.SignIn(context.Background(), email, password))
	b.Settle(func(s session.Snapshot) bool { return s.HasSession() })
}

// Settle ждёт, пока хранилище устоится и выполнится ready.
func (b *Browser) Settle(ready func(session.Snapshot) bool) session.Snapshot {
	b.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := b.Client().Store.Await(ctx, func(s session.Snapshot) bool {
		return session.Settled(s) && ready(s)
	})
	require.NoError(b.t, err)
	return snap
}
