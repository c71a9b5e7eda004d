// Package locale хранит активный язык консоли и направление текста.
package locale

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/language"
)

// ErrUnsupportedLanguage: код языка не поддерживается.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language: код языка интерфейса.
type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"
)

// Direction: направление текста документа.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// Direction возвращает направление текста для языка.
func (l Language) Direction() Direction {
	if l == Arabic {
		return RTL
	}
	return LTR
}

// Tag возвращает тег BCP 47.
func (l Language) Tag() language.Tag {
	if l == Arabic {
		return language.Arabic
	}
	return language.English
}

// Parse проверяет код языка.
func Parse(code string) (Language, error) {
	switch Language(code) {
	case English, Arabic:
		return Language(code), nil
	default:
		return "", fmt.Errorf("locale.Parse: %q: %w", code, ErrUnsupportedLanguage)
	}
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Arabic})

// Negotiate выбирает язык по заголовку Accept-Language. Если ни один язык не подходит,
// возвращает fallback.
func Negotiate(acceptLanguage string, fallback Language) Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	if idx == 1 {
		return Arabic
	}
	return English
}

// Document принимает атрибуты уровня документа.
type Document interface {
	Set(lang, dir string)
}

// Attributes: атрибуты корневого элемента <html lang dir>.
type Attributes struct {
	mu   sync.RWMutex
	lang string
	dir  string
}

// Set выставляет lang и dir одной операцией: читатель не увидит lang одного
// языка вместе с dir другого.
func (a *Attributes) Set(lang, dir string) {
	a.mu.Lock()
	a.lang = lang
	a.dir = dir
	a.mu.Unlock()
}

// Snapshot возвращает согласованную пару lang и dir.
func (a *Attributes) Snapshot() (lang, dir string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lang, a.dir
}

// Lang возвращает атрибут lang.
func (a *Attributes) Lang() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lang
}

// Dir возвращает атрибут dir.
func (a *Attributes) Dir() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dir
}

// Provider: активный язык клиента консоли.
type Provider struct {
	doc Document

	mu   sync.RWMutex
	lang Language
}

// NewProvider создаёт провайдер и сразу выставляет атрибуты документа.
func NewProvider(initial Language, doc Document) *Provider {
	if _, err := Parse(string(initial)); err != nil {
		initial = English
	}
	p := &Provider{doc: doc, lang: initial}
	p.apply(initial)
	return p
}

// SetLanguage меняет язык и передаёт lang и dir документу. Повторный вызов
// с тем же кодом ничего не меняет.
func (p *Provider) SetLanguage(code string) error {
	lang, err := Parse(code)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lang = lang
	p.apply(lang)
	return nil
}

func (p *Provider) apply(lang Language) {
	if p.doc == nil {
		return
	}
	p.doc.Set(string(lang), string(lang.Direction()))
}

// Language возвращает активный язык.
func (p *Provider) Language() Language {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lang
}

// Direction возвращает направление текста активного языка.
func (p *Provider) Direction() Direction {
	return p.Language().Direction()
}
