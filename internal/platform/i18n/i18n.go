// Package i18n serves UI translation bundles for English and Kinyarwanda.
// Lookups use dotted paths into nested JSON; a missing path falls back to
// the literal key so the client never renders an empty string.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed locales/*.json
var localeFS embed.FS

// Supported language codes.
const (
	LangEnglish     = "en"
	LangKinyarwanda = "rw"
)

// Supported reports whether lang is a known language code.
func Supported(lang string) bool {
	return lang == LangEnglish || lang == LangKinyarwanda
}

// Bundle holds the parsed translation trees for all supported languages.
type Bundle struct {
	defaultLang string
	trees       map[string]map[string]interface{}
}

// NewBundle parses the embedded locale files. defaultLang is used when a
// request names no language or an unsupported one.
func NewBundle(defaultLang string) (*Bundle, error) {
	if !Supported(defaultLang) {
		return nil, fmt.Errorf("unsupported default language %q", defaultLang)
	}
	b := &Bundle{defaultLang: defaultLang, trees: make(map[string]map[string]interface{})}
	for _, lang := range []string{LangEnglish, LangKinyarwanda} {
		raw, err := localeFS.ReadFile("locales/" + lang + ".json")
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", lang, err)
		}
		var tree map[string]interface{}
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", lang, err)
		}
		b.trees[lang] = tree
	}
	return b, nil
}

// T resolves a dotted key ("patient.menu.dashboard") in lang. An unknown
// key, a non-leaf path, or an unconfigured language returns the key
// itself; language negotiation happens in Middleware, not here.
func (b *Bundle) T(lang, key string) string {
	tree, ok := b.trees[lang]
	if !ok {
		return key
	}

	var node interface{} = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]interface{})
		if !ok {
			return key
		}
		node, ok = m[part]
		if !ok {
			return key
		}
	}
	if s, ok := node.(string); ok {
		return s
	}
	return key
}

// Section returns the subtree under a dotted path, or nil when the path
// does not resolve to an object or lang is not configured. Used to ship
// whole menu blocks at once.
func (b *Bundle) Section(lang, path string) map[string]interface{} {
	tree, ok := b.trees[lang]
	if !ok {
		return nil
	}
	var node interface{} = tree
	if path != "" {
		for _, part := range strings.Split(path, ".") {
			m, ok := node.(map[string]interface{})
			if !ok {
				return nil
			}
			node, ok = m[part]
			if !ok {
				return nil
			}
		}
	}
	if m, ok := node.(map[string]interface{}); ok {
		return m
	}
	return nil
}

// All returns the full translation tree for lang.
func (b *Bundle) All(lang string) map[string]interface{} {
	if tree, ok := b.trees[lang]; ok {
		return tree
	}
	return b.trees[b.defaultLang]
}

type contextKey struct{}

var langKey = contextKey{}

// Middleware resolves the request language (lang query parameter, then
// Accept-Language, then the bundle default) and stores it on the echo
// context for handlers and translated error messages.
func (b *Bundle) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lang := c.QueryParam("lang")
			if !Supported(lang) {
				lang = primaryLanguage(c.Request().Header.Get("Accept-Language"))
			}
			if !Supported(lang) {
				lang = b.defaultLang
			}
			c.Set("lang", lang)
			return next(c)
		}
	}
}

// Lang returns the language resolved by Middleware, or "" outside it.
func Lang(c echo.Context) string {
	if s, ok := c.Get("lang").(string); ok {
		return s
	}
	return ""
}

// primaryLanguage extracts the first language tag from an Accept-Language
// header, ignoring quality weights and region subtags.
func primaryLanguage(header string) string {
	if header == "" {
		return ""
	}
	first := header
	if i := strings.IndexByte(first, ','); i >= 0 {
		first = first[:i]
	}
	if i := strings.IndexByte(first, ';'); i >= 0 {
		first = first[:i]
	}
	first = strings.TrimSpace(first)
	if i := strings.IndexByte(first, '-'); i >= 0 {
		first = first[:i]
	}
	return strings.ToLower(first)
}
