// Package router maps a language code to its index, prompts and validation
// rules from a table fixed at construction.
package router

import (
	"fmt"
	"strings"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/prompt"
	"github.com/Ayutada/bluesky-analyzer/internal/vectorstore"
)

// Route is everything language-specific a request needs. Index is nil when
// the language's index could not be loaded or built.
type Route struct {
	Language domain.Language
	Index    vectorstore.Searcher
	Prompts  prompt.Set
	Rules    domain.ValidationRules
}

// Config is the static routing table.
type Config struct {
	Supported []domain.Language
	// Default falls back to the first supported language when empty.
	Default domain.Language
	Prompts map[domain.Language]prompt.Set
	Rules   domain.ValidationRules
	Indexes map[domain.Language]vectorstore.Searcher
}

// Router is immutable and safe for concurrent use.
type Router struct {
	routes    map[domain.Language]Route
	languages []domain.Language
	def       domain.Language
}

// New validates the table. Every supported language needs a prompt set, and an
// index, when present, must belong to its language.
func New(cfg Config) (*Router, error) {
	if len(cfg.Supported) == 0 {
		return nil, fmt.Errorf("%w: no supported languages", domain.ErrInvalidConfig)
	}
	r := &Router{routes: make(map[domain.Language]Route, len(cfg.Supported))}
	for _, lang := range cfg.Supported {
		lang = normalize(string(lang))
		if _, dup := r.routes[lang]; dup {
			return nil, fmt.Errorf("%w: duplicate language %q", domain.ErrInvalidConfig, lang)
		}
		set, ok := cfg.Prompts[lang]
		if !ok {
			return nil, fmt.Errorf("%w: no prompt templates for language %q", domain.ErrInvalidConfig, lang)
		}
		ix := cfg.Indexes[lang]
		if ix != nil && ix.Language() != lang {
			return nil, fmt.Errorf("%w: index for %q holds %q chunks", domain.ErrLanguageMismatch, lang, ix.Language())
		}
		r.routes[lang] = Route{Language: lang, Index: ix, Prompts: set, Rules: cfg.Rules}
		r.languages = append(r.languages, lang)
	}

	r.def = r.languages[0]
	if cfg.Default != "" {
		def := normalize(string(cfg.Default))
		if _, ok := r.routes[def]; !ok {
			return nil, fmt.Errorf("%w: default language %q is not supported", domain.ErrInvalidConfig, def)
		}
		r.def = def
	}
	return r, nil
}

// Route returns the entry for code or *domain.UnsupportedLanguageError.
func (r *Router) Route(code string) (Route, error) {
	rt, ok := r.routes[normalize(code)]
	if !ok {
		return Route{}, &domain.UnsupportedLanguageError{Code: code}
	}
	return rt, nil
}

// Default returns the fallback route.
func (r *Router) Default() Route {
	return r.routes[r.def]
}

// RouteOrDefault routes code, substituting the default language when code is
// unsupported. fellBack reports whether the substitution happened.
func (r *Router) RouteOrDefault(code string) (rt Route, fellBack bool) {
	rt, err := r.Route(code)
	if err != nil {
		return r.Default(), true
	}
	return rt, false
}

// Languages lists supported languages in configuration order.
func (r *Router) Languages() []domain.Language {
	return append([]domain.Language(nil), r.languages...)
}

// Next returns the supported language after lang, wrapping around.
func (r *Router) Next(lang domain.Language) domain.Language {
	for i, l := range r.languages {
		if l == lang {
			return r.languages[(i+1)%len(r.languages)]
		}
	}
	return r.def
}

func normalize(code string) domain.Language {
	return domain.Language(strings.ToLower(strings.TrimSpace(code)))
}
