// Package i18n holds the message catalogs and language negotiation.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"spinwheel/internal/wheel"
)

// LangParam selects a language on any page.
const LangParam = "lang"

var (
	supported = []language.Tag{language.English, language.Italian}
	matcher   = language.NewMatcher(supported)
)

// Supported returns the languages with a catalog.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Default is English.
func Default() language.Tag {
	return language.English
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Match returns the best supported tag for a language code such as "it".
func Match(value string) language.Tag {
	value = strings.TrimSpace(value)
	if value == "" {
		return Default()
	}
	tag, err := language.Parse(value)
	if err != nil {
		return Default()
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Default()
	}
	return supported[idx]
}

// ResolveTag picks the request language from ?lang, then Accept-Language,
// then fallback.
func ResolveTag(r *http.Request, fallback string) language.Tag {
	if r != nil {
		if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
			return Match(v)
		}
		if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
			if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
				_, idx, conf := matcher.Match(tags...)
				if conf != language.No {
					return supported[idx]
				}
			}
		}
	}
	return Match(fallback)
}

// ResultMessage is the text shown when a spin settles.
func ResultMessage(p *message.Printer, o wheel.Outcome) string {
	return p.Sprintf("result.won", o.Sector.Label)
}

// Base returns the two-letter code of tag.
func Base(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
