// Package i18n provides locale-aware printers for CLI output.
package i18n

import (
	"context"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLang is the fallback language
var DefaultLang = language.English

// SupportedLangs are the languages we support
var SupportedLangs = []language.Tag{
	language.English,
	language.German,
}

var matcher = language.NewMatcher(SupportedLangs)

type contextKey struct{}

// printerKey is the key used to store the printer in the context
var printerKey = contextKey{}

// MatchLanguage returns the best matching language for an Accept-Language
// style list of tags.
func MatchLanguage(acceptLang string) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(acceptLang)
	tag, _, _ := matcher.Match(tags...)
	return tag
}

// NewPrinter returns a message printer for the given language
func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// WithPrinter returns a new context with the printer injected
func WithPrinter(ctx context.Context, p *message.Printer) context.Context {
	return context.WithValue(ctx, printerKey, p)
}

// GetPrinter returns the printer from the context, or a default one
func GetPrinter(ctx context.Context) *message.Printer {
	if ctx == nil {
		return message.NewPrinter(DefaultLang)
	}
	p, ok := ctx.Value(printerKey).(*message.Printer)
	if !ok {
		return message.NewPrinter(DefaultLang)
	}
	return p
}

// LocaleFromEnv returns the POSIX locale from LC_ALL, LC_MESSAGES or LANG,
// without the encoding suffix.
func LocaleFromEnv() string {
	var lang string
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if lang = os.Getenv(key); lang != "" {
			break
		}
	}
	// Strip encoding (e.g. .UTF-8) and modifier (e.g. @euro)
	if i := strings.IndexAny(lang, ".@"); i != -1 {
		lang = lang[:i]
	}
	if lang == "C" || lang == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(lang, "_", "-")
}

// NewCLIPrinter returns a printer for the system's locale (from env vars)
func NewCLIPrinter() *message.Printer {
	lang := LocaleFromEnv()
	if lang == "" {
		return message.NewPrinter(DefaultLang)
	}

	tag, err := language.Parse(lang)
	if err != nil {
		// Try matching against our supported list
		tag = MatchLanguage(lang)
	} else {
		// Map "de-DE" to the supported "de" so catalog lookups hit.
		_, idx, _ := matcher.Match(tag)
		tag = SupportedLangs[idx]
	}

	return message.NewPrinter(tag)
}
