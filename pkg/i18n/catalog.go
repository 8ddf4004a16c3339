// Package i18n provides the translation lookup consumed by the template
// engine's "t" filter: flat YAML message catalogs, one file per locale,
// matched with golang.org/x/text language matching.
package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/vellumhq/vellum/pkg/filters"
)

// Translator looks up a message by key for a locale. The second result
// reports whether the key exists in the matched catalog.
type Translator interface {
	Translate(key, locale string) (string, bool)
}

// Catalog is a YAML-backed Translator. A catalog directory holds one
// <locale>.yaml per language, each a flat map of key to message:
//
//	greeting: "Guten Tag"
//	nav.home: "Startseite"
type Catalog struct {
	tags     []language.Tag
	matcher  language.Matcher
	messages map[language.Tag]map[string]string
}

// LoadCatalog reads every *.yaml file in dir. At least one catalog file
// is required; the first tag (alphabetical file order) is the matcher's
// fallback.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading catalog dir %q: %w", dir, err)
	}
	c := &Catalog{messages: map[language.Tag]map[string]string{}}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		locale := strings.TrimSuffix(name, ".yaml")
		tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
		if err != nil {
			return nil, fmt.Errorf("catalog file %q: bad locale: %w", name, err)
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		msgs := map[string]string{}
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("catalog file %q: %w", name, err)
		}
		c.tags = append(c.tags, tag)
		c.messages[tag] = msgs
	}
	if len(c.tags) == 0 {
		return nil, fmt.Errorf("no *.yaml catalogs in %q", dir)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

func (c *Catalog) Translate(key, locale string) (string, bool) {
	_, index := language.MatchStrings(c.matcher, strings.ReplaceAll(locale, "_", "-"))
	msg, ok := c.messages[c.tags[index]][key]
	return msg, ok
}

// Filter adapts a Translator into a template filter. The incoming value
// is the message key; an optional argument overrides the default locale.
// Missing keys pass the key through unchanged so untranslated templates
// stay legible.
func Filter(tr Translator, defaultLocale string) filters.Func {
	return func(value any, args []string) (any, error) {
		key := fmt.Sprintf("%v", value)
		if value == nil {
			return "", nil
		}
		locale := defaultLocale
		if len(args) > 0 && args[0] != "" {
			locale = args[0]
		}
		if msg, ok := tr.Translate(key, locale); ok {
			return msg, nil
		}
		return key, nil
	}
}
