// Package i18n renders alert and advisory texts in the user's language.
//
// The catalog is a two-level table, language then key. Lookups fall back to
// English and finally to the key itself, so callers always get a non-empty
// string. New languages are added as rows in locales.yaml.
package i18n

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when the user has no preference and as the
// fallback row for missing keys.
const DefaultLanguage = "en"

//go:embed locales.yaml
var defaultLocales []byte

// RenderedMessage is the localized title/body pair of a push notification.
type RenderedMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Catalog is an immutable language -> key -> text table.
type Catalog struct {
	rows map[string]map[string]string
}

// New builds a catalog from an in-memory table. The table is copied.
func New(rows map[string]map[string]string) *Catalog {
	c := &Catalog{rows: make(map[string]map[string]string, len(rows))}
	for lang, keys := range rows {
		row := make(map[string]string, len(keys))
		for k, v := range keys {
			row[k] = v
		}
		c.rows[lang] = row
	}
	return c
}

// Parse builds a catalog from a YAML document shaped like locales.yaml.
func Parse(data []byte) (*Catalog, error) {
	var rows map[string]map[string]string
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse locales: %w", err)
	}
	if _, ok := rows[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("parse locales: missing %q row", DefaultLanguage)
	}
	return New(rows), nil
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Parse(defaultLocales)
	if err != nil {
		panic(err)
	}
	return c
}

// Languages lists the language codes present in the catalog.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.rows))
	for lang := range c.rows {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Text resolves key for lang, then for English, then returns key verbatim.
func (c *Catalog) Text(lang, key string) string {
	if v := c.rows[lang][key]; v != "" {
		return v
	}
	if v := c.rows[DefaultLanguage][key]; v != "" {
		return v
	}
	return key
}

// Render returns the notification texts for an alert category.
// An empty lang means DefaultLanguage.
func (c *Catalog) Render(category, lang string) RenderedMessage {
	if lang == "" {
		lang = DefaultLanguage
	}
	return RenderedMessage{
		Title: c.Text(lang, "title_"+category),
		Body:  c.Text(lang, "body_"+category),
	}
}
