// Package labels serves the user-facing strings of the editor. Lookups fall
// back to English, then to the key itself.
package labels

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var locales = []string{"en", "ja"}

type Labels struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
	tags    []language.Tag
	keys    []string
}

func New() (*Labels, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, name := range locales {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name+".json"); err != nil {
			return nil, fmt.Errorf("load %s labels: %w", name, err)
		}
	}

	raw, err := localeFS.ReadFile("locales/en.json")
	if err != nil {
		return nil, err
	}
	var en map[string]string
	if err := json.Unmarshal(raw, &en); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(en))
	for k := range en {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := bundle.LanguageTags()
	return &Labels{
		bundle:  bundle,
		matcher: language.NewMatcher(tags),
		tags:    tags,
		keys:    keys,
	}, nil
}

// Resolve maps a requested language (a tag or an Accept-Language value) onto
// a supported one.
func (l *Labels) Resolve(lang string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return l.tags[idx]
}

func (l *Labels) Lookup(lang, key string) string {
	localizer := i18n.NewLocalizer(l.bundle, l.Resolve(lang).String(), language.English.String())
	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil || msg == "" {
		return key
	}
	return msg
}

// Table returns every label for lang, keyed like the English file.
func (l *Labels) Table(lang string) (language.Tag, map[string]string) {
	tag := l.Resolve(lang)
	table := make(map[string]string, len(l.keys))
	for _, k := range l.keys {
		table[k] = l.Lookup(tag.String(), k)
	}
	return tag, table
}

func (l *Labels) Languages() []string {
	out := make([]string, len(l.tags))
	for i, t := range l.tags {
		out[i] = t.String()
	}
	return out
}
