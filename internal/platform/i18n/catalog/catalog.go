// Package catalog loads translated message catalogs and formats them with
// golang.org/x/text/message.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	textcatalog "golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

const (
	// BaseLocale is the canonical source locale for catalogs.
	BaseLocale = "en-US"
)

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// LocaleCatalog stores all messages for one locale, grouped by namespace.
type LocaleCatalog struct {
	Locale     string
	Namespaces map[string]map[string]string
	Messages   map[string]string
}

// Bundle contains all locale catalogs loaded from disk.
type Bundle struct {
	locales map[string]*LocaleCatalog
	builder *textcatalog.Builder
}

//go:embed locales/*/*.yaml
var embeddedCatalogFS embed.FS

// LoadEmbedded loads catalog files embedded in this package.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedCatalogFS)
}

// LoadFromFS loads locales/<locale>/<namespace>.yaml files from catalogFS.
func LoadFromFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	bundle := &Bundle{locales: map[string]*LocaleCatalog{}}
	for _, p := range paths {
		data, err := fs.ReadFile(catalogFS, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var parsed catalogFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := bundle.addFile(p, parsed); err != nil {
			return nil, err
		}
	}
	if !bundle.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	if err := bundle.build(); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (b *Bundle) addFile(p string, file catalogFile) error {
	localeFromPath := path.Base(path.Dir(p))
	namespaceFromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))

	locale := strings.TrimSpace(file.Locale)
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", p)
	}
	if locale != localeFromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", p, locale, localeFromPath)
	}
	namespace := strings.TrimSpace(file.Namespace)
	if namespace == "" {
		return fmt.Errorf("catalog %s: namespace is required", p)
	}
	if namespace != namespaceFromPath {
		return fmt.Errorf("catalog %s: namespace %q must match filename namespace %q", p, namespace, namespaceFromPath)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages map is required", p)
	}

	localeCatalog, ok := b.locales[locale]
	if !ok {
		localeCatalog = &LocaleCatalog{
			Locale:     locale,
			Namespaces: map[string]map[string]string{},
			Messages:   map[string]string{},
		}
		b.locales[locale] = localeCatalog
	}
	if _, exists := localeCatalog.Namespaces[namespace]; exists {
		return fmt.Errorf("catalog %s: namespace %q already defined for locale %q", p, namespace, locale)
	}

	namespaceMessages := make(map[string]string, len(file.Messages))
	for key, value := range file.Messages {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		if !strings.HasPrefix(trimmedKey, namespace+".") {
			return fmt.Errorf("catalog %s: key %q must start with %q", p, trimmedKey, namespace+".")
		}
		if _, exists := localeCatalog.Messages[trimmedKey]; exists {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", p, trimmedKey, locale)
		}
		localeCatalog.Messages[trimmedKey] = value
		namespaceMessages[trimmedKey] = value
	}
	localeCatalog.Namespaces[namespace] = namespaceMessages
	return nil
}

// build registers every message with a bundle-local x/text catalog, under
// the full tag and its base language.
func (b *Bundle) build() error {
	base, err := language.Parse(BaseLocale)
	if err != nil {
		return fmt.Errorf("parse base locale: %w", err)
	}
	builder := textcatalog.NewBuilder(textcatalog.Fallback(base))
	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		tags := []language.Tag{tag}
		if lang, _ := tag.Base(); lang.String() != "" && lang.String() != "und" {
			baseTag, err := language.Parse(lang.String())
			if err == nil && baseTag.String() != tag.String() {
				tags = append(tags, baseTag)
			}
		}
		messages := b.locales[locale].Messages
		keys := make([]string, 0, len(messages))
		for key := range messages {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			for _, registerTag := range tags {
				if err := builder.SetString(registerTag, key, messages[key]); err != nil {
					return fmt.Errorf("register %s for %s: %w", key, locale, err)
				}
			}
		}
	}
	b.builder = builder
	return nil
}

// Printer returns a printer that formats this bundle's messages for locale.
func (b *Bundle) Printer(locale string) *message.Printer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.MustParse(BaseLocale)
	}
	if b == nil || b.builder == nil {
		return message.NewPrinter(tag)
	}
	return message.NewPrinter(tag, message.Catalog(b.builder))
}

// Sprintf formats key for locale, falling back to the base locale and then
// to fallback when neither defines the key.
func (b *Bundle) Sprintf(locale, key, fallback string, args ...any) string {
	locale = strings.TrimSpace(locale)
	switch {
	case b.hasMessage(locale, key):
		return b.Printer(locale).Sprintf(key, args...)
	case b.hasMessage(BaseLocale, key):
		return b.Printer(BaseLocale).Sprintf(key, args...)
	default:
		return fmt.Sprintf(fallback, args...)
	}
}

// Text returns the translated message for key without formatting, falling
// back to the base locale and then to fallback verbatim.
func (b *Bundle) Text(locale, key, fallback string) string {
	if msg, ok := b.Message(locale, key); ok {
		return msg
	}
	return fallback
}

func (b *Bundle) hasMessage(locale, key string) bool {
	if b == nil {
		return false
	}
	catalog, ok := b.locales[locale]
	if !ok || catalog == nil {
		return false
	}
	_, ok = catalog.Messages[key]
	return ok
}

// HasLocale reports whether the locale exists in this bundle.
func (b *Bundle) HasLocale(locale string) bool {
	if b == nil {
		return false
	}
	_, ok := b.locales[strings.TrimSpace(locale)]
	return ok
}

// Locales returns all available locale identifiers.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.locales))
	for locale := range b.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Message returns one raw message value with base-locale fallback.
func (b *Bundle) Message(locale string, key string) (string, bool) {
	if b == nil {
		return "", false
	}
	trimmedLocale := strings.TrimSpace(locale)
	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", false
	}
	if catalog, ok := b.locales[trimmedLocale]; ok && catalog != nil {
		if value, exists := catalog.Messages[trimmedKey]; exists {
			return value, true
		}
	}
	if trimmedLocale != BaseLocale {
		if catalog, ok := b.locales[BaseLocale]; ok && catalog != nil {
			value, exists := catalog.Messages[trimmedKey]
			return value, exists
		}
	}
	return "", false
}

// NamespaceMessages returns a copy of one namespace's messages for a locale.
func (b *Bundle) NamespaceMessages(locale string, namespace string) map[string]string {
	if b == nil {
		return map[string]string{}
	}
	catalog, ok := b.locales[strings.TrimSpace(locale)]
	if !ok || catalog == nil {
		return map[string]string{}
	}
	messages := catalog.Namespaces[strings.TrimSpace(namespace)]
	out := make(map[string]string, len(messages))
	for key, value := range messages {
		out[key] = value
	}
	return out
}

// Missing lists base-locale keys in namespace that locale does not translate.
func (b *Bundle) Missing(locale, namespace string) []string {
	base := b.NamespaceMessages(BaseLocale, namespace)
	translated := b.NamespaceMessages(locale, namespace)
	var out []string
	for key := range base {
		if _, ok := translated[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
