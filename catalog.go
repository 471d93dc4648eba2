package distinct

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

const (
	// KeyUniqueTaken is the catalog key for single-attribute conflicts.
	KeyUniqueTaken = "unique_taken"
	// KeyUniqueComboTaken is the catalog key for combined-attribute
	// conflicts.
	KeyUniqueComboTaken = "unique_combo_taken"
	// KeyValueInvalid is the catalog key for composite attribute values.
	KeyValueInvalid = "value_invalid"
)

// Catalog resolves message template keys to human-readable strings for a
// requested locale. Templates use `{name}` placeholders; the checker passes
// `{attribute}`, `{value}`, `{attributes}` and `{values}`.
type Catalog struct {
	mu       sync.RWMutex
	tags     []language.Tag
	messages map[language.Tag]map[string]string
	matcher  language.Matcher
}

// NewCatalog returns a catalog pre-registered with the built-in English
// messages.
func NewCatalog() *Catalog {
	c := &Catalog{
		messages: map[language.Tag]map[string]string{},
	}
	c.Register(language.English, KeyUniqueTaken,
		`{attribute} "{value}" has already been taken.`)
	c.Register(language.English, KeyUniqueComboTaken,
		`The combination of {attributes} ({values}) has already been taken.`)
	c.Register(language.English, KeyValueInvalid,
		`{attribute} is invalid.`)
	return c
}

// Register adds or replaces a message template for the provided locale and
// key.
func (c *Catalog) Register(
	tag language.Tag,
	key string,
	template string,
) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.messages == nil {
		c.messages = map[language.Tag]map[string]string{}
	}
	if _, ok := c.messages[tag]; !ok {
		c.messages[tag] = map[string]string{}
		c.tags = append(c.tags, tag)
		c.matcher = language.NewMatcher(c.tags)
	}
	c.messages[tag][key] = template
}

// Resolve returns the message for the provided locale and key with the
// params substituted. Locale resolution falls back through the registered
// locales; an unknown key resolves to the key itself.
func (c *Catalog) Resolve(
	locale language.Tag,
	key string,
	params map[string]string,
) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// A zero-value Catalog has no registered locale yet.
	template, ok := "", false
	if c.matcher != nil && len(c.tags) > 0 {
		_, index, _ := c.matcher.Match(locale)
		template, ok = c.messages[c.tags[index]][key]
	}
	if !ok {
		// Fall back to English before giving up on the key.
		template, ok = c.messages[language.English][key]
		if !ok {
			return key
		}
	}

	oldnew := make([]string, 0, 2*len(params))
	for name, value := range params {
		oldnew = append(oldnew, "{"+name+"}", value)
	}
	return strings.NewReplacer(oldnew...).Replace(template)
}

var defaultCatalog *Catalog
var defaultCatalogOnce sync.Once

// DefaultCatalog returns the process-wide default catalog.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = NewCatalog()
	})
	return defaultCatalog
}
