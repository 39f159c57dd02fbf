// Package i18n handles localized user-facing strings.
//
// Messages live in lang/<locale>.json and use MessageFormat placeholders
// such as {file} or {count, plural, one {...} other {...}}. The user's
// locale comes from LANGSYNC_LANG, then LANG, then the operating system.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goLocale "github.com/jeandeaual/go-locale"
	i18nLib "github.com/kaptinlin/go-i18n"
	"golang.org/x/text/language"

	"github.com/dysgraphia-support/langsync/internal/environment"
)

type LocaleProvider interface {
	GetLocales() ([]string, error)
}

type DefaultLocaleProvider struct{}

func (provider DefaultLocaleProvider) GetLocales() ([]string, error) {
	return goLocale.GetLocales()
}

//go:embed lang/*.json
var langFS embed.FS

const defaultLocale = "en-GB"

type translator struct {
	bundle    *i18nLib.I18n
	localizer *i18nLib.Localizer
}

var (
	messages       = langFS
	langDir        = "lang"
	localeProvider LocaleProvider = DefaultLocaleProvider{}

	setupOnce sync.Once
	active    *translator

	// getMu serializes Localizer.Get, whose internal cache is not safe for
	// concurrent use.
	getMu sync.Mutex
)

type TData map[string]interface{}

type Tvars struct {
	Count int
	Data  *TData
}

// With is shorthand for Tvars carrying only data.
func With(data TData) Tvars {
	return Tvars{Data: &data}
}

func ResetForTesting() {
	getMu.Lock()
	active = nil
	getMu.Unlock()
	setupOnce = sync.Once{}
}

func ensureInitialized() *translator {
	setupOnce.Do(func() {
		loaded := load()
		getMu.Lock()
		active = loaded
		getMu.Unlock()
	})

	getMu.Lock()
	defer getMu.Unlock()
	return active
}

func load() *translator {
	bundle := newBundle(messages, langDir)
	return &translator{
		bundle:    bundle,
		localizer: bundle.NewLocalizer(buildLocalizerLocales(getUserLocales())...),
	}
}

// newBundle loads every locale file of dir. The default locale is always
// listed first so it wins as the fallback.
func newBundle(files embed.FS, dir string) *i18nLib.I18n {
	entries, err := files.ReadDir(dir)
	if err != nil {
		panic(err)
	}

	availableLocales := []string{defaultLocale}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if strings.EqualFold(name, defaultLocale) {
			continue
		}
		availableLocales = append(availableLocales, name)
	}

	bundle := i18nLib.NewBundle(
		i18nLib.WithDefaultLocale(defaultLocale),
		i18nLib.WithLocales(availableLocales...),
	)
	if err := bundle.LoadFS(files, fmt.Sprintf("%s/*.json", dir)); err != nil {
		panic(err)
	}
	return bundle
}

// T translates key. Under LANGSYNC_TEST it returns the key and arguments
// verbatim so tests do not depend on message wording.
func T(key string, args ...Tvars) string {
	if environment.IsTest() {
		return formatKeyAndArgs(key, args...)
	}

	if len(args) > 1 {
		panic("Too many arguments")
	}

	current := ensureInitialized()

	var vars i18nLib.Vars
	if len(args) > 0 {
		vars = make(i18nLib.Vars)
		if args[0].Data != nil {
			for varKey, value := range *args[0].Data {
				vars[varKey] = value
			}
		}
		vars["count"] = args[0].Count
	}

	getMu.Lock()
	defer getMu.Unlock()

	if vars == nil {
		return current.localizer.Get(key)
	}
	return current.localizer.Get(key, vars)
}

func getUserLocales() []string {
	for _, variable := range []string{"LANGSYNC_LANG", "LANG"} {
		if value, present := os.LookupEnv(variable); present && strings.TrimSpace(value) != "" {
			return []string{value}
		}
	}

	detectedLocales, err := localeProvider.GetLocales()
	if err != nil {
		return []string{language.English.String()}
	}

	locales := make([]string, 0, len(detectedLocales))
	for _, localeName := range detectedLocales {
		if localeName == "" {
			continue
		}
		locales = append(locales, localeName)
	}
	return locales
}

func formatKeyAndArgs(key string, args ...Tvars) string {
	var sb strings.Builder
	sb.WriteString(key)

	for i, arg := range args {
		sb.WriteString(fmt.Sprintf(", Arg %d: {Count: %d, Data: %v}", i+1, arg.Count, arg.Data))
	}

	return sb.String()
}

// buildLocalizerLocales turns POSIX-style names such as fr_FR.UTF-8 into
// BCP 47 tags, each followed by its base language.
func buildLocalizerLocales(rawLocales []string) []string {
	locales := make([]string, 0, len(rawLocales)*2)
	seen := make(map[string]struct{}, len(rawLocales)*2)

	add := func(tag string) {
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		locales = append(locales, tag)
	}

	for _, localeName := range rawLocales {
		localeName = strings.TrimSpace(localeName)
		if localeName == "" {
			continue
		}
		if dot := strings.IndexAny(localeName, ".@"); dot >= 0 {
			localeName = localeName[:dot]
		}

		tag, err := language.Parse(localeName)
		if err != nil {
			continue
		}

		add(tag.String())
		if base, _ := tag.Base(); base.String() != "" {
			add(base.String())
		}
	}

	return locales
}
