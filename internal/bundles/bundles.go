// Package bundles loads the translation key bundles merged into locale files.
//
// A bundle document has the shape {"<locale>": {"<key>": "<value>"}}. The
// bundles shipped with the binary live in data/ and are addressed by file
// name without the extension.
package bundles

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"

	"github.com/dysgraphia-support/langsync/internal/locale"
)

//go:embed data/*.json
var embedded embed.FS

const dataDir = "data"

// Bundle maps locale identifiers to ordered entries.
type Bundle struct {
	Name    string
	entries map[string][]locale.Entry
	order   []string
}

// EntriesFor implements locale.EntrySource.
func (bundle *Bundle) EntriesFor(code string) ([]locale.Entry, bool) {
	entries, ok := bundle.entries[code]
	return entries, ok
}

// Locales returns the locale identifiers in document order.
func (bundle *Bundle) Locales() []string {
	return append([]string(nil), bundle.order...)
}

// KeyCount is the number of distinct keys across all locales.
func (bundle *Bundle) KeyCount() int {
	seen := make(map[string]struct{})
	for _, entries := range bundle.entries {
		for _, entry := range entries {
			seen[entry.Key] = struct{}{}
		}
	}
	return len(seen)
}

type UnknownBundleError struct {
	Name string
}

func (e *UnknownBundleError) Error() string {
	return fmt.Sprintf("unknown bundle %q (available: %s)", e.Name, strings.Join(Names(), ", "))
}

func (e *UnknownBundleError) Is(target error) bool {
	_, ok := target.(*UnknownBundleError)
	return ok
}

// InvalidBundleError means a bundle document does not have the expected shape.
type InvalidBundleError struct {
	Name string
	Err  error
}

func (e *InvalidBundleError) Error() string {
	return fmt.Sprintf("invalid bundle %s: %v", e.Name, e.Err)
}

func (e *InvalidBundleError) Unwrap() error {
	return e.Err
}

// Names lists the embedded bundles, sorted.
func Names() []string {
	files, err := embedded.ReadDir(dataDir)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDir() || path.Ext(file.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(file.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// Load returns the embedded bundle called name.
func Load(name string) (*Bundle, error) {
	data, err := embedded.ReadFile(path.Join(dataDir, name+".json"))
	if err != nil {
		return nil, &UnknownBundleError{Name: name}
	}
	return Parse(name, data)
}

// LoadFile reads a bundle document from the filesystem. The bundle is
// named after the file.
func LoadFile(fs afero.Fs, filePath string) (*Bundle, error) {
	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read bundle file %s", filePath)
	}
	return Parse(filePath, data)
}

// Parse decodes a bundle document. Locale identifiers must be BCP 47 tags,
// keys must be non-empty and values must be strings.
func Parse(name string, data []byte) (*Bundle, error) {
	if !gjson.ValidBytes(data) {
		return nil, &InvalidBundleError{Name: name, Err: errors.New("not valid JSON")}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &InvalidBundleError{Name: name, Err: errors.New("top-level value is not a JSON object")}
	}

	bundle := &Bundle{Name: name, entries: make(map[string][]locale.Entry)}
	var parseErr error
	root.ForEach(func(key, value gjson.Result) bool {
		code := key.String()
		entries, err := parseLocale(code, value)
		if err != nil {
			parseErr = err
			return false
		}
		if _, seen := bundle.entries[code]; !seen {
			bundle.order = append(bundle.order, code)
		}
		bundle.entries[code] = entries
		return true
	})
	if parseErr != nil {
		return nil, &InvalidBundleError{Name: name, Err: parseErr}
	}

	return bundle, nil
}

func parseLocale(code string, value gjson.Result) ([]locale.Entry, error) {
	if _, err := language.Parse(code); err != nil {
		return nil, errors.Wrapf(err, "locale %q", code)
	}
	if !value.IsObject() {
		return nil, fmt.Errorf("locale %q: entries must be a JSON object", code)
	}

	index := make(map[string]int)
	entries := make([]locale.Entry, 0)
	var entryErr error
	value.ForEach(func(key, item gjson.Result) bool {
		if key.String() == "" {
			entryErr = fmt.Errorf("locale %q: empty key", code)
			return false
		}
		if item.Type != gjson.String {
			entryErr = fmt.Errorf("locale %q: value of %q is not a string", code, key.String())
			return false
		}

		entry := locale.Entry{Key: key.String(), Value: item.String()}
		if position, seen := index[entry.Key]; seen {
			entries[position] = entry
			return true
		}
		index[entry.Key] = len(entries)
		entries = append(entries, entry)
		return true
	})
	if entryErr != nil {
		return nil, entryErr
	}

	return entries, nil
}
