// Package locale reads, merges and writes flat JSON translation files.
//
// A locale file is a single JSON object mapping dotted keys such as
// "doctors.page_title" to display strings. Key order is kept as found in
// the file; keys added by a merge are appended in the order supplied.
package locale

import (
	"bytes"
	"sort"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Entry is one translation key and its value.
type Entry struct {
	Key   string
	Value string
}

type catalogValue struct {
	text string
	// raw holds the source text of values that are not strings. Those are
	// written back byte for byte.
	raw []byte
}

func (value catalogValue) isString() bool {
	return value.raw == nil
}

// Catalog is an insertion-ordered key/value mapping.
type Catalog struct {
	keys   []string
	values map[string]catalogValue
}

// MergeStats counts what a merge did to a catalog.
type MergeStats struct {
	Added       int
	Overwritten int
	SkippedKeys []string
}

var (
	errInvalidJSON = errors.New("not valid JSON")
	errInvalidUTF8 = errors.New("not valid UTF-8")
	errNotObject   = errors.New("top-level value is not a JSON object")
)

func NewCatalog() *Catalog {
	return &Catalog{
		keys:   make([]string, 0),
		values: make(map[string]catalogValue),
	}
}

// ParseCatalog decodes a JSON object. A repeated key keeps its first
// position and its last value. Invalid UTF-8 is rejected rather than
// replaced, so a rewrite never alters keys it was not asked to touch.
func ParseCatalog(data []byte) (*Catalog, error) {
	if !utf8.Valid(data) {
		return nil, errInvalidUTF8
	}
	if !gjson.ValidBytes(data) {
		return nil, errInvalidJSON
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errNotObject
	}

	catalog := NewCatalog()
	root.ForEach(func(key, value gjson.Result) bool {
		catalog.put(key.String(), catalogValueFrom(value))
		return true
	})

	return catalog, nil
}

func catalogValueFrom(value gjson.Result) catalogValue {
	if value.Type == gjson.String {
		return catalogValue{text: value.String()}
	}
	return catalogValue{raw: []byte(strings.TrimSpace(value.Raw))}
}

func (catalog *Catalog) put(key string, value catalogValue) bool {
	_, existed := catalog.values[key]
	if !existed {
		catalog.keys = append(catalog.keys, key)
	}
	catalog.values[key] = value
	return existed
}

// Set inserts or overwrites key and reports whether it already existed.
func (catalog *Catalog) Set(key string, value string) bool {
	return catalog.put(key, catalogValue{text: value})
}

// Get returns the string stored under key. Non-string values report false.
func (catalog *Catalog) Get(key string) (string, bool) {
	value, ok := catalog.values[key]
	if !ok || !value.isString() {
		return "", false
	}
	return value.text, true
}

func (catalog *Catalog) Has(key string) bool {
	_, ok := catalog.values[key]
	return ok
}

func (catalog *Catalog) Len() int {
	return len(catalog.keys)
}

func (catalog *Catalog) Keys() []string {
	out := make([]string, len(catalog.keys))
	copy(out, catalog.keys)
	return out
}

// Entries returns the string-valued entries in order.
func (catalog *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(catalog.keys))
	for _, key := range catalog.keys {
		value := catalog.values[key]
		if !value.isString() {
			continue
		}
		out = append(out, Entry{Key: key, Value: value.text})
	}
	return out
}

// Merge applies entries with last-write-wins. With skipExisting set, keys
// already present are left alone and reported in SkippedKeys.
func (catalog *Catalog) Merge(entries []Entry, skipExisting bool) MergeStats {
	stats := MergeStats{SkippedKeys: make([]string, 0)}
	for _, entry := range entries {
		if skipExisting && catalog.Has(entry.Key) {
			stats.SkippedKeys = append(stats.SkippedKeys, entry.Key)
			continue
		}
		if catalog.Set(entry.Key, entry.Value) {
			stats.Overwritten++
		} else {
			stats.Added++
		}
	}
	return stats
}

// SortKeys reorders keys by byte order.
func (catalog *Catalog) SortKeys() {
	sort.Strings(catalog.keys)
}

// Encode renders the catalog as a JSON object. Non-ASCII text is written
// as is apart from U+2028 and U+2029, which are escaped as \u2028 and
// \u2029. HTML characters are not escaped. An indent of zero puts the
// object on one line with ", " and ": " separators.
func (catalog *Catalog) Encode(indent int) ([]byte, error) {
	var buf bytes.Buffer
	pad := strings.Repeat(" ", max(indent, 0))

	buf.WriteByte('{')
	for i, key := range catalog.keys {
		if i > 0 {
			buf.WriteByte(',')
			if indent <= 0 {
				buf.WriteByte(' ')
			}
		}
		if indent > 0 {
			buf.WriteByte('\n')
			buf.WriteString(pad)
		}

		encodedKey, err := encodeString(key)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", key)
		}
		buf.Write(encodedKey)
		buf.WriteString(": ")

		value := catalog.values[key]
		if !value.isString() {
			buf.Write(value.raw)
			continue
		}
		encodedValue, err := encodeString(value.text)
		if err != nil {
			return nil, errors.Wrapf(err, "value of %q", key)
		}
		buf.Write(encodedValue)
	}
	if indent > 0 && len(catalog.keys) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func encodeString(text string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(text); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
