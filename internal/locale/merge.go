package locale

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dysgraphia-support/langsync/internal/fileutils"
	"github.com/dysgraphia-support/langsync/internal/perf"
)

type Options struct {
	// SkipExisting only adds keys that are not in the file yet.
	SkipExisting bool
	// SortKeys writes keys in byte order instead of insertion order.
	SortKeys bool
	// DryRun computes the result without writing anything.
	DryRun bool
	// Indent is the number of spaces per level; zero writes one line.
	Indent int
}

type Result struct {
	Path        string
	Added       int
	Overwritten int
	SkippedKeys []string
	// Total is the number of keys in the file after the merge.
	Total  int
	DryRun bool
}

// Updated is the number of keys written, inserted or overwritten.
func (result Result) Updated() int {
	return result.Added + result.Overwritten
}

// ReadCatalog loads the locale file at path.
func ReadCatalog(ctx context.Context, fs afero.Fs, path string) (*Catalog, error) {
	_, span := perf.StartSpan(ctx, "io.locale.read", attribute.String("locale.path", path))
	catalog, err := readCatalog(fs, path)
	perf.EndSpan(span, err)
	return catalog, err
}

func readCatalog(fs afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return catalog, nil
}

// WriteCatalog replaces the file at path with the encoded catalog. The
// previous file mode is kept when the file exists.
func WriteCatalog(ctx context.Context, fs afero.Fs, path string, catalog *Catalog, indent int) error {
	_, span := perf.StartSpan(ctx, "io.locale.write",
		attribute.String("locale.path", path),
		attribute.Int("locale.keys", catalog.Len()),
	)
	err := writeCatalog(fs, path, catalog, indent)
	perf.EndSpan(span, err)
	return err
}

func writeCatalog(fs afero.Fs, path string, catalog *Catalog, indent int) error {
	data, err := catalog.Encode(indent)
	if err != nil {
		return &WriteError{Path: path, Err: errors.Wrap(err, "encode")}
	}

	if err := fileutils.WriteFileAtomic(fs, path, data, fileModeOf(fs, path)); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func fileModeOf(fs afero.Fs, path string) os.FileMode {
	info, err := fs.Stat(path)
	if err != nil {
		return fileutils.DefaultFileMode
	}
	return info.Mode().Perm()
}

// MergeLocale loads the file at path, overlays entries and writes the
// result back to the same path.
func MergeLocale(ctx context.Context, fs afero.Fs, path string, entries []Entry, opts Options) (Result, error) {
	ctx, span := perf.StartSpan(ctx, "locale.merge",
		attribute.String("locale.path", path),
		attribute.Int("locale.entries", len(entries)),
	)

	result, err := mergeLocale(ctx, fs, path, entries, opts)
	span.SetAttributes(
		attribute.Int("locale.added", result.Added),
		attribute.Int("locale.overwritten", result.Overwritten),
	)
	perf.EndSpan(span, err)

	return result, err
}

func mergeLocale(ctx context.Context, fs afero.Fs, path string, entries []Entry, opts Options) (Result, error) {
	result := Result{Path: path, DryRun: opts.DryRun}

	catalog, err := ReadCatalog(ctx, fs, path)
	if err != nil {
		return result, err
	}

	stats := catalog.Merge(entries, opts.SkipExisting)
	if opts.SortKeys {
		catalog.SortKeys()
	}

	result.Added = stats.Added
	result.Overwritten = stats.Overwritten
	result.SkippedKeys = stats.SkippedKeys
	result.Total = catalog.Len()

	if opts.DryRun {
		return result, nil
	}

	if err := WriteCatalog(ctx, fs, path, catalog, opts.Indent); err != nil {
		return result, err
	}

	return result, nil
}
