// Package config reads the langsync.json project file, which tells the
// merger where the application's locale files live.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/text/language"

	"github.com/dysgraphia-support/langsync/internal/fileutils"
	"github.com/dysgraphia-support/langsync/internal/locale"
	"github.com/dysgraphia-support/langsync/internal/perf"
)

type Settings struct {
	// BaseDir is the application root. Relative values resolve against the
	// directory holding the configuration file.
	BaseDir string `json:"baseDir"`
	// Locales maps a locale identifier to its file, relative to BaseDir.
	Locales map[string]string `json:"locales"`
}

func Default() Settings {
	return Settings{
		BaseDir: ".",
		Locales: map[string]string{
			"en": "lang/php_en.json",
			"ar": "lang/php_ar.json",
			"fr": "lang/php_fr.json",
			"lt": "lang/php_lt.json",
		},
	}
}

// ReadConfig loads the configuration file. A missing file yields the
// defaults with found set to false.
func ReadConfig(ctx context.Context, fs afero.Fs, meta Metadata) (settings Settings, found bool, err error) {
	_, span := perf.StartSpan(ctx, "io.config.read")
	defer func() { perf.EndSpan(span, err) }()

	exists, err := afero.Exists(fs, meta.ConfigPath)
	if err != nil {
		return Settings{}, false, fmt.Errorf("failed to read configuration file: %w", err)
	}
	if !exists {
		return Default(), false, nil
	}

	data, err := afero.ReadFile(fs, meta.ConfigPath)
	if err != nil {
		return Settings{}, true, fmt.Errorf("failed to read configuration file: %w", err)
	}

	settings, err = Parse(data)
	if err != nil {
		return Settings{}, true, &ConfigFileInvalidError{Path: meta.ConfigPath, Err: err}
	}
	return settings, true, nil
}

// Parse decodes a configuration document. Omitted fields take their
// default value.
func Parse(data []byte) (Settings, error) {
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, err
	}

	defaults := Default()
	if settings.BaseDir == "" {
		settings.BaseDir = defaults.BaseDir
	}
	if settings.Locales == nil {
		settings.Locales = defaults.Locales
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate checks that every locale is a BCP 47 tag with a file path.
func (settings Settings) Validate() error {
	if len(settings.Locales) == 0 {
		return errors.New("locales must list at least one locale file")
	}
	for _, code := range sortedLocales(settings.Locales) {
		if _, err := language.Parse(code); err != nil {
			return errors.Wrapf(err, "locale %q", code)
		}
		if settings.Locales[code] == "" {
			return fmt.Errorf("locale %q has no file", code)
		}
	}
	return nil
}

func WriteConfig(ctx context.Context, fs afero.Fs, meta Metadata, settings Settings) (err error) {
	_, span := perf.StartSpan(ctx, "io.config.write")
	defer func() { perf.EndSpan(span, err) }()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	if err := fileutils.EnsureParentDir(fs, meta.ConfigPath); err != nil {
		return err
	}
	return fileutils.WriteFileAtomic(fs, meta.ConfigPath, data, fileutils.DefaultFileMode)
}

// InitConfig writes the default configuration. An existing file is only
// replaced when force is set.
func InitConfig(ctx context.Context, fs afero.Fs, meta Metadata, force bool) (Settings, error) {
	ctx, span := perf.StartSpan(ctx, "io.config.init")
	defer span.End()

	if !force && fileutils.FileExists(meta.ConfigPath, fs) {
		return Settings{}, &ConfigFileExistsError{Path: meta.ConfigPath}
	}

	settings := Default()
	if err := WriteConfig(ctx, fs, meta, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Targets lists the locale files under baseDir, sorted by locale. A
// non-empty filter restricts the list to the named locales, each of which
// must be configured.
func Targets(settings Settings, baseDir string, filter []string) ([]locale.Target, error) {
	wanted := make(map[string]bool, len(filter))
	for _, code := range filter {
		if _, ok := settings.Locales[code]; !ok {
			return nil, &UnknownLocaleError{Locale: code}
		}
		wanted[code] = true
	}

	targets := make([]locale.Target, 0, len(settings.Locales))
	for _, code := range sortedLocales(settings.Locales) {
		if len(wanted) > 0 && !wanted[code] {
			continue
		}

		relative := filepath.FromSlash(settings.Locales[code])
		path := relative
		if !isAbsoluteOrRootedPath(relative) {
			path = filepath.Join(baseDir, relative)
		}
		targets = append(targets, locale.Target{
			Locale:  code,
			Path:    path,
			Display: filepath.ToSlash(relative),
		})
	}
	return targets, nil
}

func sortedLocales(locales map[string]string) []string {
	codes := make([]string, 0, len(locales))
	for code := range locales {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
