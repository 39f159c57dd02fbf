package i18n

import (
	"embed"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

type MockLocaleProvider struct {
	LocaleProvider
}

func (provider MockLocaleProvider) GetLocales() ([]string, error) {
	return nil, errors.New("mock error")
}

type FakeLocaleProvider struct{}

func (provider FakeLocaleProvider) GetLocales() ([]string, error) {
	return []string{"fr_FR", "de_DE"}, nil
}

type EmptyLocaleProvider struct{}

func (provider EmptyLocaleProvider) GetLocales() ([]string, error) {
	return []string{"", "es_ES"}, nil
}

type customString string

func (value customString) String() string { return string(value) }

//go:embed __fixtures__/*.json
var testData embed.FS

//go:embed __fixtures_invalid__/*.json
var invalidLocales embed.FS

func useFixtures(t *testing.T, files embed.FS, dir string) {
	t.Helper()

	originalFiles, originalDir, originalProvider := messages, langDir, localeProvider
	messages = files
	langDir = dir
	ResetForTesting()

	t.Setenv("LANGSYNC_LANG", "")
	t.Cleanup(func() {
		messages = originalFiles
		langDir = originalDir
		localeProvider = originalProvider
		ResetForTesting()
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, present := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if present {
			os.Setenv(key, old)
		}
	})
}

func TestSimpleTranslations(t *testing.T) {
	useFixtures(t, testData, "__fixtures__")
	unsetEnv(t, "LANGSYNC_TEST")

	t.Run("simple translation", func(t *testing.T) {
		ResetForTesting()
		t.Setenv("LANG", "en_GB.UTF-8")

		assert.Equal(t, "Hello World", T("test.simple"))
	})

	t.Run("simple translation for tests", func(t *testing.T) {
		t.Setenv("LANGSYNC_TEST", "true")

		assert.Equal(t, "test.simple", T("test.simple"))
	})

	t.Run("simple translation to german", func(t *testing.T) {
		ResetForTesting()
		t.Setenv("LANG", "de_DE")

		assert.Equal(t, "Hello World but in German", T("test.simple"))
	})

	t.Run("LANGSYNC_LANG wins over LANG", func(t *testing.T) {
		ResetForTesting()
		t.Setenv("LANG", "en_GB")
		t.Setenv("LANGSYNC_LANG", "de")

		assert.Equal(t, "Hello World but in German", T("test.simple"))
	})

	t.Run("custom type values are interpolated", func(t *testing.T) {
		ResetForTesting()
		t.Setenv("LANG", "en_GB")

		actual := T("test.customType", With(TData{"val": customString("XYZ")}))
		assert.Equal(t, "Value is XYZ", actual)
	})
}

func TestPluralsTranslations(t *testing.T) {
	useFixtures(t, testData, "__fixtures__")
	unsetEnv(t, "LANGSYNC_TEST")

	t.Run("plurals in English", func(t *testing.T) {
		ResetForTesting()
		t.Setenv("LANG", "en_GB")

		noPlural := T("test.multiple", Tvars{
			Data: &TData{"injectedData": "in English"},
		})
		assert.Equal(t, "Other message in English", noPlural)

		one := T("test.multiple", Tvars{
			Count: 1,
			Data:  &TData{"injectedData": "in English"},
		})
		assert.Equal(t, "One message: in English", one)
	})

	t.Run("plurals in German", func(t *testing.T) {
		ResetForTesting()
		t.Setenv("LANG", "de_DE")

		noPlural := T("test.multiple", Tvars{
			Data: &TData{"injectedData": "in English"},
		})
		assert.Equal(t, "Other message in English but in German", noPlural)

		one := T("test.multiple", Tvars{
			Count: 1,
			Data:  &TData{"injectedData": "in English"},
		})
		assert.Equal(t, "One message: in English but in German", one)
	})

	t.Run("plurals in test", func(t *testing.T) {
		t.Setenv("LANGSYNC_TEST", "true")

		noPlural := T("test.multiple", Tvars{
			Data: &TData{"injectedData": "in English"},
		})
		assert.Equal(t, "test.multiple, Arg 1: {Count: 0, Data: &map[injectedData:in English]}", noPlural)

		one := T("test.multiple", Tvars{
			Count: 1,
			Data:  &TData{"injectedData": "in English1"},
		})
		assert.Equal(t, "test.multiple, Arg 1: {Count: 1, Data: &map[injectedData:in English1]}", one)
	})
}

func TestMissingTranslation(t *testing.T) {
	useFixtures(t, testData, "__fixtures__")
	unsetEnv(t, "LANGSYNC_TEST")

	assert.Equal(t, "test.missing", T("test.missing"))
}

func TestBadLangDir(t *testing.T) {
	useFixtures(t, testData, "badDir")

	assert.Panics(t, func() {
		load()
	})
}

func TestInvalidLocaleFiles(t *testing.T) {
	useFixtures(t, invalidLocales, "__fixtures_invalid__")

	assert.Panics(t, func() {
		load()
	})
}

func TestBundleKeepsDefaultFirst(t *testing.T) {
	bundle := newBundle(testData, "__fixtures__")

	supported := bundle.SupportedLanguages()
	assert.Equal(t, defaultLocale, supported[0].String())
}

func TestShippedLocalesLoad(t *testing.T) {
	bundle := newBundle(langFS, "lang")

	tags := make([]string, 0)
	for _, tag := range bundle.SupportedLanguages() {
		tags = append(tags, tag.String())
	}
	assert.Equal(t, defaultLocale, tags[0])
	assert.ElementsMatch(t, []string{"en-GB", "ar", "fr", "lt"}, tags)
}

func TestShippedTranslationsCoverEveryKey(t *testing.T) {
	unsetEnv(t, "LANGSYNC_TEST")

	bundle := newBundle(langFS, "lang")
	english := bundle.NewLocalizer("en-GB")

	for _, code := range []string{"ar", "fr", "lt"} {
		localizer := bundle.NewLocalizer(code)
		for _, key := range []string{"app.description", "cmd.merge.short", "cmd.reshape.short", "cmd.merge.summary.title"} {
			translated := localizer.Get(key)
			assert.NotEqual(t, key, translated, "%s is missing %s", code, key)
			assert.NotEqual(t, english.Get(key), translated, "%s is not translated for %s", key, code)
		}
	}
}

func TestWrongNumberOfArguments(t *testing.T) {
	useFixtures(t, testData, "__fixtures__")
	unsetEnv(t, "LANGSYNC_TEST")

	assert.Panicsf(t, func() {
		T("test.simple", Tvars{}, Tvars{})
	}, "Too many arguments")
}

func TestFallbackToEnglish(t *testing.T) {
	useFixtures(t, testData, "__fixtures__")
	unsetEnv(t, "LANGSYNC_TEST")
	unsetEnv(t, "LANG")
	localeProvider = MockLocaleProvider{}

	assert.Equal(t, "Hello World", T("test.simple"))
}

func TestGetUserLocalesNoLang(t *testing.T) {
	useFixtures(t, testData, "__fixtures__")
	unsetEnv(t, "LANG")
	localeProvider = MockLocaleProvider{}

	assert.Equal(t, []string{language.English.String()}, getUserLocales())
}

func TestGetUserLocalesProviderSuccess(t *testing.T) {
	useFixtures(t, testData, "__fixtures__")
	unsetEnv(t, "LANG")
	localeProvider = FakeLocaleProvider{}

	locales := getUserLocales()
	assert.Equal(t, []string{"fr_FR", "de_DE"}, locales)
}

func TestGetUserLocalesSkipsEmptyEntries(t *testing.T) {
	useFixtures(t, testData, "__fixtures__")
	unsetEnv(t, "LANG")
	localeProvider = EmptyLocaleProvider{}

	assert.Equal(t, []string{"es_ES"}, getUserLocales())
}

func TestDefaultLocaleProvider(t *testing.T) {
	for _, key := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES"} {
		t.Setenv(key, "")
	}
	t.Setenv("LANG", "fr_FR.UTF-8")

	provider := DefaultLocaleProvider{}
	locales, err := provider.GetLocales()
	assert.NoError(t, err)
	if runtime.GOOS == "linux" {
		assert.Equal(t, []string{"fr-FR"}, locales)
	}
}

func TestBuildLocalizerLocales(t *testing.T) {
	locales := buildLocalizerLocales([]string{"fr_FR", "de_DE", "fr_FR", ""})
	assert.Equal(t, []string{"fr-FR", "fr", "de-DE", "de"}, locales)

	withInvalid := buildLocalizerLocales([]string{"fr_FR", "???"})
	assert.Equal(t, []string{"fr-FR", "fr"}, withInvalid)

	withEncoding := buildLocalizerLocales([]string{"lt_LT.UTF-8", "ar_DZ@latin", "C"})
	assert.Equal(t, []string{"lt-LT", "lt", "ar-DZ", "ar"}, withEncoding)
}

func TestWith(t *testing.T) {
	vars := With(TData{"file": "lang/php_en.json"})
	assert.Equal(t, 0, vars.Count)
	assert.Equal(t, "lang/php_en.json", (*vars.Data)["file"])
}
