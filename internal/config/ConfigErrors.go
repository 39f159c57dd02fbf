package config

import "fmt"

type ConfigFileInvalidError struct {
	Path string
	Err  error
}

type ConfigFileExistsError struct {
	Path string
}

// UnknownLocaleError means a locale was requested that the table does not list.
type UnknownLocaleError struct {
	Locale string
}

func (e *ConfigFileInvalidError) Error() string {
	return fmt.Sprintf("Configuration file is invalid: %s", e.Err)
}

func (e *ConfigFileInvalidError) Unwrap() error {
	return e.Err
}

func (e *ConfigFileExistsError) Error() string {
	return fmt.Sprintf("Configuration file already exists: %s", e.Path)
}

func (e *UnknownLocaleError) Error() string {
	return fmt.Sprintf("Locale %q is not in the configured locale table", e.Locale)
}
