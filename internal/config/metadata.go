package config

import (
	"path/filepath"
	"strings"
)

type Metadata struct {
	ConfigPath string
}

func NewMetadata(configPath string) Metadata {
	return Metadata{ConfigPath: configPath}
}

func (meta Metadata) Dir() string {
	return filepath.Dir(filepath.FromSlash(meta.ConfigPath))
}

// BaseDir resolves the configured base directory. A non-empty override
// replaces it; relative overrides stay relative to the working directory
// while a relative configured value is taken from the config file's directory.
func (meta Metadata) BaseDir(settings Settings, override string) string {
	if override != "" {
		return filepath.Clean(filepath.FromSlash(override))
	}

	baseDir := filepath.FromSlash(settings.BaseDir)
	if isAbsoluteOrRootedPath(baseDir) {
		return filepath.Clean(baseDir)
	}
	return filepath.Join(meta.Dir(), baseDir)
}

func isAbsoluteOrRootedPath(path string) bool {
	if filepath.IsAbs(path) {
		return true
	}
	return strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\")
}
