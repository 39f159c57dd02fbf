// Package fileutils holds filesystem helpers shared by the locale, cities and config packages.
package fileutils

import (
	"path/filepath"

	"github.com/spf13/afero"
)

func FileExists(path string, filesystem ...afero.Fs) bool {
	fs := InitFilesystem(filesystem...)

	exists, _ := afero.Exists(fs, path)
	return exists
}

func InitFilesystem(filesystem ...afero.Fs) afero.Fs {
	if len(filesystem) > 0 && filesystem[0] != nil {
		return filesystem[0]
	}

	return afero.NewOsFs()
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(fs afero.Fs, path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return fs.MkdirAll(dir, 0o755)
}
