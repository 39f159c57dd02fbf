// Package testutil holds shared test helpers.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var ErrInjected = errors.New("injected failure")

// RenameFailure makes Rename fail for a matching (old, new) pair. Empty
// fields match anything.
type RenameFailure struct {
	Old                string
	New                string
	OnlyWhenDestExists bool
	Err                error
}

type RenameFailFs struct {
	afero.Fs
	Failures []RenameFailure
}

func (filesystem RenameFailFs) Rename(oldname, newname string) error {
	for _, failure := range filesystem.Failures {
		if failure.Old != "" && oldname != failure.Old {
			continue
		}
		if failure.New != "" && newname != failure.New {
			continue
		}
		if failure.OnlyWhenDestExists {
			exists, err := afero.Exists(filesystem.Fs, newname)
			if err != nil || !exists {
				continue
			}
		}
		return orInjected(failure.Err)
	}
	return filesystem.Fs.Rename(oldname, newname)
}

// RemoveErrorFs fails Remove for the listed clean paths.
type RemoveErrorFs struct {
	afero.Fs
	FailPaths map[string]error
}

func (filesystem RemoveErrorFs) Remove(name string) error {
	if err, ok := filesystem.FailPaths[filepath.Clean(name)]; ok {
		return orInjected(err)
	}
	return filesystem.Fs.Remove(name)
}

// OpenFileErrorFs fails every open whose path contains FailOn.
type OpenFileErrorFs struct {
	afero.Fs
	FailOn string
}

func (filesystem OpenFileErrorFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if strings.Contains(filepath.Clean(name), filesystem.FailOn) {
		return nil, ErrInjected
	}
	return filesystem.Fs.OpenFile(name, flag, perm)
}

func (filesystem OpenFileErrorFs) Open(name string) (afero.File, error) {
	if strings.Contains(filepath.Clean(name), filesystem.FailOn) {
		return nil, ErrInjected
	}
	return filesystem.Fs.Open(name)
}

func (filesystem OpenFileErrorFs) Create(name string) (afero.File, error) {
	if strings.Contains(filepath.Clean(name), filesystem.FailOn) {
		return nil, ErrInjected
	}
	return filesystem.Fs.Create(name)
}

// StatErrorFs fails Stat for one path.
type StatErrorFs struct {
	afero.Fs
	FailPath string
	Err      error
}

func (filesystem StatErrorFs) Stat(name string) (os.FileInfo, error) {
	if filepath.Clean(name) == filepath.Clean(filesystem.FailPath) {
		return nil, orInjected(filesystem.Err)
	}
	return filesystem.Fs.Stat(name)
}

func orInjected(err error) error {
	if err != nil {
		return err
	}
	return ErrInjected
}
