package fileutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const DefaultFileMode os.FileMode = 0o644

// Sibling kinds used while a file is being replaced.
const (
	TempKind   = "tmp"
	BackupKind = "bak"
)

const maxSiblingAttempts = 100

// SiblingPath names the hidden file kept next to targetPath during a
// replace: lang/php_fr.json gets lang/.php_fr.json.langsync-tmp on the
// first attempt and lang/.php_fr.json.langsync-tmp-2 on the second.
func SiblingPath(targetPath string, kind string, attempt int) string {
	dir, name := filepath.Split(targetPath)
	sibling := "." + name + ".langsync-" + kind
	if attempt > 0 {
		sibling = fmt.Sprintf("%s-%d", sibling, attempt+1)
	}
	return filepath.Join(dir, sibling)
}

// WriteFileAtomic writes data to a hidden sibling and renames it over
// targetPath, so a failed write leaves the previous contents in place.
// Siblings left behind by an interrupted run are skipped, never reused.
func WriteFileAtomic(fs afero.Fs, targetPath string, data []byte, perm os.FileMode) error {
	tempPath, err := freeSibling(fs, targetPath, TempKind)
	if err != nil {
		return err
	}

	swap := &replacement{fs: fs, target: targetPath, temp: tempPath}
	return swap.write(data, perm)
}

type replacement struct {
	fs     afero.Fs
	target string
	temp   string
	backup string
}

func (swap *replacement) write(data []byte, perm os.FileMode) error {
	if err := afero.WriteFile(swap.fs, swap.temp, data, perm); err != nil {
		return swap.discardTemp(err)
	}

	exists, err := afero.Exists(swap.fs, swap.target)
	if err != nil {
		return swap.discardTemp(err)
	}

	renameErr := swap.fs.Rename(swap.temp, swap.target)
	if renameErr == nil {
		return nil
	}
	if !exists {
		return swap.discardTemp(renameErr)
	}
	// Some filesystems refuse to rename over an existing file.
	return swap.throughBackup()
}

func (swap *replacement) throughBackup() error {
	backupPath, err := freeSibling(swap.fs, swap.target, BackupKind)
	if err != nil {
		return swap.discardTemp(err)
	}
	swap.backup = backupPath

	if err := swap.fs.Rename(swap.target, swap.backup); err != nil {
		return swap.discardTemp(err)
	}
	if err := swap.fs.Rename(swap.temp, swap.target); err != nil {
		return swap.rollback(err)
	}
	if err := removeIfPresent(swap.fs, swap.backup); err != nil {
		return removeError("backup file", swap.backup, err)
	}
	return nil
}

func (swap *replacement) discardTemp(cause error) error {
	if err := removeIfPresent(swap.fs, swap.temp); err != nil {
		return errors.Join(cause, removeError("temp file", swap.temp, err))
	}
	return cause
}

func (swap *replacement) rollback(cause error) error {
	result := swap.discardTemp(cause)
	if err := swap.fs.Rename(swap.backup, swap.target); err != nil {
		result = errors.Join(result, fmt.Errorf("failed to restore backup %s: %w", swap.backup, err))
	}
	return result
}

func freeSibling(fs afero.Fs, targetPath string, kind string) (string, error) {
	for attempt := 0; attempt < maxSiblingAttempts; attempt++ {
		candidate := SiblingPath(targetPath, kind, attempt)
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("cannot allocate a %s file next to %s", kind, targetPath)
}

func removeIfPresent(fs afero.Fs, path string) error {
	err := fs.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func removeError(kind string, path string, err error) error {
	return fmt.Errorf("failed to remove %s %s: %w", kind, path, err)
}
