package fileutils

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dysgraphia-support/langsync/testutil"
)

func targetPath(t *testing.T, fs afero.Fs) string {
	t.Helper()
	path := filepath.FromSlash("/app/lang/php_en.json")
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	return path
}

func tempFor(path string) string {
	return SiblingPath(path, TempKind, 0)
}

func backupFor(path string) string {
	return SiblingPath(path, BackupKind, 0)
}

func TestSiblingPathIsHiddenNextToTarget(t *testing.T) {
	path := filepath.FromSlash("/app/lang/php_fr.json")

	assert.Equal(t, filepath.FromSlash("/app/lang/.php_fr.json.langsync-tmp"), SiblingPath(path, TempKind, 0))
	assert.Equal(t, filepath.FromSlash("/app/lang/.php_fr.json.langsync-bak-3"), SiblingPath(path, BackupKind, 2))
	assert.Equal(t, ".cities.json.langsync-tmp", SiblingPath("cities.json", TempKind, 0))
}

func TestWriteFileAtomicCreatesWhenMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := targetPath(t, fs)

	require.NoError(t, WriteFileAtomic(fs, path, []byte(`{"a":"b"}`), DefaultFileMode))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"b"}`, string(data))
	assert.False(t, FileExists(tempFor(path), fs))
}

func TestWriteFileAtomicReplacesExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := targetPath(t, fs)
	require.NoError(t, afero.WriteFile(fs, path, []byte("old"), 0o644))

	require.NoError(t, WriteFileAtomic(fs, path, []byte("new"), DefaultFileMode))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestWriteFileAtomicSkipsOccupiedSiblingNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := targetPath(t, fs)
	require.NoError(t, afero.WriteFile(fs, tempFor(path), []byte("stale"), 0o644))

	require.NoError(t, WriteFileAtomic(fs, path, []byte("new"), DefaultFileMode))

	stale, err := afero.ReadFile(fs, tempFor(path))
	require.NoError(t, err)
	assert.Equal(t, "stale", string(stale))
	assert.False(t, FileExists(SiblingPath(path, TempKind, 1), fs))
}

func TestWriteFileAtomicKeepsOldContentWhenTempWriteFails(t *testing.T) {
	base := afero.NewMemMapFs()
	path := targetPath(t, base)
	require.NoError(t, afero.WriteFile(base, path, []byte("old"), 0o644))

	fs := testutil.OpenFileErrorFs{Fs: base, FailOn: ".langsync-tmp"}

	assert.Error(t, WriteFileAtomic(fs, path, []byte("new"), DefaultFileMode))

	data, err := afero.ReadFile(base, path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestWriteFileAtomicDoesNotCreateTargetWhenRenameFails(t *testing.T) {
	base := afero.NewMemMapFs()
	path := targetPath(t, base)

	fs := testutil.RenameFailFs{
		Fs:       base,
		Failures: []testutil.RenameFailure{{Old: tempFor(path), New: path}},
	}

	assert.Error(t, WriteFileAtomic(fs, path, []byte("new"), DefaultFileMode))
	assert.False(t, FileExists(path, base))
	assert.False(t, FileExists(tempFor(path), base), "temp file should be cleaned up")
}

func TestWriteFileAtomicJoinsCleanupErrorWhenExistsCheckFails(t *testing.T) {
	base := afero.NewMemMapFs()
	path := targetPath(t, base)
	statErr := errors.New("stat failed")

	fs := testutil.RemoveErrorFs{
		Fs:        testutil.StatErrorFs{Fs: base, FailPath: path, Err: statErr},
		FailPaths: map[string]error{tempFor(path): nil},
	}

	err := WriteFileAtomic(fs, path, []byte("new"), DefaultFileMode)
	require.Error(t, err)
	assert.ErrorIs(t, err, statErr)
	assert.Contains(t, err.Error(), "failed to remove temp file")
}

func TestWriteFileAtomicFallsBackToBackupSwap(t *testing.T) {
	base := afero.NewMemMapFs()
	path := targetPath(t, base)
	require.NoError(t, afero.WriteFile(base, path, []byte("old"), 0o644))

	fs := testutil.RenameFailFs{
		Fs: base,
		Failures: []testutil.RenameFailure{{
			Old:                tempFor(path),
			New:                path,
			OnlyWhenDestExists: true,
		}},
	}

	require.NoError(t, WriteFileAtomic(fs, path, []byte("new"), DefaultFileMode))

	data, err := afero.ReadFile(base, path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.False(t, FileExists(backupFor(path), base), "backup should be removed on success")
}

func TestWriteFileAtomicKeepsOldContentWhenBackupRenameFails(t *testing.T) {
	base := afero.NewMemMapFs()
	path := targetPath(t, base)
	require.NoError(t, afero.WriteFile(base, path, []byte("old"), 0o644))

	fs := testutil.RenameFailFs{
		Fs: base,
		Failures: []testutil.RenameFailure{
			{Old: tempFor(path), New: path},
			{Old: path, New: backupFor(path)},
		},
	}

	assert.Error(t, WriteFileAtomic(fs, path, []byte("new"), DefaultFileMode))

	data, err := afero.ReadFile(base, path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assert.False(t, FileExists(tempFor(path), base))
}

func TestWriteFileAtomicRestoresBackupWhenSwapFails(t *testing.T) {
	base := afero.NewMemMapFs()
	path := targetPath(t, base)
	require.NoError(t, afero.WriteFile(base, path, []byte("old"), 0o644))

	// Every temp-to-target rename fails, so the swap has to roll back.
	fs := testutil.RenameFailFs{
		Fs:       base,
		Failures: []testutil.RenameFailure{{Old: tempFor(path), New: path}},
	}

	assert.Error(t, WriteFileAtomic(fs, path, []byte("new"), DefaultFileMode))

	data, err := afero.ReadFile(base, path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assert.False(t, FileExists(backupFor(path), base))
}

func TestWriteFileAtomicReportsFailedRollback(t *testing.T) {
	base := afero.NewMemMapFs()
	path := targetPath(t, base)
	backup := backupFor(path)
	require.NoError(t, afero.WriteFile(base, path, []byte("old"), 0o644))

	fs := testutil.RenameFailFs{
		Fs: base,
		Failures: []testutil.RenameFailure{
			{Old: tempFor(path), New: path},
			{Old: backup, New: path},
		},
	}

	err := WriteFileAtomic(fs, path, []byte("new"), DefaultFileMode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to restore backup")
}

func TestWriteFileAtomicReportsBackupCleanupFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	path := targetPath(t, base)
	backup := backupFor(path)
	require.NoError(t, afero.WriteFile(base, path, []byte("old"), 0o644))

	fs := testutil.RemoveErrorFs{
		Fs: testutil.RenameFailFs{
			Fs: base,
			Failures: []testutil.RenameFailure{{
				Old:                tempFor(path),
				New:                path,
				OnlyWhenDestExists: true,
			}},
		},
		FailPaths: map[string]error{filepath.Clean(backup): nil},
	}

	err := WriteFileAtomic(fs, path, []byte("new"), DefaultFileMode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to remove backup file")
}

func TestFileExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/somepath", []byte("test"), 0o644))

	assert.True(t, FileExists("/somepath", fs))
	assert.False(t, FileExists("/somepath2", fs))
}

func TestInitFilesystem(t *testing.T) {
	mem := afero.NewMemMapFs()
	assert.Equal(t, mem, InitFilesystem(mem))
	assert.IsType(t, &afero.OsFs{}, InitFilesystem())
	assert.IsType(t, &afero.OsFs{}, InitFilesystem(nil))
}

func TestEnsureParentDir(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, EnsureParentDir(fs, filepath.FromSlash("/out/seeders/data/cities.json")))
	exists, err := afero.DirExists(fs, filepath.FromSlash("/out/seeders/data"))
	require.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, EnsureParentDir(fs, "cities.json"))
}
