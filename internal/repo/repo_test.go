package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_Exists(t *testing.T) {
	r := New(filepath.Join("testdata", "app"))

	assert.True(t, r.Exists(PackageJSON))
	assert.True(t, r.Exists(YarnLock))
	assert.False(t, r.Exists(GemfileLock))
	assert.False(t, r.Exists(Handle("nope")))

	assert.True(t, r.Exists(AndroidApp))
	assert.True(t, r.Exists(IOSApp))
}

func TestRepo_Read(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, "yarn.lock")
	require.NoError(t, os.WriteFile(lock, []byte("first"), 0644))

	r := New(dir)
	text, err := r.Read(YarnLock)
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	// later reads are served from memory
	require.NoError(t, os.WriteFile(lock, []byte("second"), 0644))
	text, err = r.Read(YarnLock)
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	_, err = r.Read(PackageJSON)
	assert.ErrorIs(t, err, ErrNotPresent)

	_, err = r.Read(AndroidApp)
	assert.Error(t, err)

	_, err = r.Read(Handle("nope"))
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestRepo_Glob(t *testing.T) {
	r := New(filepath.Join("testdata", "app"))

	apks, err := r.Glob(AndroidApp)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.apk", "build/release.apk"}, apks)

	ipas, err := r.Glob(IOSApp)
	require.NoError(t, err)
	assert.Equal(t, []string{"mobile.ipa"}, ipas)

	lock, err := r.Glob(YarnLock)
	require.NoError(t, err)
	assert.Equal(t, []string{"yarn.lock"}, lock)

	// node_modules and gitignored directories are skipped, names match exactly
	lockfiles, err := r.Glob(YarnLockfiles)
	require.NoError(t, err)
	assert.Equal(t, []string{"packages/web/yarn.lock", "yarn.lock"}, lockfiles)
	assert.True(t, r.Exists(YarnLockfiles))
}

func TestFiles_EveryHandleHasAName(t *testing.T) {
	for h, f := range Files {
		assert.NotEmpty(t, f.Name, h)
	}
	assert.Len(t, Files, 19)
}
