package storage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyAuthToken, "tok-1"))
	require.NoError(t, s.Set(KeyTheme, "dark"))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	v, ok := reopened.Get(KeyAuthToken)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", v)

	require.NoError(t, reopened.Delete(KeyAuthToken))
	_, ok = reopened.Get(KeyAuthToken)
	assert.False(t, ok)

	// 删除后再次打开，theme 保留
	again, err := NewFileStore(dir)
	require.NoError(t, err)
	_, ok = again.Get(KeyAuthToken)
	assert.False(t, ok)
	theme, _ := again.Get(KeyTheme)
	assert.Equal(t, "dark", theme)
}

func TestFileStore_FilePermissions(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyAuthToken, "secret"))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0600))

	_, err = NewFileStore(dir)
	assert.Error(t, err)
}

func TestFileStore_NullFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(), []byte("null"), 0600))

	s, err = NewFileStore(dir)
	require.NoError(t, err)
	_, ok := s.Get(KeyTheme)
	assert.False(t, ok)
	require.NotPanics(t, func() {
		require.NoError(t, s.Set(KeyTheme, "dark"))
	})

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	v, ok := reopened.Get(KeyTheme)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestMemoryStore_DeleteMissingKey(t *testing.T) {
	m := NewMemoryStore()
	assert.NoError(t, m.Delete("nope"))
	require.NoError(t, m.Set("k", "v"))
	v, ok := m.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
