package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/storage"
)

func TestPreferences(t *testing.T) {
	st := storage.NewMemoryStore()
	p := NewPreferences(st)
	assert.Equal(t, Light, p.Current(), "defaults to light")

	next, err := p.Toggle()
	require.NoError(t, err)
	assert.Equal(t, Dark, next)
	v, _ := st.Get(storage.KeyTheme)
	assert.Equal(t, "dark", v)

	next, err = p.Toggle()
	require.NoError(t, err)
	assert.Equal(t, Light, next)

	assert.Error(t, p.Set("sepia"))
	assert.Equal(t, Light, p.Current())
}

func TestPreferences_InvalidStoredValue(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(storage.KeyTheme, "purple"))
	assert.Equal(t, Light, NewPreferences(st).Current())
}
