package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ help.KeyMap = (*KeyMap)(nil)

func TestDefaultKeyMap_QuitBinding(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	keys := km.Quit.Keys()
	assert.Contains(t, keys, "q")
	assert.Contains(t, keys, "ctrl+c")
	assert.Contains(t, keys, "esc")
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()

	assert.Len(t, bindings, 2)
	assert.Equal(t, km.Quit, bindings[0])
	assert.Equal(t, km.Help, bindings[1])
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.FullHelp()

	assert.Len(t, bindings, 2)
	assert.Len(t, bindings[0], 1)
	assert.Len(t, bindings[1], 2)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("q", km.Quit))
	assert.True(t, Matches("?", km.Help))
	assert.True(t, Matches("d", km.Details))
	assert.False(t, Matches("x", km.Quit))
	assert.False(t, Matches("q", km.Details))
}

func TestBindings_HaveHelp(t *testing.T) {
	km := DefaultKeyMap()

	for name, binding := range map[string]key.Binding{
		"Quit":    km.Quit,
		"Help":    km.Help,
		"Details": km.Details,
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotEmpty(t, binding.Help().Key)
			assert.NotEmpty(t, binding.Help().Desc)
		})
	}
}
