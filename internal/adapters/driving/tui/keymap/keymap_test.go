package keymap

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"Quit", km.Quit, []string{"ctrl+c"}},
		{"Help", km.Help, []string{"f1"}},
		{"Back", km.Back, []string{"esc"}},
		{"Send", km.Send, []string{"enter"}},
		{"Up", km.Up, []string{"up", "k"}},
		{"Down", km.Down, []string{"down", "j"}},
		{"ScrollUp", km.ScrollUp, []string{"pgup"}},
		{"ScrollDown", km.ScrollDown, []string{"pgdown"}},
		{"ToggleContext", km.ToggleContext, []string{"ctrl+t"}},
		{"Reload", km.Reload, []string{"ctrl+r"}},
		{"Clear", km.Clear, []string{"ctrl+l"}},
		{"Documents", km.Documents, []string{"ctrl+d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keys, tt.binding.Keys())
			assert.NotEmpty(t, tt.binding.Help().Key, "binding should have help key")
			assert.NotEmpty(t, tt.binding.Help().Desc, "binding should have help text")
		})
	}
}

func TestChatBindings_AreNotPrintable(t *testing.T) {
	km := DefaultKeyMap()

	for _, b := range []key.Binding{km.Quit, km.Help, km.ToggleContext, km.Reload, km.Clear, km.Documents} {
		for _, k := range b.Keys() {
			assert.True(t, len(k) > 1 || strings.TrimSpace(k) == "", "key %q would be typed into the input", k)
		}
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()

	require.Len(t, bindings, 4)
	assert.Equal(t, km.Send, bindings[0])
	assert.Equal(t, km.Quit, bindings[3])
}

func TestDocumentsHelp(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []key.Binding{km.Up, km.Down, km.Back}, km.DocumentsHelp())
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.FullHelp()

	assert.Len(t, bindings, 4)
	for _, group := range bindings {
		assert.Len(t, group, 3)
	}
}

func TestMatches_True(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("f1", km.Help))
	assert.True(t, Matches("up", km.Up))
	assert.True(t, Matches("k", km.Up))
	assert.True(t, Matches("ctrl+t", km.ToggleContext))
}

func TestMatches_False(t *testing.T) {
	km := DefaultKeyMap()

	assert.False(t, Matches("q", km.Quit))
	assert.False(t, Matches("?", km.Help))
	assert.False(t, Matches("down", km.Up))
}
