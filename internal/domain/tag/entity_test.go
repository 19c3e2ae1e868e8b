package tag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTag_ShouldLowercase(t *testing.T) {
	tg, err := NewTag("  Vegetarian ")

	require.NoError(t, err)
	assert.Equal(t, "vegetarian", tg.Name)
}

func TestNewTag_Invalid(t *testing.T) {
	_, err := NewTag("   ")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = NewTag(strings.Repeat("a", 256))
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestRename(t *testing.T) {
	tg := &Tag{ID: 1, Name: "old"}

	require.NoError(t, tg.Rename("QUICK"))
	assert.Equal(t, "quick", tg.Name)
	assert.Error(t, tg.Rename(""))
	assert.Equal(t, "quick", tg.Name)
}

func TestNormalizeNames(t *testing.T) {
	got := NormalizeNames([]string{"Quick", " ", "quick", "Vegan"})

	assert.Equal(t, []string{"quick", "vegan"}, got)
}
