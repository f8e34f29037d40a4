package sharetoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	first, err := New()
	require.NoError(t, err)
	assert.Len(t, first, 64)
	assert.True(t, IsWellFormed(first))

	second, err := New()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestIsWellFormed(t *testing.T) {
	assert.False(t, IsWellFormed(""))
	assert.False(t, IsWellFormed("abc"))
	assert.False(t, IsWellFormed(string(make([]byte, 64))))
}
