// ABOUTME: Tests for the in-memory buffer implementation
// ABOUTME: Covers span replacement bounds, snapshots, and text round-tripping

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText(t *testing.T) {
	b := FromText("one\ntwo\nthree\n")
	assert.Equal(t, []string{"one", "two", "three"}, b.Lines())
	assert.Equal(t, 3, b.LineCount())
	assert.Equal(t, "one\ntwo\nthree\n", b.Text())
}

func TestFromText_Empty(t *testing.T) {
	b := FromText("")
	assert.Equal(t, 0, b.LineCount())
	assert.Equal(t, "", b.Text())
}

func TestReplace_Middle(t *testing.T) {
	b := NewMemoryBuffer([]string{"a", "b", "c", "d"})
	err := b.Replace(1, 3, []string{"x", "y", "z"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "x", "y", "z", "d"}, b.Lines())
}

func TestReplace_Insert(t *testing.T) {
	b := NewMemoryBuffer([]string{"a", "b"})
	err := b.Replace(1, 1, []string{"mid"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "mid", "b"}, b.Lines())
}

func TestReplace_Delete(t *testing.T) {
	b := NewMemoryBuffer([]string{"a", "b", "c"})
	err := b.Replace(0, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, b.Lines())
}

func TestReplace_OutOfBounds(t *testing.T) {
	b := NewMemoryBuffer([]string{"a"})
	err := b.Replace(0, 2, nil)
	require.ErrorIs(t, err, ErrRangeOutOfBounds)
	assert.Equal(t, []string{"a"}, b.Lines())

	err = b.Replace(-1, 0, nil)
	require.ErrorIs(t, err, ErrRangeOutOfBounds)
}

func TestLines_ReturnsCopy(t *testing.T) {
	b := NewMemoryBuffer([]string{"a", "b"})
	lines := b.Lines()
	lines[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, b.Lines())
}
