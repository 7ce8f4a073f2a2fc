package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizesAndDedupes(t *testing.T) {
	d := New([]string{"cat", "CAT", " dog ", "", "it's", "HOUSE"})

	assert.Equal(t, 3, d.Size())
	assert.True(t, d.Contains("CAT"))
	assert.True(t, d.Contains("DOG"))
	assert.True(t, d.Contains("HOUSE"))
	assert.False(t, d.Contains("cat"), "lookup is case-sensitive uppercase")
	assert.False(t, d.Contains("IT'S"))
}

func TestWordsUpToFiltersAndCaches(t *testing.T) {
	d := New([]string{"AT", "CAT", "HOUSE", "ELEPHANTS", "UNSCRAMBLED"})

	short := d.WordsUpTo(5)
	assert.ElementsMatch(t, []string{"CAT", "HOUSE"}, short)

	// Second call must return the same cached slice.
	again := d.WordsUpTo(5)
	require.Len(t, again, len(short))
	if len(short) > 0 {
		assert.Equal(t, &short[0], &again[0])
	}

	wide := d.WordsUpTo(10)
	assert.ElementsMatch(t, []string{"CAT", "HOUSE", "ELEPHANTS"}, wide)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("apple\nbanana\npear\n"), 0o644))

	d, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Size())
	assert.True(t, d.Contains("BANANA"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
