package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStemCyrillicStripsInflection(t *testing.T) {
	cases := map[string]string{
		"рестораны":   "ресторан",
		"ресторанами": "ресторан",
		"пиццерия":    "пиццер",
		"магазины":    "магазин",
		"салонах":     "салон",
	}
	for word, want := range cases {
		assert.Equal(t, want, stemCyrillic(word), "word %q", word)
	}
}

func TestStemCyrillicShortWordsUnchanged(t *testing.T) {
	assert.Equal(t, "кафе", stemCyrillic("кафе"))
	assert.Equal(t, "бар", stemCyrillic("бар"))
	assert.Equal(t, "салон", stemCyrillic("салон"))
}

func TestStemCyrillicKeepsMinimumStem(t *testing.T) {
	assert.Equal(t, "дорог", stemCyrillic("дорогами"))
	// Stripping "ами" would leave a three-rune stem, so the next matching
	// ending that still leaves four runes is taken instead.
	assert.Equal(t, "барам", stemCyrillic("барами"))
}

func TestStemCyrillicNoMatchingSuffix(t *testing.T) {
	assert.Equal(t, "ресторан", stemCyrillic("ресторан"))
}

func TestIsCyrillicWord(t *testing.T) {
	assert.True(t, isCyrillicWord("ресторан"))
	assert.False(t, isCyrillicWord("cafe"))
	assert.False(t, isCyrillicWord("кафе2"))
	assert.False(t, isCyrillicWord(""))
}
