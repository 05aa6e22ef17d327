package match

import (
	"sort"
	"strings"
	"unicode"
)

// cyrillicSuffixes are known Russian inflectional endings. The stemmer strips
// the longest matching one, so the slice is kept ordered longest first.
// This is a deliberate low-precision/high-recall heuristic, not a
// morphological analyzer: "ресторан" must also hit "ресторана", "ресторанах",
// "ресторанами".
var cyrillicSuffixes = func() []string {
	suffixes := []string{
		"иями", "ями", "ами", "ией", "иям", "ием", "иях",
		"ого", "его", "ому", "ему", "ыми", "ими",
		"ах", "ях", "ам", "ям", "ов", "ев", "ей", "ий",
		"ая", "яя", "ое", "ее", "ую", "юю", "ой", "ый",
		"ом", "ем", "ья", "ье", "ия", "ие",
		"а", "я", "о", "е", "ы", "и", "у", "ю", "ь",
	}
	sort.Slice(suffixes, func(i, j int) bool {
		li, lj := len([]rune(suffixes[i])), len([]rune(suffixes[j]))
		if li != lj {
			return li > lj
		}
		return suffixes[i] < suffixes[j]
	})
	return suffixes
}()

// minStemRunes keeps the stem long enough to stay distinctive.
const minStemRunes = 4

// stemWordRunes is the minimum alias-word length for stemming to apply;
// shorter words match exactly.
const stemWordRunes = 6

func isCyrillicWord(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.Is(unicode.Cyrillic, r) {
			return false
		}
	}
	return true
}

// stemCyrillic strips the longest matching inflectional ending. Words shorter
// than stemWordRunes come back unchanged.
func stemCyrillic(word string) string {
	runes := []rune(word)
	if len(runes) < stemWordRunes {
		return word
	}
	for _, suffix := range cyrillicSuffixes {
		if !strings.HasSuffix(word, suffix) {
			continue
		}
		stem := []rune(strings.TrimSuffix(word, suffix))
		if len(stem) < minStemRunes {
			continue
		}
		return string(stem)
	}
	return word
}
