package token

import "testing"

func TestCount_Empty(t *testing.T) {
	if got := Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d, want 0", got)
	}
}

func TestCount_Simple(t *testing.T) {
	got := Count("hello world")
	if got <= 0 {
		t.Errorf("Count(\"hello world\") = %d, want > 0", got)
	}
	// "hello world" is 2 tokens with cl100k_base
	if encoding != nil && got != 2 {
		t.Errorf("Count(\"hello world\") = %d, want 2 (tiktoken)", got)
	}
}

func TestEstimateFast_Empty(t *testing.T) {
	if got := EstimateFast(""); got != 0 {
		t.Errorf("EstimateFast(\"\") = %d, want 0", got)
	}
	if got := EstimateFast("   \n\t  "); got != 0 {
		t.Errorf("EstimateFast(whitespace) = %d, want 0", got)
	}
}

func TestEstimateFast_MinWordCount(t *testing.T) {
	// "a b c d" has 4 words, 7 runes → runes/4=1, but word count=4 → max is 4
	got := EstimateFast("a b c d")
	if got != 4 {
		t.Errorf("EstimateFast(\"a b c d\") = %d, want 4", got)
	}
}

func TestEstimateFast_RuneBased(t *testing.T) {
	// 40 runes, 4 words → runes/4=10 wins over the word count
	got := EstimateFast("авторизация бронирование интеграция отчёт")
	if got < 4 {
		t.Errorf("EstimateFast(cyrillic) = %d, want >= 4", got)
	}
}

func TestEstimateFast_SingleRune(t *testing.T) {
	if got := EstimateFast("a"); got != 1 {
		t.Errorf("EstimateFast(\"a\") = %d, want 1", got)
	}
}
