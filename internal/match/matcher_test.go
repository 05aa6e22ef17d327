package match

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anketa/internal/observability"
	"anketa/internal/store"
)

const matcherIndex = `categories:
  restaurant:
    file: _base/restaurant.yaml
    name: Ресторан
    aliases: [кафе, бар]
  beauty:
    file: _base/beauty.yaml
    name: Салон красоты
    aliases: [салон, маникюр]
`

const matcherRestaurant = `id: restaurant
name: Ресторан
aliases: [пиццерия]
`

// beauty tries to claim "бар" through its extended alias list; the index
// registration for restaurant wins.
const matcherBeauty = `id: beauty
name: Салон красоты
aliases: [бар]
`

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"_index.yaml":           matcherIndex,
		"_base/restaurant.yaml": matcherRestaurant,
		"_base/beauty.yaml":     matcherBeauty,
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	s := store.New(store.Config{Root: dir})
	return NewMatcher(s, nil, observability.NewMetrics())
}

func TestDetectDirectAlias(t *testing.T) {
	m := newTestMatcher(t)
	assert.Equal(t, "restaurant", m.Detect(context.Background(), "у меня небольшое кафе в центре"))
}

func TestDetectInflectedForm(t *testing.T) {
	m := newTestMatcher(t)
	// "ресторана" is not an alias verbatim; the stem of the display name
	// plus a Cyrillic tail covers the genitive form.
	assert.Equal(t, "restaurant", m.Detect(context.Background(), "мы открываем два ресторана"))
	assert.Equal(t, "beauty", m.Detect(context.Background(), "запись на маникюра нет"))
}

func TestDetectExtendedProfileAlias(t *testing.T) {
	m := newTestMatcher(t)
	assert.Equal(t, "restaurant", m.Detect(context.Background(), "держу пиццерию у метро"))
}

func TestDetectNoMatch(t *testing.T) {
	m := newTestMatcher(t)
	assert.Equal(t, "", m.Detect(context.Background(), "we sell industrial pumps"))
	assert.Equal(t, "", m.Detect(context.Background(), ""))
}

func TestDetectRequiresWholeWord(t *testing.T) {
	m := newTestMatcher(t)
	// "барабан" contains the alias "бар" but not on a word boundary.
	assert.Equal(t, "", m.Detect(context.Background(), "играю на барабанах"))
}

func TestDetectDominantCategory(t *testing.T) {
	m := newTestMatcher(t)
	id := m.Detect(context.Background(), "кафе и бар, а рядом маникюр")
	assert.Equal(t, "restaurant", id)
}

func TestDetectAliasConflictFirstWins(t *testing.T) {
	m := newTestMatcher(t)
	// beauty's profile also lists "бар"; the index claim by restaurant holds.
	assert.Equal(t, "restaurant", m.Detect(context.Background(), "бар на набережной"))
}

func TestDetectWithConfidenceSingleCandidate(t *testing.T) {
	m := newTestMatcher(t)
	id, confidence := m.DetectWithConfidence(context.Background(), "обычное кафе")
	assert.Equal(t, "restaurant", id)
	assert.InDelta(t, 0.3, confidence, 1e-9)
}

func TestDetectWithConfidenceSingleCandidateCapped(t *testing.T) {
	m := newTestMatcher(t)
	id, confidence := m.DetectWithConfidence(context.Background(), "кафе, кафе, кафе и ещё раз кафе")
	assert.Equal(t, "restaurant", id)
	assert.Equal(t, 1.0, confidence)
}

func TestDetectWithConfidenceMargin(t *testing.T) {
	m := newTestMatcher(t)
	ctx := context.Background()

	// best=2, second=1: 2*0.2 + (1/2)*0.5
	id, narrow := m.DetectWithConfidence(ctx, "кафе и бар, потом маникюр")
	assert.Equal(t, "restaurant", id)
	assert.InDelta(t, 0.65, narrow, 1e-9)

	// best=3, second=1: a wider margin earns more confidence.
	_, wide := m.DetectWithConfidence(ctx, "кафе, кафе и бар, потом маникюр")
	assert.Greater(t, wide, narrow)
}

func TestDetectWithConfidenceNoMatch(t *testing.T) {
	m := newTestMatcher(t)
	id, confidence := m.DetectWithConfidence(context.Background(), "nothing relevant here")
	assert.Equal(t, "", id)
	assert.Zero(t, confidence)
}

func TestFindMentions(t *testing.T) {
	m := newTestMatcher(t)
	mentions := m.FindMentions(context.Background(), "кафе и бар возле ресторана", "restaurant")
	assert.Equal(t, []string{"бар", "кафе", "ресторан"}, mentions)

	assert.Empty(t, m.FindMentions(context.Background(), "кафе и бар", "beauty"))
	assert.Empty(t, m.FindMentions(context.Background(), "", "restaurant"))
}

func TestCountWholeWordsAdjacentOccurrences(t *testing.T) {
	pattern, err := compileAliasPattern("бар")
	require.NoError(t, err)
	assert.Equal(t, 2, countWholeWords(pattern, "бар бар"))
	assert.Equal(t, 2, countWholeWords(pattern, "бар,бар"))
	assert.Equal(t, 0, countWholeWords(pattern, "барабан"))
	assert.Equal(t, 1, countWholeWords(pattern, "БАР"))
}

func TestCompileAliasPatternMultiWord(t *testing.T) {
	pattern, err := compileAliasPattern("салон красоты")
	require.NoError(t, err)
	assert.Equal(t, 1, countWholeWords(pattern, "открыла салон красоты в прошлом году"))
	assert.Equal(t, 1, countWholeWords(pattern, "салон-красоты"))
	assert.Equal(t, 0, countWholeWords(pattern, "салон причёсок"))
}

func TestReloadRebuildsIndex(t *testing.T) {
	m := newTestMatcher(t)
	ctx := context.Background()
	require.Equal(t, "restaurant", m.Detect(ctx, "кафе"))
	m.Reload()
	assert.Equal(t, "restaurant", m.Detect(ctx, "кафе"))
}
