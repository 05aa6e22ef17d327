// Package match classifies free interview text into a business category by
// counting alias occurrences. Word boundaries are expressed with explicit
// non-letter neighbour classes because \b is unreliable outside Latin
// scripts, and Cyrillic alias words are matched by stem plus a bounded tail
// of trailing letters to tolerate inflected forms.
package match

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"anketa/internal/logging"
	"anketa/internal/observability"
	"anketa/internal/store"
)

// profileLoadConcurrency bounds the one-off full profile pass that collects
// each category's extended alias list.
const profileLoadConcurrency = 4

// Matcher builds a lazy alias index over the store and classifies text.
type Matcher struct {
	store   *store.Store
	logger  logging.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	built    bool
	aliases  map[string]string         // lowercased alias -> category id
	patterns map[string]*regexp.Regexp // lowercased alias -> word pattern
}

// NewMatcher builds a Matcher over the store. The alias index is built lazily
// on first use.
func NewMatcher(s *store.Store, logger logging.Logger, metrics *observability.Metrics) *Matcher {
	return &Matcher{
		store:   s,
		logger:  logging.OrNop(logger),
		metrics: metrics,
	}
}

// Reload drops the alias index so the next call rebuilds it.
func (m *Matcher) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = false
	m.aliases = nil
	m.patterns = nil
}

// buildAliasIndex maps alias text to category ids from three sources: the
// index-declared aliases, the display names, and each profile's own extended
// alias list. The last source forces one full profile load pass, done with a
// bounded worker group.
func (m *Matcher) buildAliasIndex(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.built {
		return
	}
	m.aliases = make(map[string]string)
	m.patterns = make(map[string]*regexp.Regexp)

	index := m.store.LoadIndex(ctx)
	ids := make([]string, 0, len(index.Categories))
	for id, entry := range index.Categories {
		ids = append(ids, id)
		m.addAlias(id, id)
		m.addAlias(entry.Name, id)
		for _, alias := range entry.Aliases {
			m.addAlias(alias, id)
		}
	}
	sort.Strings(ids)

	extended := make([][]string, len(ids))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(profileLoadConcurrency)
	for i, id := range ids {
		i, id := i, id
		group.Go(func() error {
			if p := m.store.LoadProfile(groupCtx, id); p != nil {
				extended[i] = p.Aliases
			}
			return nil
		})
	}
	_ = group.Wait()
	for i, aliases := range extended {
		for _, alias := range aliases {
			m.addAlias(alias, ids[i])
		}
	}

	m.built = true
	m.logger.Debug("alias index built: %d aliases across %d categories", len(m.aliases), len(ids))
}

// addAlias registers one alias. First registration wins so index-declared
// aliases cannot be hijacked by another profile's extended list.
func (m *Matcher) addAlias(alias, id string) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if alias == "" {
		return
	}
	if owner, taken := m.aliases[alias]; taken {
		if owner != id {
			m.logger.Warn("alias %q already mapped to %q, ignoring claim by %q", alias, owner, id)
		}
		return
	}
	pattern, err := compileAliasPattern(alias)
	if err != nil {
		m.logger.Warn("alias %q: %v", alias, err)
		m.metrics.ParseFailure("match")
		return
	}
	m.aliases[alias] = id
	m.patterns[alias] = pattern
}

// compileAliasPattern builds a case-insensitive pattern for the alias text
// itself. Cyrillic words of stemming length are matched as stem + 0..6
// trailing Cyrillic letters. Word edges are NOT part of the pattern: RE2 has
// no lookarounds and a consuming boundary class would swallow the separator
// between adjacent occurrences, so neighbours are checked in code instead
// (wholeWordAt), which is also what keeps matching Unicode-safe where \b
// falls over on non-Latin scripts.
func compileAliasPattern(alias string) (*regexp.Regexp, error) {
	words := strings.Fields(alias)
	parts := make([]string, 0, len(words))
	for _, word := range words {
		if isCyrillicWord(word) && len([]rune(word)) >= stemWordRunes {
			stem := stemCyrillic(word)
			parts = append(parts, regexp.QuoteMeta(stem)+`\p{Cyrillic}{0,6}`)
			continue
		}
		parts = append(parts, regexp.QuoteMeta(word))
	}
	return regexp.Compile(`(?i)` + strings.Join(parts, `[\s-]+`))
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wholeWordAt reports whether the [start,end) match sits on word boundaries.
func wholeWordAt(text string, start, end int) bool {
	if start > 0 {
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordChar(before) {
			return false
		}
	}
	if end < len(text) {
		after, _ := utf8.DecodeRuneInString(text[end:])
		if isWordChar(after) {
			return false
		}
	}
	return true
}

// countWholeWords counts non-overlapping whole-word occurrences of pattern.
func countWholeWords(pattern *regexp.Regexp, text string) int {
	count := 0
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		if wholeWordAt(text, loc[0], loc[1]) {
			count++
		}
	}
	return count
}

// scores returns the per-category occurrence counts for text.
func (m *Matcher) scores(ctx context.Context, text string) map[string]int {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	m.buildAliasIndex(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	scores := make(map[string]int)
	for alias, pattern := range m.patterns {
		if hits := countWholeWords(pattern, text); hits > 0 {
			scores[m.aliases[alias]] += hits
		}
	}
	return scores
}

// Detect classifies text into the category whose aliases occur most often.
// Returns "" when no alias of any category occurs.
func (m *Matcher) Detect(ctx context.Context, text string) string {
	id, _ := m.DetectWithConfidence(ctx, text)
	return id
}

// DetectWithConfidence classifies text and reports a confidence in [0,1].
// With a single candidate the score alone drives confidence; with
// competitors the margin between the two best scores is weighed in.
func (m *Matcher) DetectWithConfidence(ctx context.Context, text string) (string, float64) {
	scores := m.scores(ctx, text)
	if len(scores) == 0 {
		m.metrics.Detection("none")
		return "", 0
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	best := float64(scores[ids[0]])
	var confidence float64
	if len(ids) == 1 {
		confidence = math.Min(1, best*0.3)
	} else {
		second := float64(scores[ids[1]])
		confidence = math.Min(1, best*0.2+(best-second)/best*0.5)
	}
	m.metrics.Detection("matched")
	return ids[0], confidence
}

// FindMentions returns the aliases of the category actually present in text,
// for explainability of a detection result.
func (m *Matcher) FindMentions(ctx context.Context, text, categoryID string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	m.buildAliasIndex(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	var mentions []string
	for alias, id := range m.aliases {
		if id != categoryID {
			continue
		}
		if countWholeWords(m.patterns[alias], text) > 0 {
			mentions = append(mentions, alias)
		}
	}
	sort.Strings(mentions)
	return mentions
}
