package assemble

import (
	"context"
	"strings"
	"sync"

	"anketa/internal/logging"
	"anketa/internal/match"
	"anketa/internal/observability"
	"anketa/internal/profile"
	"anketa/internal/shared/token"
	"anketa/internal/store"
)

const (
	// DefaultBudget is the hard character cap for full voice context.
	DefaultBudget = 4000
	// DefaultLearningsWindow is how many recent learnings get injected.
	DefaultLearningsWindow = 5

	truncationMarker = "\n[context truncated]"

	// RoleUser marks dialogue turns read for category detection.
	RoleUser = "user"
)

// DialogueTurn is one turn of the interview transcript.
type DialogueTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DocumentContext is the opaque collaborator carrying a parsed client
// document. The assembler calls only ToPromptContext and never inspects
// document internals.
type DocumentContext interface {
	ToPromptContext() string
}

// phaseExtras maps a phase to the v2 fields injected beyond its template
// blocks. The fixed table keeps a field from being duplicated across phases;
// a field already covered by the phase's own template is skipped too.
var phaseExtras = map[string][]string{
	"analysis":   {"sales_scripts", "competitors"},
	"proposal":   {"pricing_context", "market_context"},
	"refinement": {"competitors"},
}

var extraFormats = map[string]string{
	"sales_scripts":   "script_list",
	"competitors":     "competitor_list",
	"pricing_context": "pricing_summary",
	"market_context":  "market_summary",
}

// Config tunes an Assembler. Zero values fall back to defaults.
type Config struct {
	Budget          int
	LearningsWindow int
}

// Assembler combines the phase template output, per-phase extras, recent
// learnings and the session document summary into one bounded prompt block.
type Assembler struct {
	store     *store.Store
	matcher   *match.Matcher
	formatter *Formatter
	logger    logging.Logger
	metrics   *observability.Metrics

	budget          int
	learningsWindow int

	mu       sync.RWMutex
	document DocumentContext
}

// NewAssembler wires the assembler over its collaborators.
func NewAssembler(s *store.Store, m *match.Matcher, f *Formatter, logger logging.Logger, metrics *observability.Metrics, config Config) *Assembler {
	if config.Budget <= 0 {
		config.Budget = DefaultBudget
	}
	if config.LearningsWindow <= 0 {
		config.LearningsWindow = DefaultLearningsWindow
	}
	return &Assembler{
		store:           s,
		matcher:         m,
		formatter:       f,
		logger:          logging.OrNop(logger),
		metrics:         metrics,
		budget:          config.Budget,
		learningsWindow: config.LearningsWindow,
	}
}

// SetDocumentContext swaps the session-scoped document summary without
// rebuilding the assembler. A nil doc clears it.
func (a *Assembler) SetDocumentContext(doc DocumentContext) {
	a.mu.Lock()
	a.document = doc
	a.mu.Unlock()
}

func (a *Assembler) documentContext() string {
	a.mu.RLock()
	doc := a.document
	a.mu.RUnlock()
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.ToPromptContext())
}

// userText concatenates the user turns of the transcript.
func userText(history []DialogueTurn) string {
	var parts []string
	for _, turn := range history {
		if turn.Role == RoleUser && strings.TrimSpace(turn.Content) != "" {
			parts = append(parts, turn.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// resolveProfile detects the category over the user turns when the caller
// did not supply a profile.
func (a *Assembler) resolveProfile(ctx context.Context, history []DialogueTurn) *profile.Profile {
	text := userText(history)
	if text == "" {
		return nil
	}
	id := a.matcher.Detect(ctx, text)
	if id == "" {
		return nil
	}
	return a.store.LoadProfile(ctx, id)
}

// BuildForPhase assembles the context block for one consultation phase.
// Returns "" when every ingredient is empty.
func (a *Assembler) BuildForPhase(ctx context.Context, phase string, history []DialogueTurn, p *profile.Profile) string {
	if p == nil {
		p = a.resolveProfile(ctx, history)
	}

	var parts []string
	if section := a.formatter.BuildContext(p, phase); section != "" {
		parts = append(parts, section)
	}
	if extras := a.renderExtras(p, phase); extras != "" {
		parts = append(parts, extras)
	}
	if learnings := a.renderLearnings(p); learnings != "" {
		parts = append(parts, learnings)
	}
	if doc := a.documentContext(); doc != "" {
		parts = append(parts, doc)
	}
	return strings.Join(parts, "\n\n")
}

// renderExtras appends the phase's v2 fields that the template itself does
// not cover.
func (a *Assembler) renderExtras(p *profile.Profile, phase string) string {
	if p == nil {
		return ""
	}
	var parts []string
	for _, key := range phaseExtras[phase] {
		if a.formatter.template.covers(phase, key) {
			continue
		}
		block := Block{Key: key, Format: extraFormats[key]}
		if content := a.formatter.renderBlock(p, block); content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n")
}

func (a *Assembler) renderLearnings(p *profile.Profile) string {
	if p == nil {
		return ""
	}
	recent := profile.RecentLearnings(p.Learnings, a.learningsWindow)
	rendered := formatLearnings(recent, a.formatter.template.labels("learning_list"))
	if rendered == "" {
		return ""
	}
	return "Recent learnings:\n" + rendered
}

// BuildForVoice produces the compact single-line variant for low-latency
// voice-turn injection: category, top pains, top functions, last learning.
func (a *Assembler) BuildForVoice(ctx context.Context, history []DialogueTurn) string {
	p := a.resolveProfile(ctx, history)
	if p == nil {
		return ""
	}

	segments := []string{"industry: " + p.ID}

	var pains []string
	for _, pain := range p.PainPoints {
		if pain.Severity != profile.LevelHigh || pain.Description == "" {
			continue
		}
		pains = append(pains, truncateRunes(pain.Description, 60))
		if len(pains) == 3 {
			break
		}
	}
	if len(pains) > 0 {
		segments = append(segments, "pains: "+strings.Join(pains, "; "))
	}

	var functions []string
	for _, fn := range p.Functions {
		if fn.Priority != profile.LevelHigh || fn.Name == "" {
			continue
		}
		functions = append(functions, fn.Name)
		if len(functions) == 3 {
			break
		}
	}
	if len(functions) > 0 {
		segments = append(segments, "offer: "+strings.Join(functions, "; "))
	}

	if recent := profile.RecentLearnings(p.Learnings, 1); len(recent) > 0 {
		segments = append(segments, "note: "+truncateRunes(profile.StripMarker(recent[0].Insight), 80))
	}

	return strings.Join(segments, " | ")
}

// BuildForVoiceFull assembles the full-phase ingredients under the hard
// character cap. Over-budget output is truncated and annotated; the
// assembler never emits unbounded text.
func (a *Assembler) BuildForVoiceFull(ctx context.Context, phase string, history []DialogueTurn, p *profile.Profile) string {
	full := a.BuildForPhase(ctx, phase, history, p)
	if full == "" {
		return ""
	}
	a.logger.Debug("voice-full context for phase %s: %d chars, ~%d tokens",
		phase, len([]rune(full)), token.EstimateFast(full))
	if len([]rune(full)) <= a.budget {
		return full
	}
	a.metrics.Truncation("voice_full")
	a.logger.Warn("voice-full context over budget (%d > %d chars), truncating", len([]rune(full)), a.budget)
	keep := a.budget - len([]rune(truncationMarker))
	if keep < 0 {
		keep = 0
	}
	return truncateRunes(full, keep) + truncationMarker
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
