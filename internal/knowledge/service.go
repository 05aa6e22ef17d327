// Package knowledge is the read/write facade the interview and consultation
// flows use: profile lookup, industry detection, country resolution, context
// assembly, feedback recording and quality metrics. It owns the wiring of
// the store, matcher, resolver and assembler; callers hold one Service per
// knowledge directory.
package knowledge

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"anketa/internal/assemble"
	"anketa/internal/locale"
	"anketa/internal/logging"
	"anketa/internal/match"
	"anketa/internal/observability"
	"anketa/internal/profile"
	"anketa/internal/store"
)

// Config wires a Service. CategoriesDir and TemplatePath are required; the
// rest falls back to defaults.
type Config struct {
	CategoriesDir   string
	TemplatePath    string
	TTL             time.Duration
	CacheSize       int
	Budget          int
	LearningsWindow int
	Logger          logging.Logger
	Metrics         *observability.Metrics
}

// Service is the knowledge facade.
type Service struct {
	store     *store.Store
	matcher   *match.Matcher
	resolver  *locale.Resolver
	assembler *assemble.Assembler
	logger    logging.Logger
	metrics   *observability.Metrics
}

// New builds the facade. A malformed index or template fails here, at
// startup, rather than silently degrading every subsequent request; all
// later per-request failures follow the degrade-to-empty policy.
func New(config Config) (*Service, error) {
	logger := logging.OrNop(config.Logger)
	metrics := config.Metrics

	resolver := locale.NewResolver(logger, metrics)
	profileStore := store.New(store.Config{
		Root:      config.CategoriesDir,
		TTL:       config.TTL,
		CacheSize: config.CacheSize,
		Logger:    logger,
		Metrics:   metrics,
		Countries: resolver,
	})
	if err := profileStore.VerifyIndex(); err != nil {
		return nil, fmt.Errorf("knowledge index: %w", err)
	}

	templatePath := config.TemplatePath
	if templatePath == "" {
		templatePath = filepath.Join(filepath.Dir(config.CategoriesDir), "templates", "interview_phases.yaml")
	}
	template, err := assemble.LoadTemplate(templatePath)
	if err != nil {
		return nil, fmt.Errorf("phase template: %w", err)
	}

	matcher := match.NewMatcher(profileStore, logger, metrics)
	formatter := assemble.NewFormatter(template, logger)
	assembler := assemble.NewAssembler(profileStore, matcher, formatter, logger, metrics, assemble.Config{
		Budget:          config.Budget,
		LearningsWindow: config.LearningsWindow,
	})

	return &Service{
		store:     profileStore,
		matcher:   matcher,
		resolver:  resolver,
		assembler: assembler,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Store exposes the underlying profile store.
func (s *Service) Store() *store.Store { return s.store }

// Countries exposes the country resolver.
func (s *Service) Countries() *locale.Resolver { return s.resolver }

// GetProfile returns the base profile for a category, nil when unknown.
func (s *Service) GetProfile(ctx context.Context, id string) *profile.Profile {
	return s.store.LoadProfile(ctx, id)
}

// GetRegionalProfile returns the region/country-specific profile.
func (s *Service) GetRegionalProfile(ctx context.Context, region, country, id string) *profile.Profile {
	return s.store.LoadRegionalProfile(ctx, region, country, id)
}

// DetectIndustry classifies free text into a category id, "" when no alias
// matches.
func (s *Service) DetectIndustry(ctx context.Context, text string) string {
	return s.matcher.Detect(ctx, text)
}

// DetectIndustryWithConfidence classifies text with a confidence in [0,1].
func (s *Service) DetectIndustryWithConfidence(ctx context.Context, text string) (string, float64) {
	return s.matcher.DetectWithConfidence(ctx, text)
}

// FindMentions lists the category aliases present in text.
func (s *Service) FindMentions(ctx context.Context, text, id string) []string {
	return s.matcher.FindMentions(ctx, text, id)
}

// DetectCountry resolves (region, country) from phone, text or an explicit
// override.
func (s *Service) DetectCountry(phone, text, explicitCountry string) (string, string) {
	return s.resolver.Detect(phone, text, explicitCountry)
}

// GetContextForInterview assembles the context block for a phase.
func (s *Service) GetContextForInterview(ctx context.Context, phase string, history []assemble.DialogueTurn, p *profile.Profile) string {
	return s.assembler.BuildForPhase(ctx, phase, history, p)
}

// VoiceContext returns the compact one-line context for a voice turn.
func (s *Service) VoiceContext(ctx context.Context, history []assemble.DialogueTurn) string {
	return s.assembler.BuildForVoice(ctx, history)
}

// VoiceContextFull returns the budget-capped full context for a voice phase.
func (s *Service) VoiceContextFull(ctx context.Context, phase string, history []assemble.DialogueTurn, p *profile.Profile) string {
	return s.assembler.BuildForVoiceFull(ctx, phase, history, p)
}

// SetDocumentContext swaps the session document summary.
func (s *Service) SetDocumentContext(doc assemble.DocumentContext) {
	s.assembler.SetDocumentContext(doc)
}

// RecordLearning appends an insight to a category's learnings log.
// Unknown categories log a warning and no-op.
func (s *Service) RecordLearning(ctx context.Context, id, insight, source string) {
	s.appendLearning(ctx, id, insight, source)
}

// RecordSuccess records a success-tagged learning, distinguishable from a
// plain one by the reserved marker.
func (s *Service) RecordSuccess(ctx context.Context, id, insight, source string) {
	s.appendLearning(ctx, id, profile.SuccessMarker+" "+insight, source)
}

func (s *Service) appendLearning(ctx context.Context, id, insight, source string) {
	p := s.store.LoadProfile(ctx, id)
	if p == nil {
		s.logger.Warn("record learning: unknown category %q", id)
		return
	}
	p.Learnings = append(p.Learnings, profile.Learning{
		Date:    time.Now().Format("2006-01-02"),
		Insight: insight,
		Source:  source,
	})
	if err := s.store.SaveProfile(ctx, p, "", ""); err != nil {
		s.logger.Error("record learning for %s: %v", id, err)
		s.metrics.ParseFailure("knowledge")
	}
}

// GetRecentLearnings returns up to n learnings for a category, newest first.
func (s *Service) GetRecentLearnings(ctx context.Context, id string, n int) []profile.Learning {
	p := s.store.LoadProfile(ctx, id)
	if p == nil {
		return nil
	}
	return profile.RecentLearnings(p.Learnings, n)
}

// UpdateMetrics folds a consultation score into the category's running mean
// and bumps the run counter. Unknown categories log a warning and no-op.
func (s *Service) UpdateMetrics(ctx context.Context, id string, score float64) {
	p := s.store.LoadProfile(ctx, id)
	if p == nil {
		s.logger.Warn("update metrics: unknown category %q", id)
		return
	}
	runs := float64(p.Metrics.Runs)
	p.Metrics.AvgScore = (p.Metrics.AvgScore*runs + score) / (runs + 1)
	p.Metrics.Runs++
	if err := s.store.SaveProfile(ctx, p, "", ""); err != nil {
		s.logger.Error("update metrics for %s: %v", id, err)
		s.metrics.ParseFailure("knowledge")
	}
}

// IncrementUsage bumps the index usage counters for a detected category.
func (s *Service) IncrementUsage(ctx context.Context, id string) {
	s.store.IncrementUsageStats(ctx, id)
}

// Reload drops every cache: the profile cache, the index and the alias
// index. The next request rebuilds them from disk.
func (s *Service) Reload() {
	s.store.Reload()
	s.matcher.Reload()
}
