// Package store loads, merges, caches and persists category profiles from the
// on-disk knowledge directory:
//
//	config/categories/
//	    _index.yaml
//	    _countries.yaml
//	    _base/<id>.yaml
//	    <region>/<country>/<id>.yaml
//
// Load failures degrade to nil/empty results plus a log line and a diagnostic
// counter; the store never fails a caller because a content author broke one
// file. Read-modify-write of the index usage counters is last-writer-wins and
// relies on the surrounding system's single-writer assumption.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"anketa/internal/locale"
	"anketa/internal/logging"
	"anketa/internal/observability"
	"anketa/internal/profile"
)

const (
	indexFileName     = "_index.yaml"
	countriesFileName = "_countries.yaml"
	baseDirName       = "_base"
	extendsKey        = "_extends"

	defaultCacheSize = 256
	// DefaultTTL bounds how long a cached profile is served before the file
	// is re-read. Staleness is checked lazily at read time; there is no
	// background sweeper.
	DefaultTTL = 5 * time.Minute
)

type cacheEntry struct {
	profile  *profile.Profile
	loadedAt time.Time
}

// Config configures a Store.
type Config struct {
	// Root is the categories directory (contains _index.yaml).
	Root      string
	TTL       time.Duration
	CacheSize int
	Logger    logging.Logger
	Metrics   *observability.Metrics
	// Countries backfills locale metadata after a regional merge. Optional.
	Countries *locale.Resolver
}

// Store is the profile persistence layer. It is safe for concurrent readers;
// concurrent writers against the same category race on the backing file
// (documented hazard, single-writer assumption).
type Store struct {
	root      string
	ttl       time.Duration
	logger    logging.Logger
	metrics   *observability.Metrics
	countries *locale.Resolver

	mu    sync.RWMutex
	index *profile.Index
	cache *lru.Cache[string, cacheEntry]

	now func() time.Time
}

// New builds a Store. Zero config values fall back to defaults.
func New(config Config) *Store {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.CacheSize <= 0 {
		config.CacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, cacheEntry](config.CacheSize)
	if err != nil {
		// lru.New only errors on non-positive size which we guard above.
		cache, _ = lru.New[string, cacheEntry](defaultCacheSize)
	}
	countries := config.Countries
	if countries == nil {
		countries = locale.NewResolver(config.Logger, config.Metrics)
	}
	countries.LoadTable(filepath.Join(config.Root, countriesFileName))
	return &Store{
		root:      config.Root,
		ttl:       config.TTL,
		logger:    logging.OrNop(config.Logger),
		metrics:   config.Metrics,
		countries: countries,
		cache:     cache,
		now:       time.Now,
	}
}

// Root returns the categories directory.
func (s *Store) Root() string { return s.root }

// Countries exposes the resolver used for metadata backfill.
func (s *Store) Countries() *locale.Resolver { return s.countries }

// VerifyIndex parses the index file and returns the error instead of
// degrading. Hosts call it once at startup so a broken index fails fast
// rather than silently emptying every subsequent request.
func (s *Store) VerifyIndex() error {
	path := filepath.Join(s.root, indexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	var index profile.Index
	if err := yaml.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("parse index: %w", err)
	}
	if len(index.Categories) == 0 {
		return fmt.Errorf("index %s declares no categories", path)
	}
	return nil
}

// LoadIndex returns the category index, reading it once and caching until
// Reload. Errors degrade to an empty index.
func (s *Store) LoadIndex(ctx context.Context) *profile.Index {
	s.mu.RLock()
	cached := s.index
	s.mu.RUnlock()
	if cached != nil {
		return cached
	}

	index := s.readIndex()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		s.index = index
	}
	return s.index
}

func (s *Store) readIndex() *profile.Index {
	path := filepath.Join(s.root, indexFileName)
	index := &profile.Index{Categories: map[string]profile.IndexEntry{}}
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("index %s unreadable, serving empty index: %v", path, err)
		s.metrics.ParseFailure("store")
		return index
	}
	if err := yaml.Unmarshal(data, index); err != nil {
		s.logger.Warn("index %s malformed, serving empty index: %v", path, err)
		s.metrics.ParseFailure("store")
		return &profile.Index{Categories: map[string]profile.IndexEntry{}}
	}
	if index.Categories == nil {
		index.Categories = map[string]profile.IndexEntry{}
	}
	return index
}

// LoadProfile returns the base profile for id, nil when the category is
// unknown or its file is missing/malformed. Results are cached with a TTL.
func (s *Store) LoadProfile(ctx context.Context, id string) *profile.Profile {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if cached, ok := s.cachedProfile(id); ok {
		return cached
	}

	path := s.profilePath(ctx, id)
	raw, err := s.loadRawMap(path)
	if err != nil {
		s.logger.Warn("profile %s: %v", id, err)
		s.metrics.ParseFailure("store")
		return nil
	}
	loaded := s.decodeProfile(raw, id)
	if loaded == nil {
		return nil
	}
	s.storeCached(id, loaded)
	return loaded
}

// LoadRegionalProfile loads <region>/<country>/<id>.yaml, resolving its
// _extends base and deep-merging the regional overrides on top. A declared
// base that cannot be loaded degrades to regional-only data with a warning.
func (s *Store) LoadRegionalProfile(ctx context.Context, region, country, id string) *profile.Profile {
	region = strings.ToLower(strings.TrimSpace(region))
	country = strings.ToLower(strings.TrimSpace(country))
	id = strings.TrimSpace(id)
	if region == "" || country == "" || id == "" {
		return nil
	}
	key := regionalKey(region, country, id)
	if cached, ok := s.cachedProfile(key); ok {
		return cached
	}

	path := filepath.Join(s.root, region, country, id+".yaml")
	override, err := s.loadRawMap(path)
	if err != nil {
		s.logger.Warn("regional profile %s/%s/%s: %v", region, country, id, err)
		s.metrics.ParseFailure("store")
		return nil
	}

	var base map[string]any
	if ref, ok := override[extendsKey].(string); ok {
		delete(override, extendsKey)
		basePath := filepath.Join(s.root, filepath.FromSlash(strings.TrimSuffix(ref, ".yaml"))+".yaml")
		base, err = s.loadRawMap(basePath)
		if err != nil {
			s.logger.Warn("profile %s/%s/%s extends %s which failed to load, using regional data only: %v",
				region, country, id, ref, err)
			s.metrics.ParseFailure("store")
			base = nil
		}
	} else {
		delete(override, extendsKey)
	}

	merged := deepMerge(base, override)
	loaded := s.decodeProfile(merged, id)
	if loaded == nil {
		return nil
	}
	s.fillLocaleMeta(loaded, region, country)
	s.storeCached(key, loaded)
	return loaded
}

// SaveProfile serializes the profile back to its source file and refreshes
// the cache entry. With empty region/country the base file is written.
func (s *Store) SaveProfile(ctx context.Context, p *profile.Profile, region, country string) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("save profile: missing id")
	}
	var path, key string
	if region != "" && country != "" {
		path = filepath.Join(s.root, region, country, p.ID+".yaml")
		key = regionalKey(region, country, p.ID)
	} else {
		path = filepath.Join(s.root, baseDirName, p.ID+".yaml")
		key = p.ID
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", p.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure profile dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write profile %s: %w", p.ID, err)
	}
	s.storeCached(key, p)
	return nil
}

// InvalidateCache evicts one cached profile, or every profile when id is "".
func (s *Store) InvalidateCache(id string) {
	if id == "" {
		s.cache.Purge()
		return
	}
	for _, key := range s.cache.Keys() {
		if key == id || strings.HasSuffix(key, "/"+id) {
			s.cache.Remove(key)
		}
	}
}

// Reload drops the cached index and every cached profile.
func (s *Store) Reload() {
	s.mu.Lock()
	s.index = nil
	s.mu.Unlock()
	s.cache.Purge()
}

// IncrementUsageStats bumps the index usage counters for id and writes the
// index back. Not safe against concurrent writers (single-writer assumption).
func (s *Store) IncrementUsageStats(ctx context.Context, id string) {
	index := s.LoadIndex(ctx)
	if _, known := index.Categories[id]; !known {
		s.logger.Warn("usage stats: unknown category %q", id)
		return
	}

	s.mu.Lock()
	if index.Usage.Counts == nil {
		index.Usage.Counts = map[string]int{}
	}
	index.Usage.Counts[id]++
	index.Usage.TotalUses++
	most, top := index.Usage.MostUsed, index.Usage.Counts[index.Usage.MostUsed]
	if index.Usage.Counts[id] > top || most == "" {
		index.Usage.MostUsed = id
	}
	data, err := yaml.Marshal(index)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("usage stats: marshal index: %v", err)
		return
	}
	path := filepath.Join(s.root, indexFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Warn("usage stats: write index: %v", err)
		s.metrics.ParseFailure("store")
	}
}

// SetClock overrides the cache clock. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func regionalKey(region, country, id string) string {
	return region + "/" + country + "/" + id
}

func (s *Store) cachedProfile(key string) (*profile.Profile, bool) {
	entry, ok := s.cache.Get(key)
	if !ok {
		s.metrics.CacheMiss("profile")
		return nil, false
	}
	if s.now().Sub(entry.loadedAt) >= s.ttl {
		// Expired; evict so the LRU bookkeeping stays clean.
		s.cache.Remove(key)
		s.metrics.CacheMiss("profile")
		return nil, false
	}
	s.metrics.CacheHit("profile")
	return entry.profile, true
}

func (s *Store) storeCached(key string, p *profile.Profile) {
	s.cache.Add(key, cacheEntry{profile: p, loadedAt: s.now()})
}

// profilePath resolves the index entry's file, falling back to _base/<id>.yaml.
func (s *Store) profilePath(ctx context.Context, id string) string {
	index := s.LoadIndex(ctx)
	if entry, ok := index.Categories[id]; ok && entry.File != "" {
		path := filepath.Join(s.root, filepath.FromSlash(entry.File))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(s.root, baseDirName, id+".yaml")
}

func (s *Store) loadRawMap(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("parse %s: empty document", path)
	}
	return raw, nil
}

// decodeProfile converts a merged YAML document into the typed profile and
// runs invariant validation. Validation issues are logged, never fatal.
func (s *Store) decodeProfile(raw map[string]any, id string) *profile.Profile {
	data, err := yaml.Marshal(raw)
	if err != nil {
		s.logger.Warn("profile %s: re-marshal merged data: %v", id, err)
		s.metrics.ParseFailure("store")
		return nil
	}
	var p profile.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		s.logger.Warn("profile %s: decode: %v", id, err)
		s.metrics.ParseFailure("store")
		return nil
	}
	if p.ID != "" && p.ID != id {
		s.logger.Warn("profile file for %q declares id %q, keeping file stem", id, p.ID)
	}
	p.ID = id
	for _, issue := range p.Validate() {
		s.logger.Warn("profile %s: %s", id, issue)
	}
	return &p
}

// fillLocaleMeta fills locale fields that are still empty after the merge
// from the country metadata table. Merged values win when present.
func (s *Store) fillLocaleMeta(p *profile.Profile, region, country string) {
	if p.Region == "" {
		p.Region = region
	}
	if p.Country == "" {
		p.Country = country
	}
	meta, ok := s.countries.GetCountryMeta(country)
	if !ok {
		return
	}
	if p.Language == "" {
		p.Language = meta.Language
	}
	if p.Currency == "" {
		p.Currency = meta.Currency
	}
	if p.Timezone == "" {
		p.Timezone = meta.Timezone
	}
	if len(p.PhoneCodes) == 0 {
		p.PhoneCodes = append([]string(nil), meta.PhoneCodes...)
	}
}
