package core

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"

	"propindex/pkg/common"
	"propindex/pkg/config"
	"propindex/pkg/core/avl"
	"propindex/pkg/core/structure"
	"propindex/pkg/logging"
	"propindex/pkg/monitor"
	"propindex/pkg/render"
	"propindex/pkg/storage"
)

// Store hosts one Index and serializes every call into it behind a single
// RWMutex. Lookups pass through a bloom filter; criteria results are
// cached until the next mutation.
type Store struct {
	mu    sync.RWMutex
	index Index
	bloom *structure.BloomFilter
	cache *freelru.SyncedLRU[common.Criteria, []*common.Property]
	stats *monitor.WorkloadStats
	conf  config.IndexConfig
	log   logging.Logger
}

func NewStore(cfg *config.Config, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Discard{}
	}
	index, err := NewIndex(cfg.Index.Engine, cfg.Index.BTreeDegree)
	if err != nil {
		return nil, err
	}

	s := &Store{
		index: index,
		bloom: structure.NewBloomFilter(cfg.Index.BloomSize, cfg.Index.BloomFalseProb),
		stats: monitor.NewWorkloadStats(),
		conf:  cfg.Index,
		log:   logger,
	}
	if cfg.Index.QueryCacheSize > 0 {
		s.cache, err = freelru.NewSynced[common.Criteria, []*common.Property](cfg.Index.QueryCacheSize, hashCriteria)
		if err != nil {
			return nil, fmt.Errorf("query cache: %w", err)
		}
	}
	return s, nil
}

func hashCriteria(c common.Criteria) uint32 {
	key := fmt.Sprintf("%s|%d|%v|%v|%v", c.City, c.MinBedrooms, c.MaxPrice, c.MinMetric, c.MaxMetric)
	return uint32(xxhash.Sum64String(key))
}

// invalidateLocked runs under the write lock after every mutation.
func (s *Store) invalidateLocked() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// Put indexes p by its derived metric and returns the key used.
func (s *Store) Put(p *common.Property) (common.KeyType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(p)
}

func (s *Store) putLocked(p *common.Property) (common.KeyType, error) {
	key, err := s.index.InsertProperty(p)
	if err != nil {
		s.stats.RecordReject()
		return 0, err
	}
	s.stats.RecordWrite()
	s.bloom.Add(key)
	s.invalidateLocked()
	return key, nil
}

// Insert stores p under an explicit key.
func (s *Store) Insert(key common.KeyType, p *common.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Insert(key, p); err != nil {
		s.stats.RecordReject()
		return err
	}
	s.stats.RecordWrite()
	s.bloom.Add(key)
	s.invalidateLocked()
	return nil
}

// Get returns the record stored under key, or common.ErrNotFound.
func (s *Store) Get(key common.KeyType) (*common.Property, error) {
	s.stats.RecordRead()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.bloom.Contains(key) {
		return nil, fmt.Errorf("%w: %v", common.ErrNotFound, key)
	}
	return s.index.FindByKey(key)
}

// Delete removes one record under key and reports whether one existed.
func (s *Store) Delete(key common.KeyType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.index.DeleteByKey(key) {
		return false
	}
	s.stats.RecordDelete()
	s.invalidateLocked()
	return true
}

// Search runs a criteria search. The returned slice belongs to the caller.
func (s *Store) Search(c common.Criteria) ([]*common.Property, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s.stats.RecordSearch()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cache != nil {
		if hit, ok := s.cache.Get(c); ok {
			s.stats.RecordHit()
			return slices.Clone(hit), nil
		}
	}

	result, err := s.index.FindByCriteria(c)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(c, result)
	}
	return slices.Clone(result), nil
}

// Entries returns a key-ordered snapshot of the index.
func (s *Store) Entries() []common.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]common.Entry, 0, s.index.Len())
	for k, p := range s.index.InOrder() {
		entries = append(entries, common.Entry{Key: k, Property: p})
	}
	return entries
}

// Tree renders the index shape. The btree engine has no inspectable
// shape and renders as an ordered listing.
func (s *Store) Tree() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.index.(*avl.Tree); ok {
		return render.Tree(t)
	}
	return render.Ordered(s.index.InOrder())
}

// Check verifies the engine's structural invariants.
func (s *Store) Check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.index.(*avl.Tree); ok {
		return t.Check()
	}
	prev, n := math.Inf(-1), 0
	for k := range s.index.InOrder() {
		if k < prev {
			return fmt.Errorf("%s index out of order: %v follows %v", s.index.Type(), k, prev)
		}
		prev = k
		n++
	}
	if n != s.index.Len() {
		return fmt.Errorf("%s index walked %d records, Len is %d", s.index.Type(), n, s.index.Len())
	}
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Len()
}

func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.stats.Snapshot()
	stats := map[string]interface{}{
		"engine":           s.index.Type(),
		"record_count":     s.index.Len(),
		"reads":            snap.Reads,
		"writes":           snap.Writes,
		"deletes":          snap.Deletes,
		"searches":         snap.Searches,
		"cache_hits":       snap.CacheHits,
		"rejects":          snap.Rejects,
		"read_write_ratio": snap.ReadWriteRatio,
	}
	if t, ok := s.index.(*avl.Tree); ok {
		stats["height"] = t.Height()
	}
	if s.cache != nil {
		stats["cache_entries"] = s.cache.Len()
	}
	for k, v := range s.bloom.Stats() {
		stats[k] = v
	}
	return stats
}

// Reset drops every record.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := NewIndex(s.conf.Engine, s.conf.BTreeDegree)
	if err != nil {
		return err
	}
	s.index = index
	s.bloom.Reset()
	s.invalidateLocked()
	s.log.Info("index reset", "engine", index.Type())
	return nil
}

// Load feeds every record of src through Put. Invalid records are counted
// and logged, not fatal. It returns how many records were indexed.
func (s *Store) Load(src storage.Source) (int, error) {
	records, err := src.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("load dataset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, rejected := 0, 0
	for i := range records {
		p := records[i]
		if _, err := s.putLocked(&p); err != nil {
			if !errors.Is(err, common.ErrInvalidRecord) {
				return loaded, err
			}
			rejected++
			s.log.Debug("skipping record", "row", i, "err", err)
			continue
		}
		loaded++
	}
	s.log.Info("dataset loaded", "engine", s.index.Type(), "loaded", loaded, "rejected", rejected)
	return loaded, nil
}
