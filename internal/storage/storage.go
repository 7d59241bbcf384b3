package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"sync"
	"time"
)

const (
	maxRecentVisits = 50
	maxTopPaths     = 10
	hashedIPLength  = 16
)

var (
	// ErrInvalidVisit indicates a visit is missing its path or visitor hash.
	ErrInvalidVisit = errors.New("visit must have a path and a hashed IP")
)

// Visit is one recorded page view. Raw client addresses are never stored.
type Visit struct {
	HashedIP  string    `json:"hashedIp"`
	UserAgent string    `json:"userAgent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// PathCount is the number of views of one path.
type PathCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// Stats summarises recorded visits.
type Stats struct {
	TotalVisits    int64       `json:"totalVisits"`
	UniqueVisitors int64       `json:"uniqueVisitors"`
	VisitsToday    int64       `json:"visitsToday"`
	TopPaths       []PathCount `json:"topPaths"`
	RecentVisits   []Visit     `json:"recentVisits"`
}

// Storage records page views and reports aggregate statistics.
type Storage interface {
	RecordVisit(ctx context.Context, visit Visit) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// IPHasher turns client addresses into salted, truncated digests so repeat
// visitors can be counted without keeping their address.
type IPHasher struct {
	salt string
}

// NewIPHasher returns a hasher using salt.
func NewIPHasher(salt string) *IPHasher {
	return &IPHasher{salt: salt}
}

// Hash returns the visitor key for ip.
func (h *IPHasher) Hash(ip string) string {
	sum := sha256.Sum256([]byte(ip + h.salt))
	return hex.EncodeToString(sum[:])[:hashedIPLength]
}

// MemoryStorage keeps running counters plus a ring of the most recent visits,
// so its footprint does not grow with traffic. Access is guarded by a RWMutex.
type MemoryStorage struct {
	mu     sync.RWMutex
	total  int64
	unique map[string]struct{}
	paths  map[string]int64
	days   map[time.Time]int64
	recent [maxRecentVisits]Visit
	next   int
	filled int
	clock  func() time.Time
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		unique: make(map[string]struct{}),
		paths:  make(map[string]int64),
		days:   make(map[time.Time]int64),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// RecordVisit validates visit and folds it into the counters.
func (s *MemoryStorage) RecordVisit(_ context.Context, visit Visit) error {
	if err := validateVisit(&visit, s.clock); err != nil {
		return err
	}

	day := truncateToDay(visit.Timestamp.UTC())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.unique[visit.HashedIP] = struct{}{}
	s.paths[visit.Path]++
	if _, ok := s.days[day]; !ok {
		s.pruneDays(truncateToDay(s.clock().UTC()))
	}
	s.days[day]++

	s.recent[s.next] = visit
	s.next = (s.next + 1) % maxRecentVisits
	if s.filled < maxRecentVisits {
		s.filled++
	}

	return nil
}

// pruneDays drops day buckets before today. Callers hold mu.
func (s *MemoryStorage) pruneDays(today time.Time) {
	for day := range s.days {
		if day.Before(today) {
			delete(s.days, day)
		}
	}
}

// Stats reports the counters. Returned slices are copies.
func (s *MemoryStorage) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := truncateToDay(s.clock().UTC())
	stats := Stats{
		TotalVisits:    s.total,
		UniqueVisitors: int64(len(s.unique)),
		TopPaths:       topPaths(s.paths),
	}
	for day, count := range s.days {
		if !day.Before(today) {
			stats.VisitsToday += count
		}
	}

	recent := make([]Visit, 0, s.filled)
	for i := 1; i <= s.filled; i++ {
		recent = append(recent, s.recent[(s.next-i+maxRecentVisits)%maxRecentVisits])
	}
	stats.RecentVisits = recent

	return stats, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStorage) Close() error {
	return nil
}

func validateVisit(visit *Visit, clock func() time.Time) error {
	if visit.Path == "" || visit.HashedIP == "" {
		return ErrInvalidVisit
	}
	if visit.Timestamp.IsZero() {
		visit.Timestamp = clock()
	}
	return nil
}

func topPaths(counts map[string]int64) []PathCount {
	out := make([]PathCount, 0, len(counts))
	for path, views := range counts {
		out = append(out, PathCount{Path: path, Views: views})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Path < out[j].Path
	})
	if len(out) > maxTopPaths {
		out = out[:maxTopPaths]
	}
	return out
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
