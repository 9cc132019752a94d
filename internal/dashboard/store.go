// Package dashboard keeps the most recent aggregate snapshot per user in memory.
package dashboard

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/genefit/genefit-link/internal/constants"
	"github.com/genefit/genefit-link/internal/models"
)

// Entry is a cached snapshot and when it was fetched.
type Entry struct {
	Snapshot  *models.AggregateSnapshot
	FetchedAt time.Time
}

// Store is an expiring in-memory snapshot cache keyed by owner id.
type Store struct {
	client *cache.Cache
	ttl    time.Duration
}

// NewStore creates a store. ttl <= 0 uses the default TTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = constants.DashboardCacheTTL
	}
	return &Store{
		client: cache.New(ttl, constants.DashboardCacheCleanup),
		ttl:    ttl,
	}
}

// Put stores snap for ownerID, replacing any previous snapshot.
func (s *Store) Put(ownerID string, snap *models.AggregateSnapshot) {
	if snap == nil {
		return
	}
	s.client.Set(ownerID, Entry{Snapshot: snap, FetchedAt: time.Now()}, cache.DefaultExpiration)
}

// Get returns the cached snapshot for ownerID, if present and not expired.
func (s *Store) Get(ownerID string) (Entry, bool) {
	v, ok := s.client.Get(ownerID)
	if !ok {
		return Entry{}, false
	}
	e, ok := v.(Entry)
	return e, ok
}

// Invalidate drops the snapshot for ownerID.
func (s *Store) Invalidate(ownerID string) {
	s.client.Delete(ownerID)
}

// Len returns the number of cached snapshots, including expired ones not yet cleaned up.
func (s *Store) Len() int {
	return s.client.ItemCount()
}
