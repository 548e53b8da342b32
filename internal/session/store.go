// Package session keeps in-flight claim sessions in memory with an idle TTL.
package session

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/drfirst/dental-claims/internal/domain/claim"
	"github.com/drfirst/dental-claims/internal/reference"
)

// Store holds sessions keyed by ID. A session expires after ttl without access.
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewStore creates a session store. Expired sessions are swept every cleanup interval.
func NewStore(ttl, cleanup time.Duration) *Store {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Store{
		cache: gocache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

// Create starts and stores a new session for p.
func (s *Store) Create(p reference.Patient) *claim.Session {
	sess := claim.NewSession(uuid.New().String(), p)
	s.cache.Set(sess.ID(), sess, gocache.DefaultExpiration)
	return sess
}

// Get returns a session and extends its expiry.
func (s *Store) Get(id string) (*claim.Session, bool) {
	v, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	sess := v.(*claim.Session)
	s.cache.Set(id, sess, gocache.DefaultExpiration)
	return sess, true
}

// Delete removes a session
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Count returns the number of live sessions, including expired ones not yet swept.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}

// OnEvicted registers f to run when a session expires or is deleted.
func (s *Store) OnEvicted(f func(id string)) {
	s.cache.OnEvicted(func(k string, _ interface{}) { f(k) })
}
