package render

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default artifact store limits.
const (
	DefaultArtifactCapacity = 32
	DefaultArtifactTTL      = 2 * time.Minute
)

// ArtifactStore hands out short-lived download references.
//
// A reference is released by the first Take, by expiry, or when the store is
// full and it is the least recently acquired.
type ArtifactStore struct {
	cache *expirable.LRU[string, Artifact]
}

// NewArtifactStore creates a store holding at most capacity references for
// at most ttl each. Non-positive values select the defaults.
func NewArtifactStore(capacity int, ttl time.Duration) *ArtifactStore {
	if capacity <= 0 {
		capacity = DefaultArtifactCapacity
	}
	if ttl <= 0 {
		ttl = DefaultArtifactTTL
	}
	return &ArtifactStore{
		cache: expirable.NewLRU[string, Artifact](capacity, nil, ttl),
	}
}

// Acquire stores a and returns its reference token.
func (s *ArtifactStore) Acquire(a Artifact) string {
	token := uuid.NewString()
	s.cache.Add(token, a)
	return token
}

// Take returns the artifact for token and releases the reference.
// A token can be taken once.
func (s *ArtifactStore) Take(token string) (Artifact, bool) {
	a, ok := s.cache.Peek(token)
	if !ok {
		return Artifact{}, false
	}
	if !s.cache.Remove(token) {
		// Lost a race with another Take or with expiry.
		return Artifact{}, false
	}
	return a, true
}

// Len returns the number of live references.
func (s *ArtifactStore) Len() int {
	return s.cache.Len()
}
