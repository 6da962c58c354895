// Package cache provides a ristretto-backed user cache.
package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/damianoneill/user-service/pkg/domain/users"
)

// DefaultMaxCost bounds the cache at roughly 1 MiB of user records.
const DefaultMaxCost = 1 << 20

// UserCache holds users by id. Users are immutable once created, so entries
// never need invalidation.
type UserCache struct {
	cache *ristretto.Cache
}

var _ users.Cache = (*UserCache)(nil)

// New creates a cache bounded by maxCost bytes. A non-positive maxCost uses
// DefaultMaxCost.
func New(maxCost int64) (*UserCache, error) {
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}
	numCounters := max(1, maxCost/10) // ~100 bytes per entry, 10x counters

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating user cache: %w", err)
	}
	return &UserCache{cache: c}, nil
}

func (c *UserCache) Get(id int64) (users.User, bool) {
	val, found := c.cache.Get(id)
	if !found {
		return users.User{}, false
	}
	u, ok := val.(users.User)
	return u, ok
}

// Set admits u asynchronously; a Get immediately after may still miss.
func (c *UserCache) Set(u users.User) {
	c.cache.Set(u.ID, u, cost(u))
}

// Wait blocks until pending sets are applied.
func (c *UserCache) Wait() {
	c.cache.Wait()
}

func (c *UserCache) Close() {
	c.cache.Close()
}

func cost(u users.User) int64 {
	// id and timestamp plus the two strings
	return int64(32 + len(u.Username) + len(u.Email))
}
