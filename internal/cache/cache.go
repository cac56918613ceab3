// Package cache holds short-lived verified-token claims so the auth
// middleware does not re-verify a JWT signature on every request. Collection
// data is never cached here; every request still re-reads the data store.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

type ClaimsCache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

func New(maxCost int64, ttl time.Duration) (*ClaimsCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &ClaimsCache{c: c, ttl: ttl}, nil
}

// Get returns the user ID previously verified for this token.
func (c *ClaimsCache) Get(token string) (string, bool) {
	v, ok := c.c.Get(token)
	if !ok {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok
}

func (c *ClaimsCache) Set(token, userID string) {
	c.c.SetWithTTL(token, userID, 1, c.ttl)
}

func (c *ClaimsCache) Del(token string) { c.c.Del(token) }
