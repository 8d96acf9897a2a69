package anubis

import (
	"sync"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/user"
)

// principalCache remembers introspection results keyed by token hash. It is
// bounded: when full, expired entries go first, then the one closest to
// expiry. A zero TTL disables it.
type principalCache struct {
	ttl   time.Duration
	limit int
	now   func() time.Time

	mu      sync.Mutex
	byToken map[string]cachedPrincipal
}

type cachedPrincipal struct {
	user.Principal
	until time.Time
}

func newPrincipalCache(ttl time.Duration, limit int) *principalCache {
	return &principalCache{
		ttl:     ttl,
		limit:   limit,
		now:     time.Now,
		byToken: make(map[string]cachedPrincipal),
	}
}

func (c *principalCache) get(key string) (user.Principal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hit, ok := c.byToken[key]
	if !ok {
		return user.Principal{}, false
	}
	if !c.now().Before(hit.until) {
		delete(c.byToken, key)
		return user.Principal{}, false
	}
	return hit.Principal, true
}

func (c *principalCache) put(key string, p user.Principal) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, replacing := c.byToken[key]; !replacing {
		c.makeRoom(now)
	}
	c.byToken[key] = cachedPrincipal{Principal: p, until: now.Add(c.ttl)}
}

func (c *principalCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byToken)
}

func (c *principalCache) makeRoom(now time.Time) {
	if c.limit <= 0 || len(c.byToken) < c.limit {
		return
	}
	victim, soonest := "", time.Time{}
	for key, hit := range c.byToken {
		if !now.Before(hit.until) {
			delete(c.byToken, key)
			continue
		}
		if victim == "" || hit.until.Before(soonest) {
			victim, soonest = key, hit.until
		}
	}
	if len(c.byToken) >= c.limit {
		delete(c.byToken, victim)
	}
}
