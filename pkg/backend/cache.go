package backend

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// nameTTL bounds how long a cached display name may outlive a profile
// update made through another server instance.
const nameTTL = time.Minute

// cache keeps display names of users, used to label invitation senders.
// It is local to the process: UpdateUserProfile drops the entry here, while
// other instances serve the old name until nameTTL elapses.
type cache struct {
	b     *Backend
	names *expirable.LRU[string, string]
}

func newCache(b *Backend, size int, ttl time.Duration) *cache {
	if size <= 0 {
		size = 1
	}
	return &cache{b: b, names: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *cache) Get(userID string) (string, bool) {
	return c.names.Get(userID)
}

func (c *cache) Set(userID string, name string) {
	c.names.Add(userID, name)
}

func (c *cache) Delete(userID string) {
	c.names.Remove(userID)
}

func (c *cache) Len() int {
	return c.names.Len()
}
