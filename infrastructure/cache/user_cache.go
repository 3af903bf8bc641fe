package cache

import (
	"strings"
	"sync"

	"seedflow/models"
)

// UserCache maps lower-cased usernames to their user row.
type UserCache struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewUserCache() *UserCache {
	return &UserCache{users: make(map[string]models.User)}
}

func (c *UserCache) Put(u models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[strings.ToLower(strings.TrimSpace(u.Username))] = u
}

func (c *UserCache) Get(username string) (models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[strings.ToLower(strings.TrimSpace(username))]
	return u, ok
}

func (c *UserCache) Delete(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, strings.ToLower(strings.TrimSpace(username)))
}
