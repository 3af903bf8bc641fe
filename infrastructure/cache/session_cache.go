package cache

import (
	"sync"
	"time"

	"seedflow/models"
)

// SessionCache keeps live sessions by token so middleware skips the database
// on every request. Expired entries are never returned.
type SessionCache struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewSessionCache() *SessionCache {
	return &SessionCache{sessions: make(map[string]models.Session), now: time.Now}
}

func (c *SessionCache) Put(s models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = s
}

func (c *SessionCache) Get(token string) (models.Session, bool) {
	c.mu.RLock()
	s, ok := c.sessions[token]
	c.mu.RUnlock()
	if !ok {
		return models.Session{}, false
	}
	if c.now().After(s.ExpiresAt) {
		c.Delete(token)
		return models.Session{}, false
	}
	return s, true
}

func (c *SessionCache) Delete(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, token)
}

// DeleteUser drops every session of userID and returns the removed tokens.
func (c *SessionCache) DeleteUser(userID int64) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var tokens []string
	for token, s := range c.sessions {
		if s.UserID == userID {
			delete(c.sessions, token)
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// PurgeExpired removes expired sessions and returns their tokens.
func (c *SessionCache) PurgeExpired() []string {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	var tokens []string
	for token, s := range c.sessions {
		if now.After(s.ExpiresAt) {
			delete(c.sessions, token)
			tokens = append(tokens, token)
		}
	}
	return tokens
}
