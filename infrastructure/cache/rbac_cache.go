package cache

import (
	"sort"
	"strings"
	"sync"
)

// Resource is one route a role may reach.
type Resource struct {
	Code   string
	Path   string
	Method string
	Role   string
}

// RbacCache indexes route resources by role.
type RbacCache struct {
	mu     sync.RWMutex
	byRole map[string][]Resource
	codes  map[string]struct{}
}

func NewRbacCache() *RbacCache {
	return &RbacCache{byRole: make(map[string][]Resource), codes: make(map[string]struct{})}
}

func (c *RbacCache) Add(r Resource) {
	r.Method = strings.ToUpper(r.Method)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byRole[r.Role] = append(c.byRole[r.Role], r)
	c.codes[r.Code] = struct{}{}
}

// ForRoles returns the union of resources of roles.
func (c *RbacCache) ForRoles(roles []string) []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Resource
	for _, role := range roles {
		out = append(out, c.byRole[role]...)
	}
	return out
}

// Codes lists every registered resource code, sorted.
func (c *RbacCache) Codes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.codes))
	for code := range c.codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
