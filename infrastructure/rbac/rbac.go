package rbac

import (
	"strings"

	"seedflow/infrastructure/cache"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// ValidRole reports whether role is one the dashboard knows.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleOperator
}

// Rbac registers route resources per role and answers access checks.
type Rbac struct {
	cache *cache.RbacCache
}

func New(c *cache.RbacCache) *Rbac {
	return &Rbac{cache: c}
}

// Add grants role access to method+path under the resource code.
func (r *Rbac) Add(role, code, method, path string) {
	if r == nil || r.cache == nil {
		return
	}
	r.cache.Add(cache.Resource{Role: role, Code: code, Method: method, Path: path})
}

// Allowed reports whether any of roles may call method on urlPath.
func (r *Rbac) Allowed(roles []string, urlPath, method string) bool {
	if r == nil || r.cache == nil {
		return false
	}
	return ValidateResourceAccess(r.cache.ForRoles(roles), urlPath, method)
}

// Codes returns the set of resource codes reachable by roles, used to build
// the navigation.
func (r *Rbac) Codes(roles []string) map[string]bool {
	out := map[string]bool{}
	if r == nil || r.cache == nil {
		return out
	}
	for _, res := range r.cache.ForRoles(roles) {
		out[res.Code] = true
	}
	return out
}

func ValidateResourceAccess(resources []cache.Resource, urlPath, method string) bool {
	method = strings.ToUpper(method)
	for _, res := range resources {
		if res.Method == method && matchPath(res.Path, urlPath) {
			return true
		}
	}
	return false
}

// matchPath supports "*" for a single segment and a trailing "*" for any
// remaining suffix.
func matchPath(pattern, urlPath string) bool {
	want := segments(pattern)
	got := segments(urlPath)

	for i, seg := range want {
		last := i == len(want)-1
		if last && seg == "*" && len(got) > len(want) {
			return true
		}
		if i >= len(got) {
			return last && seg == "*" && len(got) == len(want)-1
		}
		if seg != "*" && seg != got[i] {
			return false
		}
	}
	return len(got) == len(want)
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
