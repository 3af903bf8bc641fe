package session

import (
	"net/http"
	"strings"
	"time"
)

const CookieName = "X-Session-Token"

// DefaultTTL is how long a login lasts when configuration does not say.
const DefaultTTL = 12 * time.Hour

// Cookies issues and clears the session cookie.
type Cookies struct {
	Secure bool
	TTL    time.Duration
}

func (c Cookies) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultTTL
	}
	return c.TTL
}

// Expiry returns the expiry time of a session created now.
func (c Cookies) Expiry() time.Time {
	return time.Now().Add(c.ttl())
}

func (c Cookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(token, int(c.ttl().Seconds())))
}

func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

func (c Cookies) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.Secure,
	}
}

// Token reads the session token from the request cookie.
func Token(r *http.Request) string {
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(ck.Value)
}
