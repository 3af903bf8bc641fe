package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndReadToken(t *testing.T) {
	rec := httptest.NewRecorder()
	Cookies{TTL: time.Hour}.Set(rec, "abc123")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	assert.Equal(t, "abc123", Token(req))
}

func TestClearExpiresCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	Cookies{Secure: true}.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure)
}

func TestExpiryDefaultsTTL(t *testing.T) {
	got := Cookies{}.Expiry()
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), got, time.Minute)
	assert.Empty(t, Token(httptest.NewRequest(http.MethodGet, "/", nil)))
}
