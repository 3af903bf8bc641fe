package login

import (
	"net/http"

	"go.uber.org/zap"

	"seedflow/infrastructure/cache"
	sessioncookie "seedflow/infrastructure/session"
	"seedflow/infrastructure/sqlite"
)

// LogoutHandler removes the session, releases what was scoped to it and
// clears the cookie.
func LogoutHandler(db *sqlite.DB, sessions *cache.SessionCache, cookies sessioncookie.Cookies, release func(token string), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := sessioncookie.Token(r); token != "" {
			sessions.Delete(token)
			if release != nil {
				release(token)
			}
			if err := DeleteSessionByToken(r.Context(), db, token); err != nil {
				logger.Error("delete session failed", zap.Error(err))
			}
		}
		cookies.Clear(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
