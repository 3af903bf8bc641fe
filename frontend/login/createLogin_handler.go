package login

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"seedflow/infrastructure/cache"
	sessioncookie "seedflow/infrastructure/session"
	"seedflow/infrastructure/sqlite"
	"seedflow/models"
)

// HomePath is where a fresh login lands.
const HomePath = "/tasker/production"

func loginError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

// CreateLoginHandler authenticates the operator and issues a session cookie.
func CreateLoginHandler(auth Authenticator, db *sqlite.DB, sessions *cache.SessionCache, cookies sessioncookie.Cookies, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			loginError(w, r, "Dados do formulário inválidos")
			return
		}

		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		user, err := auth.Authenticate(r.Context(), username, password)
		switch {
		case errors.Is(err, ErrInvalidInput):
			loginError(w, r, "Usuário e senha devem ter pelo menos 3 caracteres")
			return
		case errors.Is(err, ErrInvalidCredentials):
			logger.Info("login rejected", zap.String("user", username))
			loginError(w, r, "Usuário ou senha inválidos")
			return
		case err != nil:
			logger.Error("login failed", zap.String("user", username), zap.Error(err))
			loginError(w, r, "Erro ao conectar com o servidor")
			return
		}

		session := newSession(user, cookies)
		if err := persistSession(r.Context(), db, session); err != nil {
			logger.Error("persist session failed", zap.Int64("user_id", user.ID), zap.Error(err))
			loginError(w, r, "Não foi possível criar a sessão")
			return
		}
		sessions.Put(session)

		logger.Info("login", zap.String("user", user.Username), zap.String("role", user.Role))
		cookies.Set(w, session.ID)
		http.Redirect(w, r, HomePath, http.StatusSeeOther)
	}
}

func newSession(user models.User, cookies sessioncookie.Cookies) models.Session {
	return models.Session{
		ID:        newSessionToken(),
		UserID:    user.ID,
		User:      user,
		UserRoles: []string{user.Role},
		ExpiresAt: cookies.Expiry(),
	}
}
