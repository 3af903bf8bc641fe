package adminusers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"seedflow/frontend/login"
	"seedflow/frontend/shared/context"
	"seedflow/frontend/shared/html"
	"seedflow/frontend/shared/nav"
	"seedflow/infrastructure/argon"
	"seedflow/infrastructure/audit"
	"seedflow/infrastructure/cache"
	"seedflow/infrastructure/rbac"
	"seedflow/infrastructure/sqlite"
)

const usersPath = "/tasker/admin/users"

func redirectUsers(w http.ResponseWriter, r *http.Request, key, msg string) {
	http.Redirect(w, r, usersPath+"?"+key+"="+url.QueryEscape(msg), http.StatusSeeOther)
}

// UsersPageQueryHandler renders the admin users list page.
func UsersPageQueryHandler(db *sqlite.DB, chrome html.Chrome, localMode bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		users, err := LoadUsers(r.Context(), db)
		if err != nil {
			logger.Error("admin users: failed to load data", zap.Error(err))
			http.Error(w, "failed to load users", http.StatusInternalServerError)
			return
		}

		data := PageData{
			Layout:       chrome(r, nav.CodeAdminUsers),
			Users:        users,
			Roles:        []string{rbac.RoleOperator, rbac.RoleAdmin},
			CurrentID:    session.UserID,
			LocalMode:    localMode,
			Status:       r.URL.Query().Get("status"),
			ErrorMessage: r.URL.Query().Get("error"),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := UsersListPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render users page", http.StatusInternalServerError)
			return
		}
	}
}

func createErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrUsernameRequired):
		return "O usuário deve ter de 3 a 64 caracteres, sem espaços"
	case errors.Is(err, ErrPasswordRequired):
		return "Informe a senha"
	case errors.Is(err, ErrInvalidRole):
		return "Perfil inválido"
	case errors.Is(err, ErrUsernameExists):
		return "Usuário já existe"
	case errors.Is(err, login.ErrPasswordTooShort):
		return "A senha deve ter pelo menos 8 caracteres"
	case errors.Is(err, login.ErrPasswordTooWeak):
		return "A senha deve conter letras e números"
	default:
		return "Não foi possível criar o usuário"
	}
}

func CreateUserCommandHandler(db *sqlite.DB, hasher *argon.Hasher, auditSvc *audit.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			redirectUsers(w, r, "error", "Dados do formulário inválidos")
			return
		}

		in := NewUserInput{
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
			Role:     r.FormValue("role"),
		}
		if err := CreateUser(r.Context(), db, hasher, auditSvc, session.UserID, in); err != nil {
			logger.Info("create user rejected", zap.String("username", strings.TrimSpace(in.Username)), zap.Error(err))
			redirectUsers(w, r, "error", createErrorMessage(err))
			return
		}
		redirectUsers(w, r, "status", "Usuário criado")
	}
}

// DeleteUserCommandHandler removes a user and ends their open sessions.
func DeleteUserCommandHandler(db *sqlite.DB, sessions *cache.SessionCache, users *cache.UserCache, auditSvc *audit.Service, release func(token string), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			redirectUsers(w, r, "error", "Usuário inválido")
			return
		}

		user, err := DeleteUser(r.Context(), db, auditSvc, session.UserID, id)
		switch {
		case errors.Is(err, ErrDeleteSelf):
			redirectUsers(w, r, "error", "Não é possível excluir o próprio usuário")
			return
		case errors.Is(err, ErrUserHasHistory):
			redirectUsers(w, r, "error", "O usuário possui histórico de comandos e não pode ser excluído")
			return
		case errors.Is(err, ErrUserNotFound):
			redirectUsers(w, r, "error", "Usuário não encontrado")
			return
		case err != nil:
			logger.Error("delete user failed", zap.Int64("user_id", id), zap.Error(err))
			redirectUsers(w, r, "error", "Não foi possível excluir o usuário")
			return
		}

		users.Delete(user.Username)
		for _, token := range sessions.DeleteUser(user.ID) {
			if release != nil {
				release(token)
			}
		}
		redirectUsers(w, r, "status", "Usuário excluído")
	}
}
