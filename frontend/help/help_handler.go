package help

import (
	"net/http"

	sessioncontext "seedflow/frontend/shared/context"
	"seedflow/frontend/shared/html"
	"seedflow/frontend/shared/nav"
	"seedflow/infrastructure/rbac"
)

func HelpPageQueryHandler(chrome html.Chrome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		data := PageData{
			Layout:   chrome(r, nav.CodeHelp),
			IsAdmin:  session.User.Role == rbac.RoleAdmin,
			Statuses: statusRows(),
			Commands: commandRows(),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := HelpPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render help page", http.StatusInternalServerError)
			return
		}
	}
}
