package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminusers "seedflow/frontend/adminUsers"
	commandlog "seedflow/frontend/commandLog"
	"seedflow/frontend/devicestatus"
	"seedflow/frontend/help"
	"seedflow/frontend/login"
	"seedflow/frontend/production"
	"seedflow/frontend/shared/nav"
	"seedflow/infrastructure/config"
	"seedflow/infrastructure/rbac"
)

var everyone = []string{rbac.RoleAdmin, rbac.RoleOperator}

// allow grants each role access to method+path under code.
func (s *Server) allow(roles []string, code, method, path string) {
	for _, role := range roles {
		s.Rbac.Add(role, code, method, path)
	}
}

// RegisterLoginRoutes registers login/logout routes.
func (s *Server) RegisterLoginRoutes() {
	s.router.Get("/login", login.GetLoginScreenHandler)
	s.router.Post("/login", login.CreateLoginHandler(s.Auth, s.DB, s.Sessions, s.Cookies, s.Logger))
	s.router.Post("/logout", login.LogoutHandler(s.DB, s.Sessions, s.Cookies, s.Workspaces.Drop, s.Logger))
}

// RegisterAdminRoutes registers admin-only routes.
func (s *Server) RegisterAdminRoutes(r chi.Router) chi.Router {
	admin := []string{rbac.RoleAdmin}

	s.allow(admin, nav.CodeCommandLog, http.MethodGet, "/tasker/admin/commands")
	r.Get("/admin/commands", commandlog.CommandLogPageQueryHandler(s.DB, s.Chrome, s.Logger))

	localMode := s.Config.Auth.Mode == config.AuthModeLocal
	s.allow(admin, nav.CodeAdminUsers, http.MethodGet, "/tasker/admin/users")
	r.Get("/admin/users", adminusers.UsersPageQueryHandler(s.DB, s.Chrome, localMode, s.Logger))
	s.allow(admin, nav.CodeAdminUsers, http.MethodPost, "/tasker/admin/users")
	r.Post("/admin/users", adminusers.CreateUserCommandHandler(s.DB, s.Hasher, s.Audit, s.Logger))
	s.allow(admin, nav.CodeAdminUsers, http.MethodPost, "/tasker/admin/users/*/delete")
	r.Post("/admin/users/{id}/delete", adminusers.DeleteUserCommandHandler(s.DB, s.Sessions, s.Users, s.Audit, s.Workspaces.Drop, s.Logger))
	return r
}

// RegisterFrontendRoutes registers authenticated routes.
func (s *Server) RegisterFrontendRoutes(r chi.Router) chi.Router {
	s.RegisterProductionRoutes(r)

	s.allow(everyone, nav.CodeProduction, http.MethodGet, "/tasker/ws/device-status")
	r.Get("/ws/device-status", devicestatus.StreamHandler(s.Bridge.DeviceStatus, s.Config.Polling.DeviceStatusInterval, s.Logger))

	s.allow(everyone, nav.CodeHelp, http.MethodGet, "/tasker/help")
	r.Get("/help", help.HelpPageQueryHandler(s.Chrome))
	return r
}

func (s *Server) RegisterProductionRoutes(r chi.Router) {
	spaces := s.Workspaces

	s.allow(everyone, nav.CodeProduction, http.MethodGet, "/tasker/production")
	r.Get("/production", production.ProductionPageQueryHandler(spaces, s.Chrome, s.Logger))

	s.allow(everyone, nav.CodeProduction, http.MethodPost, "/tasker/production/rows/toggle")
	r.Post("/production/rows/toggle", production.ToggleRowCommandHandler(spaces))

	s.allow(everyone, nav.CodeProduction, http.MethodPost, "/tasker/production/actions/*")
	r.Post("/production/actions/open", production.OpenActionCommandHandler(spaces))
	r.Post("/production/actions/reason", production.SetReasonCommandHandler(spaces))
	r.Post("/production/actions/cancel", production.CancelActionCommandHandler(spaces))
	r.Post("/production/actions/confirm", production.ConfirmActionCommandHandler(spaces, s.Logger))

	s.allow(everyone, nav.CodeProduction, http.MethodPost, "/tasker/production/reload")
	r.Post("/production/reload", production.ReloadListCommandHandler(spaces))
	s.allow(everyone, nav.CodeProduction, http.MethodPost, "/tasker/production/refresh")
	r.Post("/production/refresh", production.RefreshCommandHandler(spaces, s.Logger))

	s.allow(everyone, nav.CodeProduction, http.MethodGet, "/tasker/api/production/state")
	r.Get("/api/production/state", production.StateQueryHandler(spaces))

	s.allow(everyone, production.CodeExport, http.MethodGet, "/tasker/production/export.csv")
	r.Get("/production/export.csv", production.ExportCSVHandler(spaces, s.Logger))
	s.allow(everyone, production.CodeExport, http.MethodGet, "/tasker/production/*/ticket.pdf")
	r.Get("/production/{numPlanej}/ticket.pdf", production.TicketPDFHandler(spaces, s.Logger))
}
