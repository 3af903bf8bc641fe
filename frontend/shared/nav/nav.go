package nav

import "seedflow/models"

// Resource codes that appear in the sidebar.
const (
	CodeProduction = "PRODUCTION"
	CodeHelp       = "HELP"
	CodeCommandLog = "COMMAND_LOG"
	CodeAdminUsers = "ADMIN_USERS"
)

type Link struct {
	Code   string
	Label  string
	Href   string
	Active bool
}

// Data is shared with page renderers.
type Data struct {
	Username string
	Role     string
	Links    []Link
}

var sidebar = []Link{
	{Code: CodeProduction, Label: "Produção", Href: "/tasker/production"},
	{Code: CodeCommandLog, Label: "Histórico de comandos", Href: "/tasker/admin/commands"},
	{Code: CodeAdminUsers, Label: "Operadores", Href: "/tasker/admin/users"},
	{Code: CodeHelp, Label: "Ajuda", Href: "/tasker/help"},
}

// Build keeps the sidebar links the session may reach and marks active.
func Build(session models.Session, allowed map[string]bool, active string) Data {
	d := Data{Username: session.User.Username, Role: session.User.Role}
	for _, l := range sidebar {
		if !allowed[l.Code] {
			continue
		}
		l.Active = l.Code == active
		d.Links = append(d.Links, l)
	}
	return d
}
