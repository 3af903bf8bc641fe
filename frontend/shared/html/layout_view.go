package html

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"seedflow/frontend/shared/nav"
	"seedflow/infrastructure/fetch"
	"seedflow/infrastructure/notify"
	"seedflow/models"
)

// Device badge states, shared with the status stream.
const (
	DeviceLoading = "loading"
	DeviceOnline  = "online"
	DeviceOffline = "offline"
	DeviceError   = "error"
)

// DeviceBadge is the CLP indicator in the sidebar.
type DeviceBadge struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// BadgeFromState maps a CLP status fetch onto the badge.
func BadgeFromState(s fetch.State[[]models.DeviceStatus]) DeviceBadge {
	switch {
	case s.Loading:
		return DeviceBadge{State: DeviceLoading}
	case s.Error != "":
		return DeviceBadge{State: DeviceError, Error: s.Error}
	case models.DeviceOnline(s.Data):
		return DeviceBadge{State: DeviceOnline}
	default:
		return DeviceBadge{State: DeviceOffline}
	}
}

func (b DeviceBadge) Label() string {
	switch b.State {
	case DeviceOnline:
		return "CLP online"
	case DeviceOffline:
		return "CLP offline"
	case DeviceError:
		return "CLP sem resposta"
	default:
		return "CLP verificando..."
	}
}

func (b DeviceBadge) Class() string {
	switch b.State {
	case DeviceOnline:
		return "badge-success"
	case DeviceOffline, DeviceError:
		return "badge-error"
	default:
		return "badge-ghost"
	}
}

type LayoutData struct {
	Title  string
	Nav    nav.Data
	Device DeviceBadge
	Toasts []notify.Toast
	// Resource codes the session may use, for hiding buttons.
	Permissions map[string]bool
	// Body attributes read by app.js.
	ScrollToTop    bool
	PendingRefetch bool
	LiveDevice     bool
}

// Can reports whether the session holds the resource code.
func (d LayoutData) Can(code string) bool { return d.Permissions[code] }

// Chrome builds the layout of the request's session with the active sidebar
// entry marked.
type Chrome func(r *http.Request, active string) LayoutData

// Layout wraps body in the dashboard shell.
func Layout(data LayoutData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := NewWriter(w)
		hw.Printf(`<!doctype html><html lang="pt-BR" data-theme="corporate"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s · Gestão de Produção</title><link rel="stylesheet" href="/assets/app.css"></head>`, data.Title)
		hw.Raw(`<body class="min-h-screen bg-base-200"`)
		if data.ScrollToTop {
			hw.Raw(` data-scroll-top="true"`)
		}
		if data.PendingRefetch {
			hw.Raw(` data-pending-refetch="true"`)
		}
		if data.LiveDevice {
			hw.Raw(` data-device-stream="/tasker/ws/device-status"`)
		}
		hw.Raw(`><a id="top"></a><div class="flex min-h-screen">`)
		renderSidebar(hw, data)
		hw.Raw(`<main class="flex-1 overflow-y-auto p-4 md:p-6">`)
		hw.Render(ctx, body)
		hw.Raw(`</main></div>`)
		renderToasts(hw, data.Toasts)
		hw.Raw(CSRFFormScript())
		hw.Raw(`<script src="/assets/app.js" defer></script></body></html>`)
		return hw.Err()
	})
}

func renderSidebar(hw *Writer, data LayoutData) {
	hw.Raw(`<aside class="w-64 shrink-0 bg-base-100 shadow"><div class="p-4"><h1 class="text-lg font-bold">Gestão de Produção</h1>`)
	hw.Printf(`<span id="clp-badge" class="badge mt-2 %s" data-state="%s">%s</span></div>`, data.Device.Class(), data.Device.State, data.Device.Label())
	hw.Raw(`<ul class="menu">`)
	for _, l := range data.Nav.Links {
		class := ""
		if l.Active {
			class = "active"
		}
		hw.Printf(`<li><a class="%s" href="%s">%s</a></li>`, class, l.Href, l.Label)
	}
	hw.Raw(`</ul>`)
	if data.Nav.Username != "" {
		hw.Printf(`<div class="p-4 text-sm opacity-70">%s (%s)</div>`, data.Nav.Username, data.Nav.Role)
		hw.Raw(`<form method="post" action="/logout" class="px-4"><button class="btn btn-sm btn-outline w-full" type="submit">Sair</button></form>`)
	}
	hw.Raw(`</aside>`)
}

func renderToasts(hw *Writer, toasts []notify.Toast) {
	if len(toasts) == 0 {
		return
	}
	hw.Raw(`<div class="toast toast-end" id="toasts">`)
	for _, t := range toasts {
		class := "alert-info"
		switch t.Level {
		case notify.LevelSuccess:
			class = "alert-success"
		case notify.LevelError:
			class = "alert-error"
		}
		hw.Printf(`<div class="alert %s" role="status" data-toast><div><strong>%s</strong><div class="text-sm">%s</div></div></div>`, class, t.Title, t.Message)
	}
	hw.Raw(`</div>`)
}

// Flash renders a ?status= or ?error= message above a page.
func Flash(hw *Writer, message string, isError bool) {
	if message == "" {
		return
	}
	class := "alert-info"
	if isError {
		class = "alert-error"
	}
	hw.Printf(`<div class="alert %s mb-4">%s</div>`, class, message)
}
