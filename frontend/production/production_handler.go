package production

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	sessioncontext "seedflow/frontend/shared/context"
	"seedflow/frontend/shared/html"
	"seedflow/frontend/shared/nav"
)

// Resource codes checked by the list page.
const (
	CodeExport = "PRODUCTION_EXPORT"
)

// Workspaces resolves the workspace of a login session.
type Workspaces interface {
	Get(token string) *Workspace
}

func workspaceFor(r *http.Request, spaces Workspaces) (*Workspace, Actor, bool) {
	session, ok := sessioncontext.GetSessionFromContext(r.Context())
	if !ok || session.ID == "" {
		return nil, Actor{}, false
	}
	return spaces.Get(session.ID), Actor{UserID: session.UserID, Username: session.User.Username}, true
}

func redirectList(w http.ResponseWriter, r *http.Request, errMsg string) {
	target := basePath
	if errMsg != "" {
		target += "?error=" + url.QueryEscape(errMsg)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// ProductionPageQueryHandler renders the list. Query parameters update the
// session's filter and pagination before rendering.
func ProductionPageQueryHandler(spaces Workspaces, chrome html.Chrome, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := workspaceFor(r, spaces)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := r.Context()
		q := r.URL.Query()

		if q.Has("reset") {
			if err := ws.ResetFilters(ctx); err != nil {
				logger.Debug("refetch after reset failed", zap.Error(err))
			}
		} else if q.Has("dataInicial") || q.Has("dataFinal") {
			cur := ws.View().Filter
			start := queryOr(q, "dataInicial", cur.DataInicial)
			end := queryOr(q, "dataFinal", cur.DataFinal)
			if _, err := ws.SetDateRange(ctx, start, end); err != nil && !errors.Is(err, ErrInvalidDate) {
				logger.Debug("refetch after date change failed", zap.Error(err))
			}
		}
		if err := ws.EnsureLoaded(ctx); err != nil {
			logger.Debug("initial load failed", zap.Error(err))
		}

		ws.UpdateView(func(v *ViewState) {
			if q.Has("q") {
				v.Filter.SearchTerm = q.Get("q")
			}
			if q.Has("status") && validStatusFilter(q.Get("status")) {
				v.Filter.FilterStatus = q.Get("status")
				if v.Filter.FilterStatus == "" {
					v.Filter.FilterStatus = StatusAll
				}
			}
			if size, err := strconv.Atoi(q.Get("size")); err == nil {
				v.Pagination = v.Pagination.WithPageSize(size)
			}
			if page, err := strconv.Atoi(q.Get("page")); err == nil {
				var changed bool
				v.Pagination, changed = v.Pagination.WithPage(page)
				v.ScrollToTop = v.ScrollToTop || changed
			}
		})

		data := ws.Page()
		data.Layout = chrome(r, nav.CodeProduction)
		data.Layout.Device = html.BadgeFromState(data.Device)
		data.Layout.Toasts = append(data.Layout.Toasts, ws.Toasts()...)
		data.Layout.ScrollToTop = data.View.ScrollToTop
		data.Layout.PendingRefetch = data.Refetching
		data.CanDownload = data.Layout.Can(CodeExport)
		data.Flash = strings.TrimSpace(q.Get("notice"))
		data.FlashError = strings.TrimSpace(q.Get("error"))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ProductionPage(data).Render(ctx, w); err != nil {
			logger.Error("render production page failed", zap.Error(err))
			http.Error(w, "failed to render production page", http.StatusInternalServerError)
			return
		}
	}
}

func queryOr(q url.Values, key, fallback string) string {
	if q.Has(key) {
		return q.Get(key)
	}
	return fallback
}

// ToggleRowCommandHandler expands or collapses a row.
func ToggleRowCommandHandler(spaces Workspaces) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := workspaceFor(r, spaces)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		key := strings.TrimSpace(r.FormValue("key"))
		if key == "" {
			redirectList(w, r, "Linha inválida")
			return
		}
		ws.Dispatch(ToggleRow{Key: key})
		http.Redirect(w, r, basePath+"#row-"+url.PathEscape(key), http.StatusSeeOther)
	}
}

// OpenActionCommandHandler opens the confirmation dialog for a visible row.
func OpenActionCommandHandler(spaces Workspaces) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := workspaceFor(r, spaces)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		kind, err := ParseActionKind(r.FormValue("kind"))
		if err != nil {
			redirectList(w, r, "Ação desconhecida")
			return
		}
		if err := ws.OpenAction(kind, strings.TrimSpace(r.FormValue("key"))); err != nil {
			redirectList(w, r, "Lote não encontrado na página atual")
			return
		}
		redirectList(w, r, "")
	}
}

// SetReasonCommandHandler keeps the typed delete reason across renders.
func SetReasonCommandHandler(spaces Workspaces) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := workspaceFor(r, spaces)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ws.Dispatch(SetReason{Reason: r.FormValue("reason")})
		if r.Header.Get("Accept") == "application/json" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		redirectList(w, r, "")
	}
}

// CancelActionCommandHandler closes the dialog without sending anything.
func CancelActionCommandHandler(spaces Workspaces) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := workspaceFor(r, spaces)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ws.Dispatch(CancelAction{})
		redirectList(w, r, "")
	}
}

// ConfirmActionCommandHandler sends the pending status command. Feedback is
// delivered as toasts on the next render.
func ConfirmActionCommandHandler(spaces Workspaces, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, actor, ok := workspaceFor(r, spaces)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		outcome, err := ws.Confirm(r.Context(), actor, r.FormValue("reason"))
		switch {
		case errors.Is(err, ErrNoPendingAction):
			redirectList(w, r, "Nenhuma ação pendente")
			return
		case errors.Is(err, ErrCommandInFlight):
			redirectList(w, r, "Um comando já está sendo enviado")
			return
		}
		logger.Debug("command confirmed", zap.String("outcome", string(outcome)), zap.String("user", actor.Username))
		redirectList(w, r, "")
	}
}

// ReloadListCommandHandler asks the bridge to pull the list from SAP.
func ReloadListCommandHandler(spaces Workspaces) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := workspaceFor(r, spaces)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		_, _ = ws.ReloadFromERP(r.Context())
		redirectList(w, r, "")
	}
}

// RefreshCommandHandler refetches the list and the CLP status now.
func RefreshCommandHandler(spaces Workspaces, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := workspaceFor(r, spaces)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if err := ws.Refetch(r.Context()); err != nil {
			logger.Debug("manual refetch failed", zap.Error(err))
		}
		if err := ws.RefreshDevice(r.Context()); err != nil {
			logger.Debug("manual clp refresh failed", zap.Error(err))
		}
		redirectList(w, r, "")
	}
}

// ExportCSVHandler downloads the filtered list.
func ExportCSVHandler(spaces Workspaces, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, actor, ok := workspaceFor(r, spaces)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		batches := ws.FilteredBatches()
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=producao-"+time.Now().Format("20060102")+".csv")
		if err := writeBatchesCSV(w, batches); err != nil {
			logger.Error("export csv failed", zap.Error(err))
			http.Error(w, "failed to export csv", http.StatusInternalServerError)
			return
		}
		logger.Info("production list exported", zap.String("user", actor.Username), zap.Int("rows", len(batches)))
	}
}

// TicketPDFHandler prints the ticket of a fetched batch.
func TicketPDFHandler(spaces Workspaces, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := workspaceFor(r, spaces)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		numPlanej := strings.TrimSpace(chi.URLParam(r, "numPlanej"))
		batch, found := ws.FindBatch(numPlanej)
		if numPlanej == "" || !found {
			http.Error(w, "batch not found", http.StatusNotFound)
			return
		}
		pdf, err := renderBatchTicketPDF(batch, time.Now())
		if err != nil {
			logger.Error("render batch ticket failed", zap.String("num_planej", numPlanej), zap.Error(err))
			http.Error(w, "failed to render ticket", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "inline; filename=ficha-"+url.PathEscape(numPlanej)+".pdf")
		_, _ = w.Write(pdf)
	}
}

// StateQueryHandler reports the fetch state for the page script, which polls
// it while a delayed refetch is pending.
func StateQueryHandler(spaces Workspaces) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := workspaceFor(r, spaces)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(ws.State())
	}
}
