package commandlog

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"seedflow/frontend/shared/html"
	"seedflow/frontend/shared/nav"
	"seedflow/infrastructure/sqlite"
)

func CommandLogPageQueryHandler(db *sqlite.DB, chrome html.Chrome, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		numPlanej := strings.TrimSpace(r.URL.Query().Get("numPlanej"))
		rows, err := LoadCommandLog(r.Context(), db, numPlanej)
		if err != nil {
			logger.Error("command log: failed to load rows", zap.Error(err))
			http.Error(w, "failed to load command log", http.StatusInternalServerError)
			return
		}

		data := PageData{
			Layout:    chrome(r, nav.CodeCommandLog),
			NumPlanej: numPlanej,
			Rows:      rows,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := CommandLogPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render command log page", http.StatusInternalServerError)
			return
		}
	}
}
