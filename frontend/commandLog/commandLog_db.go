package commandlog

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"seedflow/infrastructure/sqlite"
)

// LoadCommandLog returns the newest audit rows, optionally only those for
// one numPlanej.
func LoadCommandLog(ctx context.Context, db *sqlite.DB, numPlanej string) ([]CommandLogRow, error) {
	numPlanej = strings.TrimSpace(numPlanej)
	out := make([]CommandLogRow, 0)

	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		type row struct {
			CreatedAtBR   string `bun:"created_at_br"`
			Actor         string `bun:"actor"`
			Action        string `bun:"action"`
			EntityType    string `bun:"entity_type"`
			EntityID      string `bun:"entity_id"`
			StatusBefore  string `bun:"status_before"`
			StatusCode    string `bun:"status_code"`
			Reason        string `bun:"reason"`
			Outcome       string `bun:"outcome"`
			CorrelationID string `bun:"correlation_id"`
		}
		rows := make([]row, 0)
		if err := tx.NewRaw(`
SELECT
	COALESCE(strftime('%d/%m/%Y %H:%M:%S', al.created_at), '') AS created_at_br,
	COALESCE(u.username, '-') AS actor,
	al.action,
	al.entity_type,
	COALESCE(al.entity_id, '') AS entity_id,
	CASE WHEN json_valid(al.before_json) = 1 THEN COALESCE(json_extract(al.before_json, '$.status'), '') ELSE '' END AS status_before,
	CASE WHEN json_valid(al.after_json) = 1 THEN COALESCE(json_extract(al.after_json, '$.statusAtualizado'), '') ELSE '' END AS status_code,
	CASE WHEN json_valid(al.after_json) = 1 THEN COALESCE(json_extract(al.after_json, '$.motivo'), '') ELSE '' END AS reason,
	CASE WHEN json_valid(al.after_json) = 1 THEN COALESCE(json_extract(al.after_json, '$.outcome'), '') ELSE '' END AS outcome,
	al.correlation_id
FROM audit_logs al
LEFT JOIN users u ON u.id = al.user_id
WHERE ? = '' OR al.entity_id = ?
ORDER BY al.created_at DESC, al.id DESC
LIMIT ?`,
			numPlanej, numPlanej, PageLimit,
		).Scan(ctx, &rows); err != nil {
			return err
		}

		for _, r := range rows {
			out = append(out, CommandLogRow{
				CreatedAtBR:   strings.TrimSpace(r.CreatedAtBR),
				Actor:         defaultActor(r.Actor),
				Action:        strings.TrimSpace(r.Action),
				EntityType:    strings.TrimSpace(r.EntityType),
				EntityID:      strings.TrimSpace(r.EntityID),
				StatusBefore:  strings.TrimSpace(r.StatusBefore),
				StatusCode:    strings.TrimSpace(r.StatusCode),
				Reason:        strings.TrimSpace(r.Reason),
				Outcome:       strings.TrimSpace(r.Outcome),
				CorrelationID: r.CorrelationID,
			})
		}
		return nil
	})
	return out, err
}

func defaultActor(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return "-"
	}
	return actor
}
