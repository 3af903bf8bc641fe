package production

import (
	"context"

	"github.com/uptrace/bun"

	"seedflow/infrastructure/audit"
	"seedflow/infrastructure/sqlite"
)

// AuditRecorder writes the command log to sqlite.
type AuditRecorder struct {
	DB    *sqlite.DB
	Audit *audit.Service
}

func NewAuditRecorder(db *sqlite.DB, svc *audit.Service) *AuditRecorder {
	return &AuditRecorder{DB: db, Audit: svc}
}

func (r *AuditRecorder) RecordCommand(ctx context.Context, e audit.CommandEntry) error {
	return r.DB.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return r.Audit.RecordCommand(ctx, tx, e)
	})
}
