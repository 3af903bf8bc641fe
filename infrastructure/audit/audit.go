package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"seedflow/models"
)

const EntityProductionBatch = "production_batch"

// Outcomes recorded for a bridge command.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
	OutcomeTransport = "transport_error"
)

// CommandEntry describes one status command sent to the bridge.
type CommandEntry struct {
	CorrelationID string
	UserID        int64
	Action        string
	NumPlanej     string
	StatusCode    string
	Reason        string
	BatchStatus   string
	Outcome       string
}

// Service writes audit rows inside the caller's transaction.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// NewCorrelationID tags a command so the log line, the audit row and the
// bridge call can be matched.
func NewCorrelationID() string {
	return uuid.NewString()
}

// RecordCommand stores the batch state the operator saw and what was sent.
func (s *Service) RecordCommand(ctx context.Context, tx bun.Tx, e CommandEntry) error {
	if strings.TrimSpace(e.CorrelationID) == "" {
		e.CorrelationID = NewCorrelationID()
	}
	before := map[string]string{"status": e.BatchStatus}
	after := map[string]string{
		"statusAtualizado": e.StatusCode,
		"motivo":           e.Reason,
		"outcome":          e.Outcome,
	}
	return s.write(ctx, tx, &models.AuditLog{
		UserID:        e.UserID,
		Action:        e.Action,
		EntityType:    EntityProductionBatch,
		EntityID:      e.NumPlanej,
		CorrelationID: e.CorrelationID,
	}, before, after)
}

// Write records an arbitrary change, e.g. user administration.
func (s *Service) Write(ctx context.Context, tx bun.Tx, userID int64, action, entityType, entityID string, before, after any) error {
	return s.write(ctx, tx, &models.AuditLog{
		UserID:        userID,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		CorrelationID: NewCorrelationID(),
	}, before, after)
}

func (s *Service) write(ctx context.Context, tx bun.Tx, row *models.AuditLog, before, after any) error {
	var err error
	if row.BeforeJSON, err = marshal(before); err != nil {
		return fmt.Errorf("marshal before: %w", err)
	}
	if row.AfterJSON, err = marshal(after); err != nil {
		return fmt.Errorf("marshal after: %w", err)
	}
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
