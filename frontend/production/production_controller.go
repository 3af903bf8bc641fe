package production

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"seedflow/models"
)

// ActionKind is a command an operator can issue on an expanded batch.
type ActionKind string

const (
	ActionStartProduction ActionKind = "start-production"
	ActionStartSeparation ActionKind = "start-separation"
	ActionEdit            ActionKind = "edit"
	ActionDelete          ActionKind = "delete"
)

// MaxReasonLength bounds the delete reason sent as motivo.
const MaxReasonLength = 255

var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrNoPendingAction = errors.New("no pending action")
	ErrReasonRequired  = errors.New("a reason is required to delete a batch")
	ErrReasonTooLong   = errors.New("reason must be at most 255 characters")
)

type actionSpec struct {
	code    string
	label   string
	success string
	failure string
}

var actionSpecs = map[ActionKind]actionSpec{
	ActionStartProduction: {code: "1", label: "Iniciar produção", success: "Produção iniciada", failure: "Falha ao iniciar produção"},
	ActionStartSeparation: {code: "2", label: "Iniciar separação", success: "Separação iniciada", failure: "Falha ao iniciar separação"},
	ActionEdit:            {code: "3", label: "Editar", success: "Status atualizado para edição", failure: "Falha ao editar"},
	ActionDelete:          {code: "4", label: "Excluir", success: "Exclusão solicitada", failure: "Falha ao excluir produção"},
}

// ParseActionKind validates a kind coming from a form.
func ParseActionKind(v string) (ActionKind, error) {
	k := ActionKind(strings.TrimSpace(v))
	if _, ok := actionSpecs[k]; !ok {
		return "", ErrUnknownAction
	}
	return k, nil
}

// StatusCode is the statusAtualizado value the bridge expects.
func (k ActionKind) StatusCode() string { return actionSpecs[k].code }

func (k ActionKind) Label() string { return actionSpecs[k].label }

func (k ActionKind) RequiresReason() bool { return k == ActionDelete }

// AuditAction names the command in the command log.
func (k ActionKind) AuditAction() string { return "production." + string(k) }

// Actions lists the kinds in button order.
func Actions() []ActionKind {
	return []ActionKind{ActionStartSeparation, ActionStartProduction, ActionEdit, ActionDelete}
}

// PendingAction is the open confirmation dialog. Target is the batch as the
// operator saw it when the dialog opened.
type PendingAction struct {
	Kind      ActionKind
	Target    models.ProductionBatch
	TargetKey string
	Reason    string
}

type reasonInput struct {
	Reason string `validate:"required,max=255"`
}

var validate = validator.New()

// ValidateReason checks the trimmed delete reason.
func ValidateReason(reason string) error {
	err := validate.Struct(reasonInput{Reason: strings.TrimSpace(reason)})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
		return ErrReasonTooLong
	}
	return ErrReasonRequired
}

// CanConfirm reports whether the dialog's confirm button is enabled.
func (p PendingAction) CanConfirm() bool {
	if !p.Kind.RequiresReason() {
		return true
	}
	return ValidateReason(p.Reason) == nil
}

// ControllerState is the row expansion and dialog state of the list page. At
// most one row is expanded and at most one dialog is open.
type ControllerState struct {
	ExpandedKey string
	Pending     *PendingAction
}

// IsExpanded reports whether key is the expanded row.
func (s ControllerState) IsExpanded(key string) bool {
	return key != "" && s.ExpandedKey == key
}

// Event is something that changes ControllerState.
type Event interface {
	apply(ControllerState) ControllerState
}

// ToggleRow expands the row, or collapses it when it is already expanded.
type ToggleRow struct{ Key string }

// OpenAction opens the confirmation dialog for Kind on Target.
type OpenAction struct {
	Kind      ActionKind
	Target    models.ProductionBatch
	TargetKey string
}

// SetReason edits the reason of the open dialog.
type SetReason struct{ Reason string }

// CancelAction dismisses the dialog without sending anything.
type CancelAction struct{}

// CloseAction ends the dialog after a confirm, whatever the outcome.
type CloseAction struct{}

func (e ToggleRow) apply(s ControllerState) ControllerState {
	if s.ExpandedKey == e.Key {
		s.ExpandedKey = ""
	} else {
		s.ExpandedKey = e.Key
	}
	return s
}

func (e OpenAction) apply(s ControllerState) ControllerState {
	if _, ok := actionSpecs[e.Kind]; !ok {
		return s
	}
	s.Pending = &PendingAction{Kind: e.Kind, Target: e.Target, TargetKey: e.TargetKey}
	return s
}

func (e SetReason) apply(s ControllerState) ControllerState {
	if s.Pending == nil {
		return s
	}
	p := *s.Pending
	p.Reason = e.Reason
	s.Pending = &p
	return s
}

func (CancelAction) apply(s ControllerState) ControllerState {
	s.Pending = nil
	return s
}

func (CloseAction) apply(s ControllerState) ControllerState {
	s.Pending = nil
	return s
}

// Reduce applies e to s. States are values; the input is never modified.
func Reduce(s ControllerState, e Event) ControllerState {
	if e == nil {
		return s
	}
	return e.apply(s)
}
