package production

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"seedflow/infrastructure/audit"
	"seedflow/infrastructure/bridge"
	"seedflow/infrastructure/fetch"
	"seedflow/infrastructure/notify"
	"seedflow/models"
)

// Gateway is the part of the bridge client the list page needs.
type Gateway interface {
	ListBatches(ctx context.Context, r bridge.DateRange) ([]models.ProductionBatch, error)
	DeviceStatus(ctx context.Context) ([]models.DeviceStatus, error)
	UpdateStatus(ctx context.Context, numPlanej, statusCode, motivo string) (models.CommandResult, error)
	TriggerListReload(ctx context.Context) (models.CommandResult, error)
}

// CommandRecorder persists the command log.
type CommandRecorder interface {
	RecordCommand(ctx context.Context, e audit.CommandEntry) error
}

// Actor is the logged-in operator issuing commands.
type Actor struct {
	UserID   int64
	Username string
}

// Outcome classifies how a command ended.
type Outcome string

const (
	OutcomeAccepted  Outcome = audit.OutcomeAccepted
	OutcomeRejected  Outcome = audit.OutcomeRejected
	OutcomeMalformed Outcome = audit.OutcomeMalformed
	OutcomeTransport Outcome = audit.OutcomeTransport
	OutcomeInvalid   Outcome = "invalid"
)

var (
	ErrCommandInFlight = errors.New("a command is already being sent")
	ErrInvalidDate     = errors.New("dates must use the YYYY-MM-DD format")
)

const dateLayout = "2006-01-02"

// Delays are the settle times before the list is fetched again.
type Delays struct {
	AfterCommand time.Duration
	AfterReload  time.Duration
}

// Workspace is the production list of one login session: the fetched data,
// the operator's view and dialog state, pending toasts and delayed refetches.
type Workspace struct {
	mu         sync.Mutex
	loadMu     sync.Mutex
	gateway    Gateway
	recorder   CommandRecorder
	logger     *zap.Logger
	delays     Delays
	batches    *fetch.Resource[[]models.ProductionBatch]
	device     *fetch.Resource[[]models.DeviceStatus]
	statusCmd  *fetch.Command
	reloadCmd  *fetch.Command
	toasts     *notify.Queue
	sched      *fetch.Scheduler
	dateRange  bridge.DateRange
	view       ViewState
	controller ControllerState
	confirming bool
}

func NewWorkspace(ctx context.Context, gateway Gateway, recorder CommandRecorder, delays Delays, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Workspace{
		gateway:  gateway,
		recorder: recorder,
		logger:   logger,
		delays:   delays,
		toasts:   notify.NewQueue(0),
		sched:    fetch.NewScheduler(ctx),
		view: ViewState{
			Filter:     FilterState{FilterStatus: StatusAll},
			Pagination: DefaultPagination(),
		},
	}
	w.batches = fetch.NewResource("production list", w.loadBatches,
		fetch.WithFailureMessage("Erro ao carregar dados da lista de produção"), fetch.WithLogger(logger))
	w.device = fetch.NewResource("clp status", gateway.DeviceStatus,
		fetch.WithFailureMessage("Erro ao carregar status CLP"), fetch.WithLogger(logger))
	w.statusCmd = fetch.NewCommand("update status",
		fetch.WithFailureMessage("Erro ao carregar status dos comandos"), fetch.WithLogger(logger))
	w.reloadCmd = fetch.NewCommand("reload list",
		fetch.WithFailureMessage("Erro ao carregar status da lista de produção"), fetch.WithLogger(logger))
	return w
}

func (w *Workspace) loadBatches(ctx context.Context) ([]models.ProductionBatch, error) {
	w.mu.Lock()
	r := w.dateRange
	w.mu.Unlock()
	return w.gateway.ListBatches(ctx, r)
}

// EnsureLoaded performs the first fetch of the list and the CLP status in
// parallel. Later calls return immediately.
func (w *Workspace) EnsureLoaded(ctx context.Context) error {
	w.loadMu.Lock()
	defer w.loadMu.Unlock()

	var g errgroup.Group
	if !w.batches.Snapshot().HasLoadedOnce {
		g.Go(func() error { return w.batches.Refetch(ctx) })
	}
	if !w.device.Snapshot().HasLoadedOnce {
		g.Go(func() error { return w.device.Refetch(ctx) })
	}
	return g.Wait()
}

// Refetch reloads the list with the current date range.
func (w *Workspace) Refetch(ctx context.Context) error {
	return w.batches.Refetch(ctx)
}

// RefreshDevice reloads the CLP status used by the sidebar badge.
func (w *Workspace) RefreshDevice(ctx context.Context) error {
	return w.device.Refetch(ctx)
}

// SetDateRange changes the bridge query and refetches when it differs from
// the current one. Empty bounds are allowed.
func (w *Workspace) SetDateRange(ctx context.Context, start, end string) (bool, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			w.toasts.Error("Data inválida", "Use o formato AAAA-MM-DD.")
			return false, ErrInvalidDate
		}
	}

	w.mu.Lock()
	next := bridge.DateRange{Start: start, End: end}
	changed := next != w.dateRange
	w.dateRange = next
	w.view.Filter.DataInicial = start
	w.view.Filter.DataFinal = end
	w.mu.Unlock()

	if !changed {
		return false, nil
	}
	return true, w.batches.Refetch(ctx)
}

// UpdateView edits the list view state.
func (w *Workspace) UpdateView(fn func(v *ViewState)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.view)
}

// View returns a copy of the list view state.
func (w *Workspace) View() ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view
}

// ResetFilters clears search, status and dates and refetches without bounds.
func (w *Workspace) ResetFilters(ctx context.Context) error {
	w.UpdateView(func(v *ViewState) {
		v.Filter.SearchTerm = ""
		v.Filter.FilterStatus = StatusAll
	})
	_, err := w.SetDateRange(ctx, "", "")
	return err
}

// DeviceState is the last CLP status fetched for this session.
func (w *Workspace) DeviceState() fetch.State[[]models.DeviceStatus] {
	return w.device.Snapshot()
}

// Dispatch applies a controller event and returns the new state.
func (w *Workspace) Dispatch(e Event) ControllerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.controller = Reduce(w.controller, e)
	return w.controller
}

// Controller returns a copy of the dialog state.
func (w *Workspace) Controller() ControllerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return copyController(w.controller)
}

func copyController(s ControllerState) ControllerState {
	if s.Pending != nil {
		p := *s.Pending
		s.Pending = &p
	}
	return s
}

// OpenAction finds the visible batch with key and opens the dialog for kind.
func (w *Workspace) OpenAction(kind ActionKind, key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	res := Apply(w.batches.Snapshot().Data, w.view.Filter, w.view.Pagination)
	for _, row := range res.Rows {
		if row.Key == key {
			w.controller = Reduce(w.controller, OpenAction{Kind: kind, Target: row.Batch, TargetKey: key})
			return nil
		}
	}
	return fmt.Errorf("batch %q is not on the current page", key)
}

// Confirm sends the pending action. A delete with an invalid reason keeps the
// dialog open; every other path closes it when the call returns.
func (w *Workspace) Confirm(ctx context.Context, actor Actor, reason string) (Outcome, error) {
	w.mu.Lock()
	if w.controller.Pending == nil {
		w.mu.Unlock()
		return "", ErrNoPendingAction
	}
	if w.confirming {
		w.mu.Unlock()
		return "", ErrCommandInFlight
	}
	pending := *w.controller.Pending
	motivo := ""
	if pending.Kind.RequiresReason() {
		w.controller = Reduce(w.controller, SetReason{Reason: reason})
		if err := ValidateReason(reason); err != nil {
			w.mu.Unlock()
			if errors.Is(err, ErrReasonTooLong) {
				w.toasts.Error("Motivo muito longo", "O motivo deve ter no máximo 255 caracteres.")
			} else {
				w.toasts.Error("Observação obrigatória", "Por favor, informe o motivo da exclusão.")
			}
			return OutcomeInvalid, err
		}
		motivo = strings.TrimSpace(reason)
	}
	w.confirming = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.confirming = false
		w.controller = Reduce(w.controller, CloseAction{})
		w.mu.Unlock()
	}()

	correlationID := audit.NewCorrelationID()
	np := pending.Target.NumPlanej
	log := w.logger.With(
		zap.String("correlation_id", correlationID),
		zap.String("action", string(pending.Kind)),
		zap.String("num_planej", np),
		zap.String("user", actor.Username),
	)
	spec := actionSpecs[pending.Kind]

	res, err := w.statusCmd.Run(ctx, func(ctx context.Context) (models.CommandResult, error) {
		return w.gateway.UpdateStatus(ctx, np, pending.Kind.StatusCode(), motivo)
	})

	var outcome Outcome
	switch {
	case err != nil:
		outcome = OutcomeTransport
		log.Warn("status command failed", zap.Error(err))
		w.toasts.Error("Erro de conexão", "Falha na comunicação com o servidor.")
	case res != nil && res.StatusErro:
		outcome = OutcomeRejected
		log.Info("status command rejected")
		w.toasts.Error(spec.failure, "Não foi possível atualizar o status.")
	default:
		outcome = OutcomeAccepted
		if res == nil {
			outcome = OutcomeMalformed
			log.Warn("status command answered with an unexpected payload; treating as accepted")
		} else {
			log.Info("status command accepted")
		}
		w.toasts.Success(spec.success, "Nº Planej. "+np)
		w.scheduleRefetch(w.delays.AfterCommand)
	}

	w.record(ctx, log, audit.CommandEntry{
		CorrelationID: correlationID,
		UserID:        actor.UserID,
		Action:        pending.Kind.AuditAction(),
		NumPlanej:     np,
		StatusCode:    pending.Kind.StatusCode(),
		Reason:        motivo,
		BatchStatus:   pending.Target.DescStatus,
		Outcome:       string(outcome),
	})
	return outcome, err
}

func (w *Workspace) record(ctx context.Context, log *zap.Logger, e audit.CommandEntry) {
	if w.recorder == nil {
		return
	}
	if err := w.recorder.RecordCommand(context.WithoutCancel(ctx), e); err != nil {
		log.Error("record command failed", zap.Error(err))
	}
}

// ReloadFromERP asks the bridge to pull the list from SAP again and refetches
// once it has had time to settle.
func (w *Workspace) ReloadFromERP(ctx context.Context) (Outcome, error) {
	res, err := w.reloadCmd.Run(ctx, w.gateway.TriggerListReload)
	switch {
	case err != nil:
		w.logger.Warn("list reload failed", zap.Error(err))
		w.toasts.Error("Erro ao atualizar lotes", "Erro ao conectar com o servidor.")
		return OutcomeTransport, err
	case res != nil && res.StatusErro:
		w.toasts.Error("Erro ao atualizar lotes", "Não foi possível carregar a lista de produção do SAP.")
		return OutcomeRejected, nil
	}
	w.toasts.Success("Lotes atualizados", "Lista de produção atualizada com sucesso!")
	w.scheduleRefetch(w.delays.AfterReload)
	if res == nil {
		return OutcomeMalformed, nil
	}
	return OutcomeAccepted, nil
}

func (w *Workspace) scheduleRefetch(delay time.Duration) {
	w.sched.After(delay, func(ctx context.Context) {
		if err := w.batches.Refetch(ctx); err != nil {
			w.logger.Warn("scheduled refetch failed", zap.Error(err))
		}
	})
}

// Page builds everything the list view renders. The filtered size is
// compared with the previous render so a changed result starts at page 1.
func (w *Workspace) Page() PageData {
	batches := w.batches.Snapshot()
	device := w.device.Snapshot()

	w.mu.Lock()
	defer w.mu.Unlock()

	res := Apply(batches.Data, w.view.Filter, w.view.Pagination)
	if res.FilteredCount != w.view.LastFiltered {
		w.view.Pagination = w.view.Pagination.Reconcile(w.view.LastFiltered, res.FilteredCount)
		w.view.LastFiltered = res.FilteredCount
		res = Apply(batches.Data, w.view.Filter, w.view.Pagination)
	}
	w.view.Pagination.CurrentPage = res.CurrentPage
	for i := range res.Rows {
		res.Rows[i].Expanded = w.controller.IsExpanded(res.Rows[i].Key)
	}
	if dups := DuplicateKeys(res.Rows); len(dups) > 0 {
		w.logger.Warn("duplicate row keys on page", zap.Strings("keys", dups))
	}

	view := w.view
	w.view.ScrollToTop = false

	return PageData{
		View:       view,
		Result:     res,
		Pages:      PageNumbers(res.CurrentPage, res.TotalPages),
		Batches:    batches,
		Device:     device,
		Controller: copyController(w.controller),
		Statuses:   Statuses(),
		Reloading:  w.reloadCmd.Snapshot().Loading,
		Refetching: w.sched.Pending() > 0,
	}
}

// FilteredBatches returns the current filtered list, e.g. for export.
func (w *Workspace) FilteredBatches() []models.ProductionBatch {
	data := w.batches.Snapshot().Data
	w.mu.Lock()
	f := w.view.Filter
	w.mu.Unlock()
	return Filter(data, f)
}

// FindBatch returns the fetched batch with planning number numPlanej.
func (w *Workspace) FindBatch(numPlanej string) (models.ProductionBatch, bool) {
	for _, b := range w.batches.Snapshot().Data {
		if b.NumPlanej == numPlanej {
			return b, true
		}
	}
	return models.ProductionBatch{}, false
}

// State is the JSON view of the fetch state used by the page script.
type State struct {
	Loading        bool      `json:"loading"`
	Error          string    `json:"error,omitempty"`
	HasLoadedOnce  bool      `json:"hasLoadedOnce"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Count          int       `json:"count"`
	PendingRefetch int       `json:"pendingRefetch"`
	CommandError   string    `json:"commandError,omitempty"`
	DialogOpen     bool      `json:"dialogOpen"`
}

func (w *Workspace) State() State {
	b := w.batches.Snapshot()
	c := w.Controller()
	return State{
		Loading:        b.Loading,
		Error:          b.Error,
		HasLoadedOnce:  b.HasLoadedOnce,
		UpdatedAt:      b.UpdatedAt,
		Count:          len(b.Data),
		PendingRefetch: w.sched.Pending(),
		CommandError:   w.statusCmd.Snapshot().Error,
		DialogOpen:     c.Pending != nil,
	}
}

// Toasts drains the pending notifications.
func (w *Workspace) Toasts() []notify.Toast {
	return w.toasts.Drain()
}

// Close cancels delayed refetches. The workspace must not be used afterwards.
func (w *Workspace) Close() {
	w.sched.Close()
}
