package production

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"seedflow/infrastructure/audit"
	"seedflow/infrastructure/bridge"
	"seedflow/infrastructure/notify"
	"seedflow/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type updateCall struct {
	NumPlanej, Code, Motivo string
}

type fakeGateway struct {
	mu        sync.Mutex
	batches   []models.ProductionBatch
	listErr   error
	ranges    []bridge.DateRange
	device    []models.DeviceStatus
	updateRes models.CommandResult
	updateErr error
	updates   []updateCall
	block     chan struct{}
	reloadRes models.CommandResult
	reloadErr error
	reloads   int
}

func (f *fakeGateway) ListBatches(_ context.Context, r bridge.DateRange) ([]models.ProductionBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges = append(f.ranges, r)
	return f.batches, f.listErr
}

func (f *fakeGateway) DeviceStatus(context.Context) ([]models.DeviceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.device, nil
}

func (f *fakeGateway) UpdateStatus(_ context.Context, numPlanej, code, motivo string) (models.CommandResult, error) {
	f.mu.Lock()
	f.updates = append(f.updates, updateCall{numPlanej, code, motivo})
	block := f.block
	res, err := f.updateRes, f.updateErr
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return res, err
}

func (f *fakeGateway) TriggerListReload(context.Context) (models.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return f.reloadRes, f.reloadErr
}

func (f *fakeGateway) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ranges)
}

func (f *fakeGateway) updateCalls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.updates...)
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []audit.CommandEntry
}

func (r *fakeRecorder) RecordCommand(_ context.Context, e audit.CommandEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeRecorder) all() []audit.CommandEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.CommandEntry(nil), r.entries...)
}

var testActor = Actor{UserID: 7, Username: "operador"}

func newTestWorkspace(t *testing.T, gw *fakeGateway) (*Workspace, *fakeRecorder) {
	t.Helper()
	rec := &fakeRecorder{}
	ws := NewWorkspace(context.Background(), gw, rec, Delays{AfterCommand: 10 * time.Millisecond, AfterReload: 10 * time.Millisecond}, nil)
	t.Cleanup(ws.Close)
	require.NoError(t, ws.EnsureLoaded(context.Background()))
	return ws, rec
}

func openFirstRow(t *testing.T, ws *Workspace, kind ActionKind) Row {
	t.Helper()
	page := ws.Page()
	require.NotEmpty(t, page.Result.Rows)
	row := page.Result.Rows[0]
	require.NoError(t, ws.OpenAction(kind, row.Key))
	return row
}

func toastTitles(toasts []notify.Toast) []string {
	out := make([]string, 0, len(toasts))
	for _, t := range toasts {
		out = append(out, fmt.Sprintf("%s:%s", t.Level, t.Title))
	}
	return out
}

func TestEnsureLoadedFetchesOnce(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(3), device: []models.DeviceStatus{{Status: true}}}
	ws, _ := newTestWorkspace(t, gw)

	require.NoError(t, ws.EnsureLoaded(context.Background()))
	assert.Equal(t, 1, gw.listCalls())
	assert.True(t, models.DeviceOnline(ws.DeviceState().Data))

	st := ws.State()
	assert.True(t, st.HasLoadedOnce)
	assert.False(t, st.Loading)
	assert.Equal(t, 3, st.Count)
}

func TestEnsureLoadedKeepsTransportError(t *testing.T) {
	gw := &fakeGateway{listErr: &bridge.TransportError{Op: "list", Err: errors.New("refused")}}
	ws := NewWorkspace(context.Background(), gw, nil, Delays{}, nil)
	t.Cleanup(ws.Close)

	err := ws.EnsureLoaded(context.Background())
	require.Error(t, err)
	assert.True(t, bridge.IsTransport(err))
	assert.Equal(t, "Erro ao carregar dados da lista de produção", ws.State().Error)
}

func TestConfirmAcceptedRefetchesAfterDelay(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(3)}
	ws, rec := newTestWorkspace(t, gw)
	row := openFirstRow(t, ws, ActionStartProduction)

	outcome, err := ws.Confirm(context.Background(), testActor, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, outcome)
	assert.Nil(t, ws.Controller().Pending)
	assert.Equal(t, []updateCall{{row.Batch.NumPlanej, "1", ""}}, gw.updateCalls())
	assert.Equal(t, []string{"success:Produção iniciada"}, toastTitles(ws.Toasts()))

	require.Eventually(t, func() bool { return gw.listCalls() == 2 }, time.Second, 5*time.Millisecond)

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "production.start-production", entries[0].Action)
	assert.Equal(t, audit.OutcomeAccepted, entries[0].Outcome)
	assert.Equal(t, int64(7), entries[0].UserID)
	assert.NotEmpty(t, entries[0].CorrelationID)
}

func TestConfirmRejectedDoesNotRefetch(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(3), updateRes: models.CommandResult{StatusErro: true}}
	ws, rec := newTestWorkspace(t, gw)
	openFirstRow(t, ws, ActionStartSeparation)

	outcome, err := ws.Confirm(context.Background(), testActor, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.Nil(t, ws.Controller().Pending)
	assert.Equal(t, []string{"error:Falha ao iniciar separação"}, toastTitles(ws.Toasts()))
	assert.Zero(t, ws.sched.Pending())
	assert.Equal(t, 1, gw.listCalls())
	assert.Equal(t, audit.OutcomeRejected, rec.all()[0].Outcome)
}

func TestConfirmTransportErrorShowsConnectionToast(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(3), updateErr: &bridge.TransportError{Op: "update", Err: errors.New("timeout")}}
	ws, _ := newTestWorkspace(t, gw)
	openFirstRow(t, ws, ActionEdit)

	outcome, err := ws.Confirm(context.Background(), testActor, "")
	require.Error(t, err)
	assert.Equal(t, OutcomeTransport, outcome)
	assert.Nil(t, ws.Controller().Pending)
	assert.Equal(t, []string{"error:Erro de conexão"}, toastTitles(ws.Toasts()))
	assert.Zero(t, ws.sched.Pending())
	assert.Equal(t, "Erro ao carregar status dos comandos", ws.State().CommandError)
}

func TestConfirmMalformedAnswerCountsAsAccepted(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(3), updateErr: fmt.Errorf("update: %w", models.ErrInvalidDataFormat)}
	ws, rec := newTestWorkspace(t, gw)
	openFirstRow(t, ws, ActionStartProduction)

	outcome, err := ws.Confirm(context.Background(), testActor, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeMalformed, outcome)
	assert.Equal(t, []string{"success:Produção iniciada"}, toastTitles(ws.Toasts()))
	require.Eventually(t, func() bool { return gw.listCalls() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, audit.OutcomeMalformed, rec.all()[0].Outcome)
}

func TestConfirmDeleteNeedsReason(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(3)}
	ws, rec := newTestWorkspace(t, gw)
	row := openFirstRow(t, ws, ActionDelete)

	outcome, err := ws.Confirm(context.Background(), testActor, "   ")
	assert.ErrorIs(t, err, ErrReasonRequired)
	assert.Equal(t, OutcomeInvalid, outcome)
	require.NotNil(t, ws.Controller().Pending, "dialog stays open")
	assert.Empty(t, gw.updateCalls())
	assert.Empty(t, rec.all())
	assert.Equal(t, []string{"error:Observação obrigatória"}, toastTitles(ws.Toasts()))

	outcome, err = ws.Confirm(context.Background(), testActor, "  lote contaminado ")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, outcome)
	assert.Equal(t, []updateCall{{row.Batch.NumPlanej, "4", "lote contaminado"}}, gw.updateCalls())
	assert.Equal(t, "lote contaminado", rec.all()[0].Reason)
}

func TestConfirmWithoutDialog(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(1)}
	ws, _ := newTestWorkspace(t, gw)
	_, err := ws.Confirm(context.Background(), testActor, "")
	assert.ErrorIs(t, err, ErrNoPendingAction)
}

func TestConfirmRejectsDoubleSubmit(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(2), block: make(chan struct{})}
	ws, _ := newTestWorkspace(t, gw)
	openFirstRow(t, ws, ActionStartProduction)

	done := make(chan error, 1)
	go func() {
		_, err := ws.Confirm(context.Background(), testActor, "")
		done <- err
	}()
	require.Eventually(t, func() bool { return len(gw.updateCalls()) == 1 }, time.Second, 5*time.Millisecond)

	_, err := ws.Confirm(context.Background(), testActor, "")
	assert.ErrorIs(t, err, ErrCommandInFlight)

	close(gw.block)
	require.NoError(t, <-done)
	assert.Len(t, gw.updateCalls(), 1)
}

func TestOpenActionRequiresVisibleRow(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(3)}
	ws, _ := newTestWorkspace(t, gw)
	assert.Error(t, ws.OpenAction(ActionEdit, "missing"))
	assert.Nil(t, ws.Controller().Pending)
}

func TestReloadFromERP(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(2)}
	ws, _ := newTestWorkspace(t, gw)

	outcome, err := ws.ReloadFromERP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, outcome)
	assert.Equal(t, []string{"success:Lotes atualizados"}, toastTitles(ws.Toasts()))
	require.Eventually(t, func() bool { return gw.listCalls() == 2 }, time.Second, 5*time.Millisecond)

	gw.mu.Lock()
	gw.reloadRes = models.CommandResult{StatusErro: true}
	gw.mu.Unlock()
	outcome, err = ws.ReloadFromERP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, []string{"error:Erro ao atualizar lotes"}, toastTitles(ws.Toasts()))
	assert.Zero(t, ws.sched.Pending())

	gw.mu.Lock()
	gw.reloadErr = &bridge.TransportError{Op: "reload", Err: errors.New("refused")}
	gw.mu.Unlock()
	outcome, err = ws.ReloadFromERP(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeTransport, outcome)
	assert.Len(t, ws.Toasts(), 1)
}

func TestSetDateRange(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(2)}
	ws, _ := newTestWorkspace(t, gw)

	changed, err := ws.SetDateRange(context.Background(), "2024-13-01", "")
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.False(t, changed)
	assert.Equal(t, []string{"error:Data inválida"}, toastTitles(ws.Toasts()))

	changed, err = ws.SetDateRange(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.True(t, changed)
	gw.mu.Lock()
	last := gw.ranges[len(gw.ranges)-1]
	gw.mu.Unlock()
	assert.Equal(t, bridge.DateRange{Start: "2024-01-01", End: "2024-01-31"}, last)
	assert.Equal(t, "2024-01-01", ws.View().Filter.DataInicial)

	changed, err = ws.SetDateRange(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 2, gw.listCalls())
}

func TestPageResetsWhenFilteredSizeChanges(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(25)}
	ws, _ := newTestWorkspace(t, gw)
	ws.Page()

	ws.UpdateView(func(v *ViewState) {
		var changed bool
		v.Pagination, changed = v.Pagination.WithPage(3)
		v.ScrollToTop = changed
	})
	page := ws.Page()
	assert.Equal(t, 3, page.Result.CurrentPage)
	assert.Len(t, page.Result.Rows, 5)
	assert.True(t, page.View.ScrollToTop)
	assert.False(t, ws.Page().View.ScrollToTop, "scroll marker is consumed by one render")

	ws.UpdateView(func(v *ViewState) { v.Filter.SearchTerm = "Soja 2" })
	page = ws.Page()
	assert.Equal(t, 1, page.Result.CurrentPage)
	assert.Equal(t, 7, page.Result.FilteredCount) // 2, 20-25
}

func TestPageMarksExpandedRow(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(3)}
	ws, _ := newTestWorkspace(t, gw)
	key := ws.Page().Result.Rows[1].Key
	ws.Dispatch(ToggleRow{Key: key})

	rows := ws.Page().Result.Rows
	assert.False(t, rows[0].Expanded)
	assert.True(t, rows[1].Expanded)
}

func TestCloseCancelsPendingRefetch(t *testing.T) {
	gw := &fakeGateway{batches: makeBatches(1)}
	ws := NewWorkspace(context.Background(), gw, nil, Delays{AfterCommand: time.Hour}, nil)
	require.NoError(t, ws.EnsureLoaded(context.Background()))
	openFirstRow(t, ws, ActionEdit)
	_, err := ws.Confirm(context.Background(), testActor, "")
	require.NoError(t, err)
	assert.Equal(t, 1, ws.State().PendingRefetch)

	ws.Close()
	assert.Equal(t, 0, ws.State().PendingRefetch)
	assert.Equal(t, 1, gw.listCalls())
}
