package http

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"seedflow/frontend/login"
	"seedflow/infrastructure/argon"
	"seedflow/infrastructure/bridge"
	"seedflow/infrastructure/config"
	"seedflow/infrastructure/sqlite"
)

const batchesJSON = `[
 {"numPlanej":"4711","lote":"L1","ordemPrd":"OP1","descStatus":"Programada","status":"1","descProdutoAcabado":"Semente Soja TMG 7062","descMateriaPrima":"Soja bruta","dataPrd":"20250115","horaProduzir":"083000"},
 {"numPlanej":"4712","lote":"L2","ordemPrd":"OP2","descStatus":"Pendente","descProdutoAcabado":"Semente Milho AG 8480","descMateriaPrima":"Milho bruto"}
]`

const operatorPassword = "plant-secret"

// fakeBridge answers the plant bridge endpoints with fixed payloads and
// records status commands.
type fakeBridge struct {
	mu       sync.Mutex
	updates  []url.Values
	reloads  int
	statusOK bool
}

func (b *fakeBridge) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		b.mu.Lock()
		defer b.mu.Unlock()
		switch r.URL.Path {
		case "/producao/lista":
			_, _ = io.WriteString(w, batchesJSON)
		case "/status-clp":
			_, _ = io.WriteString(w, `[{"status":true}]`)
		case "/usuarios":
			ok := r.URL.Query().Get("password") == operatorPassword
			if ok {
				_, _ = io.WriteString(w, `[{"status":true}]`)
			} else {
				_, _ = io.WriteString(w, `[{"status":false}]`)
			}
		case "/atualiza-status":
			b.updates = append(b.updates, r.URL.Query())
			if b.statusOK {
				_, _ = io.WriteString(w, `{"statusErro":false}`)
			} else {
				_, _ = io.WriteString(w, `{"statusErro":true}`)
			}
		case "/read-sap":
			b.reloads++
			_, _ = io.WriteString(w, `{"statusErro":false}`)
		default:
			http.NotFound(w, r)
		}
	}
}

func (b *fakeBridge) updateCalls() []url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]url.Values(nil), b.updates...)
}

type integrationEnv struct {
	server *httptest.Server
	srv    *Server
	db     *sqlite.DB
	bridge *fakeBridge
}

func setupIntegrationServer(t *testing.T, authMode string) (*integrationEnv, *http.Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	// Admins keep their role when they later log in through the bridge.
	if err := login.UpsertLocalUser(context.Background(), db, argon.NewHasher(), "admin", "admin", "Admin123seed"); err != nil {
		t.Fatalf("seed admin user: %v", err)
	}

	fb := &fakeBridge{statusOK: true}
	bridgeSrv := httptest.NewServer(fb.handler())

	cfg := config.Default()
	cfg.Auth.Mode = authMode
	cfg.Bridge.BaseURL = bridgeSrv.URL
	cfg.Bridge.Timeout = 2 * time.Second
	cfg.Polling.CommandRefetchDelay = 10 * time.Millisecond
	cfg.Polling.ReloadRefetchDelay = 10 * time.Millisecond
	client, err := bridge.NewClient(cfg.Bridge, nil)
	if err != nil {
		t.Fatalf("bridge client: %v", err)
	}

	s := NewServer(cfg, db, client, zap.NewNop())
	ts := httptest.NewServer(s.Handler())
	env := &integrationEnv{server: ts, srv: s, db: db, bridge: fb}
	t.Cleanup(func() {
		env.server.Close()
		env.srv.Close()
		bridgeSrv.Close()
		_ = env.db.Close()
	})

	return env, newHTTPClient(t)
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *http.Client, baseURL, path string, data url.Values) *http.Response {
	t.Helper()
	if data == nil {
		data = url.Values{}
	}
	if token := csrfToken(t, client, baseURL); token != "" {
		data.Set("_csrf", token)
	}
	resp, err := client.PostForm(baseURL+path, data)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func get(t *testing.T, client *http.Client, baseURL, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func csrfToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == "X-CSRF-Token" {
			return c.Value
		}
	}
	return ""
}

func loginAs(t *testing.T, client *http.Client, baseURL, username, password string) {
	t.Helper()

	resp := get(t, client, baseURL, "/login")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postForm(t, client, baseURL, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected login 303, got %d", resp.StatusCode)
	}
	if location := resp.Header.Get("Location"); location != login.HomePath {
		t.Fatalf("unexpected login redirect: %s", location)
	}
	_ = resp.Body.Close()
}

func userRoleByUsername(t *testing.T, db *sqlite.DB, username string) (role, source string) {
	t.Helper()
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT role, auth_source FROM users WHERE username = ?`, username).Scan(ctx, &role, &source)
	})
	if err != nil {
		t.Fatalf("load user %s: %v", username, err)
	}
	return role, source
}

func TestCSRFPostWithoutTokenRejected(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeBridge)
	resp, err := client.PostForm(env.server.URL+"/login", url.Values{"username": {"ana"}, "password": {operatorPassword}})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthAndRootRedirect(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeBridge)

	resp := get(t, client, env.server.URL, "/health")
	assert.Equal(t, "ok", readBody(t, resp))

	resp = get(t, client, env.server.URL, "/")
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = get(t, client, env.server.URL, "/tasker/production")
	_ = resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestBridgeLoginCreatesOperatorAndRendersList(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeBridge)
	loginAs(t, client, env.server.URL, "ana", operatorPassword)

	role, source := userRoleByUsername(t, env.db, "ana")
	assert.Equal(t, "operator", role)
	assert.Equal(t, login.SourceBridge, source)

	resp := get(t, client, env.server.URL, "/tasker/production")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Semente Soja TMG 7062")
	assert.Contains(t, body, "Semente Milho AG 8480")
	assert.Contains(t, body, `id="clp-badge"`)
	assert.NotContains(t, body, "/tasker/admin/users", "operators do not see admin links")

	resp = get(t, client, env.server.URL, "/")
	_ = resp.Body.Close()
	assert.Equal(t, login.HomePath, resp.Header.Get("Location"))
}

func TestBridgeLoginRejectsBadCredentials(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeBridge)
	_ = get(t, client, env.server.URL, "/login").Body.Close()

	resp := postForm(t, client, env.server.URL, "/login", url.Values{"username": {"ana"}, "password": {"wrong-one"}})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login?error="))

	resp = postForm(t, client, env.server.URL, "/login", url.Values{"username": {"an"}, "password": {operatorPassword}})
	_ = resp.Body.Close()
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login?error="))
}

func TestOperatorDeniedAdminScreens(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeBridge)
	loginAs(t, client, env.server.URL, "ana", operatorPassword)

	for _, path := range []string{"/tasker/admin/users", "/tasker/admin/commands"} {
		resp := get(t, client, env.server.URL, path)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}

	resp := postForm(t, client, env.server.URL, "/tasker/admin/users", url.Values{
		"username": {"intruso"},
		"password": {"intruso123"},
		"role":     {"admin"},
	})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = get(t, client, env.server.URL, "/tasker/help")
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConfirmedCommandReachesBridgeAndCommandLog(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeBridge)
	loginAs(t, client, env.server.URL, "admin", operatorPassword)

	_ = get(t, client, env.server.URL, "/tasker/production").Body.Close()

	resp := postForm(t, client, env.server.URL, "/tasker/production/actions/open", url.Values{
		"key":  {"4711-L1-OP1"},
		"kind": {"start-production"},
	})
	_ = resp.Body.Close()
	require.Equal(t, "/tasker/production", resp.Header.Get("Location"))

	body := readBody(t, get(t, client, env.server.URL, "/tasker/production"))
	assert.Contains(t, body, "modal-open")

	resp = postForm(t, client, env.server.URL, "/tasker/production/actions/confirm", nil)
	_ = resp.Body.Close()
	require.Equal(t, "/tasker/production", resp.Header.Get("Location"))

	calls := env.bridge.updateCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "4711", calls[0].Get("numPlanej"))
	assert.Equal(t, "1", calls[0].Get("statusAtualizado"))
	assert.False(t, calls[0].Has("motivo"))

	body = readBody(t, get(t, client, env.server.URL, "/tasker/admin/commands"))
	assert.Contains(t, body, "production.start-production")
	assert.Contains(t, body, "4711")
	assert.Contains(t, body, "accepted")
}

func TestDeleteSendsReason(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeBridge)
	loginAs(t, client, env.server.URL, "ana", operatorPassword)
	_ = get(t, client, env.server.URL, "/tasker/production").Body.Close()

	_ = postForm(t, client, env.server.URL, "/tasker/production/actions/open", url.Values{
		"key":  {"4712-L2-OP2"},
		"kind": {"delete"},
	}).Body.Close()

	// Blank reason keeps the dialog open and sends nothing.
	_ = postForm(t, client, env.server.URL, "/tasker/production/actions/confirm", url.Values{"reason": {"   "}}).Body.Close()
	assert.Empty(t, env.bridge.updateCalls())

	_ = postForm(t, client, env.server.URL, "/tasker/production/actions/confirm", url.Values{"reason": {"lote contaminado"}}).Body.Close()
	calls := env.bridge.updateCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "4", calls[0].Get("statusAtualizado"))
	assert.Equal(t, "lote contaminado", calls[0].Get("motivo"))
}

func TestLogoutReleasesWorkspace(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeBridge)
	loginAs(t, client, env.server.URL, "ana", operatorPassword)
	_ = get(t, client, env.server.URL, "/tasker/production").Body.Close()
	require.Equal(t, 1, env.srv.Workspaces.Len())

	resp := postForm(t, client, env.server.URL, "/logout", nil)
	_ = resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, 0, env.srv.Workspaces.Len())

	resp = get(t, client, env.server.URL, "/tasker/production")
	_ = resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLocalModeAdminCreatesOperator(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeLocal)
	loginAs(t, client, env.server.URL, "admin", "Admin123seed")

	resp := postForm(t, client, env.server.URL, "/tasker/admin/users", url.Values{
		"username": {"joao"},
		"password": {"colheita2025"},
		"role":     {"operator"},
	})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "status=")

	role, source := userRoleByUsername(t, env.db, "joao")
	assert.Equal(t, "operator", role)
	assert.Equal(t, login.SourceLocal, source)

	other := newHTTPClient(t)
	loginAs(t, other, env.server.URL, "joao", "colheita2025")
}

func TestExpiredSessionsArePurged(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeBridge)
	loginAs(t, client, env.server.URL, "ana", operatorPassword)
	_ = get(t, client, env.server.URL, "/tasker/production").Body.Close()

	err := env.db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().Table("sessions").Set("expires_at = ?", time.Now().Add(-time.Hour)).Where("1 = 1").Exec(ctx)
		return err
	})
	require.NoError(t, err)

	env.srv.purgeExpired(context.Background())
	assert.Equal(t, 0, env.srv.Workspaces.Len())

	resp := get(t, client, env.server.URL, "/tasker/production")
	_ = resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestReloadFromERPCallsReadList(t *testing.T) {
	env, client := setupIntegrationServer(t, config.AuthModeBridge)
	loginAs(t, client, env.server.URL, "ana", operatorPassword)
	_ = get(t, client, env.server.URL, "/tasker/production").Body.Close()

	resp := postForm(t, client, env.server.URL, "/tasker/production/reload", nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	env.bridge.mu.Lock()
	reloads := env.bridge.reloads
	env.bridge.mu.Unlock()
	assert.Equal(t, 1, reloads)
}
