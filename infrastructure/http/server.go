package http

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	loginflow "seedflow/frontend/login"
	"seedflow/frontend/production"
	sessioncontext "seedflow/frontend/shared/context"
	"seedflow/frontend/shared/html"
	"seedflow/frontend/shared/nav"
	"seedflow/infrastructure/argon"
	"seedflow/infrastructure/audit"
	"seedflow/infrastructure/bridge"
	"seedflow/infrastructure/cache"
	"seedflow/infrastructure/config"
	"seedflow/infrastructure/fetch"
	"seedflow/infrastructure/rbac"
	sessioncookie "seedflow/infrastructure/session"
	"seedflow/infrastructure/sqlite"
	"seedflow/models"
)

//go:embed assets/*
var assets embed.FS

// JanitorInterval is how often expired sessions are purged.
var JanitorInterval = time.Minute

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	Config     config.Config
	Logger     *zap.Logger
	DB         *sqlite.DB
	Bridge     *bridge.Client
	Auth       loginflow.Authenticator
	Hasher     *argon.Hasher
	Cookies    sessioncookie.Cookies
	Sessions   *cache.SessionCache
	Users      *cache.UserCache
	RbacCache  *cache.RbacCache
	Rbac       *rbac.Rbac
	Audit      *audit.Service
	Workspaces *cache.Scoped[*production.Workspace]

	baseCtx    context.Context
	cancelBase context.CancelFunc
	janitor    *fetch.Subscription
}

// NewServer wires the dashboard around an open database and bridge client.
func NewServer(cfg config.Config, db *sqlite.DB, client *bridge.Client, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	rbacCache := cache.NewRbacCache()
	baseCtx, cancel := context.WithCancel(context.Background())

	s := &Server{
		Addr:       cfg.Server.Addr,
		router:     chi.NewRouter(),
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Bridge:     client,
		Hasher:     argon.NewHasher(),
		Cookies:    sessioncookie.Cookies{Secure: cfg.Server.SecureCookies, TTL: cfg.Auth.SessionTTL},
		Sessions:   cache.NewSessionCache(),
		Users:      cache.NewUserCache(),
		RbacCache:  rbacCache,
		Rbac:       rbac.New(rbacCache),
		Audit:      audit.NewService(),
		baseCtx:    baseCtx,
		cancelBase: cancel,
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.Auth = s.newAuthenticator()

	recorder := production.NewAuditRecorder(db, s.Audit)
	delays := production.Delays{
		AfterCommand: cfg.Polling.CommandRefetchDelay,
		AfterReload:  cfg.Polling.ReloadRefetchDelay,
	}
	s.Workspaces = cache.NewScoped(func(token string) *production.Workspace {
		return production.NewWorkspace(s.baseCtx, client, recorder, delays, logger.With(zap.String("session", shortToken(token))))
	}, (*production.Workspace).Close)

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)

	// Handle root requests - check auth status but don't require it.
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		token := sessioncookie.Token(r)
		if token == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		session, ok := s.resolveSession(r.Context(), token)
		if !ok || session.Expired() {
			s.Cookies.Clear(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, loginflow.HomePath, http.StatusSeeOther)
	})

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		logger.Error("assets subfs init failed; serving fallback fs", zap.Error(err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.RegisterLoginRoutes()

	s.router.Group(func(r chi.Router) {
		r.Route("/tasker", func(r chi.Router) {
			r.Use(s.AuthenticateMiddleware)
			s.RegisterFrontendRoutes(r)
			s.RegisterAdminRoutes(r)
		})
	})

	s.server.Handler = s.router
	return s
}

func (s *Server) newAuthenticator() loginflow.Authenticator {
	if s.Config.Auth.Mode == config.AuthModeLocal {
		return &loginflow.LocalAuthenticator{DB: s.DB, Hasher: s.Hasher, Users: s.Users}
	}
	return &loginflow.BridgeAuthenticator{Bridge: s.Bridge, DB: s.DB, Users: s.Users, Logger: s.Logger}
}

func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}

// requestLogger writes one zap line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// AuthenticateMiddleware loads session and applies RBAC checks.
func (s *Server) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessioncookie.Token(r)
		if token == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		session, ok := s.resolveSession(r.Context(), token)
		if !ok {
			s.Logger.Warn("session not found", zap.String("method", r.Method), zap.String("path", r.URL.Path))
			s.Cookies.Clear(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if session.Expired() {
			s.Cookies.Clear(w)
			s.endSession(r.Context(), token)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if !isAdmin(session) && !s.Rbac.Allowed(session.UserRoles, r.URL.Path, r.Method) {
			s.Logger.Warn("access denied",
				zap.String("user", session.User.Username),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		ctx := sessioncontext.NewContextWithSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isAdmin(session models.Session) bool {
	for _, role := range session.UserRoles {
		if role == rbac.RoleAdmin {
			return true
		}
	}
	return false
}

func (s *Server) resolveSession(ctx context.Context, token string) (models.Session, bool) {
	if cached, found := s.Sessions.Get(token); found {
		return cached, true
	}

	dbSession, err := loginflow.LoadSessionByToken(ctx, s.DB, token)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.Logger.Error("load session from db failed", zap.Error(err))
		}
		return models.Session{}, false
	}

	s.Sessions.Put(dbSession)
	s.Users.Put(dbSession.User)
	return dbSession, true
}

// endSession forgets token everywhere: cache, workspace and database.
func (s *Server) endSession(ctx context.Context, token string) {
	s.Sessions.Delete(token)
	s.Workspaces.Drop(token)
	if err := loginflow.DeleteSessionByToken(ctx, s.DB, token); err != nil {
		s.Logger.Error("cannot delete session from db", zap.Error(err))
	}
}

// permissions returns the resource codes the session may reach.
func (s *Server) permissions(session models.Session) map[string]bool {
	if !isAdmin(session) {
		return s.Rbac.Codes(session.UserRoles)
	}
	out := make(map[string]bool)
	for _, code := range s.RbacCache.Codes() {
		out[code] = true
	}
	return out
}

// Chrome builds the shared layout for the request's session.
func (s *Server) Chrome(r *http.Request, active string) html.LayoutData {
	data := html.LayoutData{
		Device:     html.DeviceBadge{State: html.DeviceLoading},
		LiveDevice: true,
	}
	session, ok := sessioncontext.GetSessionFromContext(r.Context())
	if !ok {
		return data
	}
	data.Permissions = s.permissions(session)
	data.Nav = nav.Build(session, data.Permissions, active)
	if ws, found := s.Workspaces.Lookup(session.ID); found {
		data.Device = html.BadgeFromState(ws.DeviceState())
		data.Toasts = ws.Toasts()
	}
	return data
}

// purgeExpired drops sessions past their expiry together with their
// workspaces.
func (s *Server) purgeExpired(ctx context.Context) {
	tokens, err := loginflow.DeleteExpiredSessions(ctx, s.DB, time.Now())
	if err != nil {
		s.Logger.Error("purge expired sessions failed", zap.Error(err))
	}
	tokens = append(tokens, s.Sessions.PurgeExpired()...)
	for _, token := range tokens {
		s.Sessions.Delete(token)
		s.Workspaces.Drop(token)
	}
	if len(tokens) > 0 {
		s.Logger.Info("expired sessions purged", zap.Int("count", len(tokens)))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the HTTP server and the session janitor.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	s.janitor = fetch.Subscribe(s.baseCtx, JanitorInterval, s.purgeExpired)
	go func() {
		if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("http server stopped", zap.Error(err))
		}
	}()
	s.Logger.Info("http server listening", zap.String("addr", s.ln.Addr().String()))
	return nil
}

// Stop gracefully shuts down the server and tears down every workspace.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	timeout := s.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.Close()
	s.ln = nil
	if err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// Close stops background work without touching the listener.
func (s *Server) Close() {
	if s.janitor != nil {
		s.janitor.Stop()
		s.janitor = nil
	}
	s.Workspaces.DropAll()
	s.cancelBase()
}
