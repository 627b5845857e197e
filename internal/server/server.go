//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/cache"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/dispatch"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
)

var errBadDateRange = fmt.Errorf("%w: dates must be YYYY-MM-DD", dispatch.ErrMalformedData)

type OperatorRepo interface {
	ValidateOperator(ctx context.Context, username, password string) (bool, error)
}

// SessionStore persists sessions beyond the in-memory cache. Load reports
// revoked, expired and unknown ids as repository.ErrObjectNotFound.
type SessionStore interface {
	Save(ctx context.Context, s *access.Session) error
	Load(ctx context.Context, id string) (*access.Session, error)
	Revoke(ctx context.Context, id string) error
}

type AuditSink interface {
	SaveBatch(ctx context.Context, entries []repository.AuditLogPayload) error
}

type Options struct {
	Upstream  Upstream
	Issuer    *auth.Issuer
	Sessions  *cache.SessionCache
	// SessionStore is optional; without it sessions end with the process.
	SessionStore SessionStore
	AuditSink    AuditSink
	// Operators guards /ops/metrics; nil leaves the endpoint unregistered.
	Operators OperatorRepo
	StaticDir string
	Logger    *zap.Logger
}

type Server struct {
	upstream     Upstream
	issuer       *auth.Issuer
	sessions     *cache.SessionCache
	store        SessionStore
	operators    OperatorRepo
	staticDir    string
	validate     *validator.Validate
	logger       *zap.Logger
	server       *http.Server
	AuditManager *AuditManager
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := opts.AuditSink
	if sink == nil {
		sink = NewLogSink(logger)
	}
	return &Server{
		upstream:     opts.Upstream,
		issuer:       opts.Issuer,
		sessions:     opts.Sessions,
		store:        opts.SessionStore,
		operators:    opts.Operators,
		staticDir:    opts.StaticDir,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger.With(zap.String("component", "http")),
		AuditManager: NewAuditManager(2, 5, 500*time.Millisecond, sink, logger),
	}
}

// Run serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	s.AuditManager.Start(ctx)

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		shutdownErr <- s.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("HTTP server shutdown completed")

	s.AuditManager.Shutdown(ctx)
	s.logger.Info("Server shutdown completed successfully")

	return nil
}

func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()
	router.Use(s.auditLogMiddleware)

	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet).Name("healthz")
	if s.operators != nil {
		router.Handle("/ops/metrics", s.basicAuthMiddleware(promhttp.Handler())).Methods(http.MethodGet).Name("metrics")
	}

	api := router.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost).Name("login")

	protected := api.NewRoute().Subrouter()
	protected.Use(s.sessionMiddleware)

	protected.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost).Name("logout")
	protected.HandleFunc("/session", s.handleSession).Methods(http.MethodGet).Name("session")

	admin := s.require(access.CreateUsers)
	protected.Handle("/users", admin(s.handleCreateUser)).Methods(http.MethodPost).Name("user.create")
	protected.Handle("/users", admin(s.handleListUsers)).Methods(http.MethodGet).Name("user.list")
	protected.Handle("/users/{id}", admin(s.handleUpdateUser)).Methods(http.MethodPut).Name("user.update")
	protected.Handle("/clients", admin(s.handleListClients)).Methods(http.MethodGet).Name("client.list")
	protected.Handle("/clients/{id}", admin(s.handleUpdateClient)).Methods(http.MethodPut).Name("client.update")
	protected.Handle("/clients/{id}", admin(s.handleDeleteClient)).Methods(http.MethodDelete).Name("client.delete")
	protected.Handle("/delivery-stats", admin(s.handleDeliveryStats)).Methods(http.MethodGet).Name("delivery_stats")
	protected.Handle("/delivery-stats/range", admin(s.handleDeliveryStatsRange)).Methods(http.MethodGet).Name("delivery_stats.range")
	protected.Handle("/pickers/stats", admin(s.handlePickerStats)).Methods(http.MethodGet).Name("picker_stats")

	dispatcher := s.require(access.Dispatch)
	protected.Handle("/drivers", dispatcher(s.handleListDrivers)).Methods(http.MethodGet).Name("driver.list")
	protected.Handle("/drivers/stats", dispatcher(s.handleDriverStats)).Methods(http.MethodGet).Name("driver.stats")
	protected.Handle("/drivers/orders-per-day", dispatcher(s.handleOrdersPerDay)).Methods(http.MethodGet).Name("driver.orders_per_day")
	protected.Handle("/drivers/{id}", dispatcher(s.handleDriverPage)).Methods(http.MethodGet).Name("driver.page")
	protected.Handle("/drivers/{id}/activate", dispatcher(s.handleActivateDriver)).Methods(http.MethodPost).Name("driver.activate")
	protected.Handle("/drivers/{id}/deactivate", dispatcher(s.handleDeactivateDriver)).Methods(http.MethodPost).Name("driver.deactivate")
	protected.Handle("/commis", dispatcher(s.handleCommis)).Methods(http.MethodGet).Name("commis")
	protected.Handle("/missing-items", dispatcher(s.handleMissingItems)).Methods(http.MethodGet).Name("missing_item.list")
	protected.Handle("/missing-items/{id}/in-stock", dispatcher(s.handleMarkInStock)).Methods(http.MethodPost).Name("missing_item.in_stock")
	protected.Handle("/locations", dispatcher(s.handleListLocations)).Methods(http.MethodGet).Name("location.list")
	protected.Handle("/locations/archive-section", dispatcher(s.handleArchiveSection)).Methods(http.MethodPost).Name("location.archive_section")
	protected.Handle("/locations/archive", dispatcher(s.handleArchiveLocation)).Methods(http.MethodPut).Name("location.archive")
	protected.Handle("/pick-form", dispatcher(s.handlePickForm)).Methods(http.MethodPost).Name("pick_form.submit")
	protected.Handle("/returns/bulk", dispatcher(s.handleBulkReturns)).Methods(http.MethodPost).Name("returns.bulk")
	protected.Handle("/report/routes", dispatcher(s.handleReportRoutes)).Methods(http.MethodGet).Name("report.routes")
	protected.Handle("/report/statistics", dispatcher(s.handleReportStatistics)).Methods(http.MethodGet).Name("report.statistics")
	protected.Handle("/report/route-info", dispatcher(s.handleRouteInfo)).Methods(http.MethodGet).Name("report.route_info")
	protected.Handle("/report/route", dispatcher(s.handleRoute)).Methods(http.MethodGet).Name("report.route")
	protected.Handle("/search/orders", dispatcher(s.handleSearchOrders)).Methods(http.MethodGet).Name("search.orders")
	protected.Handle("/stats/clients", dispatcher(s.handleClientStats)).Methods(http.MethodGet).Name("client_stats")
	protected.Handle("/stats/clients/export", dispatcher(s.handleClientStatsExport)).Methods(http.MethodGet).Name("client_stats.export")

	accounting := s.require(access.Comptability)
	protected.Handle("/psl", accounting(s.handlePsl)).Methods(http.MethodGet).Name("psl.list")
	protected.Handle("/psl/drivers", accounting(s.handlePslDrivers)).Methods(http.MethodPost).Name("psl.drivers")

	router.PathPrefix("/").HandlerFunc(s.handleStatic).Methods(http.MethodGet, http.MethodHead).Name("static")

	return router
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		valid, err := s.operators.ValidateOperator(r.Context(), username, password)
		if err != nil {
			s.logger.Error("Operator validation failed", zap.String("username", username), zap.Error(err))
		}
		if err != nil || !valid {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondUpstream answers with the upstream payload or, on failure, with
// the status matching the error category.
func (s *Server) respondUpstream(w http.ResponseWriter, r *http.Request, op string, data interface{}, err error) {
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		s.logger.Debug("Request abandoned by client", zap.String("operation", op))
		return
	}

	metrics.OperationErrorsTotal.WithLabelValues(op).Inc()
	s.logger.Warn("Operation failed", zap.String("operation", op), zap.String("path", r.URL.Path), zap.Error(err))

	var apiErr *dispatch.APIError
	switch {
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		detail := apiErr.Detail
		if detail == "" {
			detail = http.StatusText(apiErr.Status)
		}
		respondError(w, status, detail)
	case errors.Is(err, dispatch.ErrMalformedData):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dispatch.ErrTransport), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusBadGateway, "Erreur réseau, veuillez réessayer")
	default:
		respondError(w, http.StatusInternalServerError, "Erreur interne")
	}
}

// decode reads a JSON body into dst and validates it when dst is a struct.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	var invalid *validator.InvalidValidationError
	if err := s.validate.Struct(dst); err != nil && !errors.As(err, &invalid) {
		respondError(w, http.StatusBadRequest, "Validation Failed: "+err.Error())
		return false
	}
	return true
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func sessionFrom(r *http.Request) *access.Session {
	sess, _ := access.FromContext(r.Context())
	return sess
}
