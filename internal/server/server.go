package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/auth"
	"github.com/hongminglow/bank-portal/internal/bank"
	"github.com/hongminglow/bank-portal/internal/config"
	"github.com/hongminglow/bank-portal/internal/http/handlers"
	"github.com/hongminglow/bank-portal/internal/http/respond"
	"github.com/hongminglow/bank-portal/internal/management"
	"github.com/hongminglow/bank-portal/internal/middleware"
	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, log *zap.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, store, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// NewHandler builds the full middleware chain and route tree.
func NewHandler(cfg config.Config, store storage.Store, log *zap.Logger) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	bankSvc := bank.NewService(store, log.Named("bank"))
	mgmt := management.NewService(store, log.Named("management"))

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	handlers.NewHealthHandler(time.Now(), store).Register(router)
	handlers.NewUserHandler(store, bankSvc, tokens, cfg.InitBalance, log).Register(router)
	handlers.NewAdminHandler(store, mgmt, tokens, log).Register(router)
	handlers.NewEmployeeHandler(store, mgmt, tokens, log).Register(router)

	gate := middleware.NewGate(tokens, Policy, log.Named("gate")).
		RequireLive(models.RoleEmployee, func(ctx context.Context, id string) error {
			_, err := store.FindEmployeeByID(ctx, id)
			return err
		})
	var h http.Handler = gate.Wrap(router)
	h = middleware.CORS(cfg.CORSOrigins, h)
	h = middleware.Logging(log.Named("http"), h)
	return middleware.Recover(log, h)
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
