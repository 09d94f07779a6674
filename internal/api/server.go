// Package api HTTP интерфейс к сервисам записи.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Services зависимости HTTP сервера
type Services struct {
	Identity  Identity
	Directory Directory
	Schedules Schedules
	Bookings  Bookings
	Inbox     Inbox
	Audit     AuditLog
}

type Server struct {
	services Services
	validate *validator.Validate
	router   *mux.Router
	logger   *zap.Logger
}

func NewServer(services Services, validate *validator.Validate, logger *zap.Logger) *Server {
	s := &Server{
		services: services,
		validate: validate,
		router:   mux.NewRouter(),
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Public endpoints
	r.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/signin", s.handleSignIn).Methods(http.MethodPost)

	// Authenticated endpoints
	authed := r.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/auth/signout", s.handleSignOut).Methods(http.MethodPost)
	authed.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)

	authed.HandleFunc("/teachers", s.handleSearchTeachers).Methods(http.MethodGet)

	authed.HandleFunc("/schedules", s.handleListWindows).Methods(http.MethodGet)
	authed.HandleFunc("/schedules", s.handleCreateWindow).Methods(http.MethodPost)
	authed.HandleFunc("/schedules/{id}", s.handlePatchWindow).Methods(http.MethodPatch)
	authed.HandleFunc("/schedules/{id}", s.handleDeleteWindow).Methods(http.MethodDelete)
	authed.HandleFunc("/schedules/{id}/slots", s.handleSlots).Methods(http.MethodGet)

	authed.HandleFunc("/reservations", s.handleListReservations).Methods(http.MethodGet)
	authed.HandleFunc("/reservations", s.handleReserve).Methods(http.MethodPost)
	authed.HandleFunc("/reservations/{id}/{action:approve|reject|cancel}", s.handleTransition).Methods(http.MethodPost)

	authed.HandleFunc("/messages", s.handleInbox).Methods(http.MethodGet)
	authed.HandleFunc("/messages", s.handleSendMessage).Methods(http.MethodPost)

	// Admin endpoints; роль проверяют сервисы
	admin := authed.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/students/pending", s.handlePendingStudents).Methods(http.MethodGet)
	admin.HandleFunc("/students/{id}/approve", s.handleApproveStudent).Methods(http.MethodPost)
	admin.HandleFunc("/students/{id}", s.handleRejectStudent).Methods(http.MethodDelete)
	admin.HandleFunc("/teachers", s.handleListTeachers).Methods(http.MethodGet)
	admin.HandleFunc("/teachers", s.handleAddTeacher).Methods(http.MethodPost)
	admin.HandleFunc("/teachers/{id}", s.handleDeleteTeacher).Methods(http.MethodDelete)
	admin.HandleFunc("/logs", s.handleAuditLog).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusNotFound, NewHTTPError(http.StatusNotFound, "not_found", "no such route"))
	})
}

// Handler роутер с восстановлением после паник, CORS и журналом запросов
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.logger}), handlers.PrintRecoveryStack(false))(h)
	return handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
}

// logRequest пишет строку журнала запроса в zap
func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Info("HTTP request",
		zap.String("method", p.Request.Method),
		zap.String("path", p.URL.Path),
		zap.Int("status", p.StatusCode),
		zap.Int("size", p.Size),
		zap.Duration("duration", time.Since(p.TimeStamp)),
	)
}

type recoveryLogger struct {
	logger *zap.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("Recovered from panic in HTTP handler", zap.Any("panic", v))
}

// ListenAndServe обслуживает addr до отмены ctx, затем плавно останавливается
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Stopping HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
