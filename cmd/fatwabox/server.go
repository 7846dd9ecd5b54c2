package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fatwabox/internal/constants"
	"fatwabox/internal/errors"
	"fatwabox/internal/middleware"
	"fatwabox/internal/models"
	"fatwabox/internal/service"
	"fatwabox/internal/validation"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	router    *mux.Router
	logger    *logrus.Logger
	cfg       *models.Config
	frontDoor *service.FrontDoor
	queue     *service.QueueManager
	sync      *service.SyncEngine
	monitor   *service.ConnectivityMonitor
	server    *http.Server
}

func NewServer(cfg *models.Config, frontDoor *service.FrontDoor, queue *service.QueueManager, syncEngine *service.SyncEngine, monitor *service.ConnectivityMonitor, logger *logrus.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		logger:    logger,
		cfg:       cfg,
		frontDoor: frontDoor,
		queue:     queue,
		sync:      syncEngine,
		monitor:   monitor,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.ObservabilityMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()

	submit := middleware.SubmissionObservabilityMiddleware(s.logger)
	api.Handle("/questions", submit(s.handleSubmit())).Methods(http.MethodPost)

	api.HandleFunc("/questions/pending", s.handleListPending()).Methods(http.MethodGet)
	api.HandleFunc("/questions/pending", s.handleClearPending()).Methods(http.MethodDelete)
	api.HandleFunc("/questions/pending/{id}", s.handleEditPending()).Methods(http.MethodPut)
	api.HandleFunc("/questions/pending/{id}", s.handleRemovePending()).Methods(http.MethodDelete)

	api.HandleFunc("/status", s.handleStatus()).Methods(http.MethodGet)
	api.HandleFunc("/connectivity", s.handleConnectivityOverride()).Methods(http.MethodPost)
	api.HandleFunc("/sync", s.handleSyncNow()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(constants.DefaultServerReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(constants.DefaultServerWriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(constants.DefaultServerIdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Server.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.HasCode(err, errors.ErrCodeInvalidInput):
		status = http.StatusBadRequest
	case errors.HasCode(err, errors.ErrCodeContentRejected):
		status = http.StatusUnprocessableEntity
	case errors.HasCode(err, errors.ErrCodeNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}

	s.writeJSON(w, status, errorResponse{Error: errors.GetUserMessage(err)})
}

// Handler implementations
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// handleSubmit accepts a question and reports whether it was delivered
// immediately (201) or queued for later delivery (202). Both are
// success from the submitter's point of view.
func (s *Server) handleSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validation.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid JSON body").
				WithUserMessage("The request body could not be parsed."))
			return
		}

		result, err := s.frontDoor.Submit(r.Context(), &req)
		if err != nil {
			s.writeError(w, err)
			return
		}

		status := http.StatusCreated
		if result.Queued {
			status = http.StatusAccepted
		}
		s.writeJSON(w, status, result)
	}
}

func (s *Server) handleListPending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := s.queue.ListPending(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		if pending == nil {
			pending = []models.PendingQuestion{}
		}
		s.writeJSON(w, http.StatusOK, pending)
	}
}

func (s *Server) handleEditPending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req validation.EditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid JSON body").
				WithUserMessage("The request body could not be parsed."))
			return
		}

		update, err := validation.ValidateEditRequest(&req)
		if err != nil {
			s.writeError(w, err)
			return
		}

		if err := s.queue.Edit(r.Context(), id, update); err != nil {
			s.writeError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRemovePending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := s.queue.Remove(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleClearPending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.queue.RemoveAll(r.Context()); err != nil {
			s.writeError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := s.frontDoor.Status(r.Context(), s.sync.IsSyncing())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, status)
	}
}

type connectivityRequest struct {
	Online bool `json:"online"`
}

// handleConnectivityOverride lets an operator force the connectivity
// state, mirroring the manual "I am back online" nudge in the UI.
// Forcing online also kicks off a flush.
func (s *Server) handleConnectivityOverride() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req connectivityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid JSON body").
				WithUserMessage("The request body could not be parsed."))
			return
		}

		s.monitor.SetOnline(req.Online)

		status, err := s.frontDoor.Status(r.Context(), s.sync.IsSyncing())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, status)
	}
}

type syncResponse struct {
	Delivered int `json:"delivered"`
	Pending   int `json:"pending"`
}

// handleSyncNow triggers an immediate flush pass.
func (s *Server) handleSyncNow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		delivered, err := s.sync.Flush(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}

		pending, err := s.queue.PendingCount(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.writeJSON(w, http.StatusOK, syncResponse{Delivered: delivered, Pending: pending})
	}
}
