package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocktruck/doc-validator/constants"
	"github.com/rocktruck/doc-validator/internal/admission"
	"github.com/rocktruck/doc-validator/internal/async"
	"github.com/rocktruck/doc-validator/internal/common"
	"github.com/rocktruck/doc-validator/internal/entity"
	"github.com/rocktruck/doc-validator/internal/export"
	"github.com/rocktruck/doc-validator/internal/metrics"
	"github.com/rocktruck/doc-validator/internal/profile"
	"github.com/rocktruck/doc-validator/internal/repository"
)

// Enqueuer hands an admitted job to the background pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, job async.Job) error
}

// Server exposes the intake, status, and export HTTP API.
type Server struct {
	jobs       repository.JobRepository
	decisions  repository.DecisionRepository
	admissions admission.Index
	queue      Enqueuer
	registry   *profile.Registry
	exporter   *export.Service
	health     func(ctx context.Context) error
	logger     *slog.Logger
}

type Deps struct {
	Jobs       repository.JobRepository
	Decisions  repository.DecisionRepository
	Admissions admission.Index
	Queue      Enqueuer
	Registry   *profile.Registry
	Exporter   *export.Service
	Health     func(ctx context.Context) error
	Logger     *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		jobs:       d.Jobs,
		decisions:  d.Decisions,
		admissions: d.Admissions,
		queue:      d.Queue,
		registry:   d.Registry,
		exporter:   d.Exporter,
		health:     d.Health,
		logger:     logger,
	}
}

// Router mounts all routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/certificados/f30", s.handleIntake)
		r.Get("/jobs/{jobID}", s.handleGetJob)
		r.Get("/documents/{documentID}/decision", s.handleGetDecision)
		r.Get("/decisions/export", s.handleExport)
	})
	return r
}

func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	var req IntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		metrics.IntakeRejectedTotal.WithLabelValues("invalid_request").Inc()
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	variant, err := profile.ParseVariant(req.Variant)
	if err != nil {
		metrics.IntakeRejectedTotal.WithLabelValues("unknown_variant").Inc()
		s.writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown variant %q", req.Variant))
		return
	}
	p, err := s.registry.ProfileFor(variant)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Every required identity concept must be present under at least one
	// accepted alias before any stage runs.
	for _, aliases := range p.RequiredConcepts {
		if _, ok := profile.FirstPresent(aliases, req.IdentityData); !ok {
			metrics.IntakeRejectedTotal.WithLabelValues("missing_identity").Inc()
			s.writeError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("identity_data must include one of: %s", strings.Join(aliases, ", ")))
			return
		}
	}

	ctx := common.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	if err := s.admissions.Register(ctx, req.DocumentID); err != nil {
		if errors.Is(err, common.ErrDuplicateJob) {
			metrics.IntakeRejectedTotal.WithLabelValues("duplicate").Inc()
			s.writeError(w, http.StatusConflict,
				fmt.Sprintf("document %s already has an active job", req.DocumentID))
			return
		}
		s.logger.Error("server.admission_failed", "document_id", req.DocumentID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "admission check failed")
		return
	}

	job := &entity.ProcessingJob{
		ID:           uuid.New(),
		DocumentID:   req.DocumentID,
		Variant:      string(variant),
		FileURL:      req.FileURL,
		FileName:     req.FileName,
		IdentityData: req.IdentityData,
		ResponseURL:  req.ResponseURL,
		Status:       constants.JobStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		// Roll back the claim so the caller can retry.
		_ = s.admissions.Release(ctx, req.DocumentID)
		s.logger.Error("server.job_create_failed", "document_id", req.DocumentID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not persist job")
		return
	}
	if err := s.queue.Enqueue(ctx, async.Job{JobID: job.ID}); err != nil {
		_ = s.admissions.Release(ctx, req.DocumentID)
		s.logger.Error("server.enqueue_failed", "job_id", job.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not queue job")
		return
	}

	s.logger.Info("server.intake_accepted",
		"request_id", common.RequestIDFromContext(ctx),
		"job_id", job.ID,
		"document_id", job.DocumentID,
		"variant", job.Variant,
	)
	s.writeJSON(w, http.StatusAccepted, IntakeResponse{
		JobID:      job.ID.String(),
		DocumentID: job.DocumentID,
		Status:     string(job.Status),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	job, err := s.jobs.Get(r.Context(), jobID)
	if errors.Is(err, common.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.logger.Error("server.job_lookup_failed", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "job lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	decision, err := s.decisions.GetByDocumentID(r.Context(), documentID)
	if errors.Is(err, common.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "no decision for document")
		return
	}
	if err != nil {
		s.logger.Error("server.decision_lookup_failed", "document_id", documentID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "decision lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = &t
	}

	out, err := s.exporter.ExportDecisionsXLSX(r.Context(), from, to)
	if err != nil {
		s.logger.Error("server.export_failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="decisions.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("server.response_encode_failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
