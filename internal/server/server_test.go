package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocktruck/doc-validator/constants"
	"github.com/rocktruck/doc-validator/internal/admission"
	"github.com/rocktruck/doc-validator/internal/async"
	"github.com/rocktruck/doc-validator/internal/entity"
	"github.com/rocktruck/doc-validator/internal/export"
	"github.com/rocktruck/doc-validator/internal/profile"
	"github.com/rocktruck/doc-validator/internal/repository"
)

type captureQueue struct {
	jobs []async.Job
}

func (q *captureQueue) Enqueue(ctx context.Context, job async.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type serverFixture struct {
	srv       *Server
	jobs      *repository.MemoryJobStore
	decisions *repository.MemoryDecisionStore
	queue     *captureQueue
	http      http.Handler
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	f := &serverFixture{
		jobs:      repository.NewMemoryJobStore(),
		decisions: repository.NewMemoryDecisionStore(),
		queue:     &captureQueue{},
	}
	f.srv = New(Deps{
		Jobs:       f.jobs,
		Decisions:  f.decisions,
		Admissions: admission.NewMemoryIndex(),
		Queue:      f.queue,
		Registry:   profile.NewRegistry(),
		Exporter:   export.NewService(f.decisions, nil),
	})
	f.http = f.srv.Router()
	return f
}

func validIntake() map[string]any {
	return map[string]any{
		"document_id": "DOC-1",
		"variant":     "razon_social",
		"file_url":    "https://files.example/doc.pdf",
		"file_name":   "certificado.pdf",
		"identity_data": map[string]string{
			"rut":          "76123456-7",
			"razon_social": "Constructora Los Andes SpA",
		},
	}
}

func (f *serverFixture) post(t *testing.T, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	bs, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(bs))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.http.ServeHTTP(rec, req)
	return rec
}

func (f *serverFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.http.ServeHTTP(rec, req)
	return rec
}

func TestIntakeAccepted(t *testing.T) {
	f := newServerFixture(t)

	rec := f.post(t, "/api/v1/certificados/f30", validIntake())

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp IntakeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DOC-1", resp.DocumentID)
	assert.Equal(t, "PENDING", resp.Status)
	require.Len(t, f.queue.jobs, 1)

	job, err := f.jobs.GetByDocumentID(context.Background(), "DOC-1")
	require.NoError(t, err)
	assert.Equal(t, f.queue.jobs[0].JobID, job.ID)
}

func TestIntakeUnknownVariant(t *testing.T) {
	f := newServerFixture(t)
	body := validIntake()
	body["variant"] = "sociedad_anonima"

	rec := f.post(t, "/api/v1/certificados/f30", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, f.queue.jobs)
}

func TestIntakeRejectsNonPDF(t *testing.T) {
	f := newServerFixture(t)
	body := validIntake()
	body["file_name"] = "certificado.docx"

	rec := f.post(t, "/api/v1/certificados/f30", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.queue.jobs)
}

func TestIntakeMissingIdentityConcept(t *testing.T) {
	f := newServerFixture(t)
	body := validIntake()
	body["identity_data"] = map[string]string{"razon_social": "Constructora Los Andes SpA"}

	rec := f.post(t, "/api/v1/certificados/f30", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "rut")
}

func TestIntakeIdentityAliasAccepted(t *testing.T) {
	f := newServerFixture(t)
	body := validIntake()
	body["identity_data"] = map[string]string{"rut_empresa": "76123456-7"}

	rec := f.post(t, "/api/v1/certificados/f30", body)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestIntakeDuplicateActiveJobConflicts(t *testing.T) {
	f := newServerFixture(t)

	first := f.post(t, "/api/v1/certificados/f30", validIntake())
	require.Equal(t, http.StatusAccepted, first.Code)

	second := f.post(t, "/api/v1/certificados/f30", validIntake())
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Len(t, f.queue.jobs, 1)
}

func TestGetJob(t *testing.T) {
	f := newServerFixture(t)
	rec := f.post(t, "/api/v1/certificados/f30", validIntake())
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp IntakeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	got := f.get(t, "/api/v1/jobs/"+resp.JobID)
	require.Equal(t, http.StatusOK, got.Code)
	var job entity.ProcessingJob
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &job))
	assert.Equal(t, "DOC-1", job.DocumentID)

	missing := f.get(t, "/api/v1/jobs/00000000-0000-0000-0000-000000000001")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	bad := f.get(t, "/api/v1/jobs/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestGetDecision(t *testing.T) {
	f := newServerFixture(t)
	require.NoError(t, f.decisions.Save(context.Background(), &entity.Decision{
		DocumentID:  "DOC-1",
		Variant:     "razon_social",
		Status:      constants.DecisionApproved,
		ProcessedAt: time.Now().UTC(),
	}))

	rec := f.get(t, "/api/v1/documents/DOC-1/decision")
	require.Equal(t, http.StatusOK, rec.Code)
	var decision entity.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, constants.DecisionApproved, decision.Status)

	missing := f.get(t, "/api/v1/documents/DOC-404/decision")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestExportEndpoint(t *testing.T) {
	f := newServerFixture(t)
	require.NoError(t, f.decisions.Save(context.Background(), &entity.Decision{
		DocumentID:  "DOC-1",
		Variant:     "razon_social",
		Status:      constants.DecisionApproved,
		ProcessedAt: time.Now().UTC(),
	}))

	rec := f.get(t, "/api/v1/decisions/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotEmpty(t, rec.Body.Bytes())

	bad := f.get(t, "/api/v1/decisions/export?from=notadate")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHealthz(t *testing.T) {
	f := newServerFixture(t)
	rec := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
