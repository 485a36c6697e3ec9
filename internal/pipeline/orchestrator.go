package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocktruck/doc-validator/constants"
	"github.com/rocktruck/doc-validator/internal/admission"
	"github.com/rocktruck/doc-validator/internal/authenticity"
	"github.com/rocktruck/doc-validator/internal/common"
	"github.com/rocktruck/doc-validator/internal/entity"
	"github.com/rocktruck/doc-validator/internal/extract"
	"github.com/rocktruck/doc-validator/internal/fetch"
	"github.com/rocktruck/doc-validator/internal/metrics"
	"github.com/rocktruck/doc-validator/internal/notify"
	"github.com/rocktruck/doc-validator/internal/profile"
	"github.com/rocktruck/doc-validator/internal/repository"
	"github.com/rocktruck/doc-validator/internal/rules"
	"github.com/rocktruck/doc-validator/internal/verify"
)

// Verifier is the external-registry verification stage as the orchestrator
// sees it. *verify.Coordinator implements it.
type Verifier interface {
	Verify(ctx context.Context, variant profile.Variant, extracted map[string]string) entity.VerificationOutcome
}

var _ Verifier = (*verify.Coordinator)(nil)

// Assessor is the authenticity stage. *authenticity.Scorer implements it.
type Assessor interface {
	Assess(raw []byte, origin authenticity.Origin) entity.AuthenticityResult
}

var _ Assessor = (*authenticity.Scorer)(nil)

// Orchestrator runs one job through every stage and emits exactly one
// Decision. The pipeline is single-threaded per job; stage short-circuits are
// data, not exceptions.
type Orchestrator struct {
	jobs       repository.JobRepository
	decisions  repository.DecisionRepository
	admissions admission.Index
	fetcher    fetch.Fetcher
	text       extract.TextExtractor
	fields     extract.FieldExtractor
	scorer     Assessor
	engine     *rules.Engine
	verifier   Verifier
	reconciler CopyReconciler
	notifier   notify.Notifier
	registry   *profile.Registry
	logger     *slog.Logger
}

type Deps struct {
	Jobs       repository.JobRepository
	Decisions  repository.DecisionRepository
	Admissions admission.Index
	Fetcher    fetch.Fetcher
	Text       extract.TextExtractor
	Fields     extract.FieldExtractor
	Scorer     Assessor
	Engine     *rules.Engine
	Verifier   Verifier
	Reconciler CopyReconciler
	Notifier   notify.Notifier
	Registry   *profile.Registry
	Logger     *slog.Logger
}

func NewOrchestrator(d Deps) *Orchestrator {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		jobs:       d.Jobs,
		decisions:  d.Decisions,
		admissions: d.Admissions,
		fetcher:    d.Fetcher,
		text:       d.Text,
		fields:     d.Fields,
		scorer:     d.Scorer,
		engine:     d.Engine,
		verifier:   d.Verifier,
		reconciler: d.Reconciler,
		notifier:   d.Notifier,
		registry:   d.Registry,
		logger:     logger,
	}
}

// Process runs the full pipeline for a previously admitted job. It satisfies
// async.Processor.
func (o *Orchestrator) Process(ctx context.Context, jobID uuid.UUID) error {
	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	defer func() {
		if rerr := o.admissions.Release(context.WithoutCancel(ctx), job.DocumentID); rerr != nil {
			o.logger.Warn("pipeline.admission_release_failed", "document_id", job.DocumentID, "error", rerr)
		}
	}()

	ctx = common.WithDocumentID(ctx, job.DocumentID)
	log := o.logger.With("job_id", job.ID, "document_id", job.DocumentID, "variant", job.Variant)
	log.Info("pipeline.started")

	decision := o.run(ctx, log, job)
	decision.ProcessedAt = time.Now().UTC()

	jobStatus := constants.JobStatusCompleted
	if decision.Status == constants.DecisionError {
		jobStatus = constants.JobStatusFailed
	}

	// The decision is the audit record; persist before anything else.
	if err := o.decisions.Save(ctx, decision); err != nil {
		log.Error("pipeline.decision_save_failed", "error", err)
		return err
	}
	if err := o.jobs.UpdateStatus(ctx, job.ID, jobStatus); err != nil {
		log.Error("pipeline.job_status_update_failed", "error", err)
	}

	metrics.DecisionsTotal.WithLabelValues(job.Variant, string(decision.Status)).Inc()
	for _, r := range decision.RejectionReasons {
		metrics.RejectionsTotal.WithLabelValues(string(r.Type)).Inc()
	}
	if decision.Verification != nil && decision.Verification.Attempted {
		metrics.VerificationAttempts.Observe(float64(decision.Verification.Attempts))
	}

	if job.ResponseURL != "" {
		// Best effort: the decision is already persisted.
		if err := o.notifier.Deliver(ctx, job.ResponseURL, decision); err != nil {
			log.Warn("pipeline.callback_failed", "url", job.ResponseURL, "error", err)
		}
	}

	log.Info("pipeline.finished", "status", string(decision.Status))
	return nil
}

// run executes the stages and derives the final status. Unexpected faults are
// caught here and mapped to an ERROR decision with the fault as the final log
// entry.
func (o *Orchestrator) run(ctx context.Context, log *slog.Logger, job *entity.ProcessingJob) (decision *entity.Decision) {
	decision = &entity.Decision{
		DocumentID:       job.DocumentID,
		Variant:          job.Variant,
		RejectionReasons: []entity.RejectionReason{},
	}
	trace := func(format string, args ...any) {
		decision.ProcessingLog = append(decision.ProcessingLog, fmt.Sprintf(format, args...))
	}
	fault := func(stage string, err error) *entity.Decision {
		log.Error("pipeline.stage_fault", "stage", stage, "error", err)
		trace("%s: technical failure: %v", stage, err)
		decision.Status = constants.DecisionError
		decision.RejectionReasons = []entity.RejectionReason{}
		return decision
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline.panic", "panic", r)
			trace("pipeline: unhandled fault: %v", r)
			decision.Status = constants.DecisionError
			decision.RejectionReasons = []entity.RejectionReason{}
		}
	}()

	variant, err := profile.ParseVariant(job.Variant)
	if err != nil {
		// Intake already validated the variant; hitting this means the
		// job row was tampered with or the profile set changed.
		return fault("profile", err)
	}

	// OCR stage: download and read the submitted document.
	if err := o.jobs.UpdateStatus(ctx, job.ID, constants.JobStatusOCR); err != nil {
		return fault("ocr", err)
	}
	trace("ocr: downloading document from %s", job.FileURL)

	ocrStart := time.Now()
	fetched, err := o.fetcher.Fetch(ctx, job.FileURL)
	if err != nil {
		return fault("ocr", err)
	}
	trace("ocr: downloaded %d bytes (content type %q)", len(fetched.Data), fetched.ContentType)

	text, err := o.text.ExtractText(ctx, fetched.Data)
	if err != nil {
		return fault("ocr", err)
	}
	trace("ocr: extracted %d characters of text", len(text))
	metrics.StageDuration.WithLabelValues("ocr").Observe(time.Since(ocrStart).Seconds())

	if err := o.jobs.UpdateStatus(ctx, job.ID, constants.JobStatusValidation); err != nil {
		return fault("validation", err)
	}

	// Sub-step 1: classification and field extraction.
	extractStart := time.Now()
	result, err := o.fields.ExtractFields(ctx, extract.ExtractRequest{
		Text:         text,
		FileNameHint: job.FileName,
		Variant:      variant,
	})
	metrics.StageDuration.WithLabelValues("extraction").Observe(time.Since(extractStart).Seconds())
	switch {
	case errors.Is(err, extract.ErrReplyInvalid):
		trace("extraction: required fields could not be extracted: %v", err)
		decision.RejectionReasons = append(decision.RejectionReasons, entity.RejectionReason{
			Type:    constants.RejectionExtractionFailed,
			Details: err.Error(),
		})
		decision.Status = constants.DecisionRejected
		trace("decision: REJECTED (extraction failed)")
		return decision
	case err != nil:
		return fault("extraction", err)
	}
	decision.ExtractedData = result.Fields

	if !result.MatchedVariant {
		trace("extraction: document does not match declared variant %s", job.Variant)
		decision.RejectionReasons = append(decision.RejectionReasons, entity.RejectionReason{
			Type:    constants.RejectionClassificationMismatch,
			Details: fmt.Sprintf("document is not a certificate of the declared variant %q", job.Variant),
		})
		decision.Status = constants.DecisionRejected
		trace("decision: REJECTED (classification mismatch)")
		return decision
	}
	trace("extraction: %d fields extracted, variant confirmed", len(result.Fields))

	// Sub-step 2: authenticity. FAILED rejects but never stops the run.
	authStart := time.Now()
	auth := o.scorer.Assess(fetched.Data, authenticity.Origin{
		ContentType:   fetched.ContentType,
		ContentLength: fetched.ContentLength,
		SizeBytes:     int64(len(fetched.Data)),
	})
	metrics.StageDuration.WithLabelValues("authenticity").Observe(time.Since(authStart).Seconds())
	decision.Authenticity = &auth
	trace("authenticity: verdict %s (%d signals)", auth.Verdict, len(auth.Signals))
	for _, s := range auth.Signals {
		trace("authenticity: signal: %s", s)
	}
	if auth.Verdict == constants.AuthenticityFailed {
		decision.RejectionReasons = append(decision.RejectionReasons, entity.RejectionReason{
			Type:    constants.RejectionAuthenticityFailed,
			Details: fmt.Sprintf("tampering signals: %v", auth.Signals),
		})
	}

	// Sub-step 3: rule evaluation always runs so the report is complete.
	results, ruleRejections := o.engine.Evaluate(mustProfile(o.registry, variant), result.Fields, job.IdentityData)
	decision.ValidationResults = results
	decision.RejectionReasons = append(decision.RejectionReasons, ruleRejections...)
	trace("rules: %d evaluated, %d failed", len(results), len(ruleRejections))

	// Sub-step 4: external verification, skipped on failed authenticity.
	unresolvedVerify := false
	if auth.Verdict != constants.AuthenticityFailed {
		verifyStart := time.Now()
		outcome := o.verifier.Verify(ctx, variant, result.Fields)
		metrics.StageDuration.WithLabelValues("verification").Observe(time.Since(verifyStart).Seconds())
		decision.Verification = &outcome
		trace("verification: attempted=%t success=%t valid=%t after %d attempt(s): %s",
			outcome.Attempted, outcome.Success, outcome.Valid, outcome.Attempts, outcome.Message)

		switch {
		case outcome.Success && !outcome.Valid:
			decision.RejectionReasons = append(decision.RejectionReasons, entity.RejectionReason{
				Type:    constants.RejectionInvalidCertificate,
				Details: outcome.Message,
			})
		case !outcome.Success:
			// Not proven wrong, only unverifiable.
			unresolvedVerify = true
			decision.RejectionReasons = append(decision.RejectionReasons, entity.RejectionReason{
				Type:    constants.RejectionDownloadError,
				Details: outcome.Message,
			})
		case outcome.Valid && outcome.RetrievedCopyRef != "" && o.reconciler != nil:
			diffs, rerr := o.reconciler.Reconcile(ctx, variant, outcome.RetrievedCopyRef, result.Fields)
			if rerr != nil {
				unresolvedVerify = true
				trace("reconcile: official copy check failed: %v", rerr)
				decision.RejectionReasons = append(decision.RejectionReasons, entity.RejectionReason{
					Type:    constants.RejectionDownloadError,
					Details: fmt.Sprintf("official copy comparison failed: %v", rerr),
				})
			} else if len(diffs) > 0 {
				trace("reconcile: %d field(s) differ from the official copy", len(diffs))
				decision.RejectionReasons = append(decision.RejectionReasons, entity.RejectionReason{
					Type:        constants.RejectionDataMismatch,
					Details:     "submitted document differs from the registry's official copy",
					Differences: diffs,
				})
			} else {
				trace("reconcile: official copy matches submitted data")
			}
		}
	} else {
		decision.Verification = &entity.VerificationOutcome{
			Attempted: false,
			Message:   "skipped: authenticity verdict is FAILED",
		}
		trace("verification: skipped, authenticity verdict is FAILED")
	}

	decision.Status = deriveStatus(decision.RejectionReasons, unresolvedVerify)
	trace("decision: %s", decision.Status)
	return decision
}

// deriveStatus applies the precedence order: classification/extraction
// failures reject outright, an unverifiable certificate goes to manual
// review, any other rejection rejects, and a clean run approves.
func deriveStatus(reasons []entity.RejectionReason, unresolvedVerify bool) constants.DecisionStatus {
	for _, r := range reasons {
		if r.Type == constants.RejectionClassificationMismatch || r.Type == constants.RejectionExtractionFailed {
			return constants.DecisionRejected
		}
	}
	if unresolvedVerify {
		return constants.DecisionManualReview
	}
	if len(reasons) > 0 {
		return constants.DecisionRejected
	}
	return constants.DecisionApproved
}

func mustProfile(registry *profile.Registry, variant profile.Variant) *profile.DocumentTypeProfile {
	p, err := registry.ProfileFor(variant)
	if err != nil {
		// ParseVariant already succeeded; a registry miss here is a bug.
		panic(err)
	}
	return p
}
