package entity

import (
	"time"

	"github.com/rocktruck/doc-validator/constants"
)

// ValidationResult is the outcome of evaluating a single profile rule.
type ValidationResult struct {
	RuleName string `json:"rule_name"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
}

// FieldDifference records one field-level discrepancy between the submitted
// document and the copy retrieved from the official registry.
type FieldDifference struct {
	Field          string `json:"field"`
	SubmittedValue string `json:"submitted_value"`
	RetrievedValue string `json:"retrieved_value"`
}

// RejectionReason explains one failed check on a non-approved decision.
type RejectionReason struct {
	Type        constants.RejectionType `json:"type"`
	Rule        string                  `json:"rule,omitempty"`
	Details     string                  `json:"details"`
	Differences []FieldDifference       `json:"differences,omitempty"`
}

// AuthenticityResult is the tri-state verdict of the authenticity layer
// together with the signals that produced it.
type AuthenticityResult struct {
	Verdict constants.AuthenticityVerdict `json:"verdict"`
	Signals []string                      `json:"signals"`
}

// VerificationOutcome records one external-registry verification, including
// the exact inputs submitted. SubmittedInputs is populated on every attempt,
// whether or not the verification ultimately succeeds.
type VerificationOutcome struct {
	Attempted        bool              `json:"attempted"`
	Success          bool              `json:"success"`
	Valid            bool              `json:"valid"`
	Message          string            `json:"message"`
	Attempts         int               `json:"attempts"`
	SubmittedInputs  map[string]string `json:"submitted_inputs,omitempty"`
	RetrievedCopyRef string            `json:"retrieved_copy_ref,omitempty"`
}

// Decision is the terminal, immutable record the pipeline emits for a job.
type Decision struct {
	DocumentID        string                   `json:"document_id"`
	Variant           string                   `json:"variant"`
	Status            constants.DecisionStatus `json:"status"`
	ExtractedData     map[string]string        `json:"extracted_data,omitempty"`
	ValidationResults []ValidationResult       `json:"validation_results"`
	RejectionReasons  []RejectionReason        `json:"rejection_reasons"`
	Authenticity      *AuthenticityResult      `json:"authenticity_result,omitempty"`
	Verification      *VerificationOutcome     `json:"external_verification,omitempty"`
	ProcessingLog     []string                 `json:"processing_log"`
	ProcessedAt       time.Time                `json:"processed_at"`
}
