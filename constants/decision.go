package constants

// DecisionStatus is the terminal business verdict for a processed document.
type DecisionStatus string

const (
	DecisionApproved     DecisionStatus = "APPROVED"
	DecisionRejected     DecisionStatus = "REJECTED"
	DecisionManualReview DecisionStatus = "MANUAL_REVIEW"
	DecisionError        DecisionStatus = "ERROR"
)

// RejectionType classifies a single failed check on a non-approved decision.
type RejectionType string

const (
	RejectionClassificationMismatch RejectionType = "classification_mismatch"
	RejectionExtractionFailed       RejectionType = "extraction_failed"
	RejectionCrossValidation        RejectionType = "cross_validation"
	RejectionAuthenticityFailed     RejectionType = "authenticity_failed"
	RejectionInvalidCertificate     RejectionType = "invalid_certificate"
	RejectionDownloadError          RejectionType = "download_error"
	RejectionDataMismatch           RejectionType = "data_mismatch"
)

// AuthenticityVerdict is the tri-state result of the authenticity layer.
type AuthenticityVerdict string

const (
	AuthenticityPassed  AuthenticityVerdict = "PASSED"
	AuthenticityWarning AuthenticityVerdict = "WARNING"
	AuthenticityFailed  AuthenticityVerdict = "FAILED"
)
