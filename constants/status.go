package constants

// JobStatus is the canonical processing state for a submitted document.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending    JobStatus = "PENDING"    // accepted, not yet picked up
	JobStatusOCR        JobStatus = "OCR"        // text extraction in progress
	JobStatusValidation JobStatus = "VALIDATION" // extraction/authenticity/rules/verification
	JobStatusCompleted  JobStatus = "COMPLETED"  // terminal, decision emitted
	JobStatusFailed     JobStatus = "FAILED"     // terminal technical failure
)

// Terminal reports whether a job in this status will never transition again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Active reports whether a new intake for the same document must be refused.
func (s JobStatus) Active() bool {
	return !s.Terminal()
}
