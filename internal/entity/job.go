package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/rocktruck/doc-validator/constants"
)

// ProcessingJob is one submitted document moving through the pipeline.
// The orchestrator owns it exclusively for the duration of one run.
type ProcessingJob struct {
	ID           uuid.UUID           `json:"id"`
	DocumentID   string              `json:"document_id"`
	Variant      string              `json:"variant"`
	FileURL      string              `json:"file_url"`
	FileName     string              `json:"file_name"`
	IdentityData map[string]string   `json:"identity_data,omitempty"`
	ResponseURL  string              `json:"response_url,omitempty"`
	Status       constants.JobStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
}
