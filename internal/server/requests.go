package server

import (
	"path/filepath"
	"strings"

	"github.com/rocktruck/doc-validator/constants"
)

// IntakeRequest is the caller-facing submission payload.
type IntakeRequest struct {
	DocumentID   string            `json:"document_id"`
	Variant      string            `json:"variant"`
	FileURL      string            `json:"file_url"`
	FileName     string            `json:"file_name"`
	IdentityData map[string]string `json:"identity_data"`
	ResponseURL  string            `json:"response_url,omitempty"`
}

// validate performs the structural checks that need no profile lookup.
func (r *IntakeRequest) validate() string {
	switch {
	case strings.TrimSpace(r.DocumentID) == "":
		return "document_id is required"
	case strings.TrimSpace(r.Variant) == "":
		return "variant is required"
	case strings.TrimSpace(r.FileURL) == "":
		return "file_url is required"
	case strings.TrimSpace(r.FileName) == "":
		return "file_name is required"
	}
	if ext := filepath.Ext(r.FileName); !constants.ExtensionAllowed(ext) {
		return "unsupported file extension " + ext
	}
	return ""
}

// IntakeResponse acknowledges an accepted submission.
type IntakeResponse struct {
	JobID      string `json:"job_id"`
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}
