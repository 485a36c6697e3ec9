package verify

import (
	"context"

	"github.com/rocktruck/doc-validator/internal/profile"
)

// AgentResult is one answer from the registry automation agent.
//
// Definitive means the registry itself answered, whether valid or not. A
// non-definitive result (portal down, captcha loop, session loss) is a
// technical failure and is retryable.
type AgentResult struct {
	Definitive      bool   `json:"definitive"`
	Valid           bool   `json:"valid"`
	Message         string `json:"message"`
	OfficialCopyRef string `json:"official_copy_ref,omitempty"`
}

// Agent submits certificate identifiers to the issuing registry and reports
// whether the registry recognizes them.
type Agent interface {
	SubmitAndVerify(ctx context.Context, variant profile.Variant, inputs map[string]string) (AgentResult, error)
}
