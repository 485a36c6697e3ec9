package verify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rocktruck/doc-validator/internal/entity"
	"github.com/rocktruck/doc-validator/internal/profile"
)

// Coordinator drives registry verification with bounded retries. Technical
// failures are retried; the first definitive answer stops the loop.
type Coordinator struct {
	agent       Agent
	registry    *profile.Registry
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

func NewCoordinator(agent Agent, registry *profile.Registry, maxAttempts int, retryDelay time.Duration, logger *slog.Logger) *Coordinator {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		agent:       agent,
		registry:    registry,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger,
	}
}

// Verify submits the profile's submission fields to the registry. The
// returned outcome always records exactly what was submitted, so a reviewer
// can retrace the check even when it never reached the registry.
func (c *Coordinator) Verify(ctx context.Context, variant profile.Variant, extracted map[string]string) entity.VerificationOutcome {
	outcome := entity.VerificationOutcome{SubmittedInputs: map[string]string{}}

	p, err := c.registry.ProfileFor(variant)
	if err != nil {
		outcome.Message = err.Error()
		return outcome
	}

	inputs, missing := buildInputs(p, extracted)
	outcome.SubmittedInputs = inputs
	if len(missing) > 0 {
		outcome.Message = fmt.Sprintf("missing submission fields: %s", strings.Join(missing, ", "))
		c.logger.Warn("verify.inputs_incomplete", "variant", string(variant), "missing", missing)
		return outcome
	}

	outcome.Attempted = true
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		outcome.Attempts = attempt
		res, err := c.agent.SubmitAndVerify(ctx, variant, inputs)
		if err == nil && res.Definitive {
			outcome.Success = true
			outcome.Valid = res.Valid
			outcome.Message = res.Message
			outcome.RetrievedCopyRef = res.OfficialCopyRef
			c.logger.Info("verify.definitive",
				"variant", string(variant),
				"attempt", attempt,
				"valid", res.Valid,
			)
			return outcome
		}

		if err == nil {
			err = fmt.Errorf("registry gave no answer: %s", res.Message)
		}
		lastErr = err
		c.logger.Warn("verify.attempt_failed",
			"variant", string(variant),
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"error", err,
		)

		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				outcome.Message = fmt.Sprintf("verification aborted: %v", ctx.Err())
				return outcome
			case <-time.After(c.retryDelay):
			}
		}
	}

	outcome.Message = fmt.Sprintf("verification failed after %d attempts: %v", c.maxAttempts, lastErr)
	return outcome
}

// buildInputs collects the profile's submission fields from the extracted
// data. The razon_social certificate code is printed in groups of four
// characters and the portal form expects it that way.
func buildInputs(p *profile.DocumentTypeProfile, extracted map[string]string) (map[string]string, []string) {
	inputs := make(map[string]string, len(p.SubmissionFields))
	var missing []string
	for _, name := range p.SubmissionFields {
		v := strings.TrimSpace(extracted[name])
		if v == "" {
			missing = append(missing, name)
			continue
		}
		if name == "codigo_certificado" {
			v = formatCertificateCode(v)
		}
		inputs[name] = v
	}
	return inputs, missing
}

func formatCertificateCode(code string) string {
	compact := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(code)))
	var groups []string
	for i := 0; i < len(compact); i += 4 {
		end := i + 4
		if end > len(compact) {
			end = len(compact)
		}
		groups = append(groups, compact[i:end])
	}
	return strings.Join(groups, " ")
}
