package rules

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocktruck/doc-validator/constants"
	"github.com/rocktruck/doc-validator/internal/entity"
	"github.com/rocktruck/doc-validator/internal/profile"
)

// Engine evaluates a profile's validation rules against extracted fields and
// caller-supplied identity data.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Evaluate runs every rule in declaration order. There is no short-circuit:
// each rule yields exactly one ValidationResult, and each failing rule yields
// exactly one cross_validation RejectionReason.
func (e *Engine) Evaluate(
	p *profile.DocumentTypeProfile,
	extracted map[string]string,
	identity map[string]string,
) ([]entity.ValidationResult, []entity.RejectionReason) {
	results := make([]entity.ValidationResult, 0, len(p.Rules))
	var rejections []entity.RejectionReason

	for _, rule := range p.Rules {
		res := e.evaluateRule(rule, extracted, identity)
		results = append(results, res)
		if !res.Passed {
			rejections = append(rejections, entity.RejectionReason{
				Type:    constants.RejectionCrossValidation,
				Rule:    rule.Name,
				Details: res.Message,
			})
		}
		e.logger.Debug("rules.evaluated",
			"rule", rule.Name,
			"kind", string(rule.Kind),
			"passed", res.Passed,
		)
	}
	return results, rejections
}

func (e *Engine) evaluateRule(rule profile.ValidationRule, extracted, identity map[string]string) entity.ValidationResult {
	switch rule.Kind {
	case profile.RuleIdentityMatch:
		return evaluateIdentityMatch(rule, extracted, identity)
	case profile.RuleTextMatch:
		return evaluateTextMatch(rule, extracted, identity)
	case profile.RuleValueMatch:
		return evaluateValueMatch(rule, extracted)
	default:
		return entity.ValidationResult{
			RuleName: rule.Name,
			Passed:   false,
			Message:  fmt.Sprintf("unsupported rule kind %q", rule.Kind),
		}
	}
}

func evaluateIdentityMatch(rule profile.ValidationRule, extracted, identity map[string]string) entity.ValidationResult {
	want, ok := profile.FirstPresent(rule.Aliases, identity)
	if !ok {
		return failure(rule.Name, fmt.Sprintf("missing identity concept (none of %s present)", strings.Join(rule.Aliases, ", ")))
	}
	got := extracted[rule.Field]
	if NormalizeRUT(got) != NormalizeRUT(want) {
		return failure(rule.Name, fmt.Sprintf("%s: document value %q does not match provided %q", rule.Description, got, want))
	}
	return success(rule.Name, fmt.Sprintf("%s matches provided identity data", rule.Field))
}

func evaluateTextMatch(rule profile.ValidationRule, extracted, identity map[string]string) entity.ValidationResult {
	want, ok := profile.FirstPresent(rule.Aliases, identity)
	if !ok {
		return failure(rule.Name, fmt.Sprintf("missing identity concept (none of %s present)", strings.Join(rule.Aliases, ", ")))
	}
	got := extracted[rule.Field]
	score := Similarity(got, want)
	if score < rule.Threshold {
		return failure(rule.Name, fmt.Sprintf("%s: similarity %.2f below threshold %.2f (document %q vs provided %q)",
			rule.Description, score, rule.Threshold, got, want))
	}
	return success(rule.Name, fmt.Sprintf("%s matches with similarity %.2f", rule.Field, score))
}

func evaluateValueMatch(rule profile.ValidationRule, extracted map[string]string) entity.ValidationResult {
	got := NormalizeValue(extracted[rule.Field])
	want := NormalizeValue(rule.Expected)

	var passed bool
	switch rule.Operator {
	case profile.OpContainsCaseInsensitive:
		passed = strings.Contains(strings.ToLower(got), strings.ToLower(want))
	default: // equals_case_insensitive
		passed = strings.EqualFold(got, want)
	}
	if !passed {
		return failure(rule.Name, fmt.Sprintf("%s: expected %q, document has %q", rule.Description, rule.Expected, extracted[rule.Field]))
	}
	return success(rule.Name, fmt.Sprintf("%s has expected value", rule.Field))
}

func success(name, msg string) entity.ValidationResult {
	return entity.ValidationResult{RuleName: name, Passed: true, Message: msg}
}

func failure(name, msg string) entity.ValidationResult {
	return entity.ValidationResult{RuleName: name, Passed: false, Message: msg}
}
