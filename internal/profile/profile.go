package profile

import (
	"fmt"
	"strings"

	"github.com/rocktruck/doc-validator/internal/common"
)

// Variant identifies one of the structurally distinct F30 certificate kinds.
type Variant string

const (
	// VariantRazonSocial is the company certificate, verified through a
	// single certificate code on the documental portal.
	VariantRazonSocial Variant = "razon_social"
	// VariantPersonaNatural is the natural-person certificate, verified
	// through a four-part folio on the legacy portal.
	VariantPersonaNatural Variant = "persona_natural"
)

// ParseVariant maps caller input to a known variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantRazonSocial:
		return VariantRazonSocial, nil
	case VariantPersonaNatural:
		return VariantPersonaNatural, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnknownVariant, s)
	}
}

// RuleKind discriminates the three validation rule flavors.
type RuleKind string

const (
	// RuleIdentityMatch compares an extracted field against the first
	// present identity concept from an ordered alias list, exact after
	// normalization.
	RuleIdentityMatch RuleKind = "identity_match"
	// RuleTextMatch compares an extracted field against an identity concept
	// using a similarity score in [0,1] and a configured threshold.
	RuleTextMatch RuleKind = "text_match"
	// RuleValueMatch compares an extracted field against a literal expected
	// value with a configured operator.
	RuleValueMatch RuleKind = "value_match"
)

// MatchOperator selects the comparison semantics for RuleValueMatch.
type MatchOperator string

const (
	OpEqualsCaseInsensitive   MatchOperator = "equals_case_insensitive"
	OpContainsCaseInsensitive MatchOperator = "contains_case_insensitive"
)

// ValidationRule is one declarative check. Name and Description are used
// verbatim in the audit trail.
type ValidationRule struct {
	Kind        RuleKind
	Name        string
	Description string
	Field       string // extracted field the rule reads

	// IdentityMatch / TextMatch: identity concept aliases, probed in order.
	Aliases []string
	// TextMatch: minimum similarity in [0,1] to pass.
	Threshold float64
	// ValueMatch: literal expectation and operator.
	Expected string
	Operator MatchOperator
}

// FieldDef describes one extractable field of a document variant.
type FieldDef struct {
	Name        string
	Type        string // "string" | "number"
	Required    bool
	Description string
}

// DocumentTypeProfile is the immutable per-variant configuration. Loaded
// once and shared read-only across all jobs of that variant.
type DocumentTypeProfile struct {
	Variant     Variant
	DisplayName string
	Fields      []FieldDef
	Rules       []ValidationRule

	// SubmissionFields lists the extracted fields the external verification
	// agent needs, in the order the portal form expects them.
	SubmissionFields []string

	// RequiredConcepts are identity concepts (alias lists) that must be
	// present in caller-supplied data for intake to be accepted at all.
	RequiredConcepts [][]string
}

// FieldDef returns the definition for name, if declared.
func (p *DocumentTypeProfile) FieldDef(name string) (FieldDef, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// FirstPresent probes identity data for each alias in order and returns the
// first present, non-empty value.
func FirstPresent(aliases []string, identity map[string]string) (string, bool) {
	for _, alias := range aliases {
		if v, ok := identity[alias]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// Registry is the read-only lookup of document type profiles by variant.
type Registry struct {
	profiles map[Variant]*DocumentTypeProfile
}

// NewRegistry builds a registry with the built-in F30 profiles.
func NewRegistry() *Registry {
	return &Registry{profiles: map[Variant]*DocumentTypeProfile{
		VariantRazonSocial:    razonSocialProfile(),
		VariantPersonaNatural: personaNaturalProfile(),
	}}
}

// ProfileFor returns the profile registered for the variant, or
// common.ErrUnknownVariant. Intake must surface this before any stage runs.
func (r *Registry) ProfileFor(variant Variant) (*DocumentTypeProfile, error) {
	p, ok := r.profiles[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownVariant, variant)
	}
	return p, nil
}

// Variants lists the registered variants.
func (r *Registry) Variants() []Variant {
	out := make([]Variant, 0, len(r.profiles))
	for v := range r.profiles {
		out = append(out, v)
	}
	return out
}
