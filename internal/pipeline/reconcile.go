package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocktruck/doc-validator/internal/entity"
	"github.com/rocktruck/doc-validator/internal/extract"
	"github.com/rocktruck/doc-validator/internal/fetch"
	"github.com/rocktruck/doc-validator/internal/profile"
	"github.com/rocktruck/doc-validator/internal/rules"
)

// CopyReconciler compares the submitted document's extracted data against the
// official copy retrieved from the registry.
type CopyReconciler interface {
	Reconcile(ctx context.Context, variant profile.Variant, copyRef string, submitted map[string]string) ([]entity.FieldDifference, error)
}

// Reconciler downloads the official copy, extracts the same profile fields
// from it, and diffs the two field sets after normalization.
type Reconciler struct {
	fetcher  fetch.Fetcher
	text     extract.TextExtractor
	fields   extract.FieldExtractor
	registry *profile.Registry
	logger   *slog.Logger
}

func NewReconciler(fetcher fetch.Fetcher, text extract.TextExtractor, fields extract.FieldExtractor, registry *profile.Registry, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		fetcher:  fetcher,
		text:     text,
		fields:   fields,
		registry: registry,
		logger:   logger,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, variant profile.Variant, copyRef string, submitted map[string]string) ([]entity.FieldDifference, error) {
	p, err := r.registry.ProfileFor(variant)
	if err != nil {
		return nil, err
	}

	res, err := r.fetcher.Fetch(ctx, copyRef)
	if err != nil {
		return nil, fmt.Errorf("download official copy: %w", err)
	}
	text, err := r.text.ExtractText(ctx, res.Data)
	if err != nil {
		return nil, fmt.Errorf("read official copy: %w", err)
	}
	extracted, err := r.fields.ExtractFields(ctx, extract.ExtractRequest{
		Text:    text,
		Variant: variant,
	})
	if err != nil {
		return nil, fmt.Errorf("extract official copy: %w", err)
	}

	diffs := diffFields(p, submitted, extracted.Fields)
	r.logger.Info("pipeline.reconcile.done",
		"variant", string(variant),
		"differences", len(diffs),
	)
	return diffs, nil
}

// diffFields compares the fields both documents carry. RUT-style identifiers
// compare after separator stripping; everything else compares after case and
// whitespace normalization.
func diffFields(p *profile.DocumentTypeProfile, submitted, retrieved map[string]string) []entity.FieldDifference {
	var diffs []entity.FieldDifference
	for _, f := range p.Fields {
		sub, okSub := submitted[f.Name]
		ret, okRet := retrieved[f.Name]
		if !okSub || !okRet {
			continue
		}
		if fieldsEqual(f.Name, sub, ret) {
			continue
		}
		diffs = append(diffs, entity.FieldDifference{
			Field:          f.Name,
			SubmittedValue: sub,
			RetrievedValue: ret,
		})
	}
	return diffs
}

func fieldsEqual(name, a, b string) bool {
	if strings.HasPrefix(name, "rut") {
		return rules.NormalizeRUT(a) == rules.NormalizeRUT(b)
	}
	return rules.NormalizeText(rules.NormalizeValue(a)) == rules.NormalizeText(rules.NormalizeValue(b))
}
