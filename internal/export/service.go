package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rocktruck/doc-validator/internal/entity"
	"github.com/rocktruck/doc-validator/internal/repository"
)

// Service is a tiny façade over the decision store that produces XLSX bytes
// for compliance exports.
type Service struct {
	decisions repository.DecisionRepository
	logger    *slog.Logger
}

func NewService(decisions repository.DecisionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{decisions: decisions, logger: logger}
}

// ExportDecisionsXLSX returns an XLSX workbook for the given date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> everything.
func (s *Service) ExportDecisionsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	fromDate := time.Time{}
	toDate := time.Now().UTC()
	if from != nil {
		fromDate = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	}
	if to != nil {
		toDate = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
	}

	recs, err := s.decisions.List(ctx, fromDate, toDate, 0)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Decisions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Document ID",
		"Variant",
		"Status",
		"Employer RUT",
		"Authenticity",
		"Registry Verified",
		"Rejection Reasons",
		"Processed At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, d.DocumentID)
		write(2, d.Variant)
		write(3, string(d.Status))
		write(4, d.ExtractedData["rut_empleador"])

		authenticity := ""
		if d.Authenticity != nil {
			authenticity = string(d.Authenticity.Verdict)
		}
		write(5, authenticity)

		verified := ""
		if d.Verification != nil {
			switch {
			case d.Verification.Success && d.Verification.Valid:
				verified = "VALID"
			case d.Verification.Success:
				verified = "INVALID"
			case d.Verification.Attempted:
				verified = "UNRESOLVED"
			}
		}
		write(6, verified)

		write(7, truncate(summarizeReasons(d.RejectionReasons), 140))
		write(8, d.ProcessedAt.UTC().Format("2006-01-02 15:04:05"))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 24) // document id
	_ = f.SetColWidth(sheet, "B", "B", 16) // variant
	_ = f.SetColWidth(sheet, "C", "C", 16) // status
	_ = f.SetColWidth(sheet, "D", "D", 16) // rut
	_ = f.SetColWidth(sheet, "E", "F", 14) // authenticity/verified
	_ = f.SetColWidth(sheet, "G", "G", 60) // reasons
	_ = f.SetColWidth(sheet, "H", "H", 20) // processed at

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func summarizeReasons(reasons []entity.RejectionReason) string {
	if len(reasons) == 0 {
		return ""
	}
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r.Rule != "" {
			parts = append(parts, fmt.Sprintf("%s[%s]", r.Type, r.Rule))
		} else {
			parts = append(parts, string(r.Type))
		}
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
