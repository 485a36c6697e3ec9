package authenticity

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/rocktruck/doc-validator/constants"
	"github.com/rocktruck/doc-validator/internal/entity"
)

// Editor tools whose fingerprints in PDF metadata indicate the document was
// modified after issuance. A government-issued certificate is produced by the
// portal's own generator and never passes through these.
var defaultEditorDenylist = []string{
	"photoshop",
	"illustrator",
	"acrobat pro",
	"ilovepdf",
	"smallpdf",
	"sejda",
	"foxit",
	"nitro",
	"pdfescape",
	"sodapdf",
	"canva",
	"pdf-xchange",
	"libreoffice",
	"microsoft word",
}

// Origin carries transport-level facts about how the document bytes arrived.
type Origin struct {
	ContentType   string
	ContentLength int64
	SizeBytes     int64
}

// Scorer inspects a PDF's structure and metadata for tampering signals.
type Scorer struct {
	logger   *slog.Logger
	denylist []string
	minSize  int64
	maxSize  int64
}

type Option func(*Scorer)

// WithSizeBounds overrides the plausible byte-size window for a certificate.
func WithSizeBounds(min, max int64) Option {
	return func(s *Scorer) {
		s.minSize = min
		s.maxSize = max
	}
}

// WithDenylist replaces the default editor fingerprint list.
func WithDenylist(entries []string) Option {
	return func(s *Scorer) { s.denylist = entries }
}

func NewScorer(logger *slog.Logger, opts ...Option) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scorer{
		logger:   logger,
		denylist: defaultEditorDenylist,
		minSize:  10 * 1024,
		maxSize:  15 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess returns a tri-state verdict over the raw document bytes. FAILED means
// a hard tampering signal (editor fingerprint, creation/modification date
// divergence, not a PDF at all); WARNING means anomalies that merit attention
// but do not by themselves prove tampering.
func (s *Scorer) Assess(raw []byte, origin Origin) entity.AuthenticityResult {
	var signals []string
	failed := false

	if !bytes.HasPrefix(raw, []byte("%PDF-")) {
		return entity.AuthenticityResult{
			Verdict: constants.AuthenticityFailed,
			Signals: []string{"file does not start with a PDF header"},
		}
	}

	meta, err := readMetadata(raw)
	if err != nil {
		signals = append(signals, fmt.Sprintf("metadata unreadable: %v", err))
	} else {
		if hit := s.matchDenylist(meta.Producer); hit != "" {
			failed = true
			signals = append(signals, fmt.Sprintf("producer %q matches known editor %q", meta.Producer, hit))
		}
		if hit := s.matchDenylist(meta.Creator); hit != "" {
			failed = true
			signals = append(signals, fmt.Sprintf("creator %q matches known editor %q", meta.Creator, hit))
		}
		if meta.CreationDate != "" && meta.ModDate != "" && meta.CreationDate != meta.ModDate {
			failed = true
			signals = append(signals, fmt.Sprintf("modification date %q differs from creation date %q", meta.ModDate, meta.CreationDate))
		}
	}

	size := origin.SizeBytes
	if size == 0 {
		size = int64(len(raw))
	}
	if size < s.minSize || size > s.maxSize {
		signals = append(signals, fmt.Sprintf("file size %d bytes outside expected range [%d, %d]", size, s.minSize, s.maxSize))
	}
	if origin.ContentLength > 0 && origin.ContentLength != int64(len(raw)) {
		signals = append(signals, fmt.Sprintf("content-length %d does not match %d received bytes", origin.ContentLength, len(raw)))
	}
	if origin.ContentType != "" && !strings.Contains(strings.ToLower(origin.ContentType), "pdf") {
		signals = append(signals, fmt.Sprintf("unexpected content type %q", origin.ContentType))
	}

	verdict := constants.AuthenticityPassed
	switch {
	case failed:
		verdict = constants.AuthenticityFailed
	case len(signals) > 0:
		verdict = constants.AuthenticityWarning
	}

	s.logger.Debug("authenticity.assessed",
		"verdict", string(verdict),
		"signals", len(signals),
	)
	return entity.AuthenticityResult{Verdict: verdict, Signals: signals}
}

func (s *Scorer) matchDenylist(value string) string {
	if value == "" {
		return ""
	}
	lowered := strings.ToLower(value)
	for _, entry := range s.denylist {
		if strings.Contains(lowered, entry) {
			return entry
		}
	}
	return ""
}

type docMetadata struct {
	Producer     string
	Creator      string
	CreationDate string
	ModDate      string
}

// readMetadata pulls the Info dictionary from the PDF trailer. The pdf
// package panics on some malformed inputs, so the panic is converted into an
// ordinary error.
func readMetadata(raw []byte) (meta docMetadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return meta, fmt.Errorf("open pdf: %w", err)
	}
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return meta, nil
	}
	meta.Producer = info.Key("Producer").Text()
	meta.Creator = info.Key("Creator").Text()
	meta.CreationDate = info.Key("CreationDate").Text()
	meta.ModDate = info.Key("ModDate").Text()
	return meta, nil
}
