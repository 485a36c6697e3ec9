package authenticity

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocktruck/doc-validator/constants"
)

// buildPDF assembles a minimal single-page PDF with the given Info entries,
// computing xref offsets so the trailer actually resolves.
func buildPDF(t *testing.T, producer, creator, creationDate, modDate string) []byte {
	t.Helper()

	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n",
		fmt.Sprintf("4 0 obj\n<< /Producer (%s) /Creator (%s) /CreationDate (%s) /ModDate (%s) >>\nendobj\n",
			producer, creator, creationDate, modDate),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	xrefPos := buf.Len()
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\n", len(objects)+1)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefPos)
	return buf.Bytes()
}

func cleanOrigin(raw []byte) Origin {
	return Origin{
		ContentType:   "application/pdf",
		ContentLength: int64(len(raw)),
		SizeBytes:     int64(len(raw)),
	}
}

func TestAssessCleanDocument(t *testing.T) {
	scorer := NewScorer(nil, WithSizeBounds(1, 1<<20))
	raw := buildPDF(t, "Portal Generator 2.1", "Portal Generator", "D:20240115093000", "D:20240115093000")

	res := scorer.Assess(raw, cleanOrigin(raw))

	assert.Equal(t, constants.AuthenticityPassed, res.Verdict)
	assert.Empty(t, res.Signals)
}

func TestAssessDenylistedProducer(t *testing.T) {
	scorer := NewScorer(nil, WithSizeBounds(1, 1<<20))
	raw := buildPDF(t, "iLovePDF", "Portal Generator", "D:20240115093000", "D:20240115093000")

	res := scorer.Assess(raw, cleanOrigin(raw))

	assert.Equal(t, constants.AuthenticityFailed, res.Verdict)
	require.NotEmpty(t, res.Signals)
	assert.Contains(t, res.Signals[0], "ilovepdf")
}

func TestAssessDenylistedCreator(t *testing.T) {
	scorer := NewScorer(nil, WithSizeBounds(1, 1<<20))
	raw := buildPDF(t, "Portal Generator", "Adobe Photoshop 25.0", "D:20240115093000", "D:20240115093000")

	res := scorer.Assess(raw, cleanOrigin(raw))
	assert.Equal(t, constants.AuthenticityFailed, res.Verdict)
}

func TestAssessModifiedAfterCreation(t *testing.T) {
	scorer := NewScorer(nil, WithSizeBounds(1, 1<<20))
	raw := buildPDF(t, "Portal Generator", "Portal Generator", "D:20240115093000", "D:20240116120000")

	res := scorer.Assess(raw, cleanOrigin(raw))

	assert.Equal(t, constants.AuthenticityFailed, res.Verdict)
	require.Len(t, res.Signals, 1)
	assert.Contains(t, res.Signals[0], "modification date")
}

func TestAssessNotAPDF(t *testing.T) {
	scorer := NewScorer(nil)

	res := scorer.Assess([]byte("<html>not a certificate</html>"), Origin{})

	assert.Equal(t, constants.AuthenticityFailed, res.Verdict)
	require.Len(t, res.Signals, 1)
	assert.Contains(t, res.Signals[0], "PDF header")
}

func TestAssessUnparseableMetadataIsWarning(t *testing.T) {
	scorer := NewScorer(nil, WithSizeBounds(1, 1<<20))
	raw := []byte("%PDF-1.4\ngarbage with no xref table")

	res := scorer.Assess(raw, cleanOrigin(raw))

	assert.Equal(t, constants.AuthenticityWarning, res.Verdict)
	require.NotEmpty(t, res.Signals)
	assert.Contains(t, res.Signals[0], "metadata unreadable")
}

func TestAssessTransportAnomalies(t *testing.T) {
	scorer := NewScorer(nil, WithSizeBounds(1, 1<<20))
	raw := buildPDF(t, "Portal Generator", "Portal Generator", "D:20240115093000", "D:20240115093000")

	res := scorer.Assess(raw, Origin{
		ContentType:   "text/html",
		ContentLength: int64(len(raw)) + 999,
		SizeBytes:     int64(len(raw)),
	})

	assert.Equal(t, constants.AuthenticityWarning, res.Verdict)
	assert.Len(t, res.Signals, 2)
}

func TestAssessSizeOutOfRange(t *testing.T) {
	scorer := NewScorer(nil, WithSizeBounds(1<<20, 2<<20))
	raw := buildPDF(t, "Portal Generator", "Portal Generator", "D:20240115093000", "D:20240115093000")

	res := scorer.Assess(raw, cleanOrigin(raw))

	assert.Equal(t, constants.AuthenticityWarning, res.Verdict)
	require.Len(t, res.Signals, 1)
	assert.Contains(t, res.Signals[0], "outside expected range")
}
