package extract

import (
	"context"
	"errors"

	"github.com/rocktruck/doc-validator/internal/profile"
)

// ErrUnreadableDocument means no usable text could be pulled from the bytes.
var ErrUnreadableDocument = errors.New("document text is unreadable")

// ErrReplyInvalid means the model answered but the reply did not satisfy the
// profile's schema even after sanitizing. The document's required fields could
// not be extracted; this is a business failure, not an infrastructure one.
var ErrReplyInvalid = errors.New("extraction reply does not satisfy schema")

// TextExtractor turns raw document bytes into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, raw []byte) (string, error)
}

type ExtractRequest struct {
	Text         string
	FileNameHint string
	Variant      profile.Variant
}

// ExtractResult is the normalized shape we want from the model. MatchedVariant
// reports whether the document actually is a certificate of the declared
// variant; Fields holds the profile's fields keyed by canonical name.
type ExtractResult struct {
	MatchedVariant bool
	Fields         map[string]string
	RawJSON        []byte
}

// FieldExtractor is the interface the pipeline depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error)
}
