package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
)

// NoticeTransformer implements Transformer with the notice parser. A
// non-empty RawNotice.Source overrides the parser's source tag.
type NoticeTransformer struct {
	parser *domain.Parser
}

// NewTransformer creates a NoticeTransformer around parser.
func NewTransformer(parser *domain.Parser) *NoticeTransformer {
	return &NoticeTransformer{parser: parser}
}

// Transform parses raw.Text. The only error is a rejected notice.
func (t *NoticeTransformer) Transform(_ context.Context, raw domain.RawNotice) (domain.AirspaceRestriction, error) {
	rec, err := t.parser.Parse(raw.Text)
	if err != nil {
		return domain.AirspaceRestriction{}, fmt.Errorf("parse notice at offset %d: %w", raw.Offset, err)
	}
	if raw.Source != "" {
		rec.Provenance.SourceName = raw.Source
	}
	return rec, nil
}
