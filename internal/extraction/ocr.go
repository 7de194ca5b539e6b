package extraction

import (
	"context"
	"strings"
)

// Fragment is one recognized text region with the engine's confidence for
// it. Fragment order is adapter-defined, typically top-to-bottom.
type Fragment struct {
	Text       string
	Confidence float64
}

// OCR defines the boundary to an optical character recognition engine.
type OCR interface {
	// Recognize extracts text fragments from a PNG image
	Recognize(ctx context.Context, image []byte) ([]Fragment, error)
	// Close releases engine resources
	Close() error
}

// JoinFragments concatenates fragment texts in adapter order, one per
// line, the way the structuring client expects its input.
func JoinFragments(fragments []Fragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.Text != "" {
			parts = append(parts, f.Text)
		}
	}
	return strings.Join(parts, "\n")
}
