package extraction

import (
	"fmt"
	"strings"

	"github.com/tansell/receipt-ledger/internal/profile"
)

// FormatError indicates a labeled line in the structured response was
// missing its ":" separator. Parsing is all-or-nothing per response: the
// first malformed line aborts the whole batch and no records are returned.
// This mirrors the fragile behavior of the original extractor and is
// intentionally not per-line resilient.
type FormatError struct {
	Line string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed line, missing %q separator: %q", ":", e.Line)
}

const (
	labelStoreName = "Store Name"
	labelItem      = "Item Purchase"
	labelPrice     = "Price"
)

// ParseRecords turns the labeled text returned by the structuring client
// into records, in source order. The running store name comes from the
// first "Store Name" line; if absent, records carry an empty store name.
// An "Item Purchase" line is only emitted as a record when the immediately
// following line is its "Price" line; items without an adjacent price are
// silently dropped. Pure function of its input.
func ParseRecords(text string) ([]profile.Record, error) {
	lines := strings.Split(text, "\n")

	storeName, err := findStoreName(lines)
	if err != nil {
		return nil, err
	}

	records := []profile.Record{}
	for i, line := range lines {
		if !strings.Contains(line, labelItem) {
			continue
		}
		item, err := afterSeparator(line)
		if err != nil {
			return nil, err
		}
		if i+1 >= len(lines) || !strings.Contains(lines[i+1], labelPrice) {
			continue
		}
		price, err := afterSeparator(lines[i+1])
		if err != nil {
			return nil, err
		}
		records = append(records, profile.Record{
			StoreName: storeName,
			ItemName:  item,
			Price:     price,
		})
	}
	return records, nil
}

// findStoreName returns the value of the first "Store Name" line, or ""
// when no such line exists.
func findStoreName(lines []string) (string, error) {
	for _, line := range lines {
		if strings.Contains(line, labelStoreName) {
			return afterSeparator(line)
		}
	}
	return "", nil
}

// afterSeparator returns the trimmed substring after the first ":".
func afterSeparator(line string) (string, error) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", &FormatError{Line: line}
	}
	return strings.TrimSpace(line[idx+1:]), nil
}
