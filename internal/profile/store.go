package profile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
)

// ErrEmptyProfileName is returned when a profile is created without a name.
var ErrEmptyProfileName = errors.New("profile name is required")

// Store defines profile index and record table operations
type Store interface {
	// ListProfiles returns the profile names owned by username, in index
	// order. A missing index is an empty result, not an error.
	ListProfiles(username string) ([]string, error)

	// CreateProfile appends name to the user's profile index. Duplicate
	// names are permitted; the index is not deduplicated.
	CreateProfile(username, name string) error

	// DeleteProfile removes all occurrences of name from the index. The
	// profile's record table is left on disk; deletion does not cascade.
	DeleteProfile(username, name string) error

	// AppendRecords appends records to the (username, profile) table,
	// creating it with its header columns if absent. Appends are
	// at-least-once: a retried call duplicates its rows.
	AppendRecords(username, profileName string, records []Record) error

	// ListRecords returns all records of the (username, profile) table in
	// append order. A missing table is an empty result.
	ListRecords(username, profileName string) ([]Record, error)

	// TotalPrice sums the table's prices after stripping currency symbols
	// and thousands separators. Unparsable prices contribute zero.
	TotalPrice(username, profileName string) (float64, error)

	// ExportXLSX renders the record table as a standalone spreadsheet
	// document with the same column schema.
	ExportXLSX(username, profileName string) ([]byte, error)
}

// TableStore implements Store on top of CSV table files under a base
// directory: profiles/<username>.table for the index and
// record/<username>/<username>_<profile>.table for records. The layout and
// column names are read by other tools and must not change.
type TableStore struct {
	basePath string
}

// NewTableStore creates a TableStore rooted at basePath
func NewTableStore(basePath string) (*TableStore, error) {
	for _, dir := range []string{"profiles", "record"} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("creating table directory: %w", err)
		}
	}
	return &TableStore{basePath: basePath}, nil
}

func (t *TableStore) indexPath(username string) string {
	return filepath.Join(t.basePath, "profiles", username+".table")
}

func (t *TableStore) recordPath(username, profileName string) string {
	return filepath.Join(t.basePath, "record", username, fmt.Sprintf("%s_%s.table", username, profileName))
}

// ListProfiles returns the profile names owned by username
func (t *TableStore) ListProfiles(username string) ([]string, error) {
	rows, err := readTable[profileRow](t.indexPath(username))
	if err != nil {
		return nil, fmt.Errorf("reading profile index: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.ProfileName)
	}
	return names, nil
}

// CreateProfile appends name to the user's profile index
func (t *TableStore) CreateProfile(username, name string) error {
	if name == "" {
		return ErrEmptyProfileName
	}

	path := t.indexPath(username)
	return withFileLock(path, func() error {
		rows, err := readTable[profileRow](path)
		if err != nil {
			return fmt.Errorf("reading profile index: %w", err)
		}
		rows = append(rows, profileRow{ProfileName: name})
		return writeTable(path, rows, []string{"Profile Name"})
	})
}

// DeleteProfile removes all occurrences of name from the index
func (t *TableStore) DeleteProfile(username, name string) error {
	path := t.indexPath(username)
	return withFileLock(path, func() error {
		rows, err := readTable[profileRow](path)
		if err != nil {
			return fmt.Errorf("reading profile index: %w", err)
		}
		kept := rows[:0]
		for _, r := range rows {
			if r.ProfileName != name {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(rows) {
			// Nothing removed; don't create or rewrite the index.
			return nil
		}
		return writeTable(path, kept, []string{"Profile Name"})
	})
}

// AppendRecords appends records to the (username, profile) table
func (t *TableStore) AppendRecords(username, profileName string, records []Record) error {
	if err := os.MkdirAll(filepath.Join(t.basePath, "record", username), 0755); err != nil {
		return fmt.Errorf("creating record directory: %w", err)
	}

	path := t.recordPath(username, profileName)
	return withFileLock(path, func() error {
		rows, err := readTable[Record](path)
		if err != nil {
			return fmt.Errorf("reading record table: %w", err)
		}
		rows = append(rows, records...)
		return writeTable(path, rows, recordColumns)
	})
}

// ListRecords returns all records of the (username, profile) table
func (t *TableStore) ListRecords(username, profileName string) ([]Record, error) {
	rows, err := readTable[Record](t.recordPath(username, profileName))
	if err != nil {
		return nil, fmt.Errorf("reading record table: %w", err)
	}
	return rows, nil
}

// TotalPrice sums the table's prices
func (t *TableStore) TotalPrice(username, profileName string) (float64, error) {
	rows, err := t.ListRecords(username, profileName)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, r := range rows {
		if v, ok := parsePrice(r.Price); ok {
			total += v
		}
	}
	return total, nil
}

// parsePrice strips currency symbols and separators and coerces the rest to
// a number. Returns false for prices with no usable numeric content.
func parsePrice(price string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, price)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// readTable loads a CSV table file into rows. A missing file is an empty
// table.
func readTable[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, err
	}

	rows := []T{}
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding table: %w", err)
	}
	return rows, nil
}

// writeTable persists rows back as a CSV table with the given header. The
// header is written even for an empty table so the file stays readable by
// the tools that consume it.
func writeTable[T any](path string, rows []T, header []string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("encoding table header: %w", err)
	}

	enc := csvutil.NewEncoder(w)
	enc.AutoHeader = false
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encoding table row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding table: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}
