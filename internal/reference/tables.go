package reference

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed data/patients.json data/claim_fields.csv data/cdt_codes.csv
var defaults embed.FS

// ErrColumnNotFound is returned when a CSV table lacks a required column.
var ErrColumnNotFound = errors.New("column not found")

// FieldNameColumn is the claim schema column holding form field names.
const FieldNameColumn = "Field Name"

// Code is a row of the CDT reference table.
type Code struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Codes is the CDT reference table indexed by code.
type Codes struct {
	list   []Code
	byCode map[string]int
}

// Lookup returns the reference row for a code token, matching case-insensitively.
func (c *Codes) Lookup(code string) (Code, bool) {
	if c == nil {
		return Code{}, false
	}
	i, ok := c.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Code{}, false
	}
	return c.list[i], true
}

// All returns the table rows in file order.
func (c *Codes) All() []Code {
	out := make([]Code, len(c.list))
	copy(out, c.list)
	return out
}

// Len returns the number of codes.
func (c *Codes) Len() int { return len(c.list) }

func openTable(path, embedded string) (io.ReadCloser, error) {
	if path == "" {
		return defaults.Open(embedded)
	}
	return os.Open(path)
}

func readTable(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("read csv: empty table")
	}
	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header, rows[1:], nil
}

func columnIndex(header []string, match func(string) bool) int {
	for i, h := range header {
		if match(strings.ToLower(strings.TrimSpace(h))) {
			return i
		}
	}
	return -1
}

// ReadClaimFields returns the form field names, in display order, from a
// schema table with a "Field Name" column. Blank names are skipped.
func ReadClaimFields(r io.Reader) ([]string, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(FieldNameColumn)
	idx := columnIndex(header, func(h string) bool { return h == want })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, FieldNameColumn)
	}

	fields := make([]string, 0, len(rows))
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[idx])
		if name == "" {
			continue
		}
		fields = append(fields, name)
	}
	return fields, nil
}

// LoadClaimFields reads the schema table at path, or the embedded ADA field
// list when path is empty.
func LoadClaimFields(path string) ([]string, error) {
	f, err := openTable(path, "data/claim_fields.csv")
	if err != nil {
		return nil, fmt.Errorf("open claim fields: %w", err)
	}
	defer f.Close()
	return ReadClaimFields(f)
}

// ReadCodes parses a CDT reference table. The first column whose header
// mentions "code" holds the code and the first mentioning "description"
// holds its text.
func ReadCodes(r io.Reader) (*Codes, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	codeIdx := columnIndex(header, func(h string) bool { return strings.Contains(h, "code") })
	if codeIdx < 0 {
		return nil, fmt.Errorf("%w: code", ErrColumnNotFound)
	}
	descIdx := columnIndex(header, func(h string) bool { return strings.Contains(h, "description") })

	c := &Codes{byCode: make(map[string]int, len(rows))}
	for _, row := range rows {
		if codeIdx >= len(row) {
			continue
		}
		code := strings.TrimSpace(row[codeIdx])
		if code == "" {
			continue
		}
		key := strings.ToUpper(code)
		if _, dup := c.byCode[key]; dup {
			continue
		}
		entry := Code{Code: code}
		if descIdx >= 0 && descIdx < len(row) {
			entry.Description = strings.TrimSpace(row[descIdx])
		}
		c.byCode[key] = len(c.list)
		c.list = append(c.list, entry)
	}
	return c, nil
}

// LoadCodes reads the CDT table at path, or the embedded table when path is empty.
func LoadCodes(path string) (*Codes, error) {
	f, err := openTable(path, "data/cdt_codes.csv")
	if err != nil {
		return nil, fmt.Errorf("open cdt codes: %w", err)
	}
	defer f.Close()
	return ReadCodes(f)
}
