// Package export renders submitted claims as spreadsheets.
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/drfirst/dental-claims/internal/domain/claim"
)

const (
	ClaimsSheet  = "Claims"
	SummarySheet = "Summary"
)

// ContentType is the media type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Columns returns the union of record keys across rows, sorted.
func Columns(rows []claim.Submission) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for _, k := range r.Fields.Keys() {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// WriteClaimsXLSX writes one row per claim plus a summary sheet.
func WriteClaimsXLSX(w io.Writer, rows []claim.Submission, summary claim.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty Sheet1 behind.
	if err := f.SetSheetName(f.GetSheetName(0), ClaimsSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	cols := Columns(rows)
	headers := append([]string{"id", "submitted_at"}, cols...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(ClaimsSheet, cell, h)
	}

	for r, sub := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, r+2)
			_ = f.SetCellValue(ClaimsSheet, cell, v)
		}
		write(1, sub.ID)
		write(2, sub.SubmittedAt.UTC().Format(time.RFC3339))
		for c, key := range cols {
			write(c+3, sub.Fields[key])
		}
	}
	_ = f.SetColWidth(ClaimsSheet, "A", "A", 38)
	_ = f.SetColWidth(ClaimsSheet, "B", "B", 22)

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	avg := "-"
	if summary.AvgFee != nil {
		avg = fmt.Sprintf("$%.2f", *summary.AvgFee)
	}
	summaryRows := [][]any{
		{"Total Claims", summary.TotalClaims},
		{"Avg Fee", avg},
		{"CDT Codes Used", summary.DistinctCodes},
	}
	for i, row := range summaryRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx summary: %w", err)
		}
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 18)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
