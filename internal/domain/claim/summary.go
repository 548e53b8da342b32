package claim

import (
	"strconv"
	"strings"
)

// Keys the dashboard aggregates over.
const (
	FeeKey           = "fee"
	ProcedureCodeKey = "procedure_code"
	CDTCodeKey       = "cdt_code"
)

// Summary holds the dashboard counters.
type Summary struct {
	TotalClaims   int      `json:"total_claims"`
	AvgFee        *float64 `json:"avg_fee"`
	FeeCount      int      `json:"fee_count"`
	DistinctCodes int      `json:"distinct_codes"`
}

// Summarize computes the dashboard counters. Fees that do not parse as a
// number (after removing "$" and thousands separators) are left out of the
// average. AvgFee is nil when no row has a usable fee.
func Summarize(rows []Submission) Summary {
	var (
		sum   float64
		s     Summary
		codes = make(map[string]struct{})
	)
	s.TotalClaims = len(rows)
	for _, row := range rows {
		if fee, ok := ParseFee(row.Fields[FeeKey]); ok {
			sum += fee
			s.FeeCount++
		}
		if code := ClaimCode(row.Fields); code != "" {
			codes[strings.ToUpper(code)] = struct{}{}
		}
	}
	if s.FeeCount > 0 {
		avg := sum / float64(s.FeeCount)
		s.AvgFee = &avg
	}
	s.DistinctCodes = len(codes)
	return s
}

// ClaimCode returns the procedure code stored on a record.
func ClaimCode(rec Record) string {
	if c := strings.TrimSpace(rec[ProcedureCodeKey]); c != "" {
		return c
	}
	return strings.TrimSpace(rec[CDTCodeKey])
}

// ParseFee parses a fee string such as "$1,150.00".
func ParseFee(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "$")
	v = strings.ReplaceAll(v, ",", "")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
