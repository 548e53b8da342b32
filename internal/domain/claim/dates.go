package claim

import (
	"strings"
	"time"
)

// DateOutcome tells whether NormalizeDate rewrote a value.
type DateOutcome int

const (
	// DateUnchanged means neither day-first layout parsed; the value passes through.
	DateUnchanged DateOutcome = iota
	// DateNormalized means the value was rewritten to YYYY-MM-DD.
	DateNormalized
)

func (o DateOutcome) String() string {
	if o == DateNormalized {
		return "normalized"
	}
	return "unchanged"
}

// ISODateLayout is the canonical stored date form.
const ISODateLayout = "2006-01-02"

// dayFirstLayouts are tried in order. Day and month accept one or two digits.
var dayFirstLayouts = []string{"2-1-2006", "2/1/2006"}

// NormalizeDate rewrites a day-first date (D-M-YYYY, then D/M/YYYY) into
// YYYY-MM-DD. Anything else, including values already in ISO form, is
// returned unchanged.
func NormalizeDate(value string) (string, DateOutcome) {
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(ISODateLayout), DateNormalized
		}
	}
	return value, DateUnchanged
}

// IsDateKey reports whether a field name holds a date.
func IsDateKey(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "date") || strings.Contains(lower, "dob")
}

// NormalizeDates applies NormalizeDate to every date-keyed entry in place and
// returns the outcome per date key.
func NormalizeDates(fields map[string]string) map[string]DateOutcome {
	outcomes := make(map[string]DateOutcome)
	for k, v := range fields {
		if !IsDateKey(k) {
			continue
		}
		normalized, outcome := NormalizeDate(v)
		fields[k] = normalized
		outcomes[k] = outcome
	}
	return outcomes
}
