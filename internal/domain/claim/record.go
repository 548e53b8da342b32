package claim

import (
	"sort"
	"strings"
)

// Record is a finalized claim: snake_case keys, no empty values, ISO dates.
type Record map[string]string

// FieldKey converts a form field name into its stored key.
func FieldKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// BuildRecord finalizes edited form values. Keys are rekeyed, values whose
// trimmed form is empty are dropped and date-keyed values are normalized.
// Values are otherwise stored as entered. When two names collapse onto the
// same key the later one in form order wins.
func BuildRecord(form []Field) Record {
	rec := make(Record, len(form))
	for _, f := range form {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		rec[FieldKey(f.Name)] = f.Value
	}
	NormalizeDates(rec)
	return rec
}

// Keys returns the record keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
