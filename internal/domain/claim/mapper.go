package claim

import (
	"strings"

	"github.com/drfirst/dental-claims/internal/reference"
)

// PhonePlaceholder is the fixed value for any phone number field. The mock
// roster carries no phone numbers.
const PhonePlaceholder = "555-123-4567"

// Field is one named input on the claim form.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Resolver produces a field value from the selected patient and confirmed code.
type Resolver func(p reference.Patient, code string) string

// Rule maps field names containing any of Keywords to a value.
type Rule struct {
	Name     string
	Keywords []string
	Resolve  Resolver
}

// Matches reports whether the lowercased field name contains one of the rule's keywords.
func (r Rule) Matches(lowerName string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowerName, kw) {
			return true
		}
	}
	return false
}

// DefaultRules is the keyword precedence used to auto-fill the ADA form.
// Earlier rules win.
func DefaultRules() []Rule {
	return []Rule{
		{"code", []string{"cdt code", "procedure code"}, func(_ reference.Patient, code string) string { return code }},
		{"patient_name", []string{"patient name"}, func(p reference.Patient, _ string) string { return p.Name }},
		{"relationship", []string{"relationship"}, func(p reference.Patient, _ string) string { return p.Relationship }},
		{"date_of_birth", []string{"date of birth"}, func(p reference.Patient, _ string) string { return p.DateOfBirth }},
		{"gender", []string{"gender"}, func(p reference.Patient, _ string) string { return p.Gender }},
		{"subscriber_name", []string{"subscriber name"}, func(p reference.Patient, _ string) string { return p.SubscriberName }},
		{"subscriber_id", []string{"subscriber id"}, func(p reference.Patient, _ string) string { return p.SubscriberID }},
		{"tooth_number", []string{"tooth number"}, func(p reference.Patient, _ string) string { return p.ToothNumber }},
		{"surface", []string{"surface"}, func(p reference.Patient, _ string) string { return p.Surface }},
		{"fee", []string{"fee"}, func(p reference.Patient, _ string) string { return p.Fee }},
		{"address", []string{"address"}, func(p reference.Patient, _ string) string { return p.Address }},
		// The roster has no dentist column; the subscriber name stands in.
		{"treating_dentist", []string{"treating dentist"}, func(p reference.Patient, _ string) string { return p.SubscriberName }},
		{"phone_number", []string{"phone number"}, func(reference.Patient, string) string { return PhonePlaceholder }},
	}
}

// Mapper fills claim form fields from a patient and a confirmed code.
type Mapper struct {
	rules []Rule
}

// NewMapper creates a mapper over the given rules, or DefaultRules when none are given.
func NewMapper(rules ...Rule) *Mapper {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Mapper{rules: rules}
}

// Match returns the first rule matching the field name.
func (m *Mapper) Match(fieldName string) (Rule, bool) {
	lower := strings.ToLower(fieldName)
	for _, r := range m.rules {
		if r.Matches(lower) {
			return r, true
		}
	}
	return Rule{}, false
}

// Value resolves a single field. Unmatched fields are empty.
func (m *Mapper) Value(fieldName string, p reference.Patient, code string) string {
	r, ok := m.Match(fieldName)
	if !ok {
		return ""
	}
	return r.Resolve(p, code)
}

// Map produces one field per name, preserving the schema order.
func (m *Mapper) Map(fieldNames []string, p reference.Patient, code string) []Field {
	form := make([]Field, 0, len(fieldNames))
	for _, name := range fieldNames {
		form = append(form, Field{Name: name, Value: m.Value(name, p, code)})
	}
	return form
}
