package claim

import (
	"errors"
	"reflect"
	"testing"

	"github.com/drfirst/dental-claims/internal/reference"
)

func patient3() reference.Patient {
	return reference.Patient{
		PatientID:      "PMS003",
		Name:           "Patient 3",
		DateOfBirth:    "15-04-1983",
		Gender:         "Male",
		ToothNumber:    "30",
		Surface:        "O",
		ClinicalNote:   "Deep occlusal decay noted",
		Relationship:   "Self",
		SubscriberName: "Patient 3",
		SubscriberID:   "SUB100203",
		Fee:            "210.00",
		Address:        "12 Oak St, Springfield, IL 62701",
	}
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"basic", "CDT Code: D2392\nReason: composite fits", "D2392"},
		{"extra whitespace", "Answer:\nCDT Code:    D0120   periodic exam", "D0120"},
		{"no marker", "I think a two-surface composite is right.", ""},
		{"empty after marker", "CDT Code:   \n", ""},
		{"second marker", "CDT Code: D2391 CDT Code: D2392", "D2391"},
		{"empty first segment", "CDT Code: CDT Code: D2392", ""},
		{"any token accepted", "CDT Code: banana", "banana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCode(tt.text); got != tt.want {
				t.Errorf("ExtractCode(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseSuggestion_KeepsText(t *testing.T) {
	text := "CDT Code: D2392\nReason: composite fits"
	s := ParseSuggestion(text)
	if s.Text != text {
		t.Errorf("expected raw text to be kept, got %q", s.Text)
	}
	if !s.HasCode() || s.Code != "D2392" {
		t.Errorf("unexpected code: %q", s.Code)
	}
	if s.ReceivedAt.IsZero() {
		t.Error("expected received time")
	}
}

func TestMapper_Map(t *testing.T) {
	fields := []string{
		"Procedure Code",
		"Patient Name",
		"Relationship to Subscriber",
		"Patient Date of Birth",
		"Patient Gender",
		"Subscriber Name",
		"Subscriber ID",
		"Tooth Number",
		"Tooth Surface",
		"Fee",
		"Patient Address",
		"Treating Dentist Name",
		"Treating Dentist Phone Number",
		"Billing Dentist Phone Number",
		"Remarks",
	}
	want := []string{
		"D2392",
		"Patient 3",
		"Self",
		"15-04-1983",
		"Male",
		"Patient 3",
		"SUB100203",
		"30",
		"O",
		"210.00",
		"12 Oak St, Springfield, IL 62701",
		"Patient 3",
		"Patient 3",
		PhonePlaceholder,
		"",
	}

	form := NewMapper().Map(fields, patient3(), "D2392")
	if len(form) != len(fields) {
		t.Fatalf("expected %d fields, got %d", len(fields), len(form))
	}
	for i, f := range form {
		if f.Name != fields[i] {
			t.Errorf("field %d: order changed, got %q", i, f.Name)
		}
		if f.Value != want[i] {
			t.Errorf("%s = %q, want %q", f.Name, f.Value, want[i])
		}
	}
}

func TestMapper_FirstRuleWins(t *testing.T) {
	m := NewMapper()
	p := patient3()

	tests := []struct {
		field string
		rule  string
		want  string
	}{
		{"Treating Dentist Phone Number", "treating_dentist", p.SubscriberName},
		{"Billing Dentist Phone Number", "phone_number", PhonePlaceholder},
		{"Subscriber Date of Birth", "date_of_birth", p.DateOfBirth},
		{"TOTAL FEE", "fee", p.Fee},
		{"Procedure Date", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			r, ok := m.Match(tt.field)
			if tt.rule == "" {
				if ok {
					t.Errorf("expected no rule, got %s", r.Name)
				}
			} else if !ok || r.Name != tt.rule {
				t.Errorf("expected rule %s, got %+v", tt.rule, r.Name)
			}
			if got := m.Value(tt.field, p, "D2392"); got != tt.want {
				t.Errorf("Value(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestMapper_Deterministic(t *testing.T) {
	fields := []string{"Patient Name", "Fee", "CDT Code"}
	m := NewMapper()
	a := m.Map(fields, patient3(), "D2392")
	b := m.Map(fields, patient3(), "D2392")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("mapping is not deterministic: %v vs %v", a, b)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		outcome DateOutcome
	}{
		{"25-12-2023", "2023-12-25", DateNormalized},
		{"25/12/2023", "2023-12-25", DateNormalized},
		{"5-3-2024", "2024-03-05", DateNormalized},
		{"2023-12-25", "2023-12-25", DateUnchanged},
		{"yesterday", "yesterday", DateUnchanged},
		{"31-02-2023", "31-02-2023", DateUnchanged},
		{"", "", DateUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, outcome := NormalizeDate(tt.in)
			if got != tt.want || outcome != tt.outcome {
				t.Errorf("NormalizeDate(%q) = %q, %s; want %q, %s", tt.in, got, outcome, tt.want, tt.outcome)
			}
			// Idempotent.
			again, _ := NormalizeDate(got)
			if again != got {
				t.Errorf("second pass changed %q to %q", got, again)
			}
		})
	}
}

func TestNormalizeDates_OnlyDateKeys(t *testing.T) {
	fields := map[string]string{
		"procedure_date":         "01-02-2024",
		"patient_dob":            "15/04/1983",
		"subscriber_id":          "01-02-2024",
		"patient_signature_date": "2024-02-01",
	}
	outcomes := NormalizeDates(fields)

	if fields["procedure_date"] != "2024-02-01" {
		t.Errorf("procedure_date not normalized: %q", fields["procedure_date"])
	}
	if fields["patient_dob"] != "1983-04-15" {
		t.Errorf("patient_dob not normalized: %q", fields["patient_dob"])
	}
	if fields["subscriber_id"] != "01-02-2024" {
		t.Errorf("non-date key was rewritten: %q", fields["subscriber_id"])
	}
	if outcomes["patient_signature_date"] != DateUnchanged {
		t.Errorf("expected unchanged outcome for ISO date")
	}
	if _, ok := outcomes["subscriber_id"]; ok {
		t.Error("non-date key should have no outcome")
	}
}

func TestBuildRecord_DropsEmpty(t *testing.T) {
	rec := BuildRecord([]Field{{Name: "Fee", Value: ""}, {Name: "Patient Name", Value: "Patient 1"}})
	want := Record{"patient_name": "Patient 1"}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("BuildRecord = %v, want %v", rec, want)
	}
}

func TestBuildRecord_RekeysAndNormalizes(t *testing.T) {
	rec := BuildRecord([]Field{
		{Name: "Patient Date of Birth", Value: "15-04-1983"},
		{Name: "Remarks", Value: "   "},
		{Name: "Tooth Number", Value: " 30 "},
	})
	want := Record{
		"patient_date_of_birth": "1983-04-15",
		"tooth_number":          " 30 ",
	}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("BuildRecord = %v, want %v", rec, want)
	}
	if keys := rec.Keys(); keys[0] != "patient_date_of_birth" {
		t.Errorf("unexpected key order: %v", keys)
	}
}

func TestSession_EndToEnd(t *testing.T) {
	fields := []string{"Procedure Code", "Patient Name", "Patient Date of Birth", "Fee", "Remarks"}
	s := NewSession("s1", patient3())

	if err := s.ApplySuggestion(ParseSuggestion("CDT Code: D2392\nReason: composite fits")); err != nil {
		t.Fatalf("ApplySuggestion failed: %v", err)
	}
	if s.Status() != StatusSuggested || s.Code() != "D2392" {
		t.Fatalf("unexpected state %s code %q", s.Status(), s.Code())
	}

	if err := s.Confirm(NewMapper(), fields); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	form := s.Form()
	if form[0].Value != "D2392" || form[1].Value != "Patient 3" {
		t.Errorf("unexpected form: %v", form)
	}

	rec, err := s.Record()
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	want := Record{
		"procedure_code":        "D2392",
		"patient_name":          "Patient 3",
		"patient_date_of_birth": "1983-04-15",
		"fee":                   "210.00",
	}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("Record = %v, want %v", rec, want)
	}

	if err := s.MarkSubmitted(&Submission{ID: "c1", Fields: rec}); err != nil {
		t.Fatalf("MarkSubmitted failed: %v", err)
	}
	if s.Status() != StatusSubmitted {
		t.Errorf("expected submitted, got %s", s.Status())
	}

	// Submitted is terminal.
	if err := s.Edit(map[string]string{"Fee": "1"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on edit, got %v", err)
	}
	if err := s.SelectPatient(patient3()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on select, got %v", err)
	}
}

func TestSession_ConfirmWithoutCode(t *testing.T) {
	s := NewSession("s1", patient3())
	if err := s.ApplySuggestion(ParseSuggestion("Probably a filling.")); err != nil {
		t.Fatalf("ApplySuggestion failed: %v", err)
	}
	if s.Status() != StatusSuggested {
		t.Fatalf("expected suggested, got %s", s.Status())
	}
	if err := s.Confirm(NewMapper(), []string{"Fee"}); !errors.Is(err, ErrNoCode) {
		t.Errorf("expected ErrNoCode, got %v", err)
	}
	if s.Status() != StatusSuggested {
		t.Errorf("state changed after rejected confirm: %s", s.Status())
	}
}

func TestSession_ConfirmFromIdle(t *testing.T) {
	s := NewSession("s1", patient3())
	if err := s.Confirm(NewMapper(), []string{"Fee"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := s.Record(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition from Record, got %v", err)
	}
}

func TestSession_StartOver(t *testing.T) {
	s := NewSession("s1", patient3())
	s.ApplySuggestion(ParseSuggestion("CDT Code: D2392"))

	if err := s.StartOver(); err != nil {
		t.Fatalf("StartOver failed: %v", err)
	}
	if s.Status() != StatusIdle || s.Code() != "" {
		t.Errorf("expected idle with no code, got %s %q", s.Status(), s.Code())
	}
	if _, ok := s.Suggestion(); ok {
		t.Error("expected suggestion to be cleared")
	}
}

func TestSession_SelectPatientResets(t *testing.T) {
	s := NewSession("s1", patient3())
	s.ApplySuggestion(ParseSuggestion("CDT Code: D2392"))
	s.Confirm(NewMapper(), []string{"Patient Name"})

	other := patient3()
	other.Name = "Patient 4"
	if err := s.SelectPatient(other); err != nil {
		t.Fatalf("SelectPatient failed: %v", err)
	}
	if s.Status() != StatusIdle || len(s.Form()) != 0 || s.Patient().Name != "Patient 4" {
		t.Errorf("expected fresh idle session, got %+v", s.View())
	}
}

func TestSession_Edit(t *testing.T) {
	s := NewSession("s1", patient3())
	if err := s.Edit(map[string]string{"Fee": "1"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected edit before confirm to fail, got %v", err)
	}

	s.ApplySuggestion(ParseSuggestion("CDT Code: D2392"))
	s.Confirm(NewMapper(), []string{"Patient Name", "Fee"})

	err := s.Edit(map[string]string{"Fee": "", "Nonexistent": "x"})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if s.Form()[1].Value != "210.00" {
		t.Error("rejected edit must not change any value")
	}

	if err := s.Edit(map[string]string{"Fee": ""}); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	rec, _ := s.Record()
	if _, ok := rec["fee"]; ok {
		t.Errorf("cleared fee should be dropped: %v", rec)
	}
}

func TestSession_Resuggest(t *testing.T) {
	s := NewSession("s1", patient3())
	s.ApplySuggestion(ParseSuggestion("CDT Code: D2391"))
	if err := s.ApplySuggestion(ParseSuggestion("CDT Code: D2392")); err != nil {
		t.Fatalf("re-suggest failed: %v", err)
	}
	if s.Code() != "D2392" {
		t.Errorf("expected latest code, got %q", s.Code())
	}

	s.Confirm(NewMapper(), []string{"Fee"})
	if s.CanSuggest() {
		t.Error("should not suggest once confirmed")
	}
}

func TestSummarize(t *testing.T) {
	rows := []Submission{
		{ID: "1", Fields: Record{"fee": "100.00", "procedure_code": "D2392"}},
		{ID: "2", Fields: Record{"fee": "$1,150.00", "procedure_code": "d2392"}},
		{ID: "3", Fields: Record{"fee": "n/a", "cdt_code": "D0120"}},
		{ID: "4", Fields: Record{"patient_name": "Patient 4"}},
	}
	s := Summarize(rows)
	if s.TotalClaims != 4 {
		t.Errorf("expected 4 claims, got %d", s.TotalClaims)
	}
	if s.AvgFee == nil || *s.AvgFee != 625 {
		t.Errorf("unexpected avg fee: %v", s.AvgFee)
	}
	if s.FeeCount != 2 {
		t.Errorf("expected 2 fees, got %d", s.FeeCount)
	}
	if s.DistinctCodes != 2 {
		t.Errorf("expected 2 distinct codes, got %d", s.DistinctCodes)
	}

	empty := Summarize(nil)
	if empty.TotalClaims != 0 || empty.AvgFee != nil || empty.DistinctCodes != 0 {
		t.Errorf("unexpected empty summary: %+v", empty)
	}
}

func TestClaimSubmittedEvent(t *testing.T) {
	sub := &Submission{ID: "c1", Fields: Record{"procedure_code": "D2392"}}
	e, err := NewClaimSubmittedEvent("s1", "PMS003", sub)
	if err != nil {
		t.Fatalf("NewClaimSubmittedEvent failed: %v", err)
	}
	if e.AggregateID != "c1" || e.EventType != EventClaimSubmitted {
		t.Errorf("unexpected envelope: %+v", e)
	}
	if e.ID == "" {
		t.Error("expected event id")
	}
}
