package claim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/drfirst/dental-claims/internal/reference"
)

// Status is the workflow state of a claim session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSuggested Status = "suggested"
	StatusConfirmed Status = "confirmed"
	StatusSubmitted Status = "submitted"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNoCode            = errors.New("no code to confirm")
	ErrUnknownField      = errors.New("unknown form field")
)

// Session is one user's pass through the claim workflow for a selected
// patient. Callers hold the embedded mutex for the duration of an operation,
// including any external call the operation waits on.
type Session struct {
	sync.Mutex

	id         string
	status     Status
	patient    reference.Patient
	suggestion *Suggestion
	code       string
	form       []Field
	submission *Submission
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSession starts a session in Idle for the given patient.
func NewSession(id string, p reference.Patient) *Session {
	now := time.Now().UTC()
	return &Session{
		id:        id,
		status:    StatusIdle,
		patient:   p,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session ID
func (s *Session) ID() string { return s.id }

// Status returns the current state
func (s *Session) Status() Status { return s.status }

// Patient returns the selected patient
func (s *Session) Patient() reference.Patient { return s.patient }

// Code returns the code held by the session, or "" when unset.
func (s *Session) Code() string { return s.code }

// Suggestion returns the last stored suggestion.
func (s *Session) Suggestion() (Suggestion, bool) {
	if s.suggestion == nil {
		return Suggestion{}, false
	}
	return *s.suggestion, true
}

// Form returns a copy of the current form.
func (s *Session) Form() []Field {
	out := make([]Field, len(s.form))
	copy(out, s.form)
	return out
}

// Submission returns the stored row once the session is submitted.
func (s *Session) Submission() (*Submission, bool) {
	return s.submission, s.submission != nil
}

// SelectPatient switches patients and starts a fresh selection in Idle.
// Not allowed once submitted.
func (s *Session) SelectPatient(p reference.Patient) error {
	if s.status == StatusSubmitted {
		return s.transitionError("select patient")
	}
	s.patient = p
	s.reset()
	return nil
}

// CanSuggest reports whether a suggestion may be requested now.
func (s *Session) CanSuggest() bool {
	return s.status == StatusIdle || s.status == StatusSuggested
}

// ApplySuggestion stores a parsed suggestion and moves to Suggested. A
// suggestion without a code is stored too; it simply cannot be confirmed.
func (s *Session) ApplySuggestion(sug Suggestion) error {
	if !s.CanSuggest() {
		return s.transitionError("apply suggestion")
	}
	s.suggestion = &sug
	s.code = sug.Code
	s.form = nil
	s.status = StatusSuggested
	s.touch()
	return nil
}

// Confirm accepts the suggested code and fills the form from the patient.
func (s *Session) Confirm(m *Mapper, fieldNames []string) error {
	if s.status != StatusSuggested {
		return s.transitionError("confirm")
	}
	if s.code == "" {
		return ErrNoCode
	}
	s.form = m.Map(fieldNames, s.patient, s.code)
	s.status = StatusConfirmed
	s.touch()
	return nil
}

// StartOver discards the suggestion and code and returns to Idle.
func (s *Session) StartOver() error {
	if s.status != StatusIdle && s.status != StatusSuggested {
		return s.transitionError("start over")
	}
	s.reset()
	return nil
}

// Edit overwrites form values by field name. All names are checked before
// any value changes.
func (s *Session) Edit(values map[string]string) error {
	if s.status != StatusConfirmed {
		return s.transitionError("edit")
	}
	index := make(map[string]int, len(s.form))
	for i, f := range s.form {
		index[f.Name] = i
	}
	for name := range values {
		if _, ok := index[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}
	for name, v := range values {
		s.form[index[name]].Value = v
	}
	s.touch()
	return nil
}

// Record finalizes the edited form for submission.
func (s *Session) Record() (Record, error) {
	if s.status != StatusConfirmed {
		return nil, s.transitionError("submit")
	}
	return BuildRecord(s.form), nil
}

// MarkSubmitted records the stored row. The session is finished afterwards.
func (s *Session) MarkSubmitted(sub *Submission) error {
	if s.status != StatusConfirmed {
		return s.transitionError("mark submitted")
	}
	s.submission = sub
	s.status = StatusSubmitted
	s.touch()
	return nil
}

func (s *Session) reset() {
	s.suggestion = nil
	s.code = ""
	s.form = nil
	s.status = StatusIdle
	s.touch()
}

func (s *Session) touch() { s.updatedAt = time.Now().UTC() }

func (s *Session) transitionError(op string) error {
	return fmt.Errorf("%w: cannot %s in state %s", ErrInvalidTransition, op, s.status)
}

// View is the JSON representation of a session.
type View struct {
	ID         string      `json:"id"`
	Status     Status      `json:"status"`
	Patient    string      `json:"patient"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
	Code       string      `json:"code,omitempty"`
	Form       []Field     `json:"form,omitempty"`
	Submission *Submission `json:"submission,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// View snapshots the session.
func (s *Session) View() View {
	v := View{
		ID:         s.id,
		Status:     s.status,
		Patient:    s.patient.Name,
		Suggestion: s.suggestion,
		Code:       s.code,
		Submission: s.submission,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
	if s.form != nil {
		v.Form = s.Form()
	}
	return v
}
