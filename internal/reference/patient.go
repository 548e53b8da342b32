// Package reference loads the static tables the claim assistant works from:
// the mock patient roster, the claim form field schema and the CDT code table.
package reference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Patient is one record from the practice management fixture.
type Patient struct {
	PatientID      string `json:"patient_id,omitempty" yaml:"patient_id,omitempty"`
	Name           string `json:"name" yaml:"name"`
	DateOfBirth    string `json:"date_of_birth" yaml:"date_of_birth"`
	Gender         string `json:"gender" yaml:"gender"`
	ToothNumber    string `json:"tooth_number" yaml:"tooth_number"`
	Surface        string `json:"surface" yaml:"surface"`
	ClinicalNote   string `json:"clinical_note" yaml:"clinical_note"`
	Procedure      string `json:"procedure" yaml:"procedure"`
	Relationship   string `json:"relationship" yaml:"relationship"`
	SubscriberName string `json:"subscriber_name" yaml:"subscriber_name"`
	SubscriberID   string `json:"subscriber_id" yaml:"subscriber_id"`
	Fee            string `json:"fee" yaml:"fee"`
	Address        string `json:"address" yaml:"address"`
	Insurance      string `json:"insurance,omitempty" yaml:"insurance,omitempty"`
	Provider       string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// Patients is an ordered roster. Names are unique.
type Patients struct {
	list   []Patient
	byName map[string]int
}

// NewPatients builds a roster, rejecting blank or duplicate names.
func NewPatients(list []Patient) (*Patients, error) {
	p := &Patients{
		list:   make([]Patient, 0, len(list)),
		byName: make(map[string]int, len(list)),
	}
	for _, pt := range list {
		if strings.TrimSpace(pt.Name) == "" {
			return nil, fmt.Errorf("patient %q has no name", pt.PatientID)
		}
		if _, dup := p.byName[pt.Name]; dup {
			return nil, fmt.Errorf("duplicate patient name %q", pt.Name)
		}
		p.byName[pt.Name] = len(p.list)
		p.list = append(p.list, pt)
	}
	return p, nil
}

// ByName returns the patient with the given name.
func (p *Patients) ByName(name string) (Patient, bool) {
	i, ok := p.byName[name]
	if !ok {
		return Patient{}, false
	}
	return p.list[i], true
}

// Names returns the patient names in roster order.
func (p *Patients) Names() []string {
	names := make([]string, len(p.list))
	for i, pt := range p.list {
		names[i] = pt.Name
	}
	return names
}

// All returns a copy of the roster.
func (p *Patients) All() []Patient {
	out := make([]Patient, len(p.list))
	copy(out, p.list)
	return out
}

// Len returns the number of patients.
func (p *Patients) Len() int { return len(p.list) }

// patientSchema constrains the fixture file. Every clinical and demographic
// field must be present as a string; values may be empty.
func patientSchema() map[string]any {
	str := map[string]any{"type": "string"}
	props := map[string]any{}
	required := []string{
		"name", "date_of_birth", "gender", "tooth_number", "surface",
		"clinical_note", "procedure", "relationship", "subscriber_name",
		"subscriber_id", "fee", "address",
	}
	for _, k := range required {
		props[k] = str
	}
	props["name"] = map[string]any{"type": "string", "minLength": 1}
	props["patient_id"] = str
	props["insurance"] = str
	props["provider"] = str

	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}

// ValidatePatientsJSON checks raw fixture bytes against the patient schema.
func ValidatePatientsJSON(data []byte) error {
	b, err := json.Marshal(patientSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("patients.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("patients.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal patients: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("patients do not match schema: %w", err)
	}
	return nil
}

// ReadPatients decodes and validates a JSON patient fixture.
func ReadPatients(r io.Reader) (*Patients, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read patients: %w", err)
	}
	if err := ValidatePatientsJSON(data); err != nil {
		return nil, err
	}
	var list []Patient
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}
	return NewPatients(list)
}

// LoadPatients reads the fixture at path, or the embedded default roster
// when path is empty.
func LoadPatients(path string) (*Patients, error) {
	if path == "" {
		f, err := defaults.Open("data/patients.json")
		if err != nil {
			return nil, fmt.Errorf("open embedded patients: %w", err)
		}
		defer f.Close()
		return ReadPatients(f)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open patients: %w", err)
	}
	defer f.Close()
	return ReadPatients(f)
}

// WritePatients encodes a roster as an indented JSON fixture.
func WritePatients(w io.Writer, list []Patient) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("encode patients: %w", err)
	}
	return nil
}
