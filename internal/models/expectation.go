package models

import (
	"encoding/json"
	"fmt"
)

// Expectation is the goal description attached to a feature or migration.
// Older metadata files store it as a plain string; newer ones as a
// structured object with must/must-not clauses. Both forms round-trip: a
// plain expectation marshals back to a JSON string, a structured one to an
// object.
type Expectation struct {
	Summary string   `json:"summary"`
	Must    []string `json:"must,omitempty"`
	MustNot []string `json:"mustNot,omitempty"`

	structured bool
}

// Plain returns an Expectation holding only free text.
func Plain(text string) *Expectation {
	return &Expectation{Summary: text}
}

// Structured returns an Expectation with must/must-not clauses.
func Structured(summary string, must, mustNot []string) *Expectation {
	return &Expectation{Summary: summary, Must: must, MustNot: mustNot, structured: true}
}

// IsStructured reports whether the expectation carries must/must-not clauses.
func (e *Expectation) IsStructured() bool {
	return e.structured
}

// UnmarshalJSON accepts either a JSON string or an object with a summary
// field. The variant is resolved here, once, at the parse boundary.
func (e *Expectation) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		e.Summary = text
		e.Must = nil
		e.MustNot = nil
		e.structured = false
		return nil
	}

	type alias Expectation
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("models: expectation must be a string or an object: %w", err)
	}
	*e = Expectation(obj)
	e.structured = true
	return nil
}

// MarshalJSON writes the same shape that was read.
func (e *Expectation) MarshalJSON() ([]byte, error) {
	if !e.structured {
		return json.Marshal(e.Summary)
	}
	type alias Expectation
	return json.Marshal(alias(*e))
}
