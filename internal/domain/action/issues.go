package action

import (
	"fmt"
	"strings"
)

// IssueKind classifies a validation problem.
type IssueKind string

const (
	// IssueMalformedAction means the draft entry is not an object or lacks a type.
	IssueMalformedAction IssueKind = "malformed_action"
	// IssueUnresolvedOperation means the label matched no canonical operation.
	IssueUnresolvedOperation IssueKind = "unresolved_operation"
	// IssueUnresolvedReference means no target could be named or inferred.
	IssueUnresolvedReference IssueKind = "unresolved_reference"
	// IssueTimeNormalization means a time was missing, unparsable or malformed.
	IssueTimeNormalization IssueKind = "time_normalization"
	// IssuePolicyViolation means a required field, confirmation or policy
	// rule was not satisfied.
	IssuePolicyViolation IssueKind = "policy_violation"
)

// Issue is one error entry of an IssueReport.
type Issue struct {
	// Index is the position of the offending draft action.
	Index int `json:"index" yaml:"index"`
	// Operation is the canonical operation when known, otherwise the raw label.
	Operation string    `json:"operation,omitempty" yaml:"operation,omitempty"`
	Kind      IssueKind `json:"kind" yaml:"kind"`
	Message   string    `json:"message" yaml:"message"`
}

// String renders the issue the way clarification builders display it.
func (i Issue) String() string {
	return i.Message
}

// Ambiguity records a reference with several equally strong candidates.
type Ambiguity struct {
	Index     int    `json:"index" yaml:"index"`
	Operation string `json:"operation,omitempty" yaml:"operation,omitempty"`
	// Reference is what the draft supplied; empty when the reference was
	// omitted and inference was attempted.
	Reference  string   `json:"reference" yaml:"reference"`
	Candidates []string `json:"candidates" yaml:"candidates"`
}

// IssueReport collects everything that prevented a batch from normalizing.
type IssueReport struct {
	Errors    []Issue     `json:"errors" yaml:"errors"`
	Ambiguous []Ambiguity `json:"ambiguous" yaml:"ambiguous"`
}

// NewIssueReport returns a report whose lists encode as [] rather than null.
func NewIssueReport() *IssueReport {
	return &IssueReport{Errors: []Issue{}, Ambiguous: []Ambiguity{}}
}

// Empty reports whether the report has no errors and no ambiguities.
func (r *IssueReport) Empty() bool {
	return len(r.Errors) == 0 && len(r.Ambiguous) == 0
}

// Add appends an error entry. The message is prefixed with the action index.
func (r *IssueReport) Add(index int, op string, kind IssueKind, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{
		Index:     index,
		Operation: op,
		Kind:      kind,
		Message:   fmt.Sprintf("action[%d] ", index) + fmt.Sprintf(format, args...),
	})
}

// AddAmbiguity appends an ambiguity entry.
func (r *IssueReport) AddAmbiguity(index int, op, reference string, candidates []string) {
	r.Ambiguous = append(r.Ambiguous, Ambiguity{
		Index:      index,
		Operation:  op,
		Reference:  reference,
		Candidates: append([]string(nil), candidates...),
	})
}

// Messages returns the error messages in order.
func (r *IssueReport) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Message
	}
	return out
}

// Error summarizes the report; it lets callers treat a failed batch as an error.
func (r *IssueReport) Error() string {
	parts := r.Messages()
	for _, a := range r.Ambiguous {
		ref := a.Reference
		if ref == "" {
			ref = "(inferred)"
		}
		parts = append(parts, fmt.Sprintf("action[%d] %s reference %q is ambiguous: %s",
			a.Index, a.Operation, ref, strings.Join(a.Candidates, ", ")))
	}
	return strings.Join(parts, "; ")
}
