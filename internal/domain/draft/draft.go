// Package draft extracts the conversational preamble and the embedded action
// list from the free text an oracle returns.
//
// The expected shape is a short preamble followed by a fenced block holding
// {"actions": [...]}. Extraction never fails: when no action list can be
// found the draft simply carries zero actions and a diagnostic.
package draft

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DefaultPreamble is used when the oracle text has no preamble of its own.
const DefaultPreamble = "I've processed your request."

const diagNoActions = "no JSON object with an \"actions\" array found in draft"

var fencePattern = regexp.MustCompile("(?s)```[ \\t]*(?:json|JSON)?[ \\t]*\\r?\\n?(.*?)```")

// Source identifies where the action list was found.
type Source string

const (
	SourceNone     Source = "none"
	SourceFenced   Source = "fenced"
	SourceBalanced Source = "balanced"
)

// Draft is the extracted oracle output.
type Draft struct {
	Preamble string
	// Actions holds the raw action entries; entries that are not objects
	// are kept so callers can report them by index.
	Actions []any
	Found   bool
	Source  Source
	// Diagnostic explains why no action list was found. Empty when Found.
	Diagnostic string
}

type envelope struct {
	Actions *[]any `json:"actions"`
}

// Extract parses oracle text. Fenced blocks are tried first, in order; if
// none yields an object with an actions array, the first balanced {...}
// candidate anywhere in the text that does is used.
func Extract(text string) Draft {
	for _, loc := range fencePattern.FindAllStringSubmatchIndex(text, -1) {
		body := text[loc[2]:loc[3]]
		if actions, ok := decodeActions(strings.TrimSpace(body)); ok {
			return Draft{
				Preamble: preamble(text[:loc[0]]),
				Actions:  actions,
				Found:    true,
				Source:   SourceFenced,
			}
		}
		for _, c := range objectCandidates(body) {
			if actions, ok := decodeActions(c); ok {
				return Draft{
					Preamble: preamble(text[:loc[0]]),
					Actions:  actions,
					Found:    true,
					Source:   SourceFenced,
				}
			}
		}
	}

	for _, c := range objectCandidates(text) {
		if actions, ok := decodeActions(c); ok {
			idx := strings.Index(text, c)
			return Draft{
				Preamble: preamble(stripFences(text[:idx])),
				Actions:  actions,
				Found:    true,
				Source:   SourceBalanced,
			}
		}
	}

	return Draft{
		Preamble:   preamble(text),
		Actions:    []any{},
		Source:     SourceNone,
		Diagnostic: diagNoActions,
	}
}

// FromActions wraps an already-structured action list.
func FromActions(actions []any) Draft {
	if actions == nil {
		actions = []any{}
	}
	return Draft{Preamble: DefaultPreamble, Actions: actions, Found: true, Source: SourceFenced}
}

func decodeActions(candidate string) ([]any, bool) {
	if !strings.HasPrefix(candidate, "{") {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal([]byte(candidate), &env); err != nil {
		return nil, false
	}
	if env.Actions == nil {
		return nil, false
	}
	return *env.Actions, true
}

func preamble(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPreamble
	}
	return s
}

// stripFences removes a dangling fence opener left in front of a balanced
// candidate that sat inside an unterminated block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, opener := range []string{"```json", "```JSON", "```"} {
		if strings.HasSuffix(s, opener) {
			return strings.TrimSuffix(s, opener)
		}
	}
	return s
}
