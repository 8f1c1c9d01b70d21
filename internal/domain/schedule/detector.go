// Package schedule classifies whether a command implies a one-time action, a
// recurring automation, or an action bound to a time of day.
package schedule

import (
	"fmt"
	"regexp"
	"strings"
)

// Verdict is the scheduling classification of a whole command.
type Verdict int

const (
	// VerdictNone means no scheduling phrasing was found.
	VerdictNone Verdict = iota
	// VerdictRecurring means the command asks for a repeating automation.
	VerdictRecurring
	// VerdictTimed means the command creates something at a time of day or
	// on a loose periodicity.
	VerdictTimed
)

// String returns the string representation of the Verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictRecurring:
		return "recurring"
	case VerdictTimed:
		return "timed"
	default:
		return "none"
	}
}

// Scheduled reports whether v is recurring or timed.
func (v Verdict) Scheduled() bool {
	return v == VerdictRecurring || v == VerdictTimed
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(text []byte) error {
	parsed, err := ParseVerdict(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVerdict parses the string form produced by String.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return VerdictNone, nil
	case "recurring":
		return VerdictRecurring, nil
	case "timed":
		return VerdictTimed, nil
	}
	return VerdictNone, fmt.Errorf("unknown scheduling verdict %q", s)
}

// strongPatterns mark unmistakable recurring phrasing (English and Indonesian).
var strongPatterns = compile(
	`\b(buat|create|make) schedule\b`,
	`\bjadwalkan\b`,
	`\b(tiap|setiap) (hari|minggu|bulan|pagi|malam)\b`,
	`\bevery (day|week|month|morning|evening|night)\b`,
	`\b(daily|weekly|monthly)\b`,
	`\brecurring\b`,
	`\botomatis\b`,
	`\bautomation\b`,
)

// creationPatterns gate the medium family: periodic words only count when
// the command creates something.
var creationPatterns = compile(
	`\b(buat|bikin|tambah|tambahkan|create|make|add)\b`,
)

// mediumPatterns mark an hour of day or a loose periodicity.
var mediumPatterns = compile(
	`\d+\s*(jam|hour|hours|pukul)\b`,
	`\bpukul\s*\d+`,
	`\b(tiap|setiap|berkala)\b`,
	`\bevery \d+`,
)

// labelPatterns flag operation labels that name a scheduled action on their
// own, independent of the enclosing command.
var labelPatterns = compile(
	`\b(schedule|recurring|daily|weekly|monthly|repeat|automation|every day|every week)\b`,
	`\b(jadwal|tiap hari|setiap hari|tiap|setiap|berkala|otomatis|buat schedule|jadwalkan)\b`,
	`\b(every \d+|tiap \d+|setiap \d+)\b`,
	`\b(buat.*tiap|create.*daily|make.*weekly)\b`,
)

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Detect classifies a raw command.
//
// Priority order:
//   - strong patterns (daily, every day, jadwalkan, ...) return VerdictRecurring
//   - medium patterns (hour markers, tiap/setiap) return VerdictTimed, but only
//     when the command also contains a creation verb
//   - everything else is VerdictNone
func Detect(command string) Verdict {
	text := strings.ToLower(command)

	if matchAny(strongPatterns, text) {
		return VerdictRecurring
	}

	if matchAny(creationPatterns, text) && matchAny(mediumPatterns, text) {
		return VerdictTimed
	}

	return VerdictNone
}

// LabelMentionsScheduling reports whether an operation label itself names a
// scheduled action. Underscores and hyphens are read as spaces so that
// "every_day" and "setiap-hari" match like their spaced forms.
func LabelMentionsScheduling(label string) bool {
	return matchAny(labelPatterns, labelText(label))
}

func labelText(label string) string {
	return strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(label))
}
