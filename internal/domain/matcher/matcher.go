// Package matcher resolves a free-form operation label proposed by the
// language oracle to a canonical operation of the Function Registry.
package matcher

import (
	"strings"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/registry"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/schedule"
)

// Rule identifies which resolution rule produced a match.
type Rule string

const (
	RuleNone              Rule = ""
	RuleContextOverride   Rule = "context_override"
	RuleSchedulingKeyword Rule = "scheduling_keyword"
	RuleExact             Rule = "exact"
	RuleAlias             Rule = "alias"
	RuleSemantic          Rule = "semantic"
)

// minReverseLen is the shortest label that may match by being contained in
// an intent keyword.
const minReverseLen = 3

// plausibilityTokens must appear in a label before a semantic keyword hit
// is accepted for an entry of that category. Journal and memory entries also
// accept a label that is exactly one of their intent keywords.
var plausibilityTokens = map[registry.Category][]string{
	registry.CategoryTask:     {"task", "todo", "to_do", "job", "work", "tugas"},
	registry.CategoryReminder: {"remind", "alert", "notify", "notification", "pengingat"},
	registry.CategorySchedule: {
		"schedule", "recurring", "daily", "weekly", "monthly", "automation", "automate",
		"repeat", "tiap", "setiap", "berkala", "jadwal", "otomatis", "ai_action",
	},
	registry.CategoryJournal: {
		"journal", "diary", "note", "entry", "entries", "jurnal", "catat", "log", "write", "record",
	},
	registry.CategoryMemory: {
		"memory", "memories", "brain", "knowledge", "remember", "memorize", "info",
		"fact", "learn", "recall", "forget", "ingat",
	},
}

// Matcher resolves labels against a registry. It is safe for concurrent use.
type Matcher struct {
	reg      *registry.Registry
	schedule registry.Entry
	generic  string
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithScheduledOperation overrides the canonical operation that scheduling
// overrides resolve to. Defaults to registry.CreateAIAction.
func WithScheduledOperation(name string) Option {
	return func(m *Matcher) {
		if e, ok := m.reg.Lookup(name); ok {
			m.schedule = e
		}
	}
}

// WithGenericCreate overrides the canonical operation whose labels are
// redirected by the context override. Defaults to registry.CreateTask.
func WithGenericCreate(name string) Option {
	return func(m *Matcher) {
		m.generic = registry.Fold(name)
	}
}

// New creates a Matcher over reg. When reg has no scheduled-action entry the
// scheduling overrides never fire.
func New(reg *registry.Registry, opts ...Option) *Matcher {
	m := &Matcher{reg: reg, generic: registry.CreateTask}
	m.schedule, _ = reg.Lookup(registry.CreateAIAction)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the registry the matcher resolves against.
func (m *Matcher) Registry() *registry.Registry {
	return m.reg
}

// Match resolves label given the scheduling verdict of the enclosing command.
// Rules are tried in order and the first hit wins:
//   - context override: a label that would otherwise resolve to the generic
//     task create, in a scheduled command
//   - scheduling keyword: the label names a scheduled action, unless the
//     label is itself a registered name or alias
//   - exact canonical name
//   - alias
//   - semantic intent substring, gated by a category plausibility check
//
// The bool is false when no rule fires.
func (m *Matcher) Match(label string, verdict schedule.Verdict) (registry.Entry, Rule, bool) {
	folded := registry.Fold(label)
	if folded == "" {
		return registry.Entry{}, RuleNone, false
	}

	hasSchedule := m.schedule.Name != ""
	base, rule, found := m.resolveBase(folded)

	if hasSchedule && found && base.Name == m.generic && verdict.Scheduled() {
		return m.schedule, RuleContextOverride, true
	}

	if hasSchedule && rule != RuleExact && rule != RuleAlias && schedule.LabelMentionsScheduling(folded) {
		return m.schedule, RuleSchedulingKeyword, true
	}

	if found {
		return base, rule, true
	}
	return registry.Entry{}, RuleNone, false
}

// resolveBase applies the exact, alias and semantic rules to a folded label.
func (m *Matcher) resolveBase(folded string) (registry.Entry, Rule, bool) {
	if e, ok := m.reg.Lookup(folded); ok {
		return e, RuleExact, true
	}
	if e, ok := m.reg.LookupAlias(folded); ok {
		return e, RuleAlias, true
	}
	if e, ok := m.semantic(folded); ok {
		return e, RuleSemantic, true
	}
	return registry.Entry{}, RuleNone, false
}

// Resolve is Match without the rule, returning only the canonical name.
func (m *Matcher) Resolve(label string, verdict schedule.Verdict) (string, bool) {
	e, _, ok := m.Match(label, verdict)
	return e.Name, ok
}

func (m *Matcher) semantic(label string) (registry.Entry, bool) {
	var (
		found registry.Entry
		ok    bool
	)
	m.reg.Each(func(e registry.Entry) bool {
		for _, intent := range e.Intents {
			if !intentHit(label, intent) {
				continue
			}
			if plausible(label, e.Category) || bareIntent(label, intent, e.Category) {
				found, ok = e, true
				return false
			}
			// One plausibility failure rules out the whole entry.
			break
		}
		return true
	})
	if ok {
		found, _ = m.reg.Lookup(found.Name)
	}
	return found, ok
}

func intentHit(label, intent string) bool {
	if strings.Contains(label, intent) {
		return true
	}
	return len(label) >= minReverseLen && strings.Contains(intent, label)
}

func bareIntent(label, intent string, cat registry.Category) bool {
	return label == intent && (cat == registry.CategoryJournal || cat == registry.CategoryMemory)
}

func plausible(label string, cat registry.Category) bool {
	tokens, ok := plausibilityTokens[cat]
	if !ok {
		return false
	}
	for _, tok := range tokens {
		if strings.Contains(label, tok) {
			return true
		}
	}
	return false
}
