// Package registry holds the Function Registry: the static table of canonical
// operations the execution layer understands, with their aliases, semantic
// intent keywords and category.
//
// A Registry is an immutable arena. Entries keep their declaration order,
// which is the order the semantic matcher walks them in, and the name and
// alias indices are built once in New. Nothing in this package mutates a
// Registry after construction, so a single instance is shared by every
// resolution request without locking.
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Category groups canonical operations by the kind of record they act on.
type Category string

const (
	// CategoryTask covers to-do items.
	CategoryTask Category = "task"
	// CategoryReminder covers one-shot reminders at an absolute time.
	CategoryReminder Category = "reminder"
	// CategorySchedule covers recurring or timed automated actions.
	CategorySchedule Category = "schedule"
	// CategoryJournal covers journal and note entries.
	CategoryJournal Category = "journal"
	// CategoryMemory covers stored preferences and knowledge snippets.
	CategoryMemory Category = "memory"
)

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTask, CategoryReminder, CategorySchedule, CategoryJournal, CategoryMemory:
		return true
	}
	return false
}

// Entry is one canonical operation of the registry.
type Entry struct {
	// Name is the canonical operation name, e.g. "create_task".
	Name string `yaml:"name" json:"name"`
	// Category is the record kind the operation acts on.
	Category Category `yaml:"category" json:"category"`
	// Aliases are literal alternative labels that resolve to Name.
	Aliases []string `yaml:"aliases" json:"aliases"`
	// Intents are semantic keywords used for substring matching.
	Intents []string `yaml:"intents" json:"intents"`
}

// Sentinel errors returned by New.
var (
	ErrEmptyName       = errors.New("registry entry has empty name")
	ErrDuplicateName   = errors.New("duplicate canonical name")
	ErrDuplicateAlias  = errors.New("alias claimed by more than one entry")
	ErrInvalidCategory = errors.New("invalid category")
)

// Registry is the immutable lookup structure over a set of entries.
type Registry struct {
	entries []Entry
	byName  map[string]int
	byAlias map[string]int
}

// New builds a Registry from the given entries. Names and aliases are
// normalized with Fold. A name or alias may belong to only one entry.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
		byAlias: make(map[string]int),
	}

	for i, e := range entries {
		name := Fold(e.Name)
		if name == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrEmptyName)
		}
		if !e.Category.Valid() {
			return nil, fmt.Errorf("entry %q: %w: %q", name, ErrInvalidCategory, e.Category)
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}

		idx := len(r.entries)
		r.byName[name] = idx

		aliases := make([]string, 0, len(e.Aliases))
		for _, a := range e.Aliases {
			alias := Fold(a)
			if alias == "" {
				continue
			}
			if owner, exists := r.byAlias[alias]; exists && owner != idx {
				return nil, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateAlias, alias, r.entries[owner].Name, name)
			}
			r.byAlias[alias] = idx
			aliases = append(aliases, alias)
		}

		intents := make([]string, 0, len(e.Intents))
		for _, k := range e.Intents {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				intents = append(intents, k)
			}
		}

		r.entries = append(r.entries, Entry{
			Name:     name,
			Category: e.Category,
			Aliases:  aliases,
			Intents:  intents,
		})
	}

	// An alias equal to another entry's canonical name would make exact and
	// alias matching disagree.
	for alias, owner := range r.byAlias {
		if idx, ok := r.byName[alias]; ok && idx != owner {
			return nil, fmt.Errorf("%w: %s is also the name of %s", ErrDuplicateAlias, alias, r.entries[idx].Name)
		}
	}

	return r, nil
}

// MustNew is like New but panics on error. Intended for package-level tables.
func MustNew(entries ...Entry) *Registry {
	r, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Fold normalizes a label for exact and alias comparison: lower case,
// trimmed, with runs of spaces and hyphens collapsed to a single underscore.
// "Add Task" and "add-task" both fold to "add_task".
func Fold(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	var b strings.Builder
	b.Grow(len(label))
	sep := false
	for _, r := range label {
		switch r {
		case ' ', '-', '\t', '\n', '_':
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('_')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of all entries in declaration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i := range r.entries {
		out[i] = r.entries[i].clone()
	}
	return out
}

// Names returns the canonical names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Name
	}
	return out
}

// Lookup returns the entry whose canonical name equals the folded name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	idx, ok := r.byName[Fold(name)]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx].clone(), true
}

// LookupAlias returns the entry owning the folded alias.
func (r *Registry) LookupAlias(alias string) (Entry, bool) {
	idx, ok := r.byAlias[Fold(alias)]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx].clone(), true
}

// Resolve returns the entry for a label that is either a canonical name or a
// registered alias.
func (r *Registry) Resolve(label string) (Entry, bool) {
	if e, ok := r.Lookup(label); ok {
		return e, true
	}
	return r.LookupAlias(label)
}

// Each calls fn for every entry in declaration order until fn returns false.
// The entry passed to fn shares storage with the registry and must not be
// modified.
func (r *Registry) Each(fn func(Entry) bool) {
	for i := range r.entries {
		if !fn(r.entries[i]) {
			return
		}
	}
}

func (e Entry) clone() Entry {
	e.Aliases = append([]string(nil), e.Aliases...)
	e.Intents = append([]string(nil), e.Intents...)
	return e
}
