// Package inference derives an unstated referent, the task a user means by
// "that" or "it", from the request context, and decides whether recent
// conversation already confirms a destructive action.
//
// Both are deterministic fallbacks. The package does not interpret natural
// language beyond keyword presence.
package inference

import (
	"slices"
	"strings"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/action"
)

// doneStatuses are task states that make a task a poor referent.
var doneStatuses = []string{"done", "completed", "complete", "finished", "cancelled", "canceled"}

// Inference is the outcome of referent inference.
type Inference struct {
	// Referent is the inferred task title; empty when nothing qualifies or
	// the top candidates tie.
	Referent string
	// Candidates holds the tied titles when Ambiguous is true.
	Candidates []string
	// Ambiguous reports that several tasks share the top recency.
	Ambiguous bool
}

// Found reports whether a single referent was inferred.
func (i Inference) Found() bool {
	return i.Referent != "" && !i.Ambiguous
}

type ranked struct {
	title  string
	key    string
	isDone bool
}

// Infer picks the most recently touched open task. A task's recency is the
// later of its updated and created timestamps; fixed-width ISO-8601 values
// compare correctly as strings. When every task is done, the most recent
// task overall is used. Tasks without a title are ignored.
func Infer(rc action.RequestContext) Inference {
	tasks := make([]ranked, 0, len(rc.Tasks))
	for _, t := range rc.Tasks {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			continue
		}
		tasks = append(tasks, ranked{
			title:  title,
			key:    max(t.UpdatedAt, t.CreatedAt),
			isDone: IsDone(t.Status),
		})
	}
	if len(tasks) == 0 {
		return Inference{}
	}

	slices.SortStableFunc(tasks, func(a, b ranked) int {
		return strings.Compare(b.key, a.key)
	})

	pool := make([]ranked, 0, len(tasks))
	for _, t := range tasks {
		if !t.isDone {
			pool = append(pool, t)
		}
	}
	if len(pool) == 0 {
		pool = tasks
	}

	top := pool[0]
	var tied []string
	for _, t := range pool {
		if t.key != top.key {
			break
		}
		if !slices.Contains(tied, t.title) {
			tied = append(tied, t.title)
		}
	}
	if len(tied) > 1 {
		return Inference{Candidates: tied, Ambiguous: true}
	}
	return Inference{Referent: top.title}
}

// IsDone reports whether status belongs to the done class.
func IsDone(status string) bool {
	return slices.Contains(doneStatuses, strings.ToLower(strings.TrimSpace(status)))
}
