package inference

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/action"
)

func TestInfer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tasks []action.Task
		want  Inference
	}{
		{
			name: "open task beats newer done task",
			tasks: []action.Task{
				{Title: "Ship release", Status: "done", UpdatedAt: "2025-01-20T10:00:00Z"},
				{Title: "Write changelog", Status: "todo", CreatedAt: "2025-01-18T10:00:00Z"},
			},
			want: Inference{Referent: "Write changelog"},
		},
		{
			name: "updated timestamp counts over created",
			tasks: []action.Task{
				{Title: "A", Status: "todo", CreatedAt: "2025-01-19T10:00:00Z"},
				{Title: "B", Status: "todo", CreatedAt: "2025-01-10T10:00:00Z", UpdatedAt: "2025-01-20T08:00:00Z"},
			},
			want: Inference{Referent: "B"},
		},
		{
			name: "all done falls back to most recent",
			tasks: []action.Task{
				{Title: "Old", Status: "completed", UpdatedAt: "2025-01-01T00:00:00Z"},
				{Title: "New", Status: "Done", UpdatedAt: "2025-01-05T00:00:00Z"},
			},
			want: Inference{Referent: "New"},
		},
		{
			name: "tie is ambiguous",
			tasks: []action.Task{
				{Title: "Call mom", Status: "todo", CreatedAt: "2025-01-20T10:00:00Z"},
				{Title: "Call dad", Status: "doing", CreatedAt: "2025-01-20T10:00:00Z"},
				{Title: "Older", Status: "todo", CreatedAt: "2025-01-01T10:00:00Z"},
			},
			want: Inference{Candidates: []string{"Call mom", "Call dad"}, Ambiguous: true},
		},
		{
			name: "untitled tasks ignored",
			tasks: []action.Task{
				{Title: " ", Status: "todo", CreatedAt: "2025-01-21T10:00:00Z"},
				{Title: "Real", Status: "todo", CreatedAt: "2025-01-01T10:00:00Z"},
			},
			want: Inference{Referent: "Real"},
		},
		{
			name:  "no tasks",
			tasks: nil,
			want:  Inference{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Infer(action.RequestContext{Tasks: tt.tasks})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Infer() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInference_Found(t *testing.T) {
	t.Parallel()

	if (Inference{}).Found() {
		t.Error("empty inference should not be found")
	}
	if (Inference{Candidates: []string{"a", "b"}, Ambiguous: true}).Found() {
		t.Error("ambiguous inference should not be found")
	}
	if !(Inference{Referent: "a"}).Found() {
		t.Error("single referent should be found")
	}
}

func TestConfirmedByHistory(t *testing.T) {
	t.Parallel()

	turns := func(contents ...string) []action.Turn {
		out := make([]action.Turn, len(contents))
		for i, c := range contents {
			out[i] = action.Turn{Role: "user", Content: c}
		}
		return out
	}

	tests := []struct {
		name   string
		turns  []action.Turn
		window int
		want   bool
	}{
		{"last turn", turns("hi", "please delete it"), 2, true},
		{"second to last", turns("Remove the gym task", "yes"), 2, true},
		{"outside window", turns("drop it", "hello", "thanks"), 2, false},
		{"wider window", turns("drop it", "hello", "thanks"), 3, true},
		{"indonesian", turns("tolong hapus tugas itu"), 2, true},
		{"word boundary", turns("the dropdown is broken", "undeleted"), 2, false},
		{"no history", nil, 2, false},
		{"default window", turns("cancel that", "ok"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ConfirmedByHistory(tt.turns, tt.window); got != tt.want {
				t.Errorf("ConfirmedByHistory() = %v, want %v", got, tt.want)
			}
		})
	}
}
