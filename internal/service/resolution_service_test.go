package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/action"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/draft"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/registry"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/schedule"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/timenorm"
)

var testNow = time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTimes resolves a few fixed expressions and answers ERROR otherwise.
func fakeTimes() timenorm.ResolverFunc {
	known := map[string]string{
		"tonight at 6":   "2025-01-20T11:00:00Z",
		"tomorrow 9am":   "Sure: 2025-01-21T02:00:00Z",
		"next full moon": "2025-02-12",
	}
	return func(_ context.Context, expr string, _ time.Time, _ string) (string, error) {
		if ts, ok := known[expr]; ok {
			return ts, nil
		}
		return timenorm.Sentinel, nil
	}
}

func newTestService(t *testing.T, opts ...Option) *ResolutionService {
	t.Helper()
	logger := testLogger()
	times := timenorm.New(fakeTimes(),
		timenorm.WithClock(func() time.Time { return testNow }),
		timenorm.WithLogger(logger),
	)
	opts = append([]Option{WithIDGenerator(func() string { return "req-1" })}, opts...)
	return NewResolutionService(registry.Default(), times, logger, opts...)
}

func resolveActions(t *testing.T, svc *ResolutionService, command string, rc action.RequestContext, drafts ...map[string]any) *Result {
	t.Helper()
	raw := make([]any, len(drafts))
	for i, d := range drafts {
		raw[i] = d
	}
	res, err := svc.ResolveActions(context.Background(), command, raw, rc)
	if err != nil {
		t.Fatalf("ResolveActions() error: %v", err)
	}
	return res
}

func TestResolve_AddTask(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	res, err := svc.Resolve(context.Background(), Request{
		Command: "add a task to buy milk",
		Draft:   "Got it!\n```json\n{\"actions\":[{\"type\":\"add task\",\"title\":\"Buy milk\"}]}\n```",
	})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if res.Status != StatusSuccess || !res.OK() {
		t.Fatalf("Status = %q, want %q; issues: %v", res.Status, StatusSuccess, res.Issues.Error())
	}
	if res.RequestID != "req-1" || res.Preamble != "Got it!" || res.Diagnostic != "" {
		t.Errorf("result header = %q %q %q", res.RequestID, res.Preamble, res.Diagnostic)
	}
	if len(res.Actions) != 1 {
		t.Fatalf("got %d actions, want 1", len(res.Actions))
	}
	got := res.Actions[0]
	if got.Type != action.OpCreateTask || got.Category != registry.CategoryTask {
		t.Errorf("action = %s/%s, want create_task/task", got.Type, got.Category)
	}
	if diff := cmp.Diff(map[string]any{"title": "Buy milk"}, got.Fields); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
	if !res.Issues.Empty() {
		t.Errorf("Issues = %v, want empty", res.Issues.Error())
	}
}

func TestResolve_ReminderWithoutTime(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	res, err := svc.Resolve(context.Background(), Request{
		Command: "remind me to call mom",
		Draft:   `{"actions":[{"type":"set reminder","title":"Call mom"}]}`,
	})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if res.Status != StatusValidationFailed {
		t.Fatalf("Status = %q, want %q", res.Status, StatusValidationFailed)
	}
	if len(res.Actions) != 0 {
		t.Errorf("got %d actions, want none", len(res.Actions))
	}
	if len(res.Issues.Errors) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(res.Issues.Errors), res.Issues.Messages())
	}
	e := res.Issues.Errors[0]
	if e.Index != 0 || e.Kind != action.IssueTimeNormalization || !strings.Contains(e.Message, "time field") {
		t.Errorf("error = %+v, want a missing time field for index 0", e)
	}
}

func TestResolve_BatchIsAllOrNothing(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	res := resolveActions(t, svc, "add three tasks", action.RequestContext{},
		map[string]any{"type": "create_task", "title": "One"},
		map[string]any{"type": "create_task", "description": "no title"},
		map[string]any{"type": "create_task", "title": "Three"},
	)

	if res.Status != StatusValidationFailed || len(res.Actions) != 0 {
		t.Fatalf("Status = %q with %d actions, want failure with none", res.Status, len(res.Actions))
	}
	want := []action.Issue{{
		Index:     1,
		Operation: "create_task",
		Kind:      action.IssuePolicyViolation,
		Message:   "action[1] create_task missing 'title'",
	}}
	if diff := cmp.Diff(want, res.Issues.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_ErrorsAccumulate(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	res := resolveActions(t, svc, "", action.RequestContext{},
		map[string]any{"type": "launch rocket"},
		map[string]any{"title": "no type"},
		map[string]any{"type": "add reminder", "title": "x", "when": "whenever"},
	)

	kinds := make([]action.IssueKind, 0, len(res.Issues.Errors))
	for _, e := range res.Issues.Errors {
		kinds = append(kinds, e.Kind)
	}
	want := []action.IssueKind{
		action.IssueUnresolvedOperation,
		action.IssueMalformedAction,
		action.IssueTimeNormalization,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("issue kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_NonObjectAction(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	res, err := svc.ResolveActions(context.Background(), "", []any{"create a task"}, action.RequestContext{})
	if err != nil {
		t.Fatalf("ResolveActions() error: %v", err)
	}
	if len(res.Issues.Errors) != 1 || res.Issues.Errors[0].Kind != action.IssueMalformedAction {
		t.Errorf("Errors = %+v, want one malformed_action", res.Issues.Errors)
	}
}

func TestResolve_ReminderTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fields   map[string]any
		wantAt   string
		wantKind action.IssueKind
	}{
		{
			name:   "natural language under time alias",
			fields: map[string]any{"type": "create_reminder", "title": "Call mom", "time": "tonight at 6"},
			wantAt: "2025-01-20T11:00:00Z",
		},
		{
			name:   "timestamp embedded in oracle prose",
			fields: map[string]any{"type": "remind me", "title": "Stretch", "reminderTime": "tomorrow 9am"},
			wantAt: "2025-01-21T02:00:00Z",
		},
		{
			name:   "already absolute",
			fields: map[string]any{"type": "create_reminder", "title": "Pay rent", "remind_at": "2025-02-01T00:00:00Z"},
			wantAt: "2025-02-01T00:00:00Z",
		},
		{
			name:     "sentinel",
			fields:   map[string]any{"type": "create_reminder", "title": "x", "at": "someday"},
			wantKind: action.IssueTimeNormalization,
		},
		{
			name:     "date only",
			fields:   map[string]any{"type": "create_reminder", "title": "x", "schedule_at": "next full moon"},
			wantKind: action.IssueTimeNormalization,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestService(t)
			res := resolveActions(t, svc, "", action.RequestContext{Timezone: "GMT+7"}, tt.fields)

			if tt.wantKind != "" {
				if len(res.Issues.Errors) != 1 || res.Issues.Errors[0].Kind != tt.wantKind {
					t.Fatalf("Errors = %+v, want one %s", res.Issues.Errors, tt.wantKind)
				}
				return
			}
			if !res.OK() {
				t.Fatalf("Status = %q: %s", res.Status, res.Issues.Error())
			}
			fields := res.Actions[0].Fields
			if fields[action.FieldRemindAt] != tt.wantAt {
				t.Errorf("remind_at = %v, want %s", fields[action.FieldRemindAt], tt.wantAt)
			}
			for _, alias := range action.TimeAliases {
				if alias == action.FieldRemindAt {
					continue
				}
				if _, ok := fields[alias]; ok {
					t.Errorf("alias %q should not survive normalization", alias)
				}
			}
		})
	}
}

func TestResolve_ReminderTitleDerived(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	rc := action.RequestContext{Tasks: []action.Task{
		{Title: "Submit report", Status: "todo", CreatedAt: "2025-01-19T08:00:00Z"},
	}}
	res := resolveActions(t, svc, "remind me about it tonight", rc,
		map[string]any{"type": "create_reminder", "time": "tonight at 6"},
	)
	if !res.OK() {
		t.Fatalf("Status = %q: %s", res.Status, res.Issues.Error())
	}
	if got := res.Actions[0].Fields[action.FieldTitle]; got != "Reminder about Submit report" {
		t.Errorf("title = %v, want derived title", got)
	}
}

func TestResolve_References(t *testing.T) {
	t.Parallel()

	tasks := []action.Task{
		{Title: "Lunch", Status: "todo", CreatedAt: "2025-01-18T08:00:00Z"},
		{Title: "Gym", Status: "done", UpdatedAt: "2025-01-20T08:00:00Z"},
	}

	tests := []struct {
		name      string
		rc        action.RequestContext
		fields    map[string]any
		wantMatch string
		wantKind  action.IssueKind
		wantAmbig bool
	}{
		{
			name:      "inferred open task",
			rc:        action.RequestContext{Tasks: tasks},
			fields:    map[string]any{"type": "complete task", "status": "done"},
			wantMatch: "Lunch",
		},
		{
			name:      "typo snapped to known title",
			rc:        action.RequestContext{Tasks: tasks},
			fields:    map[string]any{"type": "update_task", "titleMatch": "luch", "priority": "high"},
			wantMatch: "Lunch",
		},
		{
			name:      "unknown reference kept",
			rc:        action.RequestContext{Tasks: tasks},
			fields:    map[string]any{"type": "update_task", "titleMatch": "xyz"},
			wantMatch: "xyz",
		},
		{
			name:     "nothing to infer",
			fields:   map[string]any{"type": "update_task", "status": "done"},
			wantKind: action.IssueUnresolvedReference,
		},
		{
			name: "tie is ambiguous",
			rc: action.RequestContext{Tasks: []action.Task{
				{Title: "Call mom", Status: "todo", CreatedAt: "2025-01-19T08:00:00Z"},
				{Title: "Call dad", Status: "todo", CreatedAt: "2025-01-19T08:00:00Z"},
			}},
			fields:    map[string]any{"type": "update_task", "status": "done"},
			wantAmbig: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestService(t)
			res := resolveActions(t, svc, "", tt.rc, tt.fields)

			switch {
			case tt.wantAmbig:
				if res.OK() || len(res.Issues.Errors) != 0 || len(res.Issues.Ambiguous) != 1 {
					t.Fatalf("Issues = %+v, want one ambiguity and no errors", res.Issues)
				}
				want := action.Ambiguity{Operation: "update_task", Candidates: []string{"Call mom", "Call dad"}}
				if diff := cmp.Diff(want, res.Issues.Ambiguous[0]); diff != "" {
					t.Errorf("Ambiguity mismatch (-want +got):\n%s", diff)
				}
			case tt.wantKind != "":
				if len(res.Issues.Errors) != 1 || res.Issues.Errors[0].Kind != tt.wantKind {
					t.Fatalf("Errors = %+v, want one %s", res.Issues.Errors, tt.wantKind)
				}
			default:
				if !res.OK() {
					t.Fatalf("Status = %q: %s", res.Status, res.Issues.Error())
				}
				if got := res.Actions[0].Fields[action.FieldTitleMatch]; got != tt.wantMatch {
					t.Errorf("titleMatch = %v, want %q", got, tt.wantMatch)
				}
			}
		})
	}
}

func TestResolve_DeleteConfirmation(t *testing.T) {
	t.Parallel()

	tasks := []action.Task{{Title: "Gym", Status: "todo", CreatedAt: "2025-01-18T08:00:00Z"}}
	turn := func(s string) []action.Turn { return []action.Turn{{Role: "user", Content: s}} }

	tests := []struct {
		name   string
		rc     action.RequestContext
		fields map[string]any
		wantOK bool
	}{
		{"explicit flag", action.RequestContext{Tasks: tasks}, map[string]any{"type": "delete_task", "confirm": true}, true},
		{"explicit string flag", action.RequestContext{Tasks: tasks}, map[string]any{"type": "delete_task", "confirm": "yes"}, true},
		{"inferred from imperative", action.RequestContext{Tasks: tasks, Conversation: turn("please delete the gym task")}, map[string]any{"type": "remove task"}, true},
		{"indonesian imperative", action.RequestContext{Tasks: tasks, Conversation: turn("hapus saja")}, map[string]any{"type": "hapus tugas"}, true},
		{"unconfirmed", action.RequestContext{Tasks: tasks, Conversation: turn("what about gym?")}, map[string]any{"type": "delete_task"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestService(t)
			res := resolveActions(t, svc, "", tt.rc, tt.fields)
			if res.OK() != tt.wantOK {
				t.Fatalf("OK() = %v, want %v; issues: %s", res.OK(), tt.wantOK, res.Issues.Error())
			}
			if !tt.wantOK {
				if res.Issues.Errors[0].Kind != action.IssuePolicyViolation {
					t.Errorf("Kind = %s, want %s", res.Issues.Errors[0].Kind, action.IssuePolicyViolation)
				}
				return
			}
			fields := res.Actions[0].Fields
			if fields[action.FieldConfirm] != true || fields[action.FieldTitleMatch] != "Gym" {
				t.Errorf("Fields = %v, want confirmed delete of Gym", fields)
			}
		})
	}
}

func TestResolve_SchedulingOverride(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	res := resolveActions(t, svc, "create schedule every day to send me a summary", action.RequestContext{},
		map[string]any{"type": "add task", "title": "Daily summary", "schedule_type": "cron", "schedule_value": "0 8 * * *"},
	)
	if !res.OK() {
		t.Fatalf("Status = %q: %s", res.Status, res.Issues.Error())
	}
	if res.Verdict != schedule.VerdictRecurring {
		t.Errorf("Verdict = %s, want %s", res.Verdict, schedule.VerdictRecurring)
	}
	if got := res.Actions[0]; got.Type != action.OpCreateAIAction || got.Category != registry.CategorySchedule {
		t.Errorf("action = %s/%s, want create_ai_action/schedule", got.Type, got.Category)
	}
}

func TestResolve_UnknownFieldsDropped(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	res := resolveActions(t, svc, "", action.RequestContext{},
		map[string]any{"type": "add journal", "title": "Day", "content": "Good", "mood": "happy", "mood_score": "8"},
	)
	if !res.OK() {
		t.Fatalf("Status = %q: %s", res.Status, res.Issues.Error())
	}
	want := map[string]any{"title": "Day", "content": "Good", "mood_score": float64(8)}
	if diff := cmp.Diff(want, res.Actions[0].Fields); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_DraftWithoutActions(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	res, err := svc.Resolve(context.Background(), Request{Draft: "Sorry, I am not sure what you mean."})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !res.OK() || len(res.Actions) != 0 {
		t.Errorf("Status = %q with %d actions, want success with none", res.Status, len(res.Actions))
	}
	if res.Preamble != "Sorry, I am not sure what you mean." || res.Diagnostic == "" {
		t.Errorf("Preamble = %q, Diagnostic = %q", res.Preamble, res.Diagnostic)
	}
}

func TestResolve_DefaultPreamble(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	res, err := svc.Resolve(context.Background(), Request{Draft: `{"actions":[]}`})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if res.Preamble != draft.DefaultPreamble {
		t.Errorf("Preamble = %q, want %q", res.Preamble, draft.DefaultPreamble)
	}
}

func TestResolve_Guard(t *testing.T) {
	t.Parallel()

	noUrgent := action.GuardFunc(func(_ context.Context, _ int, a action.CanonicalAction) ([]action.Violation, error) {
		if p, _ := a.Field("priority"); p == "high" {
			return []action.Violation{{Rule: "no-high-priority", Message: "high priority is reserved"}}, nil
		}
		return nil, nil
	})
	svc := newTestService(t, WithGuard(noUrgent))

	res := resolveActions(t, svc, "", action.RequestContext{},
		map[string]any{"type": "create_task", "title": "a"},
		map[string]any{"type": "create_task", "title": "b", "priority": "high"},
	)
	want := []action.Issue{{
		Index:     1,
		Operation: "create_task",
		Kind:      action.IssuePolicyViolation,
		Message:   `action[1] violates policy "no-high-priority": high priority is reserved`,
	}}
	if diff := cmp.Diff(want, res.Issues.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_OperationalErrors(t *testing.T) {
	t.Parallel()

	fault := errors.New("cel: evaluation cost exceeded")
	faulty := action.GuardFunc(func(context.Context, int, action.CanonicalAction) ([]action.Violation, error) {
		return nil, fault
	})

	tests := []struct {
		name    string
		svc     *ResolutionService
		rc      action.RequestContext
		wantErr error
	}{
		{
			name: "unknown timezone",
			svc:  newTestService(t),
			rc:   action.RequestContext{Timezone: "Atlantis/Lost"},
		},
		{
			name: "bad task timestamp",
			svc:  newTestService(t),
			rc:   action.RequestContext{Tasks: []action.Task{{Title: "a", CreatedAt: "last week"}}},
		},
		{
			name:    "guard fault",
			svc:     newTestService(t, WithGuard(faulty)),
			wantErr: fault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := tt.svc.ResolveActions(context.Background(), "",
				[]any{map[string]any{"type": "create_task", "title": "a"}}, tt.rc)
			var opErr *OperationalError
			if !errors.As(err, &opErr) {
				t.Fatalf("ResolveActions() error = %v, want *OperationalError", err)
			}
			if res != nil {
				t.Error("result should be nil on operational error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want it to wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolve_CanceledDuringTimeResolution(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	blocking := timenorm.ResolverFunc(func(ctx context.Context, _ string, _ time.Time, _ string) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	})
	svc := NewResolutionService(nil, timenorm.New(blocking), testLogger())

	_, err := svc.ResolveActions(ctx, "", []any{
		map[string]any{"type": "create_reminder", "title": "x", "time": "later"},
	}, action.RequestContext{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	var opErr *OperationalError
	if !errors.As(err, &opErr) {
		t.Errorf("error = %T, want *OperationalError", err)
	}
}

func TestResolve_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	svc := newTestService(t, WithMetrics(m))

	resolveActions(t, svc, "", action.RequestContext{},
		map[string]any{"type": "create_task", "title": "ok"},
	)
	resolveActions(t, svc, "", action.RequestContext{},
		map[string]any{"type": "create_task", "title": "ok"},
		map[string]any{"type": "create_reminder", "title": "no time"},
	)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"success", testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("success")), 1},
		{"failed", testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("validation_failed")), 1},
		{"normalized", testutil.ToFloat64(m.ActionsTotal.WithLabelValues("create_task", "normalized")), 2},
		{"rejected", testutil.ToFloat64(m.ActionsTotal.WithLabelValues("create_reminder", "rejected")), 1},
		{"issues", testutil.ToFloat64(m.IssuesTotal.WithLabelValues("time_normalization")), 1},
		{"missing time", testutil.ToFloat64(m.TimeNormalizations.WithLabelValues("missing")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if n := testutil.CollectAndCount(m.ResolutionDuration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestResolve_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	in := map[string]any{"type": "create_reminder", "title": "x", "time": "tonight at 6"}
	resolveActions(t, svc, "", action.RequestContext{}, in)
	want := map[string]any{"type": "create_reminder", "title": "x", "time": "tonight at 6"}
	if diff := cmp.Diff(want, in); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

func TestResolve_Concurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newTestService(t)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Resolve(context.Background(), Request{
				Draft: `{"actions":[{"type":"add task","title":"Buy milk"},{"type":"set reminder","title":"x","time":"tonight at 6"}]}`,
			})
			if err != nil {
				errs <- err
				return
			}
			if !res.OK() || len(res.Actions) != 2 {
				errs <- errors.New(res.Issues.Error())
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Resolve: %v", err)
	}
}
