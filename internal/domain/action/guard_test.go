package action

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGuardChain_ConcatenatesViolations(t *testing.T) {
	t.Parallel()

	first := GuardFunc(func(_ context.Context, _ int, a CanonicalAction) ([]Violation, error) {
		return []Violation{{Rule: "one", Message: "first"}}, nil
	})
	pass := GuardFunc(func(context.Context, int, CanonicalAction) ([]Violation, error) {
		return nil, nil
	})
	second := GuardFunc(func(_ context.Context, index int, _ CanonicalAction) ([]Violation, error) {
		if index != 3 {
			t.Errorf("index = %d, want 3", index)
		}
		return []Violation{{Rule: "two", Message: "second"}}, nil
	})

	chain := NewGuardChain(testLogger(), first, nil, pass, second)
	if chain.Len() != 3 {
		t.Errorf("Len() = %d, want 3", chain.Len())
	}

	got, err := chain.Check(context.Background(), 3, CanonicalAction{Type: OpCreateTask})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	want := []Violation{{Rule: "one", Message: "first"}, {Rule: "two", Message: "second"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Check() mismatch (-want +got):\n%s", diff)
	}
}

func TestGuardChain_StopsOnFault(t *testing.T) {
	t.Parallel()

	fault := errors.New("cel: no such key")
	called := false
	chain := NewGuardChain(testLogger(),
		GuardFunc(func(context.Context, int, CanonicalAction) ([]Violation, error) {
			return nil, fault
		}),
		GuardFunc(func(context.Context, int, CanonicalAction) ([]Violation, error) {
			called = true
			return nil, nil
		}),
	)

	_, err := chain.Check(context.Background(), 0, CanonicalAction{})
	if !errors.Is(err, fault) {
		t.Errorf("Check() error = %v, want %v", err, fault)
	}
	if called {
		t.Error("guards after a fault should not run")
	}
}

func TestGuardChain_Empty(t *testing.T) {
	t.Parallel()

	got, err := NewGuardChain(nil).Check(context.Background(), 0, CanonicalAction{})
	if err != nil || len(got) != 0 {
		t.Errorf("Check() = %v, %v; want no violations", got, err)
	}
}
