package action

import (
	"context"
	"fmt"
	"log/slog"
)

// Violation is a policy rule that rejected a canonical action.
type Violation struct {
	// Rule names the rule that fired.
	Rule string
	// Message is a client-facing explanation.
	Message string
}

// Guard checks a normalized action against additional policy before it is
// released. A returned error is an evaluation fault, not a rejection.
type Guard interface {
	Check(ctx context.Context, index int, a CanonicalAction) ([]Violation, error)
}

// GuardFunc is an adapter to allow the use of ordinary functions as Guards.
type GuardFunc func(ctx context.Context, index int, a CanonicalAction) ([]Violation, error)

// Check calls f(ctx, index, a).
func (f GuardFunc) Check(ctx context.Context, index int, a CanonicalAction) ([]Violation, error) {
	return f(ctx, index, a)
}

// Compile-time check that GuardFunc implements Guard.
var _ Guard = GuardFunc(nil)

// GuardChain runs guards in order and concatenates their violations.
// The first evaluation fault stops the chain.
type GuardChain struct {
	guards []Guard
	logger *slog.Logger
}

// Compile-time check that GuardChain implements Guard.
var _ Guard = (*GuardChain)(nil)

// NewGuardChain creates a GuardChain. Nil guards are skipped.
func NewGuardChain(logger *slog.Logger, guards ...Guard) *GuardChain {
	c := &GuardChain{logger: logger}
	for _, g := range guards {
		if g != nil {
			c.guards = append(c.guards, g)
		}
	}
	return c
}

// Len returns the number of guards in the chain.
func (c *GuardChain) Len() int {
	return len(c.guards)
}

// Check implements Guard.
func (c *GuardChain) Check(ctx context.Context, index int, a CanonicalAction) ([]Violation, error) {
	var out []Violation
	for i, g := range c.guards {
		vs, err := g.Check(ctx, index, a)
		if err != nil {
			return nil, fmt.Errorf("guard %d: %w", i, err)
		}
		if len(vs) > 0 && c.logger != nil {
			c.logger.Debug("guard rejected action",
				"guard", i,
				"index", index,
				"operation", a.Type,
				"violations", len(vs),
			)
		}
		out = append(out, vs...)
	}
	return out, nil
}
