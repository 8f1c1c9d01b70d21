package cel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/action"
)

// Rule is a policy rule over canonical actions. An action violates the rule
// when Condition evaluates to true.
type Rule struct {
	Name      string
	Condition string
	Message   string
}

type compiledRule struct {
	Rule
	prg cel.Program
}

// ActionGuard rejects canonical actions that match configured CEL rules.
type ActionGuard struct {
	eval   *Evaluator
	rules  []compiledRule
	logger *slog.Logger
}

// Compile-time check that ActionGuard implements action.Guard.
var _ action.Guard = (*ActionGuard)(nil)

// NewActionGuard validates and compiles rules. Any invalid rule fails the
// whole guard so a typo never silently disables policy.
func NewActionGuard(rules []Rule, logger *slog.Logger) (*ActionGuard, error) {
	eval, err := NewEvaluator()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &ActionGuard{eval: eval, logger: logger}
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			r.Name = fmt.Sprintf("rule_%d", i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("rule %q: duplicate name", r.Name)
		}
		seen[r.Name] = true

		if err := eval.ValidateExpression(r.Condition); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		prg, err := eval.Compile(r.Condition)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		if r.Message == "" {
			r.Message = "blocked by policy"
		}
		g.rules = append(g.rules, compiledRule{Rule: r, prg: prg})
	}
	return g, nil
}

// Len returns the number of compiled rules.
func (g *ActionGuard) Len() int {
	return len(g.rules)
}

// Check implements action.Guard.
func (g *ActionGuard) Check(ctx context.Context, index int, a action.CanonicalAction) ([]action.Violation, error) {
	if len(g.rules) == 0 {
		return nil, nil
	}
	activation := BuildActivation(index, a)

	var out []action.Violation
	for _, r := range g.rules {
		hit, err := g.eval.Evaluate(ctx, r.prg, activation)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		if hit {
			g.logger.Debug("policy rule matched", "rule", r.Name, "index", index, "operation", a.Type)
			out = append(out, action.Violation{Rule: r.Name, Message: r.Message})
		}
	}
	return out, nil
}
