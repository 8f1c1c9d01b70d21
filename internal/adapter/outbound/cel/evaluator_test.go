package cel

import (
	"context"
	"strings"
	"testing"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() error: %v", err)
	}
	if eval == nil {
		t.Fatal("NewEvaluator() returned nil")
	}
}

func TestCompile(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() error: %v", err)
	}

	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"valid", `operation == "delete_task"`, false},
		{"field access", `has(fields.priority) && fields.priority == "high"`, false},
		{"string extension", `operation.startsWith("delete_")`, false},
		{"not cel", `this is not valid CEL !!!`, true},
		{"unknown variable", `tool_name == "x"`, true},
		{"non boolean", `operation`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval.Compile(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("Compile(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestValidateExpression(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() error: %v", err)
	}

	if err := eval.ValidateExpression(`category == "task"`); err != nil {
		t.Errorf("ValidateExpression() error: %v", err)
	}
	if err := eval.ValidateExpression(""); err == nil {
		t.Error("ValidateExpression(\"\") expected error")
	}

	long := `operation == "` + strings.Repeat("a", maxExpressionLength) + `"`
	err = eval.ValidateExpression(long)
	if err == nil || !strings.Contains(err.Error(), "too long") {
		t.Errorf("ValidateExpression(long) error = %v, want too long", err)
	}

	deep := strings.Repeat("(", maxNestingDepth+1) + "true" + strings.Repeat(")", maxNestingDepth+1)
	err = eval.ValidateExpression(deep)
	if err == nil || !strings.Contains(err.Error(), "nesting too deep") {
		t.Errorf("ValidateExpression(deep) error = %v, want nesting too deep", err)
	}
}

func TestValidateNesting(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"a && b", false},
		{strings.Repeat("[", maxNestingDepth) + strings.Repeat("]", maxNestingDepth), false},
		{strings.Repeat("{", maxNestingDepth+1), true},
	}
	for _, tt := range tests {
		if err := validateNesting(tt.expr); (err != nil) != tt.wantErr {
			t.Errorf("validateNesting() error = %v, wantErr %v", err, tt.wantErr)
		}
	}
}

func TestEvaluate(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() error: %v", err)
	}

	activation := map[string]any{
		"operation": "create_task",
		"category":  "task",
		"fields":    map[string]any{"title": "Buy milk", "priority": "high", "themes": []any{"a"}},
		"index":     int64(2),
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`operation == "create_task"`, true},
		{`glob("delete_*", operation)`, false},
		{`glob("create_*", operation)`, true},
		{`field(fields, "priority") == "high"`, true},
		{`field(fields, "due_date") == null`, true},
		{`field_contains(fields, "MILK")`, true},
		{`field_contains(fields, "eggs")`, false},
		{`index > 1 && category == "task"`, true},
		{`"title" in fields`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			prg, err := eval.Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error: %v", err)
			}
			got, err := eval.Evaluate(context.Background(), prg, activation)
			if err != nil {
				t.Fatalf("Evaluate() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluate_MissingKeyIsError(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() error: %v", err)
	}
	prg, err := eval.Compile(`fields.priority == "high"`)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	_, err = eval.Evaluate(context.Background(), prg, map[string]any{
		"operation": "create_task",
		"category":  "task",
		"fields":    map[string]any{},
		"index":     int64(0),
	})
	if err == nil {
		t.Error("Evaluate() expected error for missing key")
	}
}
