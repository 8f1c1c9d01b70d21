package cel

import (
	"path/filepath"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/action"
)

// NewActionEnvironment creates a CEL environment over one canonical action:
//   - variables: operation, category, fields, index
//   - functions: glob, field, field_contains
func NewActionEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),
		ext.Sets(),

		cel.Variable("operation", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("fields", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("index", cel.IntType),

		// glob: shell pattern match, e.g. glob("delete_*", operation)
		cel.Function("glob",
			cel.Overload("glob_string_string",
				[]*cel.Type{cel.StringType, cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(func(pattern, name ref.Val) ref.Val {
					p, _ := pattern.Value().(string)
					n, _ := name.Value().(string)
					matched, _ := filepath.Match(p, n)
					return types.Bool(matched)
				}),
			),
		),

		// field: a field value or null when unset.
		// Usage: field(fields, "priority") == "high"
		cel.Function("field",
			cel.Overload("field_map_string",
				[]*cel.Type{cel.MapType(cel.StringType, cel.DynType), cel.StringType},
				cel.DynType,
				cel.BinaryBinding(func(mapVal, keyVal ref.Val) ref.Val {
					key, _ := keyVal.Value().(string)
					switch m := mapVal.Value().(type) {
					case map[string]any:
						if v, ok := m[key]; ok {
							return types.DefaultTypeAdapter.NativeToValue(v)
						}
					case map[ref.Val]ref.Val:
						if v, ok := m[types.String(key)]; ok {
							return v
						}
					}
					return types.NullValue
				}),
			),
		),

		// field_contains: whether any string field contains a substring,
		// case-insensitively.
		// Usage: field_contains(fields, "password")
		cel.Function("field_contains",
			cel.Overload("field_contains_map_string",
				[]*cel.Type{cel.MapType(cel.StringType, cel.DynType), cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(func(mapVal, substrVal ref.Val) ref.Val {
					substr, _ := substrVal.Value().(string)
					substr = strings.ToLower(substr)
					switch m := mapVal.Value().(type) {
					case map[string]any:
						for _, v := range m {
							if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), substr) {
								return types.Bool(true)
							}
						}
					case map[ref.Val]ref.Val:
						for _, v := range m {
							if s, ok := v.Value().(string); ok && strings.Contains(strings.ToLower(s), substr) {
								return types.Bool(true)
							}
						}
					}
					return types.Bool(false)
				}),
			),
		),
	)
}

// BuildActivation creates a CEL activation for a canonical action.
func BuildActivation(index int, a action.CanonicalAction) map[string]any {
	fields := a.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return map[string]any{
		"operation": a.Type.String(),
		"category":  a.Category.String(),
		"fields":    fields,
		"index":     int64(index),
	}
}
