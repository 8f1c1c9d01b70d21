package action

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/timenorm"
)

// TaskStatuses are the accepted task status values.
var TaskStatuses = []string{"todo", "doing", "done", "pending", "completed"}

// FieldError reports why a field map could not become a payload.
type FieldError struct {
	Operation Operation
	// Missing lists required fields that are absent, already quoted, e.g.
	// "'title'" or "'titleMatch' or 'task_id'".
	Missing []string
	// Invalid lists human-readable problems with present fields.
	Invalid []string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%s missing %s", e.Operation, strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("%s has invalid fields: %s", e.Operation, strings.Join(e.Invalid, "; ")))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s fields rejected", e.Operation)
	}
	return strings.Join(parts, "; ")
}

// ErrUnknownOperation is returned by Decode for an operation without schema.
var ErrUnknownOperation = errors.New("unknown operation")

var payloadValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("utc_timestamp", func(fl validator.FieldLevel) bool {
		return timenorm.IsStrict(fl.Field().String())
	})
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return slices.Contains(TaskStatuses, fl.Field().String())
	})
	_ = v.RegisterValidation("timezone_id", func(fl validator.FieldLevel) bool {
		_, err := timenorm.ParseTimezone(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339, fl.Field().String())
		return err == nil
	})
	return v
})

// Decode converts a loose field map into the payload of op. Keys that the
// payload does not recognize are dropped and returned sorted; values of the
// wrong shape and unmet required fields produce a *FieldError.
func Decode(op Operation, fields map[string]any) (Payload, []string, error) {
	factory, ok := payloadFactories[op]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	p := factory()

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           p,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build decoder for %s: %w", op, err)
	}

	input := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == FieldType || v == nil {
			continue
		}
		input[k] = v
	}

	if err := dec.Decode(input); err != nil {
		fe := &FieldError{Operation: op}
		var merr *mapstructure.Error
		if errors.As(err, &merr) {
			fe.Invalid = append(fe.Invalid, merr.Errors...)
		} else {
			fe.Invalid = append(fe.Invalid, err.Error())
		}
		return nil, nil, fe
	}

	dropped := append([]string(nil), md.Unused...)
	slices.Sort(dropped)

	if err := payloadValidator().Struct(p); err != nil {
		return nil, dropped, toFieldError(op, p, err)
	}
	return p, dropped, nil
}

func toFieldError(op Operation, p Payload, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", op, err)
	}

	fe := &FieldError{Operation: op}
	t := reflect.TypeOf(p).Elem()
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			fe.Missing = append(fe.Missing, fmt.Sprintf("'%s'", e.Field()))
		case "required_without":
			fe.Missing = append(fe.Missing, fmt.Sprintf("'%s' or '%s'", e.Field(), wireName(t, e.Param())))
		default:
			fe.Invalid = append(fe.Invalid, formatFieldProblem(e))
		}
	}
	return fe
}

func formatFieldProblem(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "utc_timestamp":
		return fmt.Sprintf("%s must be a YYYY-MM-DDTHH:MM:SSZ timestamp", field)
	case "task_status":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(TaskStatuses, " "))
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

func wireName(t reflect.Type, goName string) string {
	f, ok := t.FieldByName(goName)
	if !ok {
		return goName
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return goName
	}
	return name
}
