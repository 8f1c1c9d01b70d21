package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Task is a summary of a task the caller already knows about.
type Task struct {
	ID     string `yaml:"id" json:"id,omitempty" mapstructure:"id"`
	Title  string `yaml:"title" json:"title" mapstructure:"title"`
	Status string `yaml:"status" json:"status,omitempty" mapstructure:"status"`
	// CreatedAt and UpdatedAt are RFC 3339 timestamps. Fixed-width UTC
	// values compare correctly as strings.
	CreatedAt string `yaml:"created_at" json:"created_at,omitempty" mapstructure:"created_at" validate:"omitempty,rfc3339"`
	UpdatedAt string `yaml:"updated_at" json:"updated_at,omitempty" mapstructure:"updated_at" validate:"omitempty,rfc3339"`
}

// Turn is one message of the recent conversation.
type Turn struct {
	Role    string `yaml:"role" json:"role" mapstructure:"role"`
	Content string `yaml:"content" json:"content" mapstructure:"content"`
}

// RequestContext is the read-only bundle supplied with every resolution
// request. The engine never modifies it.
type RequestContext struct {
	// Timezone is an IANA name or a UTC/GMT offset such as "GMT+7".
	// Empty means the service default.
	Timezone     string   `yaml:"timezone" json:"timezone,omitempty" mapstructure:"timezone" validate:"omitempty,timezone_id"`
	Tasks        []Task   `yaml:"tasks" json:"tasks,omitempty" mapstructure:"tasks" validate:"dive"`
	Conversation []Turn   `yaml:"conversation" json:"conversation,omitempty" mapstructure:"conversation"`
	Memories     []string `yaml:"memories" json:"memories,omitempty" mapstructure:"memories"`
}

// TaskTitles returns the non-empty task titles in order.
func (rc RequestContext) TaskTitles() []string {
	titles := make([]string, 0, len(rc.Tasks))
	for _, t := range rc.Tasks {
		if t.Title != "" {
			titles = append(titles, t.Title)
		}
	}
	return titles
}

// Validate checks the context for values the engine cannot work with: an
// unknown timezone or task timestamps that are not RFC 3339.
func (rc RequestContext) Validate() error {
	err := payloadValidator().Struct(rc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "RequestContext.")
		switch e.Tag() {
		case "timezone_id":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a known timezone", field, e.Value()))
		case "rfc3339":
			msgs = append(msgs, fmt.Sprintf("%s %q is not an RFC 3339 timestamp", field, e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation: %s", field, e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
