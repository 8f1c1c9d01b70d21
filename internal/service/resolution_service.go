// Package service contains application services.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Sentinel-Gate/intentresolver/internal/ctxkey"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/action"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/draft"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/fuzzy"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/inference"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/matcher"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/registry"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/schedule"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/timenorm"
)

var tracer = otel.Tracer("github.com/Sentinel-Gate/intentresolver/internal/service")

// Status is the outcome of a resolution request.
type Status string

const (
	// StatusSuccess means every draft action normalized.
	StatusSuccess Status = "success"
	// StatusValidationFailed means at least one issue was reported and no
	// actions were released.
	StatusValidationFailed Status = "validation_failed"
)

// DefaultTimezone is used when neither the request nor the service names one.
const DefaultTimezone = "UTC"

// issueAmbiguous labels ambiguity entries in metrics.
const issueAmbiguous = "ambiguous_reference"

// Request is one resolution request.
type Request struct {
	// Command is the user's original command, used for scheduling detection.
	Command string
	// Draft is the raw oracle text: a preamble and an embedded action list.
	Draft string
	// Context is the caller-supplied read-only state.
	Context action.RequestContext
}

// Result is the outcome of a resolution request. Actions is non-empty only
// when Status is StatusSuccess; Issues is empty exactly then.
type Result struct {
	RequestID  string                   `json:"request_id" yaml:"request_id"`
	Status     Status                   `json:"status" yaml:"status"`
	Preamble   string                   `json:"preamble" yaml:"preamble"`
	Diagnostic string                   `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
	Verdict    schedule.Verdict         `json:"scheduling" yaml:"scheduling"`
	Actions    []action.CanonicalAction `json:"actions" yaml:"actions"`
	Issues     *action.IssueReport      `json:"issues" yaml:"issues"`
}

// OK reports whether the batch normalized.
func (r *Result) OK() bool {
	return r.Status == StatusSuccess
}

// OperationalError is an internal fault that prevented resolution, as
// opposed to a validation problem reported in Result.Issues.
type OperationalError struct {
	Op  string
	Err error
}

func (e *OperationalError) Error() string {
	return fmt.Sprintf("resolve: %s: %v", e.Op, e.Err)
}

func (e *OperationalError) Unwrap() error {
	return e.Err
}

// ResolutionService turns oracle drafts into canonical actions.
// It holds no per-request state and is safe for concurrent use.
type ResolutionService struct {
	matcher       *matcher.Matcher
	fuzzy         fuzzy.Matcher
	times         *timenorm.Normalizer
	guard         action.Guard
	metrics       *Metrics
	logger        *slog.Logger
	confirmWindow int
	defaultTZ     string
	newID         func() string
}

// Option configures a ResolutionService.
type Option func(*ResolutionService)

// WithGuard adds a policy guard run on every normalized action.
func WithGuard(g action.Guard) Option {
	return func(s *ResolutionService) { s.guard = g }
}

// WithMetrics records resolution metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *ResolutionService) { s.metrics = m }
}

// WithFuzzyThreshold sets the minimum title similarity for reference matching.
func WithFuzzyThreshold(threshold float64) Option {
	return func(s *ResolutionService) { s.fuzzy = fuzzy.Matcher{Threshold: threshold} }
}

// WithConfirmWindow sets how many trailing turns may confirm a deletion.
func WithConfirmWindow(turns int) Option {
	return func(s *ResolutionService) { s.confirmWindow = turns }
}

// WithDefaultTimezone sets the timezone used when a request has none.
func WithDefaultTimezone(tz string) Option {
	return func(s *ResolutionService) {
		if tz != "" {
			s.defaultTZ = tz
		}
	}
}

// WithIDGenerator replaces the request ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *ResolutionService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithMatcherOptions configures the semantic function matcher.
func WithMatcherOptions(opts ...matcher.Option) Option {
	return func(s *ResolutionService) {
		s.matcher = matcher.New(s.matcher.Registry(), opts...)
	}
}

// NewResolutionService creates a ResolutionService over reg. A nil times
// normalizer rejects every time expression that is not already absolute.
func NewResolutionService(reg *registry.Registry, times *timenorm.Normalizer, logger *slog.Logger, opts ...Option) *ResolutionService {
	if reg == nil {
		reg = registry.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if times == nil {
		times = timenorm.New(nil, timenorm.WithLogger(logger))
	}
	s := &ResolutionService{
		matcher:       matcher.New(reg),
		times:         times,
		logger:        logger,
		confirmWindow: inference.DefaultConfirmWindow,
		defaultTZ:     DefaultTimezone,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve extracts the action list from the draft text and resolves it.
// Validation problems are reported in the Result; the error is non-nil only
// for an *OperationalError.
func (s *ResolutionService) Resolve(ctx context.Context, req Request) (*Result, error) {
	d := draft.Extract(req.Draft)
	if !d.Found {
		s.logger.Warn("no action list in draft", "diagnostic", d.Diagnostic)
	}
	res, err := s.ResolveActions(ctx, req.Command, d.Actions, req.Context)
	if err != nil {
		return nil, err
	}
	res.Preamble = d.Preamble
	res.Diagnostic = d.Diagnostic
	return res, nil
}

// ResolveActions resolves an already-extracted list of draft actions. The
// batch is all or nothing: any issue leaves Result.Actions empty.
func (s *ResolutionService) ResolveActions(ctx context.Context, command string, drafts []any, rc action.RequestContext) (*Result, error) {
	start := time.Now()
	id := s.newID()

	logger := s.logger.With("request_id", id)
	ctx = ctxkey.WithRequest(ctx, id, logger)

	ctx, span := tracer.Start(ctx, "ResolutionService.ResolveActions")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.id", id),
		attribute.Int("draft.actions", len(drafts)),
	)

	fail := func(op string, err error) (*Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, op)
		s.metrics.observeResolution("error", time.Since(start))
		logger.Error("resolution failed", "op", op, "error", err)
		return nil, &OperationalError{Op: op, Err: err}
	}

	if err := rc.Validate(); err != nil {
		return fail("validate context", err)
	}

	tz := rc.Timezone
	if tz == "" {
		tz = s.defaultTZ
	}
	verdict := schedule.Detect(command)
	span.SetAttributes(attribute.String("scheduling.verdict", verdict.String()))

	rs := &resolution{
		svc:     s,
		logger:  logger,
		rc:      rc,
		tz:      tz,
		verdict: verdict,
		report:  action.NewIssueReport(),
	}

	actions := make([]action.CanonicalAction, 0, len(drafts))
	for i, raw := range drafts {
		if err := ctx.Err(); err != nil {
			return fail("resolve actions", err)
		}
		before := len(rs.report.Errors) + len(rs.report.Ambiguous)
		ca, op, err := rs.resolveOne(ctx, i, raw)
		if err != nil {
			return fail(fmt.Sprintf("action[%d]", i), err)
		}
		if len(rs.report.Errors)+len(rs.report.Ambiguous) > before {
			s.metrics.observeAction(op, "rejected")
			continue
		}
		s.metrics.observeAction(op, "normalized")
		actions = append(actions, ca)
	}

	res := &Result{
		RequestID: id,
		Status:    StatusSuccess,
		Preamble:  draft.DefaultPreamble,
		Verdict:   verdict,
		Actions:   actions,
		Issues:    rs.report,
	}
	if !rs.report.Empty() {
		res.Status = StatusValidationFailed
		res.Actions = []action.CanonicalAction{}
		span.SetStatus(codes.Error, string(StatusValidationFailed))
	}

	span.SetAttributes(
		attribute.String("resolution.status", string(res.Status)),
		attribute.Int("resolution.errors", len(rs.report.Errors)),
		attribute.Int("resolution.ambiguous", len(rs.report.Ambiguous)),
	)
	s.metrics.observeReport(rs.report)
	s.metrics.observeResolution(string(res.Status), time.Since(start))
	logger.Info("resolution complete",
		"status", res.Status,
		"actions", len(res.Actions),
		"errors", len(rs.report.Errors),
		"ambiguous", len(rs.report.Ambiguous),
		"scheduling", verdict,
	)
	return res, nil
}

// resolution carries the state of one ResolveActions call.
type resolution struct {
	svc     *ResolutionService
	logger  *slog.Logger
	rc      action.RequestContext
	tz      string
	verdict schedule.Verdict
	report  *action.IssueReport

	// inferred caches referent inference; the context does not change
	// within a request.
	inferred *inference.Inference
}

func (r *resolution) infer() inference.Inference {
	if r.inferred == nil {
		inf := inference.Infer(r.rc)
		r.inferred = &inf
	}
	return *r.inferred
}

// resolveOne runs the per-action pipeline. Validation problems go to the
// report; a returned error is operational. op is the canonical operation
// when known.
func (r *resolution) resolveOne(ctx context.Context, i int, raw any) (action.CanonicalAction, string, error) {
	var none action.CanonicalAction
	log := r.logger.With("index", i)

	src, ok := raw.(map[string]any)
	if !ok {
		r.report.Add(i, "", action.IssueMalformedAction, "is not an object (got %T)", raw)
		return none, "", nil
	}
	fields := maps.Clone(src)

	label, _ := fields[action.FieldType].(string)
	label = strings.TrimSpace(label)
	if label == "" {
		r.report.Add(i, "", action.IssueMalformedAction, "has no operation type")
		return none, "", nil
	}

	// (a) canonical operation
	entry, rule, ok := r.svc.matcher.Match(label, r.verdict)
	if !ok {
		r.report.Add(i, label, action.IssueUnresolvedOperation, "unknown operation %q", label)
		return none, "", nil
	}
	op := action.Operation(entry.Name)
	log.Debug("operation resolved", "label", label, "operation", op, "rule", rule)

	// (b) reference
	if op.ReferenceDependent() && !r.fillReference(i, op, fields) {
		return none, op.String(), nil
	}

	// (c) time
	if op.TimeDependent() {
		ok, err := r.normalizeTime(ctx, i, op, fields)
		if err != nil || !ok {
			return none, op.String(), err
		}
	}

	// (d) reminder title
	if op.TimeDependent() && blank(fields[action.FieldTitle]) {
		if inf := r.infer(); inf.Found() {
			fields[action.FieldTitle] = "Reminder about " + inf.Referent
			log.Debug("reminder title derived", "referent", inf.Referent)
		}
	}

	// (e) confirmation
	if op.RequiresConfirmation() && !truthy(fields[action.FieldConfirm]) {
		if !inference.ConfirmedByHistory(r.rc.Conversation, r.svc.confirmWindow) {
			r.report.Add(i, op.String(), action.IssuePolicyViolation,
				"%s requires confirmation; set 'confirm' or ask the user to confirm", op)
			return none, op.String(), nil
		}
		log.Debug("deletion confirmed from conversation")
	}
	if op.RequiresConfirmation() {
		fields[action.FieldConfirm] = true
	}

	// (f) typed payload and required fields
	payload, dropped, err := action.Decode(op, fields)
	if err != nil {
		var fe *action.FieldError
		switch {
		case errors.As(err, &fe):
			kind := action.IssuePolicyViolation
			if len(fe.Missing) == 0 {
				kind = action.IssueMalformedAction
			}
			r.report.Add(i, op.String(), kind, "%s", fe.Error())
		case errors.Is(err, action.ErrUnknownOperation):
			r.report.Add(i, op.String(), action.IssueUnresolvedOperation, "%s has no field schema", op)
		default:
			return none, op.String(), err
		}
		return none, op.String(), nil
	}
	if len(dropped) > 0 {
		log.Debug("unrecognized fields dropped", "operation", op, "fields", dropped)
	}

	ca, err := action.NewCanonicalAction(payload, entry.Category)
	if err != nil {
		return none, op.String(), err
	}

	// (g) policy
	if r.svc.guard != nil {
		violations, err := r.svc.guard.Check(ctx, i, ca)
		if err != nil {
			return none, op.String(), fmt.Errorf("policy guard: %w", err)
		}
		for _, v := range violations {
			r.report.Add(i, op.String(), action.IssuePolicyViolation, "violates policy %q: %s", v.Rule, v.Message)
		}
	}
	return ca, op.String(), nil
}

// fillReference makes sure a reference-dependent action names its target.
// A supplied titleMatch is snapped to the closest known task title.
func (r *resolution) fillReference(i int, op action.Operation, fields map[string]any) bool {
	if !blank(fields[action.FieldTaskID]) {
		return true
	}
	titles := r.rc.TaskTitles()

	if ref, ok := fields[action.FieldTitleMatch].(string); ok && strings.TrimSpace(ref) != "" {
		if match, ok := r.svc.fuzzy.Match(ref, titles); ok {
			fields[action.FieldTitleMatch] = match
		}
		return true
	}

	inf := r.infer()
	switch {
	case inf.Ambiguous:
		r.report.AddAmbiguity(i, op.String(), "", inf.Candidates)
		return false
	case inf.Found():
		fields[action.FieldTitleMatch] = inf.Referent
		r.logger.Debug("reference inferred", "index", i, "operation", op, "referent", inf.Referent)
		return true
	default:
		r.report.Add(i, op.String(), action.IssueUnresolvedReference,
			"%s needs 'titleMatch' or 'task_id' and no task could be inferred", op)
		return false
	}
}

// normalizeTime finds the time field under any accepted alias, resolves it
// and stores it as remind_at. It returns false when an issue was reported.
func (r *resolution) normalizeTime(ctx context.Context, i int, op action.Operation, fields map[string]any) (bool, error) {
	var expr string
	for _, alias := range action.TimeAliases {
		if v, ok := fields[alias]; ok && !blank(v) {
			expr = fmt.Sprint(v)
			break
		}
	}
	if expr == "" {
		r.svc.metrics.observeTime("missing")
		r.report.Add(i, op.String(), action.IssueTimeNormalization,
			"%s is missing a time field (one of %s)", op, strings.Join(action.TimeAliases, ", "))
		return false, nil
	}

	ctx, span := tracer.Start(ctx, "Normalizer.Normalize")
	defer span.End()
	span.SetAttributes(
		attribute.String("time.expression", expr),
		attribute.String("time.timezone", r.tz),
	)

	ts, err := r.svc.times.Normalize(ctx, expr, r.tz)
	if err != nil {
		span.RecordError(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.SetStatus(codes.Error, "canceled")
			return false, ctxErr
		}
		result := "unresolvable"
		msg := fmt.Sprintf("could not resolve time %q", expr)
		if errors.Is(err, timenorm.ErrMalformedTimestamp) {
			result = "malformed"
			msg = fmt.Sprintf("resolved time for %q is not a YYYY-MM-DDTHH:MM:SSZ timestamp", expr)
		}
		span.SetStatus(codes.Error, result)
		r.svc.metrics.observeTime(result)
		r.report.Add(i, op.String(), action.IssueTimeNormalization, "%s", msg)
		return false, nil
	}

	for _, alias := range action.TimeAliases {
		delete(fields, alias)
	}
	fields[action.FieldRemindAt] = ts
	span.SetAttributes(attribute.String("time.resolved", ts))
	r.svc.metrics.observeTime("ok")
	return true, nil
}

func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return s == "yes" || s == "y" || s == "ya"
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}
