// Package timenorm turns free-text time expressions into strict absolute UTC
// timestamps of the form YYYY-MM-DDTHH:MM:SSZ.
//
// The package never does natural-language date arithmetic itself. It hands
// the expression, the reference instant and the caller's timezone to a
// Resolver and enforces a strict contract on what comes back.
package timenorm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Layout is the only accepted output format.
const Layout = "2006-01-02T15:04:05Z"

// Sentinel is the literal a resolver returns when it cannot resolve a time.
const Sentinel = "ERROR"

var (
	// ErrEmptyExpression is returned for blank input.
	ErrEmptyExpression = errors.New("empty time expression")
	// ErrUnresolvable is returned when the resolver reports failure.
	ErrUnresolvable = errors.New("time expression could not be resolved")
	// ErrMalformedTimestamp is returned when the resolver output holds no
	// valid strict timestamp.
	ErrMalformedTimestamp = errors.New("resolver returned no valid timestamp")
)

var (
	embeddedPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`)
	strictPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)
)

// Resolver is the external time-resolution capability. It returns the raw
// resolver answer, which should contain a strict timestamp, or an error.
// Implementations return ErrUnresolvable (or the Sentinel text) when the
// expression has no determinable time.
type Resolver interface {
	ResolveTime(ctx context.Context, expression string, reference time.Time, timezone string) (string, error)
}

// ResolverFunc is an adapter to allow the use of ordinary functions as Resolvers.
type ResolverFunc func(ctx context.Context, expression string, reference time.Time, timezone string) (string, error)

// ResolveTime calls f(ctx, expression, reference, timezone).
func (f ResolverFunc) ResolveTime(ctx context.Context, expression string, reference time.Time, timezone string) (string, error) {
	return f(ctx, expression, reference, timezone)
}

// Compile-time check that ResolverFunc implements Resolver.
var _ Resolver = ResolverFunc(nil)

// IsStrict reports whether s is exactly a valid strict UTC timestamp.
func IsStrict(s string) bool {
	if !strictPattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(Layout, s)
	return err == nil
}

// Extract returns the first strict timestamp embedded in raw. The match must
// also be a real calendar instant.
func Extract(raw string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(raw), Sentinel) {
		return "", ErrUnresolvable
	}
	ts := embeddedPattern.FindString(raw)
	if ts == "" {
		if strings.Contains(raw, Sentinel) {
			return "", ErrUnresolvable
		}
		return "", fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}
	if _, err := time.Parse(Layout, ts); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedTimestamp, ts, err)
	}
	return ts, nil
}

// Normalizer validates resolver output. It is safe for concurrent use when
// its Resolver is.
type Normalizer struct {
	resolver Resolver
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the source of the reference instant. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// New creates a Normalizer around resolver.
func New(resolver Resolver, opts ...Option) *Normalizer {
	n := &Normalizer{
		resolver: resolver,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize resolves expression in timezone to a strict UTC timestamp.
// Input that is already strict is returned as is without consulting the
// resolver. When ctx is done the context error is returned unwrapped so
// callers can tell cancellation from a bad expression.
func (n *Normalizer) Normalize(ctx context.Context, expression, timezone string) (string, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return "", ErrEmptyExpression
	}
	if IsStrict(expr) {
		return expr, nil
	}
	if n.resolver == nil {
		return "", fmt.Errorf("%w: no resolver configured", ErrUnresolvable)
	}

	ref := n.now().UTC().Truncate(time.Second)
	raw, err := n.resolver.ResolveTime(ctx, expr, ref, timezone)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		n.logger.Debug("time resolver failed", "expression", expr, "timezone", timezone, "error", err)
		if errors.Is(err, ErrUnresolvable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}

	ts, err := Extract(raw)
	if err != nil {
		n.logger.Debug("time resolver output rejected", "expression", expr, "raw", raw, "error", err)
		return "", err
	}
	return ts, nil
}
