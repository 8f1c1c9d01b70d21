package cmd

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sentinel-Gate/intentresolver/internal/adapter/outbound/cel"
	"github.com/Sentinel-Gate/intentresolver/internal/adapter/outbound/memory"
	"github.com/Sentinel-Gate/intentresolver/internal/adapter/outbound/oracle"
	"github.com/Sentinel-Gate/intentresolver/internal/config"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/action"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/registry"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/timenorm"
	"github.com/Sentinel-Gate/intentresolver/internal/service"
)

// newTimeResolver builds the configured time resolver, wrapped in the
// cache when enabled.
func newTimeResolver(cfg *config.Config, logger *slog.Logger) (timenorm.Resolver, error) {
	var resolver timenorm.Resolver
	switch cfg.Resolver.Mode {
	case config.ModeOffline:
		resolver = timenorm.OfflineResolver{}
	default:
		r, err := oracle.NewTimeResolver(oracle.Config{
			BaseURL: cfg.Resolver.BaseURL,
			APIKey:  cfg.Resolver.APIKey,
			Model:   cfg.Resolver.Model,
			Timeout: cfg.ResolverTimeout(),
		}, oracle.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create time resolver: %w", err)
		}
		resolver = r
	}

	if !cfg.Cache.Enabled {
		return resolver, nil
	}
	return memory.NewCachingResolver(resolver,
		memory.WithCacheSize(cfg.Cache.Size),
		memory.WithCacheTTL(cfg.CacheTTL()),
		memory.WithCacheLogger(logger),
	), nil
}

// newActionGuard compiles the configured policy rules. Nil when none.
func newActionGuard(cfg *config.Config, logger *slog.Logger) (*cel.ActionGuard, error) {
	if len(cfg.Policies) == 0 {
		return nil, nil
	}
	rules := make([]cel.Rule, 0, len(cfg.Policies))
	for _, p := range cfg.Policies {
		rules = append(rules, cel.Rule{Name: p.Name, Condition: p.Condition, Message: p.Message})
	}
	guard, err := cel.NewActionGuard(rules, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to compile policies: %w", err)
	}
	logger.Debug("policies compiled", "rules", guard.Len())
	return guard, nil
}

// newResolutionService wires all components together. metricsReg may be nil.
func newResolutionService(cfg *config.Config, logger *slog.Logger, metricsReg prometheus.Registerer) (*service.ResolutionService, error) {
	resolver, err := newTimeResolver(cfg, logger)
	if err != nil {
		return nil, err
	}
	times := timenorm.New(resolver, timenorm.WithLogger(logger))

	opts := []service.Option{
		service.WithFuzzyThreshold(cfg.Matching.FuzzyThreshold),
		service.WithConfirmWindow(cfg.Matching.ConfirmWindow),
		service.WithDefaultTimezone(cfg.DefaultTimezone),
	}

	guard, err := newActionGuard(cfg, logger)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		opts = append(opts, service.WithGuard(action.NewGuardChain(logger, guard)))
	}
	if metricsReg != nil {
		opts = append(opts, service.WithMetrics(service.NewMetrics(metricsReg)))
	}

	return service.NewResolutionService(registry.Default(), times, logger, opts...), nil
}
