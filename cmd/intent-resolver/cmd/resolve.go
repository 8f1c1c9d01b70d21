package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Sentinel-Gate/intentresolver/internal/config"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/action"
	"github.com/Sentinel-Gate/intentresolver/internal/service"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [draft-file...]",
	Short: "Resolve one or more drafts",
	Long: `Resolve oracle drafts into canonical actions.

Each argument is a file holding the raw draft text: a short preamble and a
JSON object with an "actions" array, optionally in a fenced code block.
Use "-" (or no arguments) to read a single draft from stdin. Drafts are
resolved concurrently and results are printed in argument order.

Examples:
  # Resolve a draft against a context file, offline
  intent-resolver resolve --offline --context ctx.yaml draft.txt

  # Pipe a draft and print YAML
  echo '{"actions":[{"type":"add task","title":"Buy milk"}]}' | intent-resolver resolve -o yaml

  # Export metrics for node_exporter's textfile collector
  intent-resolver resolve --metrics-file /var/lib/node_exporter/intent.prom drafts/*.txt`,
	RunE: runResolve,
}

var (
	resolveCommand     string
	resolveContextFile string
	resolveOffline     bool
	resolveOutput      string
	resolveTrace       bool
	resolveMetricsFile string
	resolveParallel    int
)

// errValidationFailed is returned when at least one draft did not normalize.
var errValidationFailed = errors.New("validation failed")

func init() {
	resolveCmd.Flags().StringVarP(&resolveCommand, "command", "c", "", "the user's original command (used for scheduling detection)")
	resolveCmd.Flags().StringVar(&resolveContextFile, "context", "", "YAML or JSON request context file (timezone, tasks, conversation)")
	resolveCmd.Flags().BoolVar(&resolveOffline, "offline", false, "resolve only absolute times; never call the oracle")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "json", "output format: json or yaml")
	resolveCmd.Flags().BoolVar(&resolveTrace, "trace", false, "print spans to stderr")
	resolveCmd.Flags().StringVar(&resolveMetricsFile, "metrics-file", "", "write Prometheus metrics to this file after resolving")
	resolveCmd.Flags().IntVar(&resolveParallel, "parallel", 4, "maximum drafts resolved at once")
	rootCmd.AddCommand(resolveCmd)
}

// draftInput is one draft read from a file or stdin.
type draftInput struct {
	name string
	text string
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(func(c *config.Config) {
		if resolveOffline {
			c.Resolver.Mode = config.ModeOffline
		}
	})
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Debug("loaded config", "file", configFile)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if resolveTrace {
		shutdown, err := setupTracing(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	var metricsReg *prometheus.Registry
	var registerer prometheus.Registerer
	if resolveMetricsFile != "" {
		metricsReg = prometheus.NewRegistry()
		registerer = metricsReg
	}

	svc, err := newResolutionService(cfg, logger, registerer)
	if err != nil {
		return err
	}

	rc, err := loadRequestContext(resolveContextFile)
	if err != nil {
		return err
	}

	inputs, err := readDrafts(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	results, err := resolveAll(ctx, svc, resolveCommand, inputs, rc, resolveParallel)
	if err != nil {
		return err
	}

	var out any = results
	if len(results) == 1 {
		out = results[0]
	}
	if err := writeOutput(cmd.OutOrStdout(), resolveOutput, out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if metricsReg != nil {
		if err := prometheus.WriteToTextfile(resolveMetricsFile, metricsReg); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d drafts", errValidationFailed, failed, len(results))
	}
	return nil
}

// resolveAll resolves every input with at most parallel in flight. Results
// keep input order. Only operational errors abort the batch.
func resolveAll(ctx context.Context, svc *service.ResolutionService, command string, inputs []draftInput, rc action.RequestContext, parallel int) ([]*service.Result, error) {
	results := make([]*service.Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, in := range inputs {
		g.Go(func() error {
			res, err := svc.Resolve(gctx, service.Request{
				Command: command,
				Draft:   in.text,
				Context: rc,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", in.name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// readDrafts reads each named file. "-" or no names reads stdin once.
func readDrafts(stdin io.Reader, names []string) ([]draftInput, error) {
	if len(names) == 0 {
		names = []string{"-"}
	}
	inputs := make([]draftInput, 0, len(names))
	usedStdin := false
	for _, name := range names {
		var (
			data []byte
			err  error
		)
		if name == "-" {
			if usedStdin {
				return nil, errors.New("stdin (-) given more than once")
			}
			usedStdin = true
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read draft %s: %w", name, err)
		}
		inputs = append(inputs, draftInput{name: name, text: string(data)})
	}
	return inputs, nil
}

// loadRequestContext decodes a YAML (or JSON) context file. An empty path
// yields an empty context.
func loadRequestContext(path string) (action.RequestContext, error) {
	var rc action.RequestContext
	if path == "" {
		return rc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rc, fmt.Errorf("failed to read context: %w", err)
	}
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return rc, fmt.Errorf("failed to parse context %s: %w", path, err)
	}
	return rc, nil
}
