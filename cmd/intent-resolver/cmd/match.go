package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/matcher"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/registry"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/schedule"
)

var matchCmd = &cobra.Command{
	Use:   "match <label>",
	Short: "Resolve a single function label",
	Long: `Resolve a free-form function label to its canonical operation and print
which rule matched. Pass the user's command with --command to apply the
scheduling override.

Examples:
  intent-resolver match "add new todo"
  intent-resolver match "add task" --command "every day at 8 summarize my news"`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

var (
	matchCommand string
	matchOutput  string
)

// matchResult is the printable outcome of a label lookup.
type matchResult struct {
	Label     string            `json:"label" yaml:"label"`
	Operation string            `json:"operation" yaml:"operation"`
	Category  registry.Category `json:"category" yaml:"category"`
	Rule      matcher.Rule      `json:"rule" yaml:"rule"`
	Verdict   schedule.Verdict  `json:"scheduling" yaml:"scheduling"`
}

func init() {
	matchCmd.Flags().StringVarP(&matchCommand, "command", "c", "", "the user's original command")
	matchCmd.Flags().StringVarP(&matchOutput, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	label := args[0]
	verdict := schedule.Detect(matchCommand)

	entry, rule, ok := matcher.New(registry.Default()).Match(label, verdict)
	if !ok {
		return fmt.Errorf("no canonical operation matches %q", label)
	}

	res := matchResult{
		Label:     label,
		Operation: entry.Name,
		Category:  entry.Category,
		Rule:      rule,
		Verdict:   verdict,
	}
	if matchOutput == "text" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, rule=%s)\n", res.Operation, res.Category, res.Rule)
		return nil
	}
	return writeOutput(cmd.OutOrStdout(), matchOutput, res)
}
