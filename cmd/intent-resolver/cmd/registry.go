package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Print the canonical operation registry",
	Long: `Print every canonical operation with its category, aliases and intent
keywords. Use -o json or -o yaml for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: runRegistry,
}

var registryOutput string

func init() {
	registryCmd.Flags().StringVarP(&registryOutput, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(registryCmd)
}

func runRegistry(cmd *cobra.Command, args []string) error {
	entries := registry.Default().Entries()
	if registryOutput != "table" {
		return writeOutput(cmd.OutOrStdout(), registryOutput, entries)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tALIASES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Name, e.Category, len(e.Aliases))
	}
	return tw.Flush()
}
