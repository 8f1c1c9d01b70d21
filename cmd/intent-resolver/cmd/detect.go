package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/schedule"
)

var detectCmd = &cobra.Command{
	Use:   "detect <command...>",
	Short: "Classify a command's scheduling intent",
	Long: `Print the scheduling verdict for a user command: "recurring", "timed"
or "none".

Example:
  intent-resolver detect "remind me every morning at 7"
  # Output: recurring`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), schedule.Detect(strings.Join(args, " ")))
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
