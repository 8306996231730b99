package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/neutralizer/internal/assembly"
)

var buildSelector string

func init() {
	buildCmd.Flags().StringVar(&buildSelector, "select", "", "JSONPath locating the root assembly inside the JSON manifest")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build [manifest.json] [output.db]",
	Short: "Build a SQLite assembly manifest from a JSON manifest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, output := args[0], args[1]
		start := time.Now()

		root, err := assembly.LoadJSON(source, buildSelector)
		if err != nil {
			return err
		}

		// Rebuild from scratch so stale occurrences never survive.
		if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", output, err)
		}
		if err := assembly.WriteSQLite(cmd.Context(), output, root); err != nil {
			_ = os.Remove(output)
			return fmt.Errorf("write %s: %w", output, err)
		}

		logger.Info("manifest built",
			zap.String("source", source),
			zap.String("output", output),
			zap.Duration("elapsed", time.Since(start)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
		return nil
	},
}
