package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/neutralizer/internal/logging"
)

var (
	logLevel  string
	logFormat string
	logFile   string

	logger = zap.NewNop()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console or json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}

var rootCmd = &cobra.Command{
	Use:   "neutralizer",
	Short: "Export CAD assembly trees to neutral file formats",
	Long: `neutralizer walks an assembly tree and writes every distinct part and
subassembly once per export directive: STEP, SAT, STL, IGES, or CSV reports
of properties and parameters. Stale files are purged first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logging.Config{Level: logLevel, Format: logFormat, OutputPath: logFile})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
