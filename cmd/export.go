package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/neutralizer/internal/assembly"
	"github.com/agentic-research/neutralizer/internal/config"
	"github.com/agentic-research/neutralizer/internal/directive"
	"github.com/agentic-research/neutralizer/internal/engine"
	"github.com/agentic-research/neutralizer/internal/exporter"
	"github.com/agentic-research/neutralizer/internal/metrics"
)

// ErrExportFailures is returned when a run finished with per-file failures.
var ErrExportFailures = errors.New("export finished with failures")

// runFlags are shared by export and plan.
type runFlags struct {
	configPath  string
	treePath    string
	selector    string
	anchor      string
	metricsFile string
}

func (f *runFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&f.configPath, "config", "c", "", "Export configuration (.xml, .json, .hcl or .toml)")
	c.Flags().StringVarP(&f.treePath, "tree", "t", "", "Assembly manifest (.json, or .db/.sqlite)")
	c.Flags().StringVar(&f.selector, "select", "", "JSONPath locating the root assembly inside a JSON manifest")
	c.Flags().StringVar(&f.anchor, "anchor", "", "Resolve a relative base path against this directory instead of the configuration's")
	c.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write run metrics to this file in Prometheus text format")
	_ = c.MarkFlagRequired("config")
	_ = c.MarkFlagRequired("tree")
}

var exportFlags runFlags

func init() {
	exportFlags.register(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Purge stale files and export every component of an assembly",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, &exportFlags, false)
	},
}

// newRouter serves the CSV formats in-process and every configured
// converter through its command. A converter for a CSV format replaces the
// built-in writer.
func newRouter(fs billy.Filesystem, converters []config.Converter) (*exporter.Router, error) {
	router := exporter.NewRouter(map[directive.Format]exporter.Exporter{
		directive.CSVProperties: exporter.NewCSVProperties(fs),
		directive.CSVParameters: exporter.NewCSVParameters(fs),
	})
	for _, c := range converters {
		command, err := exporter.NewCommand(fs, c.Command, c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("converter for %s: %w", c.Format, err)
		}
		router.Handle(c.Format, command)
	}
	return router, nil
}

// unsupported lists directive formats the router cannot write.
func unsupported(router *exporter.Router, directives []directive.Directive) []string {
	var missing []string
	seen := map[directive.Format]bool{}
	for _, d := range directives {
		if !router.Supports(d.Format()) && !seen[d.Format()] {
			seen[d.Format()] = true
			missing = append(missing, d.Format().String())
		}
	}
	return missing
}

func runExport(cmd *cobra.Command, f *runFlags, dryRun bool) error {
	ctx := cmd.Context()

	var opts []config.Option
	if f.anchor != "" {
		opts = append(opts, config.WithAnchor(f.anchor))
	}
	cfg, err := config.Load(f.configPath, opts...)
	if err != nil {
		return err
	}
	root, err := assembly.Load(ctx, f.treePath, f.selector)
	if err != nil {
		return fmt.Errorf("load assembly tree: %w", err)
	}

	fs := hostFS()
	router, err := newRouter(fs, cfg.Converters)
	if err != nil {
		return &config.ConfigurationError{Path: f.configPath, Err: err}
	}
	if missing := unsupported(router, cfg.Directives); len(missing) > 0 {
		err := fmt.Errorf("%w: %s (configure a converter)", exporter.ErrUnsupportedFormat, strings.Join(missing, ", "))
		if !dryRun {
			return &config.ConfigurationError{Path: f.configPath, Err: err}
		}
		logger.Warn("directives would fail at export time", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	eng := engine.New(engine.Options{
		FS:       fs,
		Exporter: router,
		Logger:   logger,
		Recorder: metrics.NewRecorder(reg),
		DryRun:   dryRun,
	})
	report, err := eng.Run(ctx, root, cfg.Directives, cfg.Base)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun {
		writePlan(out, report)
	}
	report.WriteSummary(out)

	if f.metricsFile != "" {
		if err := metrics.WriteTextfile(reg, f.metricsFile); err != nil {
			return err
		}
	}
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%w: %d", ErrExportFailures, n)
	}
	return nil
}

// hostFS returns the OS filesystem with an empty chroot, so absolute paths
// reach the OS unchanged, volume included.
func hostFS() billy.Filesystem {
	return osfs.New("")
}

func writePlan(w io.Writer, report *engine.Report) {
	for _, p := range report.Purges {
		for _, path := range p.Removed {
			fmt.Fprintf(w, "purge  %s\n", path)
		}
	}
	for _, e := range report.Exported {
		fmt.Fprintf(w, "%-14s %s\n", e.Format, e.Path)
	}
}
