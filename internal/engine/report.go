package engine

import (
	"fmt"
	"io"

	"github.com/agentic-research/neutralizer/internal/assembly"
	"github.com/agentic-research/neutralizer/internal/directive"
	"github.com/agentic-research/neutralizer/internal/exporter"
	"github.com/agentic-research/neutralizer/internal/purge"
	"github.com/agentic-research/neutralizer/internal/tracker"
)

// Export is one file written (or, in a dry run, planned).
type Export struct {
	Identity string
	Kind     assembly.Kind
	Format   directive.Format
	Path     string
}

// Report is the outcome of one Run.
type Report struct {
	Base   string
	DryRun bool
	// Processed holds every visited identity except the root's.
	Processed        *tracker.Set
	Exported         []Export
	Duplicates       int
	TemplateFailures []*exporter.Failure
	ExportFailures   []*exporter.Failure
	Purges           []purge.Result
}

func newReport(base string, dryRun bool) *Report {
	return &Report{Base: base, DryRun: dryRun, Processed: tracker.New()}
}

// Purged counts files removed (or, in a dry run, matched) by all purges.
func (r *Report) Purged() int {
	n := 0
	for _, p := range r.Purges {
		n += len(p.Removed)
	}
	return n
}

// PurgeFailures counts files the purge could not delete.
func (r *Report) PurgeFailures() int {
	n := 0
	for _, p := range r.Purges {
		n += len(p.Failures)
	}
	return n
}

// Failed counts every per-item failure of the run.
func (r *Report) Failed() int {
	return len(r.TemplateFailures) + len(r.ExportFailures) + r.PurgeFailures()
}

// WriteSummary prints the run counts followed by one line per failure.
func (r *Report) WriteSummary(w io.Writer) {
	verb := "Exported"
	purgeVerb := "Purged"
	if r.DryRun {
		verb = "Would export"
		purgeVerb = "Would purge"
	}
	fmt.Fprintf(w, "Processed %d components.\n", r.Processed.Len())
	fmt.Fprintf(w, "%s %d files to %s.\n", verb, len(r.Exported), r.Base)
	fmt.Fprintf(w, "%s %d stale files.\n", purgeVerb, r.Purged())
	fmt.Fprintf(w, "Skipped %d duplicate occurrences.\n", r.Duplicates)
	fmt.Fprintf(w, "Failures: %d template, %d export, %d purge.\n",
		len(r.TemplateFailures), len(r.ExportFailures), r.PurgeFailures())
	for _, f := range r.TemplateFailures {
		fmt.Fprintf(w, "  ERROR: %v\n", f)
	}
	for _, f := range r.ExportFailures {
		fmt.Fprintf(w, "  ERROR: %v\n", f)
	}
	for _, p := range r.Purges {
		for _, f := range p.Failures {
			fmt.Fprintf(w, "  ERROR: %v\n", f)
		}
	}
}
