// Package engine drives an export run: purge stale files for every
// directive, then walk the assembly tree depth-first and apply every
// directive to every component exactly once per identity.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/agentic-research/neutralizer/internal/assembly"
	"github.com/agentic-research/neutralizer/internal/directive"
	"github.com/agentic-research/neutralizer/internal/exporter"
	"github.com/agentic-research/neutralizer/internal/purge"
)

var (
	ErrInvalidRoot  = errors.New("root component must be a root assembly")
	ErrRelativeBase = errors.New("export base path must be absolute")
	ErrNoExporter   = errors.New("no exporter configured")
)

// Export outcome labels passed to Recorder.ExportFinished.
const (
	StatusExported      = "exported"
	StatusPlanned       = "planned"
	StatusTemplateError = "template_error"
	StatusExportError   = "export_error"
)

// Recorder receives run counters. Implemented by internal/metrics.
type Recorder interface {
	ComponentProcessed(kind assembly.Kind)
	DuplicateSkipped(kind assembly.Kind)
	ExportFinished(format directive.Format, status string)
	PurgeFinished(format directive.Format, removed, failed int)
	RunFinished(elapsed time.Duration)
}

// Options configures an Engine.
type Options struct {
	// FS is the filesystem purged and written to. Paths are absolute.
	FS billy.Filesystem
	// Exporter writes files. Not needed for DryRun.
	Exporter exporter.Exporter
	Logger   *zap.Logger
	Recorder Recorder
	// DryRun resolves every purge and destination without touching FS.
	DryRun bool
}

// Engine is reusable; each Run gets its own processed set.
type Engine struct {
	fs       billy.Filesystem
	exporter exporter.Exporter
	log      *zap.Logger
	rec      Recorder
	dryRun   bool
}

func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Engine{
		fs:       opts.FS,
		exporter: opts.Exporter,
		log:      log,
		rec:      rec,
		dryRun:   opts.DryRun,
	}
}

// Run purges, then exports root and every reachable component. base must be
// absolute and is used for every directive and component of the run.
//
// Only setup problems are returned as errors, before anything is deleted or
// written. Per-file problems are logged and collected in the Report.
func (e *Engine) Run(ctx context.Context, root assembly.Component, directives []directive.Directive, base string) (*Report, error) {
	if root == nil || root.Kind() != assembly.RootAssembly {
		return nil, ErrInvalidRoot
	}
	if !filepath.IsAbs(base) {
		return nil, fmt.Errorf("%w: %q", ErrRelativeBase, base)
	}
	if e.exporter == nil && !e.dryRun {
		return nil, ErrNoExporter
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	r := &run{
		Engine:     e,
		ctx:        ctx,
		directives: directives,
		base:       filepath.Clean(base),
		report:     newReport(filepath.Clean(base), e.dryRun),
	}
	e.log.Info("export run started",
		zap.String("root", root.Identity()),
		zap.String("base", r.base),
		zap.Int("directives", len(directives)),
		zap.Bool("dry_run", e.dryRun),
	)

	// Every purge completes before the first write.
	purger := purge.New(e.fs, e.log).DryRun(e.dryRun)
	for _, d := range directives {
		res := purger.Purge(d, r.base)
		r.report.Purges = append(r.report.Purges, res)
		if res.Dir != "" {
			e.rec.PurgeFinished(d.Format(), len(res.Removed), len(res.Failures))
		}
	}

	// The root is exported but never entered into the processed set.
	for _, d := range directives {
		if d.AppliesTo(root) {
			r.exportPair(root, d)
		}
	}
	r.visit(root, true)

	elapsed := time.Since(start)
	e.rec.RunFinished(elapsed)
	e.log.Info("export run finished",
		zap.Int("processed", r.report.Processed.Len()),
		zap.Int("exported", len(r.report.Exported)),
		zap.Int("duplicates", r.report.Duplicates),
		zap.Int("failures", r.report.Failed()),
		zap.Duration("elapsed", elapsed),
	)
	return r.report, nil
}

// run holds the state of one Run call. It is only touched by the walking
// goroutine.
type run struct {
	*Engine
	ctx        context.Context
	directives []directive.Directive
	base       string
	report     *Report
}

func (r *run) visit(node assembly.Component, isRoot bool) {
	processed := r.report.Processed

	for _, p := range node.Parts() {
		if processed.Contains(p.Identity()) {
			r.skipDuplicate(p)
			continue
		}
		r.apply(p)
	}

	if !isRoot && !processed.Contains(node.Identity()) {
		r.apply(node)
	}

	for _, s := range node.Subassemblies() {
		if processed.Contains(s.Identity()) {
			r.skipDuplicate(s)
			continue
		}
		r.visit(s, false)
	}
}

// apply runs every matching directive on c and then marks c processed,
// whether or not anything matched.
func (r *run) apply(c assembly.Component) {
	for _, d := range r.directives {
		if d.AppliesTo(c) {
			r.exportPair(c, d)
		}
	}
	r.report.Processed.Add(c.Identity())
	r.rec.ComponentProcessed(c.Kind())
}

func (r *run) skipDuplicate(c assembly.Component) {
	r.report.Duplicates++
	r.rec.DuplicateSkipped(c.Kind())
	r.log.Debug("skipped duplicate occurrence",
		zap.String("identity", c.Identity()),
		zap.Stringer("kind", c.Kind()),
	)
}

func (r *run) exportPair(c assembly.Component, d directive.Directive) {
	log := r.log.With(
		zap.String("identity", c.Identity()),
		zap.Stringer("kind", c.Kind()),
		zap.String("format", d.Format().String()),
	)

	rel, err := d.ExportPath(c)
	if err != nil {
		log.Warn("cannot render export path", zap.String("template", d.Template()), zap.Error(err))
		r.report.TemplateFailures = append(r.report.TemplateFailures, &exporter.Failure{
			Identity: c.Identity(), Format: d.Format(), Err: err,
		})
		r.rec.ExportFinished(d.Format(), StatusTemplateError)
		return
	}
	dest := filepath.Join(r.base, rel)
	entry := Export{Identity: c.Identity(), Kind: c.Kind(), Format: d.Format(), Path: dest}

	if r.dryRun {
		log.Info("would export", zap.String("path", dest))
		r.report.Exported = append(r.report.Exported, entry)
		r.rec.ExportFinished(d.Format(), StatusPlanned)
		return
	}

	if err := r.write(c, d.Format(), dest); err != nil {
		log.Error("export failed", zap.String("path", dest), zap.Error(err))
		r.report.ExportFailures = append(r.report.ExportFailures, &exporter.Failure{
			Identity: c.Identity(), Format: d.Format(), Dest: dest, Err: err,
		})
		r.rec.ExportFinished(d.Format(), StatusExportError)
		return
	}
	log.Info("exported", zap.String("path", dest))
	r.report.Exported = append(r.report.Exported, entry)
	r.rec.ExportFinished(d.Format(), StatusExported)
}

func (r *run) write(c assembly.Component, format directive.Format, dest string) (err error) {
	if err := r.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("exporter panicked: %v", p)
		}
	}()
	return r.exporter.Export(r.ctx, c, format, dest)
}

type nopRecorder struct{}

func (nopRecorder) ComponentProcessed(assembly.Kind)         {}
func (nopRecorder) DuplicateSkipped(assembly.Kind)           {}
func (nopRecorder) ExportFinished(directive.Format, string)   {}
func (nopRecorder) PurgeFinished(directive.Format, int, int) {}
func (nopRecorder) RunFinished(time.Duration)                {}
