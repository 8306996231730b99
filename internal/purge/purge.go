// Package purge deletes stale exported files before a run writes new ones.
package purge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"

	"github.com/agentic-research/neutralizer/internal/directive"
)

// Failure is a file that could not be deleted.
type Failure struct {
	Path string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("purge %s: %v", f.Path, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Result summarises one directive's purge.
type Result struct {
	Dir      string
	Removed  []string // in DryRun: files that would be removed
	Failures []*Failure
}

// Purger removes files of a directive's format extensions under its purge
// subtree.
type Purger struct {
	fs     billy.Filesystem
	log    *zap.Logger
	dryRun bool
}

// New creates a Purger. A nil logger discards diagnostics.
func New(fs billy.Filesystem, log *zap.Logger) *Purger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Purger{fs: fs, log: log}
}

// DryRun makes the purger report matching files without deleting them.
func (p *Purger) DryRun(enabled bool) *Purger {
	p.dryRun = enabled
	return p
}

// Dir resolves a directive's purge subtree against the absolute base.
// It returns "" when the directive has no purge configured.
func Dir(d directive.Directive, base string) string {
	sub := d.PurgeSubtree()
	if sub == "" {
		return ""
	}
	sub = filepath.FromSlash(sub)
	if filepath.IsAbs(sub) {
		return filepath.Clean(sub)
	}
	return filepath.Join(base, sub)
}

// Purge deletes every file under the directive's purge subtree whose
// extension belongs to the directive's format. A missing directory is a
// no-op. Per-file failures are logged and collected; they never stop the walk.
func (p *Purger) Purge(d directive.Directive, base string) Result {
	exts := d.ExtensionsToPurge()
	dir := Dir(d, base)
	res := Result{Dir: dir}
	if len(exts) == 0 || dir == "" {
		return res
	}

	log := p.log.With(zap.String("format", d.Format().String()), zap.String("dir", dir))

	info, err := p.fs.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug("purge directory does not exist, nothing to purge")
		return res
	case err != nil:
		log.Warn("cannot stat purge directory", zap.Error(err))
		res.Failures = append(res.Failures, &Failure{Path: dir, Err: err})
		return res
	case !info.IsDir():
		log.Warn("purge path is not a directory, skipping")
		return res
	}

	_ = util.Walk(p.fs, dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			log.Warn("cannot read during purge", zap.String("path", path), zap.Error(err))
			res.Failures = append(res.Failures, &Failure{Path: path, Err: err})
			return nil
		}
		if fi.IsDir() || !hasExtension(fi.Name(), exts) {
			return nil
		}
		if p.dryRun {
			log.Info("would purge", zap.String("path", path))
			res.Removed = append(res.Removed, path)
			return nil
		}
		if err := p.fs.Remove(path); err != nil {
			log.Error("could not delete file in pre-export purge", zap.String("path", path), zap.Error(err))
			res.Failures = append(res.Failures, &Failure{Path: path, Err: err})
			return nil
		}
		log.Debug("purged", zap.String("path", path))
		res.Removed = append(res.Removed, path)
		return nil
	})

	return res
}

// hasExtension matches case-insensitively, so "PART.STP" is purged by STEP.
func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
