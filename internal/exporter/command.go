package exporter

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/google/shlex"

	"github.com/agentic-research/neutralizer/internal/assembly"
	"github.com/agentic-research/neutralizer/internal/directive"
)

// waitDelay bounds how long a killed converter's children may hold its output.
const waitDelay = 2 * time.Second

// Command exports by running an external converter, e.g.
//
//	cadconv --in {source} --out {dest} --as {format}
//
// The command line is split once, shell style; placeholders are substituted
// per argument so paths with spaces need no quoting.
type Command struct {
	fs      billy.Filesystem
	args    []string
	timeout time.Duration
}

// NewCommand parses commandLine. fs is used to confirm the converter wrote
// its destination. A zero timeout means no limit.
func NewCommand(fs billy.Filesystem, commandLine string, timeout time.Duration) (*Command, error) {
	args, err := shlex.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("parse converter command %q: %w", commandLine, err)
	}
	if len(args) == 0 {
		return nil, errors.New("converter command is empty")
	}
	return &Command{fs: fs, args: args, timeout: timeout}, nil
}

// Args returns the command line for c without running it.
func (e *Command) Args(c assembly.Component, format directive.Format, dest string) []string {
	r := strings.NewReplacer(
		"{source}", c.Identity(),
		"{dest}", dest,
		"{format}", format.String(),
	)
	out := make([]string, len(e.args))
	for i, a := range e.args {
		out[i] = r.Replace(a)
	}
	return out
}

func (e *Command) Export(ctx context.Context, c assembly.Component, format directive.Format, dest string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := e.Args(c, format, dest)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.WaitDelay = waitDelay
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("converter %s: %w", args[0], ctx.Err())
		}
		return fmt.Errorf("converter %s failed: %w\n%s", args[0], err, strings.TrimSpace(string(output)))
	}
	if _, err := e.fs.Stat(dest); err != nil {
		return fmt.Errorf("converter %s did not write %s: %w", args[0], dest, err)
	}
	return nil
}
