package exporter

import (
	"context"
	"encoding/csv"
	"fmt"

	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/neutralizer/internal/assembly"
	"github.com/agentic-research/neutralizer/internal/directive"
	"github.com/agentic-research/neutralizer/internal/fields"
)

// CSVProperties writes a component's metadata as "Property Name,Value" rows.
// FileName is left out: it is an absolute local path and does not belong in
// shared output.
type CSVProperties struct {
	fs billy.Filesystem
}

func NewCSVProperties(fs billy.Filesystem) *CSVProperties {
	return &CSVProperties{fs: fs}
}

func (e *CSVProperties) Export(_ context.Context, c assembly.Component, _ directive.Format, dest string) error {
	rows := [][]string{{"Property Name", "Value"}}
	for _, f := range fields.All() {
		if f.Name == fields.FileName {
			continue
		}
		v, _ := c.Get(f.Name)
		rows = append(rows, []string{f.Name, v})
	}
	return writeCSV(e.fs, dest, rows)
}

// CSVParameters writes a component's design parameters, one per row, in the
// column order of the CAD equation editor.
type CSVParameters struct {
	fs billy.Filesystem
}

func NewCSVParameters(fs billy.Filesystem) *CSVParameters {
	return &CSVParameters{fs: fs}
}

func (e *CSVParameters) Export(_ context.Context, c assembly.Component, _ directive.Format, dest string) error {
	rows := [][]string{{"Name", "Equation", "Value", "Units", "Type", "Comment"}}
	for _, p := range c.Parameters() {
		rows = append(rows, []string{p.Name, p.Equation, p.Value, p.Units, p.Type, p.Comment})
	}
	return writeCSV(e.fs, dest, rows)
}

func writeCSV(fs billy.Filesystem, dest string, rows [][]string) (err error) {
	f, err := fs.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", dest, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
