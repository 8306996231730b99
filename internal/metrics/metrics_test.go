package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/neutralizer/internal/assembly"
	"github.com/agentic-research/neutralizer/internal/directive"
	"github.com/agentic-research/neutralizer/internal/engine"
)

var _ engine.Recorder = (*Recorder)(nil)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRecorder(reg)

	m.ComponentProcessed(assembly.Part)
	m.ComponentProcessed(assembly.Part)
	m.ComponentProcessed(assembly.Subassembly)
	m.DuplicateSkipped(assembly.Part)
	m.ExportFinished(directive.STEP214, engine.StatusExported)
	m.ExportFinished(directive.STEP214, engine.StatusExportError)
	m.PurgeFinished(directive.STL, 3, 1)
	m.RunFinished(2 * time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ComponentsProcessed.WithLabelValues("Part")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComponentsProcessed.WithLabelValues("Subassembly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesSkipped.WithLabelValues("Part")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("STEP214", "export_error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.FilesPurged.WithLabelValues("STL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PurgeFailures.WithLabelValues("STL")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
	assert.Greater(t, testutil.ToFloat64(m.LastRun), 0.0)
}

func TestRecorder_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRecorder(prometheus.NewRegistry())
		NewRecorder(prometheus.NewRegistry())
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRecorder(reg)
	m.ExportFinished(directive.SAT, engine.StatusExported)

	path := filepath.Join(t.TempDir(), "neutralizer.prom")
	require.NoError(t, WriteTextfile(reg, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `neutralizer_exports_total{format="SAT",status="exported"} 1`)

	err = WriteTextfile(reg, filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
