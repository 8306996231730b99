package cmd

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treeJSON = `{
  "assembly": {
    "identity": "/models/frame.AD_ASM",
    "fields": {"Name": "Frame", "Number": "F-1"},
    "parts": [
      {"identity": "/models/rail.AD_PRT", "fields": {"Name": "Rail", "Number": "R-1"},
       "parameters": [{"name": "Length", "value": "500", "units": "mm"}]},
      {"identity": "/models/bolt.AD_PRT", "fields": {"Name": "Bolt <M6>"}}
    ],
    "subassemblies": [
      {"identity": "/models/corner.AD_ASM", "fields": {"Name": "Corner"},
       "parts": [{"identity": "/models/bolt.AD_PRT", "fields": {"Name": "Bolt <M6>"}}]}
    ]
  }
}`

const configXML = `<ExportConfiguration>
  <BaseExportPath>out</BaseExportPath>
  <ExportDirectiveList>
    <ExportDirective>
      <type>CSV_Properties</type>
      <RelativeExportPath>props/{Name}.csv</RelativeExportPath>
      <PurgeDirectoryBeforeExporting>props</PurgeDirectoryBeforeExporting>
    </ExportDirective>
    <ExportDirective>
      <type>CSV_Parameters</type>
      <RelativeExportPath>params/{Number}.csv</RelativeExportPath>
      <EnableRootAssemblyExport>false</EnableRootAssemblyExport>
      <EnableSubassemblyExport>false</EnableSubassemblyExport>
    </ExportDirective>
  </ExportDirectiveList>
</ExportConfiguration>`

type fixture struct {
	dir, config, tree string
}

func newFixture(t *testing.T, config string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{dir: dir, config: filepath.Join(dir, "export.xml"), tree: filepath.Join(dir, "tree.json")}
	require.NoError(t, os.WriteFile(f.config, []byte(config), 0o644))
	require.NoError(t, os.WriteFile(f.tree, []byte(treeJSON), 0o644))
	return f
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	exportFlags = runFlags{}
	planFlags = runFlags{}
	buildSelector = ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExport(t *testing.T) {
	f := newFixture(t, configXML)
	stale := filepath.Join(f.dir, "out", "props", "Removed Part.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	metricsFile := filepath.Join(f.dir, "run.prom")

	out, err := execute(t, "export", "--config", f.config, "--tree", f.tree, "--select", "$.assembly", "--metrics-file", metricsFile)
	require.NoError(t, err)

	assert.Contains(t, out, "Processed 3 components.")
	assert.Contains(t, out, "Exported 6 files to "+filepath.Join(f.dir, "out")+".")
	assert.Contains(t, out, "Purged 1 stale files.")
	assert.Contains(t, out, "Skipped 1 duplicate occurrences.")

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	for _, name := range []string{"Frame.csv", "Rail.csv", "Bolt__M6_.csv", "Corner.csv"} {
		assert.FileExists(t, filepath.Join(f.dir, "out", "props", name))
	}

	params, err := os.Open(filepath.Join(f.dir, "out", "params", "R-1.csv"))
	require.NoError(t, err)
	defer func() { _ = params.Close() }()
	rows, err := csv.NewReader(params).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Length", "", "500", "mm", "", ""}, rows[1])
	assert.FileExists(t, filepath.Join(f.dir, "out", "params", "Undefined_Part_Number.csv"))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `neutralizer_exports_total{format="CSV_Properties",status="exported"} 4`)
}

func TestPlan_TouchesNothing(t *testing.T) {
	f := newFixture(t, configXML)
	stale := filepath.Join(f.dir, "out", "props", "old.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	out, err := execute(t, "plan", "--config", f.config, "--tree", f.tree, "--select", "$.assembly")
	require.NoError(t, err)

	assert.Contains(t, out, "purge  "+stale)
	assert.Contains(t, out, filepath.Join(f.dir, "out", "props", "Rail.csv"))
	assert.Contains(t, out, "Would export 6 files")
	assert.FileExists(t, stale)
	assert.NoFileExists(t, filepath.Join(f.dir, "out", "props", "Rail.csv"))
}

func TestExport_AnchorOverride(t *testing.T) {
	f := newFixture(t, configXML)
	anchor := t.TempDir()

	_, err := execute(t, "export", "-c", f.config, "-t", f.tree, "--select", "$.assembly", "--anchor", anchor)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(anchor, "out", "props", "Frame.csv"))
}

func TestExport_UnsupportedFormatIsFatal(t *testing.T) {
	f := newFixture(t, `<C><BaseExportPath>out</BaseExportPath><ExportDirectiveList>
<ExportDirective><type>STEP214</type><RelativeExportPath>{Name}.stp</RelativeExportPath></ExportDirective>
</ExportDirectiveList></C>`)

	_, err := execute(t, "export", "--config", f.config, "--tree", f.tree, "--select", "$.assembly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STEP214")
	assert.NoDirExists(t, filepath.Join(f.dir, "out"))
}

func TestExport_BadConfig(t *testing.T) {
	f := newFixture(t, `<C><ExportDirectiveList><ExportDirective><type>DXF</type></ExportDirective></ExportDirectiveList></C>`)
	_, err := execute(t, "export", "--config", f.config, "--tree", f.tree)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}

func TestFields(t *testing.T) {
	out, err := execute(t, "fields")
	require.NoError(t, err)
	assert.Contains(t, out, "{Number}")
	assert.Contains(t, out, "Undefined Part Number")
	assert.Contains(t, out, "CSV of Component Properties")
}

func TestBuild_ThenExportFromSQLite(t *testing.T) {
	f := newFixture(t, configXML)
	db := filepath.Join(f.dir, "tree.db")

	out, err := execute(t, "build", f.tree, db, "--select", "$.assembly")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+db)

	out, err = execute(t, "export", "--config", f.config, "--tree", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Processed 3 components.")
	assert.FileExists(t, filepath.Join(f.dir, "out", "props", "Corner.csv"))
}

func TestHostFS_KeepsAbsolutePaths(t *testing.T) {
	fs := hostFS()
	dest := filepath.Join(t.TempDir(), "step", "part.stp")
	assert.Equal(t, dest, fs.Join(fs.Root(), dest))

	require.NoError(t, fs.MkdirAll(filepath.Dir(dest), 0o755))
	f, err := fs.Create(dest)
	require.NoError(t, err)
	_, err = f.Write([]byte("solid"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "solid", string(data))
}
