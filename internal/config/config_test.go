package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/neutralizer/internal/assembly"
	"github.com/agentic-research/neutralizer/internal/directive"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const xmlConfig = `<?xml version="1.0"?>
<ExportConfiguration>
  <BaseExportPath>Exports</BaseExportPath>
  <ExportDirectiveList>
    <ExportDirective>
      <type>STEP214</type>
      <RelativeExportPath>STEP/{Number}_{Name}.stp</RelativeExportPath>
      <PurgeDirectoryBeforeExporting>STEP</PurgeDirectoryBeforeExporting>
      <EnableRootAssemblyExport>no</EnableRootAssemblyExport>
      <EnableSubassemblyExport>Y</EnableSubassemblyExport>
      <EnablePartExport/>
    </ExportDirective>
    <ExportDirective>
      <type>CSV_Properties</type>
      <RelativeExportPath>props/{Name}.csv</RelativeExportPath>
    </ExportDirective>
  </ExportDirectiveList>
  <ConverterList>
    <Converter format="STEP214">
      <Command>cadconv {source} {dest}</Command>
      <Timeout>2m</Timeout>
    </Converter>
  </ConverterList>
</ExportConfiguration>
`

func TestLoad_XML(t *testing.T) {
	path := writeConfig(t, "export.xml", xmlConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "Exports"), cfg.Base)
	require.Len(t, cfg.Directives, 2)

	step := cfg.Directives[0]
	assert.Equal(t, directive.STEP214, step.Format())
	assert.Equal(t, "STEP/{Number}_{Name}.stp", step.Template())
	assert.Equal(t, "STEP", step.PurgeSubtree())
	assert.False(t, step.AppliesTo(assembly.NewRoot("/r", nil)))
	assert.True(t, step.AppliesTo(assembly.NewSubassembly("/s", nil)))
	assert.True(t, step.AppliesTo(assembly.NewPart("/p", nil)), "empty element keeps the default")

	csv := cfg.Directives[1]
	assert.Equal(t, directive.CSVProperties, csv.Format())
	assert.Empty(t, csv.PurgeSubtree())
	assert.True(t, csv.AppliesTo(assembly.NewRoot("/r", nil)))

	require.Len(t, cfg.Converters, 1)
	assert.Equal(t, Converter{Format: directive.STEP214, Command: "cadconv {source} {dest}", Timeout: 2 * time.Minute}, cfg.Converters[0])
}

func TestXMLBool(t *testing.T) {
	for in, want := range map[string]bool{
		"true": true, "TRUE": true, "1": true, "yes": true, " y ": true,
		"false": false, "0": false, "no": false, "on": false, "enabled": false,
	} {
		assert.Equal(t, want, xmlBool(in), in)
	}
	assert.Nil(t, xmlFlag(nil))
	empty := ""
	assert.Nil(t, xmlFlag(&empty))
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "export.json", `{
  "basePath": "/srv/exports",
  "preserveSpaces": true,
  "directives": [
    {"type": "STEP", "relativeExportPath": "{Name}.stp", "enablePartExport": false},
    {"type": "STL", "relativeExportPath": "mesh/{Name}.stl", "purgeDirectory": "mesh"}
  ]
}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.FromSlash("/srv/exports"), cfg.Base)
	require.Len(t, cfg.Directives, 2)
	assert.Equal(t, directive.STEP214, cfg.Directives[0].Format(), "STEP is an alias")
	assert.False(t, cfg.Directives[0].AppliesTo(assembly.NewPart("/p", nil)))
	assert.Equal(t, "mesh", cfg.Directives[1].PurgeSubtree())

	rel, err := cfg.Directives[0].ExportPath(assembly.NewRoot("/r", map[string]string{"Name": "Main Frame"}))
	require.NoError(t, err)
	assert.Equal(t, "Main Frame.stp", rel)
}

func TestLoad_HCL(t *testing.T) {
	path := writeConfig(t, "export.hcl", `
base_path = "out"

directive "IGES" {
  relative_export_path        = "iges/{Number}.igs"
  purge_directory             = "iges"
  enable_root_assembly_export = false
}

directive "CSV_Parameters" {
  relative_export_path = "params/{Name}.csv"
}

converter "IGES" {
  command = "cadconv --to iges {source} {dest}"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "out"), cfg.Base)
	require.Len(t, cfg.Directives, 2)
	assert.Equal(t, directive.IGES, cfg.Directives[0].Format())
	assert.False(t, cfg.Directives[0].AppliesTo(assembly.NewRoot("/r", nil)))
	assert.True(t, cfg.Directives[0].AppliesTo(assembly.NewPart("/p", nil)))
	assert.Equal(t, directive.CSVParameters, cfg.Directives[1].Format())
	require.Len(t, cfg.Converters, 1)
	assert.Zero(t, cfg.Converters[0].Timeout)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "export.toml", `
base_path = "../shared"

[[directive]]
type = "SAT"
relative_export_path = "sat/{Name}.sat"
enable_subassembly_export = false

[[converter]]
format = "SAT"
command = "cadconv {source} {dest}"
timeout = "30s"
`)
	cfg, err := Load(path, WithAnchor("/projects/widget/config"))
	require.NoError(t, err)

	assert.Equal(t, filepath.FromSlash("/projects/widget/shared"), cfg.Base)
	assert.Equal(t, filepath.FromSlash("/projects/widget/config"), cfg.Anchor)
	require.Len(t, cfg.Directives, 1)
	assert.False(t, cfg.Directives[0].AppliesTo(assembly.NewSubassembly("/s", nil)))
	assert.Equal(t, 30*time.Second, cfg.Converters[0].Timeout)
}

func TestLoad_DefaultBase(t *testing.T) {
	path := writeConfig(t, "export.json", `{"directives": [{"type": "STL", "relativeExportPath": "{Name}.stl"}]}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(path), cfg.Base)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name, file, content, want string
	}{
		{"unknown type", "c.json", `{"directives": [{"type": "DWG", "relativeExportPath": "x"}]}`, "directives[0].type must be one of"},
		{"missing path", "c.json", `{"directives": [{"type": "STL"}]}`, "directives[0].relativeExportPath is a required field"},
		{"no directives", "c.json", `{"basePath": "x"}`, "directives is a required field"},
		{"unknown field", "c.json", `{"directives": [], "colour": "red"}`, "unknown field"},
		{"bad timeout", "c.json", `{"directives": [{"type": "STL", "relativeExportPath": "x"}], "converters": [{"format": "STL", "command": "x", "timeout": "soon"}]}`, "converters[0].timeout must be a non-negative duration"},
		{"duplicate converter", "c.json", `{"directives": [{"type": "STL", "relativeExportPath": "x"}], "converters": [{"format": "STL", "command": "a"}, {"format": "STL", "command": "b"}]}`, "second converter for STL"},
		{"malformed xml", "c.xml", `<ExportConfiguration><BaseExportPath>`, "decode xml"},
		{"xml unknown type", "c.xml", `<C><ExportDirectiveList><ExportDirective><type>STEP999</type><RelativeExportPath>x</RelativeExportPath></ExportDirective></ExportDirectiveList></C>`, "must be one of"},
		{"hcl syntax", "c.hcl", `directive "STL" {`, "parse hcl"},
		{"hcl missing attribute", "c.hcl", `directive "STL" {}`, "decode hcl"},
		{"toml unknown key", "c.toml", "[[directive]]\ntype = \"STL\"\nrelative_export_path = \"x\"\ncolour = \"red\"\n", "unknown keys directive.colour"},
		{"extension", "c.yaml", `directives: []`, "unsupported configuration format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.xml"))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestResolveBase(t *testing.T) {
	abs, err := ResolveBase("/data/out", "/ignored")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/data/out"), abs)

	abs, err = ResolveBase("out/../exports", "/cfg")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/cfg/exports"), abs)

	abs, err = ResolveBase("", "/cfg")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/cfg"), abs)

	wd, err := os.Getwd()
	require.NoError(t, err)
	abs, err = ResolveBase("x", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "x"), abs)
}
