package api

// Config is the root of an export configuration document.
// It maps an assembly tree to a set of neutral files under BasePath.
type Config struct {
	// BasePath is the export root. Relative paths are resolved against the
	// directory containing the configuration document.
	BasePath string `json:"basePath" toml:"base_path" hcl:"base_path,optional"`
	// PreserveSpaces keeps spaces in rendered export paths.
	PreserveSpaces bool `json:"preserveSpaces,omitempty" toml:"preserve_spaces" hcl:"preserve_spaces,optional"`
	// Directives are applied in order to every component.
	Directives []Directive `json:"directives" toml:"directive" hcl:"directive,block" validate:"required,min=1,dive"`
	// Converters produce geometry formats through an external command.
	Converters []Converter `json:"converters,omitempty" toml:"converter" hcl:"converter,block" validate:"dive"`
}

// Directive is one export rule.
type Directive struct {
	// Type is the export format name, e.g. "STEP214" or "CSV_Properties".
	Type string `json:"type" toml:"type" hcl:"type,label" validate:"required,export_format"`
	// RelativeExportPath is a template such as "STEP/{Number}_{Name}.stp".
	RelativeExportPath string `json:"relativeExportPath" toml:"relative_export_path" hcl:"relative_export_path" validate:"required"`
	// PurgeDirectory, relative to the base path, is cleared of this format's
	// files before anything is exported.
	PurgeDirectory string `json:"purgeDirectory,omitempty" toml:"purge_directory" hcl:"purge_directory,optional"`

	// Inclusion flags. Nil means enabled.
	EnableRootAssemblyExport *bool `json:"enableRootAssemblyExport,omitempty" toml:"enable_root_assembly_export" hcl:"enable_root_assembly_export,optional"`
	EnableSubassemblyExport  *bool `json:"enableSubassemblyExport,omitempty" toml:"enable_subassembly_export" hcl:"enable_subassembly_export,optional"`
	EnablePartExport         *bool `json:"enablePartExport,omitempty" toml:"enable_part_export" hcl:"enable_part_export,optional"`
}

// Converter runs an external program to write one format.
type Converter struct {
	// Format is the export format name the converter produces.
	Format string `json:"format" toml:"format" hcl:"format,label" validate:"required,export_format"`
	// Command is a shell-like command line. {source}, {dest} and {format}
	// are substituted per argument.
	Command string `json:"command" toml:"command" hcl:"command" validate:"required"`
	// Timeout is a Go duration string; empty means no limit.
	Timeout string `json:"timeout,omitempty" toml:"timeout" hcl:"timeout,optional" validate:"omitempty,duration"`
}

// Component is one node of an assembly manifest.
// The top-level component is the root assembly; the kind of every other
// component follows from the list it appears in.
type Component struct {
	// Identity is the absolute path of the component's source file.
	// Defaults to Fields["FileName"].
	Identity      string            `json:"identity,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	Parameters    []Parameter       `json:"parameters,omitempty"`
	Parts         []Component       `json:"parts,omitempty"`
	Subassemblies []Component       `json:"subassemblies,omitempty"`
}

// Parameter is a named design parameter (dimension, equation) of a component.
type Parameter struct {
	Name     string `json:"name"`
	Equation string `json:"equation,omitempty"`
	Value    string `json:"value,omitempty"`
	Units    string `json:"units,omitempty"`
	Type     string `json:"type,omitempty"`
	Comment  string `json:"comment,omitempty"`
}
