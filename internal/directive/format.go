package directive

import (
	"fmt"
	"sort"
)

// Format is a neutral output format.
type Format int

const (
	STEP203 Format = iota + 1
	STEP214
	SAT
	STL
	IGES
	CSVProperties
	CSVParameters
)

// Formats lists every format in declaration order.
var Formats = []Format{STEP203, STEP214, SAT, STL, IGES, CSVProperties, CSVParameters}

// String returns the configuration name of the format.
func (f Format) String() string {
	switch f {
	case STEP203:
		return "STEP203"
	case STEP214:
		return "STEP214"
	case SAT:
		return "SAT"
	case STL:
		return "STL"
	case IGES:
		return "IGES"
	case CSVProperties:
		return "CSV_Properties"
	case CSVParameters:
		return "CSV_Parameters"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// DisplayName is the human readable name used in run output.
func (f Format) DisplayName() string {
	switch f {
	case CSVProperties:
		return "CSV of Component Properties"
	case CSVParameters:
		return "CSV of Component Parameters"
	default:
		return f.String()
	}
}

// Extensions returns the file extensions a format may be written with,
// including the leading dot. Unknown formats have none.
func (f Format) Extensions() []string {
	switch f {
	case STEP203, STEP214:
		return []string{".stp", ".step"}
	case SAT:
		return []string{".sat"}
	case STL:
		return []string{".stl"}
	case IGES:
		return []string{".iges", ".igs"}
	case CSVProperties, CSVParameters:
		return []string{".csv"}
	default:
		return nil
	}
}

// Valid reports whether f is one of the declared formats.
func (f Format) Valid() bool {
	return f >= STEP203 && f <= CSVParameters
}

// aliases maps accepted configuration spellings to formats.
var aliases = map[string]Format{
	"STEP": STEP214,
}

// ParseFormat resolves a configuration format name. "STEP" is accepted as
// STEP214.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if f.String() == name {
			return f, nil
		}
	}
	if f, ok := aliases[name]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown export type %q (valid: %v)", name, FormatNames())
}

// FormatNames returns every accepted configuration name, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(Formats)+len(aliases))
	for _, f := range Formats {
		names = append(names, f.String())
	}
	for a := range aliases {
		names = append(names, a)
	}
	sort.Strings(names)
	return names
}
