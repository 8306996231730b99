// Package fields is the registry of component metadata fields that path
// templates may reference.
package fields

import "sort"

// Field is a named metadata attribute together with the label substituted
// when a component leaves it empty.
type Field struct {
	Name        string
	Placeholder string
}

// registry is kept in template-name order. Human labels are not always a
// mechanical split of the name ("Number" is a part number, "CreatedBy" a creator).
var registry = []Field{
	{"Comment", "Undefined Comment"},
	{"CostCenter", "Undefined Cost Center"},
	{"CreatedBy", "Undefined Creator"},
	{"CreatedDate", "Undefined Creation Date"},
	{"CreatingApplication", "Undefined Creating Application"},
	{"Density", "Undefined Density"},
	{"Description", "Undefined Description"},
	{"DocumentNumber", "Undefined Document Number"},
	{"EngineeringApprovalDate", "Undefined Engineering Approval Date"},
	{"EngineeringApprovedBy", "Undefined Engineering Approver"},
	{"EstimatedCost", "Undefined Estimated Cost"},
	{"FileName", "Undefined File Name"},
	{"Keywords", "Undefined Keywords"},
	{"LastAuthor", "Undefined Last Author"},
	{"LastUpdateDate", "Undefined Last Update Date"},
	{"ManufacturingApprovedBy", "Undefined Manufacturing Approved By"},
	{"ModifiedInformation", "Undefined Modified Information"},
	{"Name", "Undefined Name"},
	{"Number", "Undefined Part Number"},
	{"Product", "Undefined Product"},
	{"ReceivedFrom", "Undefined Received From"},
	{"Revision", "Undefined Revision"},
	{"StockSize", "Undefined Stock Size"},
	{"Supplier", "Undefined Supplier"},
	{"Title", "Undefined Title"},
	{"Vendor", "Undefined Vendor"},
	{"WebLink", "Undefined Web Link"},
}

var byName = func() map[string]Field {
	m := make(map[string]Field, len(registry))
	for _, f := range registry {
		m[f.Name] = f
	}
	return m
}()

// Well-known field names used outside of templates.
const (
	FileName = "FileName"
	Name     = "Name"
	Number   = "Number"
)

// All returns a copy of the registry in its declared order.
func All() []Field {
	out := make([]Field, len(registry))
	copy(out, registry)
	return out
}

// Names returns every registered field name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, f := range registry {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the field registered under name.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// Placeholder returns the "Undefined ..." label for name, or "" if name is
// not registered.
func Placeholder(name string) string {
	return byName[name].Placeholder
}
