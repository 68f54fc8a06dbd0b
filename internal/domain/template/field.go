package template

import (
	"regexp"
	"sort"
)

var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DataType enumerates the value kinds a field can hold.
type DataType string

const (
	DataTypeText      DataType = "text"
	DataTypeNumber    DataType = "number"
	DataTypeBool      DataType = "bool"
	DataTypeDate      DataType = "date"
	DataTypeSignature DataType = "signature"
)

var validDataTypes = []DataType{
	DataTypeText,
	DataTypeNumber,
	DataTypeBool,
	DataTypeDate,
	DataTypeSignature,
}

// ToleranceType tags the tolerance variant carried by a field.
type ToleranceType string

const (
	ToleranceNone     ToleranceType = ""
	ToleranceFixed    ToleranceType = "fixed"
	TolerancePercent  ToleranceType = "percent"
	ToleranceEquation ToleranceType = "equation"
	ToleranceLookup   ToleranceType = "lookup"
	ToleranceBool     ToleranceType = "bool"
)

// LookupEntry is one row of a lookup-table tolerance: the first entry whose
// inclusive [Low, High] interval contains the nominal supplies the bound.
type LookupEntry struct {
	Low       float64
	High      float64
	Tolerance float64
}

// ToleranceSpec is a tagged variant; only the attributes for the active
// Type are meaningful.
type ToleranceSpec struct {
	Type ToleranceType

	Fixed        float64       // ToleranceFixed
	Percent      float64       // TolerancePercent
	Reference    string        // TolerancePercent: name resolved from bindings, defaults to nominal
	Equation     string        // ToleranceEquation
	Lookup       []LookupEntry // ToleranceLookup
	PassWhenTrue bool          // ToleranceBool
}

// CalcType tags a computed-field derivation. Computed fields are a closed
// enumeration, never user-authored expressions.
type CalcType string

const (
	CalcNone     CalcType = ""
	CalcAbsDiff  CalcType = "abs_diff"
	CalcPctError CalcType = "pct_error"
	CalcPctDiff  CalcType = "pct_diff"
	CalcMinOf    CalcType = "min_of"
	CalcMaxOf    CalcType = "max_of"
	CalcRangeOf  CalcType = "range_of"
)

// maxCalcRefs caps the reference list of the reducer calc types.
const maxCalcRefs = 12

// CalcSpec describes how a computed field derives its value from sibling
// fields, referenced by name. For CalcPctError, Refs[0] is the measured
// value and Refs[1] the reference.
type CalcSpec struct {
	Type CalcType
	Refs []string
}

// Field describes one measurement slot in a template group.
type Field struct {
	Name      string
	Label     string
	Type      DataType
	Unit      string // opaque display label, never an operand
	Group     string
	SortOrder int
	Required  bool

	Nominal      *float64 // expected value for tolerance-checked fields
	Tolerance    ToleranceSpec
	Calc         CalcSpec
	AutofillFromFirstGroup bool

	DefaultValue string
	SigFigs      int
}

// IsComputed reports whether the field's value is derived rather than
// entered directly.
func (f Field) IsComputed() bool {
	return f.Calc.Type != CalcNone
}

// Group is a named, ordered subset of template fields that may repeat per
// measurement point.
type Group struct {
	Name   string
	Fields []Field
}

// Template is a reusable definition of calibration fields, grouped and
// ordered, authored once and reused across many calibration records.
type Template struct {
	Name        string
	Description string
	Fields      []Field
}

// Groups returns the group sequence ordered by the ascending sort order of
// each group's first field, with in-group fields ordered the same way. The
// first group of the sequence is the only autofill source.
func (t *Template) Groups() []Group {
	type bucket struct {
		name     string
		minOrder int
		fields   []Field
	}
	index := make(map[string]*bucket)
	var order []*bucket
	for _, f := range t.Fields {
		b, ok := index[f.Group]
		if !ok {
			b = &bucket{name: f.Group, minOrder: f.SortOrder}
			index[f.Group] = b
			order = append(order, b)
		}
		if f.SortOrder < b.minOrder {
			b.minOrder = f.SortOrder
		}
		b.fields = append(b.fields, f)
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].minOrder < order[j].minOrder })

	groups := make([]Group, 0, len(order))
	for _, b := range order {
		fields := append([]Field(nil), b.fields...)
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].SortOrder < fields[j].SortOrder })
		groups = append(groups, Group{Name: b.name, Fields: fields})
	}
	return groups
}

// FieldByName returns the first field carrying the given name, by sort
// order across the whole template.
func (t *Template) FieldByName(name string) (Field, bool) {
	found := false
	var match Field
	for _, f := range t.Fields {
		if f.Name != name {
			continue
		}
		if !found || f.SortOrder < match.SortOrder {
			match = f
			found = true
		}
	}
	return match, found
}

func isValidDataType(dt DataType) bool {
	for _, candidate := range validDataTypes {
		if candidate == dt {
			return true
		}
	}
	return false
}
