// Package config reads and validates the YAML documents caltrack works
// with: template definitions authored by technicians and record worksheets
// holding entered values. Structural validation happens here; business
// rules live on the domain types.
package config

// TemplateDoc is the on-disk form of a calibration template.
type TemplateDoc struct {
	Version     string     `yaml:"version" validate:"required,docversion"`
	Name        string     `yaml:"name" validate:"required,min=1,max=100"`
	Description string     `yaml:"description,omitempty"`
	Fields      []FieldDoc `yaml:"fields" validate:"required,min=1,dive"`
}

// FieldDoc describes one measurement slot.
type FieldDoc struct {
	Name      string   `yaml:"name" validate:"required,field_name"`
	Label     string   `yaml:"label" validate:"required"`
	Type      string   `yaml:"type" validate:"required,oneof=text number bool date signature"`
	Unit      string   `yaml:"unit,omitempty"`
	Group     string   `yaml:"group,omitempty"`
	SortOrder int      `yaml:"sort_order"`
	Required  bool     `yaml:"required,omitempty"`
	Nominal   *float64 `yaml:"nominal,omitempty"`

	Tolerance *ToleranceDoc `yaml:"tolerance,omitempty"`
	Calc      *CalcDoc      `yaml:"calc,omitempty"`

	Autofill     bool   `yaml:"autofill,omitempty"`
	DefaultValue string `yaml:"default,omitempty"`
	SigFigs      int    `yaml:"sig_figs,omitempty" validate:"omitempty,min=0,max=15"`
}

// ToleranceDoc is the on-disk tagged tolerance variant.
type ToleranceDoc struct {
	Type string `yaml:"type" validate:"required,oneof=fixed percent equation lookup bool"`

	Value     float64     `yaml:"value,omitempty"`
	Percent   float64     `yaml:"percent,omitempty"`
	Reference string      `yaml:"reference,omitempty"`
	Equation  string      `yaml:"equation,omitempty"`
	Ranges    []LookupRow `yaml:"ranges,omitempty" validate:"omitempty,dive"`
	PassWhen  *bool       `yaml:"pass_when,omitempty"`
}

// LookupRow is one lookup-table interval.
type LookupRow struct {
	Low       float64 `yaml:"low"`
	High      float64 `yaml:"high"`
	Tolerance float64 `yaml:"tolerance"`
}

// CalcDoc is the on-disk computed-field specification.
type CalcDoc struct {
	Type string   `yaml:"type" validate:"required,oneof=abs_diff pct_error pct_diff min_of max_of range_of"`
	Refs []string `yaml:"refs" validate:"required,min=1,dive,field_name"`
}

// RecordDoc is the on-disk form of a record worksheet: the operator's
// entered values for one calibration session.
type RecordDoc struct {
	Template   string     `yaml:"template" validate:"required"`
	Instrument string     `yaml:"instrument,omitempty"`
	Date       string     `yaml:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Technician string     `yaml:"technician,omitempty"`
	Values     []ValueDoc `yaml:"values" validate:"omitempty,dive"`
	Edited     []FieldKey `yaml:"edited,omitempty" validate:"omitempty,dive"`
}

// ValueDoc binds one field instance to its entered value.
type ValueDoc struct {
	Group string `yaml:"group,omitempty"`
	Field string `yaml:"field" validate:"required,field_name"`
	Value string `yaml:"value"`
}

// FieldKey addresses a field instance without a value, used for the
// explicit-edit list.
type FieldKey struct {
	Group string `yaml:"group,omitempty"`
	Field string `yaml:"field" validate:"required,field_name"`
}
