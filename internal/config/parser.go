package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/caltrack/caltrack/internal/domain/record"
	"github.com/caltrack/caltrack/internal/domain/template"
	caltrackerrors "github.com/caltrack/caltrack/pkg/errors"
)

// ParseTemplate reads, decodes and validates a template document, returning
// the domain template ready for evaluation. Unknown YAML keys are rejected
// so typos surface at authoring time, and the domain's own validation runs
// before the template is handed back. A template that parses here is safe
// to evaluate against.
func ParseTemplate(path string) (*template.Template, error) {
	var doc TemplateDoc
	if err := decodeStrict(path, &doc); err != nil {
		return nil, err
	}
	if err := validateDoc(path, &doc); err != nil {
		return nil, err
	}

	tmpl := templateToDomain(&doc)
	if err := tmpl.Validate(); err != nil {
		return nil, caltrackerrors.NewValidationError("", err.Error(), err)
	}
	return tmpl, nil
}

// ParseRecord reads and decodes a record worksheet. The referenced template
// path is resolved by the caller; only structural checks happen here.
func ParseRecord(path string) (*RecordDoc, error) {
	var doc RecordDoc
	if err := decodeStrict(path, &doc); err != nil {
		return nil, err
	}
	if err := validateDoc(path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Bindings converts the worksheet's value list into the record value map
// and edited set consumed by the evaluation engine.
func (d *RecordDoc) Bindings() (record.ValueMap, record.EditedSet) {
	values := make(record.ValueMap, len(d.Values))
	for _, v := range d.Values {
		values[record.FieldRef{Group: v.Group, Name: v.Field}] = v.Value
	}
	edited := make(record.EditedSet, len(d.Edited))
	for _, key := range d.Edited {
		edited.Mark(record.FieldRef{Group: key.Group, Name: key.Field})
	}
	return values, edited
}

func decodeStrict(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return caltrackerrors.NewParseError(path, 0, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
			// yaml.TypeError messages already embed "line N:".
			return caltrackerrors.NewParseError(path, 0, fmt.Errorf("%s", typeErr.Errors[0]))
		}
		return caltrackerrors.NewParseError(path, 0, err)
	}
	return nil
}

func validateDoc(path string, doc any) error {
	if err := validatorInstance().Struct(doc); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return caltrackerrors.NewParseError(path, 0, err)
		}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return caltrackerrors.NewValidationError(
				first.Namespace(),
				fmt.Sprintf("failed %q validation", first.Tag()),
				err,
			)
		}
		return caltrackerrors.NewValidationError("", err.Error(), err)
	}
	return nil
}

func templateToDomain(doc *TemplateDoc) *template.Template {
	tmpl := &template.Template{
		Name:        doc.Name,
		Description: doc.Description,
	}
	for i, f := range doc.Fields {
		field := template.Field{
			Name:      f.Name,
			Label:     f.Label,
			Type:      template.DataType(f.Type),
			Unit:      f.Unit,
			Group:     f.Group,
			SortOrder: f.SortOrder,
			Required:  f.Required,
			Nominal:   f.Nominal,

			AutofillFromFirstGroup: f.Autofill,
			DefaultValue:           f.DefaultValue,
			SigFigs:                f.SigFigs,
		}
		if field.SortOrder == 0 {
			field.SortOrder = i + 1
		}
		if f.Tolerance != nil {
			field.Tolerance = toleranceToDomain(f.Tolerance)
		}
		if f.Calc != nil {
			field.Calc = template.CalcSpec{
				Type: template.CalcType(f.Calc.Type),
				Refs: append([]string(nil), f.Calc.Refs...),
			}
		}
		tmpl.Fields = append(tmpl.Fields, field)
	}
	return tmpl
}

func toleranceToDomain(doc *ToleranceDoc) template.ToleranceSpec {
	spec := template.ToleranceSpec{
		Type:      template.ToleranceType(doc.Type),
		Fixed:     doc.Value,
		Percent:   doc.Percent,
		Reference: doc.Reference,
		Equation:  doc.Equation,
	}
	for _, row := range doc.Ranges {
		spec.Lookup = append(spec.Lookup, template.LookupEntry{
			Low:       row.Low,
			High:      row.High,
			Tolerance: row.Tolerance,
		})
	}
	if doc.PassWhen != nil {
		spec.PassWhenTrue = *doc.PassWhen
	} else {
		spec.PassWhenTrue = true
	}
	return spec
}
