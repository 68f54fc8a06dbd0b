package template

import (
	"fmt"

	"github.com/caltrack/caltrack/internal/expr"
)

// Reserved binding names always supplied by the evaluation caller. Fields
// may not shadow them.
var reservedNames = map[string]struct{}{
	"nominal": {},
	"reading": {},
}

// Validate ensures the template satisfies all business rules: well-formed
// field names, unique names per group, and tolerance/calc specifications
// whose references and equations resolve. Equations are parsed eagerly here
// so an authoring error blocks the save instead of surfacing mid-record.
func (t *Template) Validate() error {
	if t.Name == "" {
		return newMissingFieldError("name")
	}
	if len(t.Fields) == 0 {
		return newValidationError("template requires at least one field", map[string]interface{}{"template": t.Name})
	}

	known := make(map[string]struct{}, len(t.Fields))
	perGroup := make(map[string]map[string]struct{})
	for _, f := range t.Fields {
		if f.Name == "" {
			return newMissingFieldError("field name")
		}
		if !fieldNamePattern.MatchString(f.Name) {
			return newValidationError("field name must match ^[a-zA-Z_][a-zA-Z0-9_]*$", map[string]interface{}{"name": f.Name})
		}
		if _, ok := reservedNames[f.Name]; ok {
			return newValidationError("field name is reserved", map[string]interface{}{"name": f.Name})
		}
		if f.Label == "" {
			return newMissingFieldError(fmt.Sprintf("label of field %q", f.Name))
		}
		if !isValidDataType(f.Type) {
			return newTypeError(fmt.Sprintf("one of %v", validDataTypes), string(f.Type))
		}
		if f.SigFigs < 0 {
			return newValidationError("sig_figs must be non-negative", map[string]interface{}{"field": f.Name})
		}

		names, ok := perGroup[f.Group]
		if !ok {
			names = make(map[string]struct{})
			perGroup[f.Group] = names
		}
		if _, dup := names[f.Name]; dup {
			return newDuplicateNameError(f.Group, f.Name)
		}
		names[f.Name] = struct{}{}
		known[f.Name] = struct{}{}
	}

	for _, f := range t.Fields {
		if err := t.validateTolerance(f, known); err != nil {
			return err
		}
		if err := t.validateCalc(f, known); err != nil {
			return err
		}
	}
	return nil
}

func (t *Template) validateTolerance(f Field, known map[string]struct{}) error {
	switch f.Tolerance.Type {
	case ToleranceNone:
		return nil

	case ToleranceFixed:
		if f.Tolerance.Fixed < 0 {
			return newValidationError("fixed tolerance must be non-negative", map[string]interface{}{"field": f.Name})
		}
		return requireNumberField(f)

	case TolerancePercent:
		if f.Tolerance.Percent < 0 {
			return newValidationError("percent tolerance must be non-negative", map[string]interface{}{"field": f.Name})
		}
		ref := f.Tolerance.Reference
		if ref != "" && !isResolvable(ref, known) {
			return newReferenceError(f.Name, ref)
		}
		return requireNumberField(f)

	case ToleranceEquation:
		parsed, err := expr.Parse(f.Tolerance.Equation)
		if err != nil {
			return newEquationError(f.Name, err)
		}
		for _, name := range parsed.FreeVariables() {
			if !isResolvable(name, known) {
				return newReferenceError(f.Name, name)
			}
		}
		return requireNumberField(f)

	case ToleranceLookup:
		if len(f.Tolerance.Lookup) == 0 {
			return newValidationError("lookup tolerance requires at least one range", map[string]interface{}{"field": f.Name})
		}
		for i, entry := range f.Tolerance.Lookup {
			if entry.Low > entry.High {
				return newValidationError("lookup range low exceeds high", map[string]interface{}{"field": f.Name, "entry": i})
			}
		}
		return requireNumberField(f)

	case ToleranceBool:
		if f.Type != DataTypeBool {
			return newTypeError(string(DataTypeBool), string(f.Type))
		}
		return nil

	default:
		return newTypeError("a known tolerance type", string(f.Tolerance.Type))
	}
}

func (t *Template) validateCalc(f Field, known map[string]struct{}) error {
	spec := f.Calc
	switch spec.Type {
	case CalcNone:
		return nil
	case CalcAbsDiff, CalcPctError, CalcPctDiff:
		if len(spec.Refs) != 2 {
			return newValidationError("calc type requires exactly two references", map[string]interface{}{"field": f.Name, "calc": string(spec.Type)})
		}
	case CalcMinOf, CalcMaxOf, CalcRangeOf:
		if len(spec.Refs) < 2 || len(spec.Refs) > maxCalcRefs {
			return newValidationError(
				fmt.Sprintf("calc type requires between 2 and %d references", maxCalcRefs),
				map[string]interface{}{"field": f.Name, "calc": string(spec.Type)},
			)
		}
	default:
		return newTypeError("a known calc type", string(spec.Type))
	}

	for _, ref := range spec.Refs {
		if ref == f.Name {
			return newValidationError("computed field may not reference itself", map[string]interface{}{"field": f.Name})
		}
		if _, ok := known[ref]; !ok {
			return newReferenceError(f.Name, ref)
		}
	}
	return nil
}

func requireNumberField(f Field) error {
	if f.Type != DataTypeNumber {
		return newValidationError("numeric tolerance requires a number field", map[string]interface{}{"field": f.Name, "type": string(f.Type)})
	}
	return nil
}

func isResolvable(name string, known map[string]struct{}) bool {
	if _, ok := reservedNames[name]; ok {
		return true
	}
	_, ok := known[name]
	return ok
}
