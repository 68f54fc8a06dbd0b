// Package engine drives the evaluation of one calibration record against
// its template: autofill propagation, computed-field refresh and tolerance
// resolution, in group order. The engine is pure apart from logging; it
// retains no state between calls.
package engine

import (
	"fmt"
	"strings"

	"github.com/caltrack/caltrack/internal/domain/record"
	"github.com/caltrack/caltrack/internal/domain/template"
	"github.com/caltrack/caltrack/internal/domain/tolerance"
	"github.com/caltrack/caltrack/internal/logger"
	"github.com/caltrack/caltrack/internal/model"
)

// Evaluator evaluates records. The zero value is unusable; construct with
// New.
type Evaluator struct {
	log *logger.Logger
}

// New creates an Evaluator. The logger may be nil.
func New(log *logger.Logger) *Evaluator {
	return &Evaluator{log: log}
}

// EvaluateRecord runs the full per-edit evaluation pass: propagate autofill
// from the first group, re-derive computed fields, then resolve every
// field's tolerance. Field-level failures are reported per field in the
// result, never as an evaluation error; the returned error covers only
// unusable input.
func (e *Evaluator) EvaluateRecord(tmpl *template.Template, values record.ValueMap, edited record.EditedSet) (model.RecordResult, error) {
	if tmpl == nil {
		return model.RecordResult{}, fmt.Errorf("template is nil")
	}
	if err := tmpl.Validate(); err != nil {
		return model.RecordResult{}, err
	}

	groups := tmpl.Groups()
	filled, cautions := record.Propagate(groups, values, edited)

	result := model.RecordResult{Template: tmpl.Name, Cautions: cautions}

	// Record-wide bindings resolve cross-group references: the first
	// occurrence of a name (by group order) wins, as in the paper form
	// the first measurement point defines shared conditions.
	global := make(map[string]float64)
	for _, group := range groups {
		for _, f := range group.Fields {
			if _, seen := global[f.Name]; seen {
				continue
			}
			if v, ok := filled.Numeric(record.FieldRef{Group: group.Name, Name: f.Name}, f.Unit); ok {
				global[f.Name] = v
			}
		}
	}

	for _, group := range groups {
		bindings := make(map[string]float64, len(global)+len(group.Fields))
		for name, v := range global {
			bindings[name] = v
		}
		for _, f := range group.Fields {
			if v, ok := filled.Numeric(record.FieldRef{Group: group.Name, Name: f.Name}, f.Unit); ok {
				bindings[f.Name] = v
			}
		}

		for _, f := range group.Fields {
			result.Fields = append(result.Fields, e.evaluateField(group.Name, f, filled, bindings))
		}
	}
	return result, nil
}

func (e *Evaluator) evaluateField(groupName string, f template.Field, values record.ValueMap, bindings map[string]float64) model.FieldResult {
	out := model.FieldResult{
		Group: groupName,
		Name:  f.Name,
		Label: f.Label,
		Value: values[record.FieldRef{Group: groupName, Name: f.Name}],
	}

	reading, hasReading := values.Numeric(record.FieldRef{Group: groupName, Name: f.Name}, f.Unit)
	if f.Type == template.DataTypeBool {
		reading, hasReading = boolReading(out.Value)
	}

	if f.IsComputed() {
		derived, err := record.EvaluateComputed(f.Calc, bindings)
		if err != nil {
			out.Status = model.StatusError
			out.Err = err
			e.logFieldError(groupName, f.Name, err)
			return out
		}
		out.Computed = &derived
		out.Value = record.FormatValue(derived, f.SigFigs)
		bindings[f.Name] = derived
		reading, hasReading = derived, true
	}

	if f.Tolerance.Type == template.ToleranceNone {
		out.Status = model.StatusSkipped
		return out
	}

	if !hasReading {
		out.Status = model.StatusError
		out.Err = fmt.Errorf("field %q has no numeric reading to check", f.Name)
		return out
	}

	var nominal float64
	if f.Nominal != nil {
		nominal = *f.Nominal
	}

	resolved, err := tolerance.Resolve(f.Tolerance, nominal, reading, bindings)
	if err != nil {
		out.Status = model.StatusError
		out.Err = err
		e.logFieldError(groupName, f.Name, err)
		return out
	}

	out.Bound = resolved.Bound
	out.Explanation = resolved.Explanation
	out.Caution = resolved.Caution
	if resolved.Passed {
		out.Status = model.StatusPass
	} else {
		out.Status = model.StatusFail
	}
	return out
}

func (e *Evaluator) logFieldError(group, name string, err error) {
	if e.log == nil {
		return
	}
	e.log.WithFields(map[string]any{"group": group, "field": name}).Error(err, "field evaluation failed")
}

// boolReading interprets a boolean field's stored value. Stored forms vary
// by entry widget; anything not recognisably true is false.
func boolReading(raw string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	switch s {
	case "1", "true", "yes", "pass":
		return 1, true
	default:
		return 0, true
	}
}
