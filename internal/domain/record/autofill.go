package record

import (
	"fmt"
	"strings"

	"github.com/caltrack/caltrack/internal/domain/template"
)

// Propagate copies values from the first group of the sequence into
// matching fields of every later group whose definition enables autofill.
// The first group is always the source; autofill only flows forward.
//
// Matching is by exact field name first, then by case-insensitive label.
// Fields the operator has explicitly edited are never overwritten, and a
// target with no source match is left untouched. The input value map is not
// mutated; the updated copy is returned together with any data-authoring
// cautions (e.g. ambiguous duplicate labels in the source group).
func Propagate(groups []template.Group, values ValueMap, edited EditedSet) (ValueMap, []string) {
	updated := values.Clone()
	if len(groups) < 2 {
		return updated, nil
	}

	source := groups[0]
	var cautions []string

	// Source index by name and by lowercase label; fields are already in
	// sort order, so the first occurrence wins on duplicates.
	byName := make(map[string]FieldRef, len(source.Fields))
	byLabel := make(map[string]FieldRef, len(source.Fields))
	for _, f := range source.Fields {
		ref := FieldRef{Group: source.Name, Name: f.Name}
		if _, dup := byName[f.Name]; dup {
			cautions = append(cautions, fmt.Sprintf("group %q has more than one field named %q; autofill uses the first by sort order", source.Name, f.Name))
		} else {
			byName[f.Name] = ref
		}
		label := strings.ToLower(strings.TrimSpace(f.Label))
		if label == "" {
			continue
		}
		if _, dup := byLabel[label]; dup {
			cautions = append(cautions, fmt.Sprintf("group %q has more than one field labelled %q; autofill uses the first by sort order", source.Name, f.Label))
		} else {
			byLabel[label] = ref
		}
	}

	for _, group := range groups[1:] {
		for _, f := range group.Fields {
			if !f.AutofillFromFirstGroup {
				continue
			}
			target := FieldRef{Group: group.Name, Name: f.Name}
			if edited.Contains(target) {
				continue
			}

			sourceRef, ok := byName[f.Name]
			if !ok {
				sourceRef, ok = byLabel[strings.ToLower(strings.TrimSpace(f.Label))]
			}
			if !ok {
				continue
			}
			value, present := values[sourceRef]
			if !present {
				continue
			}
			updated[target] = value
		}
	}
	return updated, cautions
}
