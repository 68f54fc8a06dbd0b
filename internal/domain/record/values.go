// Package record holds the transient value model of one calibration record
// being filled in: field values keyed by group and name, the operator's
// edit history, computed-field derivation and autofill propagation. Nothing
// here is persisted; the caller constructs and discards these structures on
// every edit event.
package record

import (
	"strconv"
	"strings"
)

// FieldRef addresses one field instance within a record: field names repeat
// across groups, so the group name is part of the key.
type FieldRef struct {
	Group string
	Name  string
}

// ValueMap maps field instances to their entered values, kept in the string
// form the operator typed. Numeric interpretation happens at evaluation
// time via Numeric.
type ValueMap map[FieldRef]string

// Clone returns an independent copy.
func (v ValueMap) Clone() ValueMap {
	out := make(ValueMap, len(v))
	for ref, value := range v {
		out[ref] = value
	}
	return out
}

// Numeric parses the value stored at ref, tolerating surrounding space and
// a trailing unit label. The unit is an opaque display suffix, never an
// operand.
func (v ValueMap) Numeric(ref FieldRef, unit string) (float64, bool) {
	raw, ok := v[ref]
	if !ok {
		return 0, false
	}
	return parseNumeric(raw, unit)
}

// EditedSet records which field instances the operator has explicitly
// edited in the current session. Explicit edits always win over autofill.
type EditedSet map[FieldRef]struct{}

// Mark records an explicit edit.
func (s EditedSet) Mark(ref FieldRef) {
	s[ref] = struct{}{}
}

// Contains reports whether ref was explicitly edited.
func (s EditedSet) Contains(ref FieldRef) bool {
	_, ok := s[ref]
	return ok
}

func parseNumeric(raw, unit string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if unit != "" {
		s = strings.TrimSpace(strings.TrimSuffix(s, unit))
	}
	if s == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
