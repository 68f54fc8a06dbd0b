package model

const (
	// StatusPass marks a field whose reading resolved within tolerance.
	StatusPass = "pass"
	// StatusFail marks a field whose reading resolved outside tolerance.
	StatusFail = "fail"
	// StatusError marks a field whose tolerance could not be resolved.
	// An unresolved field blocks record completion; it is never an
	// implicit pass.
	StatusError = "error"
	// StatusSkipped marks a field carrying no tolerance check.
	StatusSkipped = "skipped"
)

// FieldResult captures the evaluation outcome of a single record field.
type FieldResult struct {
	Group string
	Name  string
	Label string

	// Value is the field's value as entered or derived, in display form.
	Value string

	// Computed holds the derived numeric value for computed fields.
	Computed *float64

	// Bound is the resolved tolerance bound, when Status is pass or fail.
	Bound float64

	Status      string
	Explanation string
	Caution     string
	Err         error
}

// RecordResult aggregates the field outcomes of one evaluated record.
type RecordResult struct {
	Template string
	Fields   []FieldResult
	Cautions []string
}

// Counts tallies the field outcomes by status.
func (r RecordResult) Counts() (passed, failed, errored, skipped int) {
	for _, f := range r.Fields {
		switch f.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusError:
			errored++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, errored, skipped
}

// Complete reports whether the record can be closed out: every checked
// field resolved, and none failed.
func (r RecordResult) Complete() bool {
	_, failed, errored, _ := r.Counts()
	return failed == 0 && errored == 0
}
