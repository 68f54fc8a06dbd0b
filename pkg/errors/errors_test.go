package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestParseError(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("unexpected node")
	err := NewParseError("templates/gauge.yaml", 12, cause)

	var parseErr *ParseError
	if !stderrors.As(err, &parseErr) {
		t.Fatalf("NewParseError returned %T", err)
	}
	if !strings.Contains(err.Error(), "gauge.yaml:12") {
		t.Errorf("message missing location: %s", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("cause is not reachable via errors.Is")
	}

	noLine := NewParseError("templates/gauge.yaml", 0, cause)
	if strings.Contains(noLine.Error(), ":0") {
		t.Errorf("zero line leaked into message: %s", noLine.Error())
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("as_found", "tolerance equation rejected", nil)
	if !strings.Contains(err.Error(), "as_found") {
		t.Errorf("field missing from message: %s", err.Error())
	}

	anon := NewValidationError("", "document invalid", nil)
	if strings.Contains(anon.Error(), ": :") {
		t.Errorf("empty field rendered badly: %s", anon.Error())
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("database is locked")
	err := NewStoreError("save record", cause)
	if !strings.Contains(err.Error(), "save record") {
		t.Errorf("operation missing from message: %s", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("cause is not reachable via errors.Is")
	}
}
