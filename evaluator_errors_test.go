package eventstate

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "flag && missing", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", evalErr.Engine)
	}
	if evalErr.Expr != "flag && missing" {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if !errors.Is(evalErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapEvaluationError("cel", "rule", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
}

func TestWrapEvaluatorErrorKeepsPrefixedErrors(t *testing.T) {
	prefixed := errors.New("eventstate: already tagged")
	if got := wrapEvaluatorError("expr", prefixed); got != prefixed {
		t.Fatalf("expected prefixed error to pass through, got %v", got)
	}

	plain := errors.New("plain failure")
	wrapped := wrapEvaluatorError("cel", plain)
	if !errors.Is(wrapped, plain) {
		t.Fatalf("expected wrapped error to unwrap to plain failure")
	}
	if !strings.HasPrefix(wrapped.Error(), "eventstate:") {
		t.Fatalf("expected eventstate prefix, got %q", wrapped.Error())
	}
}

func TestWrapEvaluationErrorNil(t *testing.T) {
	if wrapEvaluationError("expr", "rule", nil) != nil {
		t.Fatalf("expected nil error to stay nil")
	}
	if wrapEvaluatorError("expr", nil) != nil {
		t.Fatalf("expected nil error to stay nil")
	}
}
