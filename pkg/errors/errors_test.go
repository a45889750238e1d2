package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsAppError_UnwrapsWrappedAppError(t *testing.T) {
	base := ErrLocationNotFound.WithDetail("dock_01")
	wrapped := fmt.Errorf("handler: %w", base)

	got := AsAppError(wrapped)
	if got.Code != CodeLocationNotFound {
		t.Fatalf("code=%s want %s", got.Code, CodeLocationNotFound)
	}
	if got.HTTPStatus != http.StatusNotFound {
		t.Fatalf("status=%d want %d", got.HTTPStatus, http.StatusNotFound)
	}
}

func TestWithDetail_DoesNotMutatePredefined(t *testing.T) {
	_ = ErrGenerationFailed.WithDetail("x")
	if ErrGenerationFailed.Detail != "" {
		t.Fatalf("predefined error was mutated: %q", ErrGenerationFailed.Detail)
	}
}

func TestAsAppError_WrapsUnknown(t *testing.T) {
	got := AsAppError(stderrors.New("plain"))
	if got.Code != CodeUnknown || got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("got code=%s status=%d", got.Code, got.HTTPStatus)
	}
}
