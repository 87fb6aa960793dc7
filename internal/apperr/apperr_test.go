package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestUnauthenticatedDefaultsMessage(t *testing.T) {
	err := Unauthenticated("")
	if err.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", err.Status)
	}
	if err.Message != "not authenticated" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Error() != "UNAUTHENTICATED: not authenticated" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Internal(cause)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want safe message", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause not reachable through Unwrap")
	}
}

func TestIsAndFrom(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", Conflict("username already registered"))
	if !Is(wrapped, CodeConflict) {
		t.Errorf("Is(wrapped, CONFLICT) = false")
	}
	if Is(wrapped, CodeNotFound) {
		t.Errorf("Is(wrapped, NOT_FOUND) = true")
	}
	if got := From(wrapped); got.Status != http.StatusConflict {
		t.Errorf("From(wrapped).Status = %d", got.Status)
	}
	if got := From(errors.New("boom")); got.Code != CodeInternal {
		t.Errorf("From(plain).Code = %q", got.Code)
	}
	if From(nil) != nil {
		t.Errorf("From(nil) should be nil")
	}
	if got := InvalidInput("bad"); got.Status != http.StatusBadRequest {
		t.Errorf("InvalidInput status = %d", got.Status)
	}
	if got := NotFound("gone"); got.Status != http.StatusNotFound {
		t.Errorf("NotFound status = %d", got.Status)
	}
}
