package meeting

import (
	"errors"
	"strings"
	"testing"
)

func TestSessionErrorUnwrap(t *testing.T) {
	err := WrapError("join room", ErrJoinRejected, "The host declined your request to join.")

	if !errors.Is(err, ErrJoinRejected) {
		t.Error("Expected the wrapped sentinel to be recognized")
	}
	if !strings.Contains(err.Error(), "join room") {
		t.Errorf("Expected the operation in the message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "declined") {
		t.Errorf("Expected the details in the message, got %q", err.Error())
	}
}

func TestSessionErrorWithoutDetails(t *testing.T) {
	err := NewError("connect to server", ErrServerClosed)

	if !errors.Is(err, ErrServerClosed) {
		t.Error("Expected the wrapped sentinel to be recognized")
	}
	if strings.Contains(err.Error(), "()") {
		t.Errorf("Expected no empty details suffix, got %q", err.Error())
	}
}
