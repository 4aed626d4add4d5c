package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Input("bad"), http.StatusBadRequest},
		{Auth("nope"), http.StatusUnauthorized},
		{Conflict("exists"), http.StatusConflict},
		{NotFound("user", "a@b"), http.StatusNotFound},
		{Delivery("smtp", fmt.Errorf("down")), http.StatusBadGateway},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", Auth("nope")), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIsTypeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("already verified"))
	if !IsType(err, TypeConflict) {
		t.Error("expected conflict type through fmt wrapping")
	}
	if IsType(err, TypeAuth) {
		t.Error("did not expect auth type")
	}
}

func TestSentinelMatching(t *testing.T) {
	sentinel := Auth("account not verified")
	err := fmt.Errorf("login: %w", sentinel)
	if !stderrors.Is(err, sentinel) {
		t.Error("expected errors.Is to match sentinel")
	}
	if stderrors.Is(err, Auth("other")) {
		t.Error("different message should not match")
	}
}

func TestErrorString(t *testing.T) {
	err := Wrap(TypeDelivery, "send otp", fmt.Errorf("timeout"))
	want := "[DELIVERY_ERROR] send otp: timeout"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if stderrors.Unwrap(err) == nil {
		t.Error("expected cause to unwrap")
	}
}
