package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err        *AppError
		kind       Kind
		httpStatus int
		grpcCode   codes.Code
	}{
		{Validation("bad input"), KindValidation, http.StatusBadRequest, codes.InvalidArgument},
		{InvalidState("wrong state"), KindInvalidState, http.StatusConflict, codes.FailedPrecondition},
		{BusinessRule("rule broken"), KindBusinessRule, http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{NotFound("missing"), KindNotFound, http.StatusNotFound, codes.NotFound},
		{Transient("flaky"), KindTransient, http.StatusServiceUnavailable, codes.Unavailable},
		{Internal("boom"), KindInternal, http.StatusInternalServerError, codes.Internal},
	}
	for _, tc := range cases {
		if tc.err.Kind() != tc.kind {
			t.Errorf("kind = %s, want %s", tc.err.Kind(), tc.kind)
		}
		if tc.err.StatusCode() != tc.httpStatus {
			t.Errorf("%s: status = %d, want %d", tc.kind, tc.err.StatusCode(), tc.httpStatus)
		}
		if tc.err.GRPCCode() != tc.grpcCode {
			t.Errorf("%s: grpc code = %v, want %v", tc.kind, tc.err.GRPCCode(), tc.grpcCode)
		}
	}
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := errors.New("root cause")
	err := Transient("wrapper", WithCause(cause))
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if want := "wrapper: root cause"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWithDetail(t *testing.T) {
	err := BusinessRule("limit reached", WithDetail("reason", "usage_limit_reached"), WithDetail("limit", 5))
	details := err.Details()
	if details["reason"] != "usage_limit_reached" {
		t.Errorf("reason detail = %v", details["reason"])
	}
	if details["limit"] != 5 {
		t.Errorf("limit detail = %v", details["limit"])
	}
}

func TestFrom(t *testing.T) {
	appErr := NotFound("nope")
	if got := From(appErr); got != appErr {
		t.Error("From should return the same AppError")
	}

	wrapped := fmt.Errorf("outer: %w", appErr)
	if got := From(wrapped); got.Kind() != KindNotFound {
		t.Errorf("From(wrapped) kind = %s, want %s", got.Kind(), KindNotFound)
	}

	plain := errors.New("plain")
	got := From(plain)
	if got.Kind() != KindInternal {
		t.Errorf("From(plain) kind = %s, want %s", got.Kind(), KindInternal)
	}
	if !errors.Is(got, plain) {
		t.Error("From(plain) should wrap the original")
	}

	if From(nil) != nil {
		t.Error("From(nil) should be nil")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", InvalidState("nope"))
	if !IsKind(err, KindInvalidState) {
		t.Error("IsKind should see through wrapping")
	}
	if IsKind(err, KindValidation) {
		t.Error("IsKind should not match another kind")
	}
	if IsKind(errors.New("plain"), KindInternal) {
		t.Error("IsKind should reject non-AppError values")
	}
}
