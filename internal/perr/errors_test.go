package perr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without cause",
			err:      New(PlanInvalid, "missing root"),
			expected: "plan_invalid: missing root",
		},
		{
			name:     "with cause",
			err:      Wrap(TransportFailure, "dial peer-b", fmt.Errorf("connection refused")),
			expected: "transport_failure: dial peer-b: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(TransportFailure, "flush", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	bare := New(PlanInvalid, "missing root")
	if unwrapped := bare.Unwrap(); unwrapped != nil {
		t.Errorf("Unwrap() on a causeless error = %v, want nil", unwrapped)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{"matching kind", New(HtlExhausted, "hops exhausted"), HtlExhausted, true},
		{"mismatched kind", New(HtlExhausted, "hops exhausted"), TypeMismatch, false},
		{"wrapped stdlib error", fmt.Errorf("wrap: %w", New(GraphMissing, "node absent")), GraphMissing, true},
		{"plain stdlib error", errors.New("boring"), GraphMissing, false},
		{"nil error", nil, GraphMissing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.kind); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrors_As(t *testing.T) {
	wrapped := fmt.Errorf("query failed: %w", New(RemoteError, "peer returned error"))

	var perr *Error
	if !errors.As(wrapped, &perr) {
		t.Fatal("errors.As() = false, want true")
	}
	if perr.Kind != RemoteError {
		t.Errorf("perr.Kind = %q, want %q", perr.Kind, RemoteError)
	}
}
