package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"jobfinder-engine/internal/errors"
)

func TestTypeOf(t *testing.T) {
	base := stderrors.New("boom")

	cases := []struct {
		name string
		err  error
		want errors.ErrorType
	}{
		{"plain error is internal", base, errors.ErrTypeInternal},
		{"rate limit", errors.RateLimit("remotive", base), errors.ErrTypeRateLimit},
		{"wrapped unavailable", fmt.Errorf("fetch: %w", errors.Unavailable("down", nil)), errors.ErrTypeUnavailable},
		{"malformed", errors.Malformed("json", base), errors.ErrTypeMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := errors.TypeOf(tc.err); got != tc.want {
				t.Fatalf("TypeOf = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestExpected(t *testing.T) {
	if errors.Expected(nil) {
		t.Fatal("nil must not be expected")
	}
	if !errors.Expected(errors.RateLimit("429", nil)) {
		t.Fatal("rate limit should be expected")
	}
	if errors.Expected(stderrors.New("bug")) {
		t.Fatal("unclassified error should not be expected")
	}
	if errors.Expected(errors.Internal("bad base url", nil)) {
		t.Fatal("internal error should not be expected")
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	base := stderrors.New("root cause")
	err := errors.Unavailable("upstream", base)

	if !stderrors.Is(err, base) {
		t.Fatal("expected errors.Is to reach the wrapped cause")
	}
	if len(err.StackTrace()) == 0 {
		t.Fatal("expected a captured stack")
	}
	if err.Error() != "UNAVAILABLE: upstream: root cause" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
