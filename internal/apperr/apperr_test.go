package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrExternalService, http.StatusBadGateway},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestWrapPreservesKind(t *testing.T) {
	err := Wrap(ErrConflict, "resource %d already taken", 7)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("wrapped error lost its kind: %v", err)
	}
	if got := HTTPStatus(err); got != http.StatusConflict {
		t.Fatalf("HTTPStatus on wrapped error = %d, want %d", got, http.StatusConflict)
	}
	if err.Error() != "conflict: resource 7 already taken" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
