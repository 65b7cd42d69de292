package httpx_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkwell-books/inkwell/internal/platform/httpx"
	"github.com/inkwell-books/inkwell/internal/shared"
)

func TestRespondErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid argument", shared.ErrInvalidArgument, http.StatusBadRequest},
		{"unauthenticated", shared.ErrUnauthenticated, http.StatusUnauthorized},
		{"invalid credentials", shared.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden},
		{"not found", shared.ErrNotFound, http.StatusNotFound},
		{"conflict", shared.ErrConflict, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			httpx.RespondError(rec, tc.err)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected json content type got %q", ct)
			}
		})
	}
}

func TestRespondErrorPreservesWrappedKind(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.RespondError(rec, fmt.Errorf("subscription: plan %q: %w", "gold", shared.ErrInvalidArgument))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrapped kind got %d", rec.Code)
	}
}
