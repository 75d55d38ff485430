package respond

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"adespota/internal/domain"
	"adespota/internal/rank"
	"adespota/internal/share"
	"adespota/internal/verification"
	"adespota/internal/wizard"
	"adespota/pkg/e"
)

func TestStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"missing image", domain.NewValidationError(domain.KindMissingImage, "Add a photo"), http.StatusUnprocessableEntity, "Add a photo"},
		{"not authenticated", domain.NewValidationError(domain.KindNotAuthenticated, "Sign in"), http.StatusUnauthorized, "Sign in"},
		{"auth", &domain.AuthError{Reason: "invalid token"}, http.StatusUnauthorized, "invalid token"},
		{"email taken", &domain.AuthError{Reason: "email already registered", Err: e.ErrUniqueViolation}, http.StatusConflict, "already exists"},
		{"location", &domain.LocationError{Message: "User denied Geolocation"}, http.StatusUnprocessableEntity, "User denied Geolocation"},
		{"not found", fmt.Errorf("wizard x: %w", e.ErrNotFound), http.StatusNotFound, "not found"},
		{"in progress", wizard.ErrSubmitInProgress, http.StatusConflict, "a submission is already in progress"},
		{"finished", wizard.ErrFinished, http.StatusConflict, "this report was already submitted"},
		{"verified", verification.ErrVerified, http.StatusConflict, "account already verified"},
		{"instagram", share.ErrUnsupportedPlatform, http.StatusUnprocessableEntity, share.ErrUnsupportedPlatform.Error()},
		{"store", &domain.StoreError{Op: "reports.insert", Err: e.ErrDeadline}, http.StatusBadGateway, retryMessage},
		{"store constraint", &domain.StoreError{Op: "reports.insert", Err: e.Wrap("insert", e.ErrInvalidInput)}, http.StatusBadGateway, retryMessage},
		{"bad input", e.Wrap("decode", e.ErrInvalidInput), http.StatusBadRequest, "invalid input"},
		{"empty ladder", fmt.Errorf("progress: %w", rank.ErrNoRankDefined), http.StatusServiceUnavailable, "ranks not configured"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range cases {
		code, msg := Status(tc.err)
		if code != tc.code || msg != tc.msg {
			t.Fatalf("%s: got %d %q want %d %q", tc.name, code, msg, tc.code, tc.msg)
		}
	}
}
