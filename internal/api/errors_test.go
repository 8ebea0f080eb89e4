package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lnflash/admin-service/internal/app"
	"github.com/lnflash/admin-service/internal/domain"
	"github.com/lnflash/admin-service/internal/store"
	"github.com/lnflash/admin-service/pkg/flashclient"
)

func translate(t *testing.T, err error) (int, string) {
	t.Helper()
	h := &AdminHandlers{}
	recorder := httptest.NewRecorder()
	h.writeServiceError(recorder, err)

	var body map[string]string
	if decodeErr := json.NewDecoder(recorder.Body).Decode(&body); decodeErr != nil {
		t.Fatalf("expected a json error envelope, got %v", decodeErr)
	}
	return recorder.Code, body["error"]
}

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &app.ValidationError{Message: "alert title and message are required"}, http.StatusBadRequest},
		{"finalized request", &app.RequestFinalizedError{Status: domain.StatusApproved}, http.StatusConflict},
		{"finalized cashout", &store.CashoutStateError{Status: domain.CashoutCompleted}, http.StatusConflict},
		{"dependent records", &app.DependentRecordError{Errors: []string{"Address: insert failed"}}, http.StatusBadRequest},
		{"level rejection", &app.LevelUpdateError{Errors: []domain.FieldError{{Message: "account is locked"}}}, http.StatusBadRequest},
		{"remote rejection", &flashclient.RemoteError{Errors: []domain.FieldError{{Message: "permission denied"}}}, http.StatusBadRequest},
		{"remote account missing", app.ErrRemoteAccountNotFound, http.StatusNotFound},
		{"empty search", app.ErrNoSearchResults, http.StatusNotFound},
		{"request missing", store.ErrUpgradeRequestNotFound, http.StatusNotFound},
		{"rate limited", app.ErrRateLimited, http.StatusTooManyRequests},
		{"transport failure", &flashclient.TransportError{Err: errors.New("connection refused")}, http.StatusInternalServerError},
		{"protocol failure", &flashclient.ProtocolError{Reason: "not a graphql envelope"}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := translate(t, tc.err)
			if status != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, status)
			}
		})
	}
}

func TestWriteServiceErrorSurfacesRemoteMessagesVerbatim(t *testing.T) {
	_, message := translate(t, &app.LevelUpdateError{Errors: []domain.FieldError{{Message: "account is locked"}}})
	if !strings.Contains(message, "account is locked") {
		t.Errorf("expected the remote message verbatim, got %q", message)
	}
}

func TestWriteServiceErrorHidesInternalDetails(t *testing.T) {
	_, message := translate(t, &flashclient.TransportError{Err: errors.New("dial tcp 10.0.0.1: connection refused")})
	if strings.Contains(message, "10.0.0.1") {
		t.Errorf("expected transport details hidden from callers, got %q", message)
	}
}
