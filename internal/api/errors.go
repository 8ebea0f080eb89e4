/**
 * @description
 * This file holds the single translation point from service errors to HTTP
 * responses. Every handler funnels failures through writeServiceError so the
 * same error type always maps to the same status code and envelope, and
 * internal failure details never leak to callers.
 *
 * @dependencies
 * - errors, log, net/http: Standard Go libraries.
 * - internal/app, internal/store, pkg/flashclient: The error types being translated.
 */

package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/lnflash/admin-service/internal/app"
	"github.com/lnflash/admin-service/internal/store"
	"github.com/lnflash/admin-service/pkg/flashclient"
)

// writeServiceError maps a service-layer error to an HTTP status and JSON
// error envelope. Remote rejections surface their messages verbatim;
// transport and protocol failures are logged and hidden behind a generic 500.
func (h *AdminHandlers) writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *app.ValidationError
	if errors.As(err, &validationErr) {
		h.writeError(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	var finalizedErr *app.RequestFinalizedError
	if errors.As(err, &finalizedErr) {
		h.writeError(w, http.StatusConflict, finalizedErr.Error())
		return
	}

	var cashoutStateErr *store.CashoutStateError
	if errors.As(err, &cashoutStateErr) {
		h.writeError(w, http.StatusConflict, cashoutStateErr.Error())
		return
	}

	var depErr *app.DependentRecordError
	if errors.As(err, &depErr) {
		h.writeError(w, http.StatusBadRequest, depErr.Error())
		return
	}

	var levelErr *app.LevelUpdateError
	if errors.As(err, &levelErr) {
		h.writeError(w, http.StatusBadRequest, levelErr.Error())
		return
	}

	var broadcastErr *app.BroadcastError
	if errors.As(err, &broadcastErr) {
		h.writeError(w, http.StatusBadRequest, broadcastErr.Error())
		return
	}

	var remoteErr *flashclient.RemoteError
	if errors.As(err, &remoteErr) {
		h.writeError(w, http.StatusBadRequest, remoteErr.Error())
		return
	}

	switch {
	case errors.Is(err, app.ErrRemoteAccountNotFound),
		errors.Is(err, app.ErrNoSearchResults),
		errors.Is(err, store.ErrUpgradeRequestNotFound),
		errors.Is(err, store.ErrCashoutRequestNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, app.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}

	log.Printf("level=error component=api msg=\"request failed\" err=%v", err)
	h.writeError(w, http.StatusInternalServerError, "An internal error occurred")
}
