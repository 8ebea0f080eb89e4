/**
 * @description
 * This file contains the HTTP handlers for the admin-service API endpoints.
 * Handlers parse incoming requests, call the application service, and write
 * JSON responses. All error translation happens in writeServiceError.
 *
 * @dependencies
 * - encoding/json, net/http, strconv: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - github.com/google/uuid: Path ID parsing.
 * - internal/app, internal/domain, internal/store: Service logic, models and filters.
 */

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lnflash/admin-service/internal/app"
	"github.com/lnflash/admin-service/internal/domain"
	"github.com/lnflash/admin-service/internal/store"
)

const defaultAlertTag = "EMERGENCY"

// AdminHandlers holds the application service that handlers will use.
type AdminHandlers struct {
	service *app.Service
}

// NewAdminHandlers creates a new instance of AdminHandlers.
func NewAdminHandlers(service *app.Service) *AdminHandlers {
	return &AdminHandlers{service: service}
}

func (h *AdminHandlers) operator(w http.ResponseWriter, r *http.Request) (domain.Operator, bool) {
	operator, ok := OperatorFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not get operator from context", http.StatusInternalServerError)
		return domain.Operator{}, false
	}
	return operator, true
}

func (h *AdminHandlers) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request ID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return value
}

// GetAccountHandler looks up the authoritative Flash account for a phone
// number.
func (h *AdminHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	operator, ok := h.operator(w, r)
	if !ok {
		return
	}

	account, err := h.service.GetAccountByPhone(r.Context(), operator, chi.URLParam(r, "phone"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// UpdateAccountLevelHandler sets an account's tier directly on the Flash side.
func (h *AdminHandlers) UpdateAccountLevelHandler(w http.ResponseWriter, r *http.Request) {
	operator, ok := h.operator(w, r)
	if !ok {
		return
	}

	var req struct {
		Level domain.AccountLevel `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.UpdateAccountLevel(r.Context(), operator, chi.URLParam(r, "uid"), req.Level)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// SendAlertHandler pushes a broadcast alert to all Flash users.
func (h *AdminHandlers) SendAlertHandler(w http.ResponseWriter, r *http.Request) {
	operator, ok := h.operator(w, r)
	if !ok {
		return
	}

	var req struct {
		Title   string `json:"title"`
		Message string `json:"message"`
		Tag     string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Tag == "" {
		req.Tag = defaultAlertTag
	}

	alert, err := h.service.SendAlert(r.Context(), operator, req.Title, req.Message, req.Tag)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, alert)
}

// GetUserAlertsHandler returns the most recent broadcast alerts.
func (h *AdminHandlers) GetUserAlertsHandler(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.GetUserAlerts(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

// ListUpgradeRequestsHandler returns one page of upgrade requests, optionally
// filtered by status and requested level.
func (h *AdminHandlers) ListUpgradeRequestsHandler(w http.ResponseWriter, r *http.Request) {
	filter := store.UpgradeRequestFilter{
		Status:         domain.UpgradeStatus(r.URL.Query().Get("status")),
		RequestedLevel: domain.AccountLevel(r.URL.Query().Get("requested_level")),
	}

	page, err := h.service.ListUpgradeRequests(r.Context(), filter, queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// SearchAccountsHandler looks up upgrade requests by phone number or username.
func (h *AdminHandlers) SearchAccountsHandler(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.SearchAccounts(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// ApproveUpgradeRequestHandler approves a pending upgrade request.
func (h *AdminHandlers) ApproveUpgradeRequestHandler(w http.ResponseWriter, r *http.Request) {
	operator, ok := h.operator(w, r)
	if !ok {
		return
	}
	requestID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	approved, err := h.service.ApproveUpgradeRequest(r.Context(), requestID, operator)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, approved)
}

// RejectUpgradeRequestHandler rejects a pending upgrade request.
func (h *AdminHandlers) RejectUpgradeRequestHandler(w http.ResponseWriter, r *http.Request) {
	operator, ok := h.operator(w, r)
	if !ok {
		return
	}
	requestID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// A missing or empty body is fine; the reason then defaults.
	_ = json.NewDecoder(r.Body).Decode(&req)

	rejected, err := h.service.RejectUpgradeRequest(r.Context(), requestID, operator, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rejected)
}

// IDDocumentURLHandler returns a presigned read URL for an identity document.
func (h *AdminHandlers) IDDocumentURLHandler(w http.ResponseWriter, r *http.Request) {
	operator, ok := h.operator(w, r)
	if !ok {
		return
	}

	url, err := h.service.GetIDDocumentURL(r.Context(), operator, r.URL.Query().Get("file_key"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// ListCashoutRequestsHandler returns one page of cash-out records, optionally
// filtered by status and currency.
func (h *AdminHandlers) ListCashoutRequestsHandler(w http.ResponseWriter, r *http.Request) {
	filter := store.CashoutFilter{
		Status:   domain.CashoutStatus(r.URL.Query().Get("status")),
		Currency: r.URL.Query().Get("currency"),
	}

	page, err := h.service.ListCashoutRequests(r.Context(), filter, queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// SearchCashoutRequestsHandler matches cash-out records by order id, username
// or phone number.
func (h *AdminHandlers) SearchCashoutRequestsHandler(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.SearchCashoutRequests(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// ConfirmCashoutPaymentHandler marks a pending cash-out as paid.
func (h *AdminHandlers) ConfirmCashoutPaymentHandler(w http.ResponseWriter, r *http.Request) {
	operator, ok := h.operator(w, r)
	if !ok {
		return
	}
	requestID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		ConfirmationCode string `json:"confirmation_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	confirmed, err := h.service.ConfirmCashoutPayment(r.Context(), requestID, operator, req.ConfirmationCode)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, confirmed)
}

// writeJSON is a helper for writing JSON responses.
func (h *AdminHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *AdminHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
