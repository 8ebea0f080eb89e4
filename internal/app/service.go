/**
 * @description
 * This file contains the core business logic for the admin service: the
 * account upgrade decision workflow, remote account lookups and level
 * mutations, broadcast alerts, and cash-out reconciliation.
 *
 * Key features:
 * - Approval runs entirely under the upgrade request's row lock, so two
 *   operators deciding the same request serialize and the loser gets a
 *   conflict instead of a double-approve.
 * - Dependent Customer/Address/BankAccount records are created with
 *   lookup-before-insert semantics and written through the pool, outside the
 *   decision transaction. Records created before a later step fails survive,
 *   and the request stays Pending for a clean retry.
 * - Audit events are published fire-and-forget; messaging failures never
 *   fail the operator's action.
 *
 * @dependencies
 * - context, errors, fmt, log, strings, time, unicode: Standard Go libraries.
 * - github.com/google/uuid: Record identities.
 * - internal/domain, internal/store: Domain models and persistence.
 * - pkg/flashclient: The remote Flash API client.
 * - pkg/rabbitmq: Audit event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/lnflash/admin-service/internal/domain"
	"github.com/lnflash/admin-service/internal/store"
	"github.com/lnflash/admin-service/pkg/flashclient"
	"github.com/lnflash/admin-service/pkg/rabbitmq"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// Queries with at least this many digits are treated as phone searches.
	phoneQueryMinDigits = 10

	defaultRejectionReason = "No reason provided"

	routingKeyUpgradeApproved  = "admin.upgrade.approved"
	routingKeyUpgradeRejected  = "admin.upgrade.rejected"
	routingKeyCashoutConfirmed = "admin.cashout.confirmed"
	routingKeyAlertSent        = "admin.alert.sent"
)

// AccountGateway is the slice of the Flash API the service depends on. It is
// satisfied by *flashclient.Client and stubbed in tests.
type AccountGateway interface {
	AccountByPhone(ctx context.Context, operator domain.Operator, phone string) (*domain.RemoteAccount, error)
	UpdateAccountLevel(ctx context.Context, operator domain.Operator, uid string, level domain.AccountLevel) (*flashclient.AccountLevelResult, error)
	SendBroadcastAlert(ctx context.Context, operator domain.Operator, title, body, tag string) (*flashclient.BroadcastResult, error)
	IDDocumentURL(ctx context.Context, operator domain.Operator, fileKey string) (string, error)
}

// AlertRateLimiter bounds how many broadcast alerts may be sent per window.
type AlertRateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Service provides the admin back-office operations.
type Service struct {
	repo         store.Repository
	gateway      AccountGateway
	events       rabbitmq.Publisher
	alertLimiter AlertRateLimiter
}

// NewService creates a new admin service. events and alertLimiter may be nil;
// publishing and rate limiting are then skipped.
func NewService(repo store.Repository, gateway AccountGateway, events rabbitmq.Publisher, alertLimiter AlertRateLimiter) *Service {
	return &Service{
		repo:         repo,
		gateway:      gateway,
		events:       events,
		alertLimiter: alertLimiter,
	}
}

// ApproveUpgradeRequest validates and approves a pending upgrade request.
// The whole sequence (remote account lookup, dependent record creation, the
// remote level mutation, the local status flip) runs while the request row is
// locked. Any failure leaves the request Pending; dependent records created
// before the failure are kept and skipped on retry.
func (s *Service) ApproveUpgradeRequest(ctx context.Context, requestID uuid.UUID, operator domain.Operator) (*domain.UpgradeRequest, error) {
	var approved domain.UpgradeRequest

	err := s.repo.DecideUpgradeRequest(ctx, requestID, func(req *domain.UpgradeRequest) (*store.UpgradeDecision, error) {
		if req.Status != domain.StatusPending {
			return nil, &RequestFinalizedError{Status: req.Status}
		}

		account, err := s.gateway.AccountByPhone(ctx, operator, req.PhoneNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to look up flash account: %w", err)
		}
		if account == nil {
			return nil, ErrRemoteAccountNotFound
		}

		if req.RequestedLevel.RequiresKYCRecords() {
			if err := s.createDependentRecords(ctx, req); err != nil {
				return nil, err
			}
		}

		result, err := s.gateway.UpdateAccountLevel(ctx, operator, account.ID, req.RequestedLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to update account level: %w", err)
		}
		if len(result.Errors) > 0 {
			return nil, &LevelUpdateError{Errors: result.Errors}
		}

		now := time.Now().UTC()
		approved = *req
		approved.Status = domain.StatusApproved
		approved.ApprovedBy = operator.ID
		approved.ApprovalDate = &now
		return &store.UpgradeDecision{
			Status:    domain.StatusApproved,
			DecidedBy: operator.ID,
			DecidedAt: now,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, routingKeyUpgradeApproved, rabbitmq.UpgradeDecisionEvent{
		RequestID:   approved.ID,
		PhoneNumber: approved.PhoneNumber,
		Level:       string(approved.RequestedLevel),
		Status:      string(domain.StatusApproved),
		DecidedBy:   operator.ID,
		Timestamp:   time.Now().UTC(),
	})
	return &approved, nil
}

// RejectUpgradeRequest rejects a pending upgrade request. Rejection is purely
// local; the Flash API is never called. An empty reason is recorded as
// "No reason provided".
func (s *Service) RejectUpgradeRequest(ctx context.Context, requestID uuid.UUID, operator domain.Operator, reason string) (*domain.UpgradeRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectionReason
	}

	var rejected domain.UpgradeRequest
	err := s.repo.DecideUpgradeRequest(ctx, requestID, func(req *domain.UpgradeRequest) (*store.UpgradeDecision, error) {
		if req.Status != domain.StatusPending {
			return nil, &RequestFinalizedError{Status: req.Status}
		}
		now := time.Now().UTC()
		rejected = *req
		rejected.Status = domain.StatusRejected
		rejected.ApprovedBy = operator.ID
		rejected.ApprovalDate = &now
		rejected.RejectionReason = reason
		return &store.UpgradeDecision{
			Status:          domain.StatusRejected,
			DecidedBy:       operator.ID,
			DecidedAt:       now,
			RejectionReason: reason,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, routingKeyUpgradeRejected, rabbitmq.UpgradeDecisionEvent{
		RequestID:   rejected.ID,
		PhoneNumber: rejected.PhoneNumber,
		Level:       string(rejected.RequestedLevel),
		Status:      string(domain.StatusRejected),
		DecidedBy:   operator.ID,
		Reason:      reason,
		Timestamp:   time.Now().UTC(),
	})
	return &rejected, nil
}

// createDependentRecords creates the Customer, Address and BankAccount records
// an approval at tier TWO or THREE depends on. The Customer is mandatory;
// Address and BankAccount are attempted only when their minimal fields are
// present. Failures after the Customer step accumulate, and any failure at
// all aborts the approval.
func (s *Service) createDependentRecords(ctx context.Context, req *domain.UpgradeRequest) error {
	customer, err := s.repo.FindCustomerByPhone(ctx, req.PhoneNumber)
	if errors.Is(err, store.ErrCustomerNotFound) {
		customer = &domain.Customer{
			ID:          uuid.New(),
			FullName:    req.FullName,
			Username:    req.Username,
			PhoneNumber: req.PhoneNumber,
		}
		err = s.repo.CreateCustomer(ctx, customer)
	}
	if err != nil {
		// Without a customer nothing can be linked, so stop here.
		return &DependentRecordError{Errors: []string{fmt.Sprintf("Customer: %v", err)}}
	}

	var recordErrors []string
	if req.AddressLine1 != "" && req.City != "" && req.Country != "" {
		if err := s.createAddress(ctx, customer.ID, req); err != nil {
			recordErrors = append(recordErrors, fmt.Sprintf("Address: %v", err))
		}
	}
	if req.BankName != "" && req.AccountNumber != "" {
		if err := s.createBankAccount(ctx, customer.ID, req); err != nil {
			recordErrors = append(recordErrors, fmt.Sprintf("BankAccount: %v", err))
		}
	}

	if len(recordErrors) > 0 {
		return &DependentRecordError{Errors: recordErrors}
	}
	return nil
}

func (s *Service) createAddress(ctx context.Context, customerID uuid.UUID, req *domain.UpgradeRequest) error {
	address := domain.Address{
		ID:         uuid.New(),
		CustomerID: customerID,
		Line1:      req.AddressLine1,
		Line2:      req.AddressLine2,
		City:       req.City,
		State:      req.State,
		Pincode:    req.Pincode,
		Country:    req.Country,
	}

	existing, err := s.repo.FindAddressesByCustomerID(ctx, customerID)
	if err != nil {
		return err
	}
	for _, candidate := range existing {
		if candidate.Matches(address) {
			return nil
		}
	}
	return s.repo.CreateAddress(ctx, &address)
}

func (s *Service) createBankAccount(ctx context.Context, customerID uuid.UUID, req *domain.UpgradeRequest) error {
	exists, err := s.repo.BankAccountNumberExists(ctx, req.AccountNumber)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	bank, err := s.repo.FindBankByName(ctx, req.BankName)
	if errors.Is(err, store.ErrBankNotFound) {
		bank = &domain.Bank{ID: uuid.New(), Name: req.BankName}
		err = s.repo.CreateBank(ctx, bank)
	}
	if err != nil {
		return err
	}

	return s.repo.CreateBankAccount(ctx, &domain.BankAccount{
		ID:            uuid.New(),
		CustomerID:    customerID,
		BankID:        bank.ID,
		BankName:      req.BankName,
		BankBranch:    req.BankBranch,
		AccountType:   req.AccountType,
		Currency:      req.Currency,
		AccountNumber: req.AccountNumber,
	})
}

// GetAccountByPhone fetches the authoritative account for a phone number
// from the Flash API.
func (s *Service) GetAccountByPhone(ctx context.Context, operator domain.Operator, phone string) (*domain.RemoteAccount, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, &ValidationError{Message: "phone number is required"}
	}
	account, err := s.gateway.AccountByPhone(ctx, operator, phone)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrRemoteAccountNotFound
	}
	return account, nil
}

// UpdateAccountLevel sets an account's tier directly on the Flash side,
// outside the upgrade request workflow.
func (s *Service) UpdateAccountLevel(ctx context.Context, operator domain.Operator, uid string, level domain.AccountLevel) (*domain.RemoteAccount, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, &ValidationError{Message: "account uid is required"}
	}
	if !level.IsValid() {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid account level %q", level)}
	}

	result, err := s.gateway.UpdateAccountLevel(ctx, operator, uid, level)
	if err != nil {
		return nil, err
	}
	if len(result.Errors) > 0 {
		return nil, &LevelUpdateError{Errors: result.Errors}
	}
	return result.AccountDetails, nil
}

// GetIDDocumentURL returns a presigned read URL for an identity document.
func (s *Service) GetIDDocumentURL(ctx context.Context, operator domain.Operator, fileKey string) (string, error) {
	if strings.TrimSpace(fileKey) == "" {
		return "", &ValidationError{Message: "file key is required"}
	}
	return s.gateway.IDDocumentURL(ctx, operator, fileKey)
}

// SendAlert pushes a broadcast alert to all Flash users and logs it locally.
// The local log write is best-effort: the alert has already gone out, so a
// failed insert is logged and the call still succeeds.
func (s *Service) SendAlert(ctx context.Context, operator domain.Operator, title, message, tag string) (*domain.UserAlert, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || message == "" {
		return nil, &ValidationError{Message: "alert title and message are required"}
	}

	if s.alertLimiter != nil {
		allowed, err := s.alertLimiter.Allow(ctx, operator.ID)
		if err != nil {
			log.Printf("level=warn component=admin_service msg=\"alert rate limiter unavailable; allowing\" err=%v", err)
		} else if !allowed {
			return nil, ErrRateLimited
		}
	}

	result, err := s.gateway.SendBroadcastAlert(ctx, operator, title, message, tag)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &BroadcastError{Errors: result.Errors}
	}

	alert := &domain.UserAlert{
		ID:      uuid.New(),
		Title:   title,
		Message: message,
		Tag:     tag,
		SentBy:  operator.ID,
		SentOn:  time.Now().UTC(),
	}
	if err := s.repo.InsertUserAlert(ctx, alert); err != nil {
		log.Printf("level=warn component=admin_service msg=\"alert delivered but log insert failed\" alert_id=%s err=%v", alert.ID, err)
	}

	s.publish(ctx, routingKeyAlertSent, rabbitmq.AlertSentEvent{
		Title:     title,
		Tag:       tag,
		SentBy:    operator.ID,
		Timestamp: alert.SentOn,
	})
	return alert, nil
}

// GetUserAlerts returns the most recent broadcast alerts, newest first.
func (s *Service) GetUserAlerts(ctx context.Context, limit int) ([]domain.UserAlert, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.ListUserAlerts(ctx, limit)
}

// ListUpgradeRequests returns one page of upgrade requests with paging totals.
func (s *Service) ListUpgradeRequests(ctx context.Context, filter store.UpgradeRequestFilter, page, pageSize int) (*domain.UpgradeRequestPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	total, err := s.repo.CountUpgradeRequests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count upgrade requests: %w", err)
	}
	requests, err := s.repo.ListUpgradeRequests(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list upgrade requests: %w", err)
	}

	return &domain.UpgradeRequestPage{
		Requests:   requests,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// SearchAccounts looks up upgrade requests by phone number or username. A
// query holding at least ten digits is treated as a phone number; everything
// else matches usernames. Results are enriched with any bank account already
// on file for the same phone.
func (s *Service) SearchAccounts(ctx context.Context, query string) ([]domain.AccountSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Message: "search query is required"}
	}

	var (
		requests []domain.UpgradeRequest
		err      error
	)
	if digits := digitsOf(query); len(digits) >= phoneQueryMinDigits {
		requests, err = s.repo.SearchUpgradeRequestsByPhone(ctx, digits)
	} else {
		requests, err = s.repo.SearchUpgradeRequestsByUsername(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search upgrade requests: %w", err)
	}
	if len(requests) == 0 {
		return nil, ErrNoSearchResults
	}

	results := make([]domain.AccountSearchResult, 0, len(requests))
	for _, req := range requests {
		result := domain.AccountSearchResult{UpgradeRequest: req}
		account, err := s.repo.FindBankAccountByPhone(ctx, req.PhoneNumber)
		switch {
		case err == nil:
			result.BankAccount = account
		case errors.Is(err, store.ErrBankAccountNotFound):
			// No bank account on file yet.
		default:
			log.Printf("level=warn component=admin_service msg=\"bank account enrichment failed\" phone_number=%s err=%v", req.PhoneNumber, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// ListCashoutRequests returns one page of cash-out records with paging totals.
func (s *Service) ListCashoutRequests(ctx context.Context, filter store.CashoutFilter, page, pageSize int) (*domain.CashoutRequestPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	total, err := s.repo.CountCashoutRequests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count cashout requests: %w", err)
	}
	requests, err := s.repo.ListCashoutRequests(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list cashout requests: %w", err)
	}

	return &domain.CashoutRequestPage{
		Requests:   requests,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// SearchCashoutRequests matches cash-out records by order id, username or
// phone number. An empty result is a valid answer here.
func (s *Service) SearchCashoutRequests(ctx context.Context, query string) ([]domain.CashoutRequest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Message: "search query is required"}
	}
	return s.repo.SearchCashoutRequests(ctx, query)
}

// ConfirmCashoutPayment marks a pending cash-out as paid. Confirmation is
// purely local bookkeeping; the payout happened out of band.
func (s *Service) ConfirmCashoutPayment(ctx context.Context, requestID uuid.UUID, operator domain.Operator, confirmationCode string) (*domain.CashoutRequest, error) {
	confirmationCode = strings.TrimSpace(confirmationCode)
	if confirmationCode == "" {
		return nil, &ValidationError{Message: "confirmation code is required"}
	}

	confirmed, err := s.repo.ConfirmCashoutPayment(ctx, requestID, operator.ID, confirmationCode, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.publish(ctx, routingKeyCashoutConfirmed, rabbitmq.CashoutConfirmedEvent{
		RequestID:   confirmed.ID,
		OrderID:     confirmed.OrderID,
		ConfirmedBy: operator.ID,
		Timestamp:   time.Now().UTC(),
	})
	return confirmed, nil
}

// publish sends an audit event. Failures are logged and swallowed; auditing
// never fails an operator action.
func (s *Service) publish(ctx context.Context, routingKey string, event interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, rabbitmq.EventsExchange, routingKey, event); err != nil {
		log.Printf("level=warn component=admin_service msg=\"audit event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
