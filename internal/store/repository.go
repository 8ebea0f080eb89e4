/**
 * @description
 * This file defines the Repository interface for the admin-service data
 * access layer, along with the sentinel and typed errors the implementations
 * return. The application layer depends only on this interface, which keeps
 * the business logic testable with in-memory stubs.
 *
 * @dependencies
 * - context, errors, fmt, time: Standard Go libraries.
 * - github.com/google/uuid: For record identities.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lnflash/admin-service/internal/domain"
)

var (
	ErrUpgradeRequestNotFound = errors.New("upgrade request not found")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrBankNotFound           = errors.New("bank not found")
	ErrBankAccountNotFound    = errors.New("bank account not found")
	ErrCashoutRequestNotFound = errors.New("cashout request not found")
)

// CashoutStateError is returned when a cash-out confirmation targets a
// record that is no longer Pending.
type CashoutStateError struct {
	Status domain.CashoutStatus
}

func (e *CashoutStateError) Error() string {
	return fmt.Sprintf("cashout request already finalized as %s", e.Status)
}

// UpgradeDecision is the terminal state a decide callback wants persisted on
// a locked upgrade request.
type UpgradeDecision struct {
	Status          domain.UpgradeStatus
	DecidedBy       string
	DecidedAt       time.Time
	RejectionReason string
}

// DecideUpgradeFunc runs while the upgrade request row is locked. Returning
// an error aborts the decision and leaves the row untouched.
type DecideUpgradeFunc func(req *domain.UpgradeRequest) (*UpgradeDecision, error)

// UpgradeRequestFilter narrows upgrade-request listings. Zero values mean
// "no filter".
type UpgradeRequestFilter struct {
	Status         domain.UpgradeStatus
	RequestedLevel domain.AccountLevel
}

// CashoutFilter narrows cash-out listings. Zero values mean "no filter".
type CashoutFilter struct {
	Status   domain.CashoutStatus
	Currency string
}

// Repository defines the storage operations the admin-service needs.
type Repository interface {
	// Upgrade-request workflow. DecideUpgradeRequest loads the request with
	// an exclusive row lock, runs decide under that lock, and persists the
	// returned decision in the same transaction. Any error from decide rolls
	// the transaction back, releasing the lock with the row unchanged.
	DecideUpgradeRequest(ctx context.Context, requestID uuid.UUID, decide DecideUpgradeFunc) error
	ListUpgradeRequests(ctx context.Context, filter UpgradeRequestFilter, limit, offset int) ([]domain.UpgradeRequest, error)
	CountUpgradeRequests(ctx context.Context, filter UpgradeRequestFilter) (int, error)
	SearchUpgradeRequestsByPhone(ctx context.Context, query string) ([]domain.UpgradeRequest, error)
	SearchUpgradeRequestsByUsername(ctx context.Context, query string) ([]domain.UpgradeRequest, error)

	// Dependent records, each with lookup-before-create semantics upstream.
	FindCustomerByPhone(ctx context.Context, phoneNumber string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	FindAddressesByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Address, error)
	CreateAddress(ctx context.Context, address *domain.Address) error
	FindBankByName(ctx context.Context, name string) (*domain.Bank, error)
	CreateBank(ctx context.Context, bank *domain.Bank) error
	BankAccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
	CreateBankAccount(ctx context.Context, account *domain.BankAccount) error
	FindBankAccountByPhone(ctx context.Context, phoneNumber string) (*domain.BankAccount, error)

	// Broadcast alert log (append-only).
	InsertUserAlert(ctx context.Context, alert *domain.UserAlert) error
	ListUserAlerts(ctx context.Context, limit int) ([]domain.UserAlert, error)

	// Cash-out reconciliation.
	ListCashoutRequests(ctx context.Context, filter CashoutFilter, limit, offset int) ([]domain.CashoutRequest, error)
	CountCashoutRequests(ctx context.Context, filter CashoutFilter) (int, error)
	SearchCashoutRequests(ctx context.Context, query string) ([]domain.CashoutRequest, error)
	ConfirmCashoutPayment(ctx context.Context, requestID uuid.UUID, confirmedBy, confirmationCode string, paidAt time.Time) (*domain.CashoutRequest, error)
}
