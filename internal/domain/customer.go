/**
 * @description
 * This file defines the dependent business records created when an upgrade
 * request to tier TWO or THREE is approved: the Customer, their Address, the
 * Bank (lazily created), and the BankAccount. All of them are created with
 * lookup-before-insert semantics so a retried approval never duplicates them.
 *
 * @dependencies
 * - time: Standard Go library.
 * - github.com/google/uuid: For record identities.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the local business record derived from an approved upgrade
// request. It is keyed by phone number for idempotent lookup-or-create.
type Customer struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Username    string    `json:"username"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Address is an optional mailing address linked to a Customer. Line1, City
// and Country form the minimal set required before one is created.
type Address struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Line1      string    `json:"address_line1"`
	Line2      string    `json:"address_line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state,omitempty"`
	Pincode    string    `json:"pincode,omitempty"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"created_at"`
}

// Matches reports whether two addresses carry identical field values. Used
// for the no-duplicate invariant on approval retries.
func (a Address) Matches(other Address) bool {
	return a.Line1 == other.Line1 &&
		a.Line2 == other.Line2 &&
		a.City == other.City &&
		a.State == other.State &&
		a.Pincode == other.Pincode &&
		a.Country == other.Country
}

// Bank is the parent institution of a BankAccount, keyed by name.
type Bank struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// BankAccount is a customer's external bank account. Account numbers are
// unique across the store; creation is skipped when one already exists.
type BankAccount struct {
	ID            uuid.UUID `json:"id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	BankID        uuid.UUID `json:"bank_id"`
	BankName      string    `json:"bank_name"`
	BankBranch    string    `json:"bank_branch,omitempty"`
	AccountType   string    `json:"account_type,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	AccountNumber string    `json:"account_number"`
	CreatedAt     time.Time `json:"created_at"`
}
