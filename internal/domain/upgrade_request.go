/**
 * @description
 * This file defines the domain models for the account upgrade workflow. An
 * UpgradeRequest is the local record an operator decides on; its KYC fields
 * feed the dependent Customer/Address/BankAccount records created on approval.
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

// AccountLevel is the tier a user requests on the Flash side.
type AccountLevel string

const (
	LevelZero  AccountLevel = "ZERO"
	LevelOne   AccountLevel = "ONE"
	LevelTwo   AccountLevel = "TWO"
	LevelThree AccountLevel = "THREE"
)

// IsValid reports whether the level is one of the four known tiers.
func (l AccountLevel) IsValid() bool {
	switch l {
	case LevelZero, LevelOne, LevelTwo, LevelThree:
		return true
	}
	return false
}

// RequiresKYCRecords reports whether approving a request at this level must
// create the dependent Customer/Address/BankAccount records first.
func (l AccountLevel) RequiresKYCRecords() bool {
	return l == LevelTwo || l == LevelThree
}

// UpgradeStatus is the decision state of an upgrade request.
// Transitions are Pending -> Approved or Pending -> Rejected, never back.
type UpgradeStatus string

const (
	StatusPending  UpgradeStatus = "Pending"
	StatusApproved UpgradeStatus = "Approved"
	StatusRejected UpgradeStatus = "Rejected"
)

// UpgradeRequest is a user's request to move to a higher account tier,
// together with the KYC details collected from them.
type UpgradeRequest struct {
	ID             uuid.UUID     `json:"id"`
	Username       string        `json:"username"`
	PhoneNumber    string        `json:"phone_number"`
	RequestedLevel AccountLevel  `json:"requested_level"`
	Status         UpgradeStatus `json:"status"`

	FullName     string `json:"full_name,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Pincode      string `json:"pincode,omitempty"`
	Country      string `json:"country,omitempty"`

	BankName      string `json:"bank_name,omitempty"`
	BankBranch    string `json:"bank_branch,omitempty"`
	AccountType   string `json:"account_type,omitempty"`
	Currency      string `json:"currency,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`

	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovalDate    *time.Time `json:"approval_date,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// UpgradeRequestPage is one page of upgrade requests plus paging totals.
type UpgradeRequestPage struct {
	Requests   []UpgradeRequest `json:"requests"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// AccountSearchResult is an upgrade request enriched with any bank account
// already on file for the same phone number.
type AccountSearchResult struct {
	UpgradeRequest
	BankAccount *BankAccount `json:"bank_account,omitempty"`
}
