package domain

import (
	"time"

	"github.com/google/uuid"
)

// CashoutStatus is the reconciliation state of a cash-out payment record.
type CashoutStatus string

const (
	CashoutPending   CashoutStatus = "Pending"
	CashoutCompleted CashoutStatus = "Completed"
	CashoutExpired   CashoutStatus = "Expired"
)

// CashoutRequest is a cash-out payment awaiting manual reconciliation by an
// accounts operator. Confirmation is purely local; the payout itself happens
// out of band.
type CashoutRequest struct {
	ID          uuid.UUID     `json:"id"`
	OrderID     string        `json:"order_id"`
	OfferID     string        `json:"offer_id,omitempty"`
	Username    string        `json:"username"`
	PhoneNumber string        `json:"phone_number,omitempty"`
	FullName    string        `json:"full_name,omitempty"`
	Email       string        `json:"email,omitempty"`

	BusinessName    string `json:"business_name,omitempty"`
	BusinessAddress string `json:"business_address,omitempty"`

	BankName      string `json:"bank_name,omitempty"`
	BankBranch    string `json:"bank_branch,omitempty"`
	AccountType   string `json:"account_type,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`

	Currency      string  `json:"currency"`
	SendCurrency  string  `json:"send_currency"`
	SendAmount    int64   `json:"send_amount"`
	ReceiveAmount int64   `json:"receive_amount"`
	ExchangeRate  float64 `json:"exchange_rate,omitempty"`
	FlashFee      int64   `json:"flash_fee,omitempty"`

	Status           CashoutStatus `json:"status"`
	ExpirationTime   *time.Time    `json:"expiration_time,omitempty"`
	ConfirmedBy      string        `json:"confirmed_by,omitempty"`
	ConfirmationCode string        `json:"confirmation_code,omitempty"`
	PaymentDate      *time.Time    `json:"payment_date,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// CashoutRequestPage is one page of cash-out records plus paging totals.
type CashoutRequestPage struct {
	Requests   []CashoutRequest `json:"requests"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}
