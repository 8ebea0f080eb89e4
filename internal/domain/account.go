/**
 * @description
 * This file defines the read models for accounts owned by the remote Flash
 * admin API. The service never persists a RemoteAccount; every read comes
 * fresh from the API and may be stale the moment it arrives.
 *
 * Field names mirror the GraphQL schema verbatim; they are contract-fixed
 * by the remote service and must not be renamed.
 */

package domain

// RemoteAccount is the authoritative account record on the Flash side.
type RemoteAccount struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	Level       string        `json:"level"`
	Status      string        `json:"status"`
	Title       string        `json:"title,omitempty"`
	Owner       *AccountOwner `json:"owner,omitempty"`
	Coordinates *Coordinates  `json:"coordinates,omitempty"`
	Wallets     []Wallet      `json:"wallets,omitempty"`
	CreatedAt   string        `json:"createdAt,omitempty"`
}

// AccountOwner is the user who owns a remote account.
type AccountOwner struct {
	ID        string        `json:"id"`
	Language  string        `json:"language,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	Email     *AccountEmail `json:"email,omitempty"`
	CreatedAt string        `json:"createdAt,omitempty"`
}

// AccountEmail is a remote account owner's email address.
type AccountEmail struct {
	Address  string `json:"address,omitempty"`
	Verified bool   `json:"verified"`
}

// Coordinates is the last known location attached to a remote account.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Wallet is one currency wallet under a remote account.
type Wallet struct {
	ID                     string `json:"id"`
	WalletCurrency         string `json:"walletCurrency"`
	AccountID              string `json:"accountId"`
	Balance                int64  `json:"balance"`
	PendingIncomingBalance int64  `json:"pendingIncomingBalance"`
}

// FieldError is an application-level error reported by a remote mutation,
// carried verbatim back to the operator.
type FieldError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
