/**
 * @description
 * This file defines the typed errors the admin service returns to the API
 * layer. Each type maps to a distinct HTTP outcome, so handlers translate by
 * type instead of string matching.
 *
 * @dependencies
 * - errors, fmt, strings: Standard Go libraries.
 * - internal/domain: Domain models.
 */

package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lnflash/admin-service/internal/domain"
)

var (
	// ErrRemoteAccountNotFound means the Flash API has no account for the
	// phone number on an upgrade request or lookup.
	ErrRemoteAccountNotFound = errors.New("no flash account found for phone number")

	// ErrRateLimited means the broadcast alert allowance for the current
	// window is exhausted.
	ErrRateLimited = errors.New("alert rate limit exceeded, try again later")

	// ErrNoSearchResults means an account search matched nothing.
	ErrNoSearchResults = errors.New("no accounts matched the search query")
)

// ValidationError reports rejected caller input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RequestFinalizedError means a decision targeted an upgrade request that has
// already been approved or rejected.
type RequestFinalizedError struct {
	Status domain.UpgradeStatus
}

func (e *RequestFinalizedError) Error() string {
	return fmt.Sprintf("upgrade request already finalized as %s", e.Status)
}

// DependentRecordError accumulates the per-record failures hit while creating
// Customer/Address/BankAccount records during an approval. Any one of them
// aborts the approval.
type DependentRecordError struct {
	Errors []string
}

func (e *DependentRecordError) Error() string {
	return fmt.Sprintf("failed to create dependent records: %s", strings.Join(e.Errors, "; "))
}

// LevelUpdateError carries the field-level rejections the Flash API returned
// from an account level mutation.
type LevelUpdateError struct {
	Errors []domain.FieldError
}

func (e *LevelUpdateError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, fieldErr := range e.Errors {
		messages = append(messages, fieldErr.Message)
	}
	return fmt.Sprintf("account level update rejected: %s", strings.Join(messages, "; "))
}

// BroadcastError carries the rejections the Flash API returned from a
// broadcast alert mutation.
type BroadcastError struct {
	Errors []domain.FieldError
}

func (e *BroadcastError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, fieldErr := range e.Errors {
		messages = append(messages, fieldErr.Message)
	}
	if len(messages) == 0 {
		return "broadcast alert rejected"
	}
	return fmt.Sprintf("broadcast alert rejected: %s", strings.Join(messages, "; "))
}
