/**
 * @description
 * This package provides a client for the Flash admin GraphQL API. It
 * encapsulates authenticated query/mutation execution and normalizes the
 * error surface for the rest of the service.
 *
 * Key features:
 * - Refuses to construct when the endpoint URL or signing key is missing.
 * - Mints a fresh short-lived JWT per call (operator subject + roles) so
 *   role changes take effect immediately; tokens are never cached.
 * - Shares one pooled HTTP client across calls with a fixed 30s timeout.
 * - Distinguishes transport failures, malformed responses, and well-formed
 *   remote rejections, and maps the remote NOT_FOUND code to a nil result
 *   on lookup operations.
 *
 * @dependencies
 * - bytes, context, encoding/json, errors, fmt, io, net/http, strings, time: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: Per-call token signing.
 * - internal/domain: Remote account models.
 */
package flashclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lnflash/admin-service/internal/domain"
)

// ErrMisconfigured is returned by NewClient when the endpoint URL or signing
// key is absent. The check is eager so a bad deployment fails at startup,
// not on the first call.
var ErrMisconfigured = errors.New("flash admin api url and signing key must be configured")

const (
	tokenIssuer  = "flash-admin-panel"
	tokenTTL     = time.Hour
	callTimeout  = 30 * time.Second
	notFoundCode = "NOT_FOUND"
)

// TransportError wraps network-level failures: connection refused, DNS,
// timeouts, and unexpected HTTP status codes.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("flash api transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError indicates the remote answered but the response shape was not
// the GraphQL envelope this client expects.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flash api protocol error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("flash api protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// RemoteError carries the application-level error list from a well-formed
// GraphQL response.
type RemoteError struct {
	Errors []domain.FieldError
}

func (e *RemoteError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, fieldErr := range e.Errors {
		messages = append(messages, fieldErr.Message)
	}
	return fmt.Sprintf("flash api rejected request: %s", strings.Join(messages, "; "))
}

func (e *RemoteError) hasCode(code string) bool {
	for _, fieldErr := range e.Errors {
		if fieldErr.Code == code {
			return true
		}
	}
	return false
}

// AccountLevelResult is the payload of the accountUpdateLevel mutation:
// either the updated account or a list of field errors.
type AccountLevelResult struct {
	Errors         []domain.FieldError   `json:"errors"`
	AccountDetails *domain.RemoteAccount `json:"accountDetails"`
}

// BroadcastResult is the payload of the adminBroadcastSend mutation.
type BroadcastResult struct {
	Success bool                `json:"success"`
	Errors  []domain.FieldError `json:"errors"`
}

// Client is a client for the Flash admin GraphQL API.
type Client struct {
	url        string
	signingKey string
	httpClient *http.Client
}

// NewClient creates a new Flash API client. It fails fast with
// ErrMisconfigured when either input is empty.
func NewClient(url, signingKey string) (*Client, error) {
	if strings.TrimSpace(url) == "" || strings.TrimSpace(signingKey) == "" {
		return nil, ErrMisconfigured
	}
	return &Client{
		url:        url,
		signingKey: signingKey,
		httpClient: &http.Client{
			Timeout: callTimeout,
		},
	}, nil
}

// mintToken creates the per-call JWT carrying the acting operator's identity
// and roles, valid for one hour.
func (c *Client) mintToken(operator domain.Operator) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": operator.ID,
		"roles":  operator.Roles,
		"iat":    now.Unix(),
		"exp":    now.Add(tokenTTL).Unix(),
		"iss":    tokenIssuer,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.signingKey))
}

type graphQLError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// execute posts a GraphQL query and returns the decoded envelope. Transport
// and decoding failures come back as TransportError/ProtocolError; the
// caller decides what the envelope's error list means for its operation.
func (c *Client) execute(ctx context.Context, operator domain.Operator, query string, variables map[string]interface{}) (*graphQLResponse, error) {
	token, err := c.mintToken(operator)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request token: %w", err)
	}

	payload := map[string]interface{}{"query": query}
	if variables != nil {
		payload["variables"] = variables
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))}
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &ProtocolError{Reason: "response is not a graphql envelope", Err: err}
	}
	return &envelope, nil
}

func remoteError(errs []graphQLError) *RemoteError {
	fieldErrors := make([]domain.FieldError, 0, len(errs))
	for _, gqlErr := range errs {
		fieldErrors = append(fieldErrors, domain.FieldError{Message: gqlErr.Message, Code: gqlErr.Code})
	}
	return &RemoteError{Errors: fieldErrors}
}

const accountByPhoneQuery = `
	query accountDetailsByUserPhone($phone: Phone!) {
		accountDetailsByUserPhone(phone: $phone) {
			id
			username
			level
			status
			title
			owner {
				id
				language
				phone
				email {
					address
					verified
				}
				createdAt
			}
			coordinates {
				latitude
				longitude
			}
			wallets {
				id
				walletCurrency
				accountId
				balance
				pendingIncomingBalance
			}
			createdAt
		}
	}
`

// AccountByPhone looks up the authoritative account for a phone number.
// A remote NOT_FOUND is a valid empty result, returned as (nil, nil).
func (c *Client) AccountByPhone(ctx context.Context, operator domain.Operator, phone string) (*domain.RemoteAccount, error) {
	envelope, err := c.execute(ctx, operator, accountByPhoneQuery, map[string]interface{}{"phone": phone})
	if err != nil {
		return nil, err
	}

	if len(envelope.Errors) > 0 {
		remoteErr := remoteError(envelope.Errors)
		if remoteErr.hasCode(notFoundCode) {
			return nil, nil
		}
		return nil, remoteErr
	}

	var data struct {
		AccountDetailsByUserPhone *domain.RemoteAccount `json:"accountDetailsByUserPhone"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, &ProtocolError{Reason: "unexpected accountDetailsByUserPhone payload", Err: err}
	}
	if data.AccountDetailsByUserPhone == nil {
		return nil, &ProtocolError{Reason: "accountDetailsByUserPhone missing from response"}
	}
	return data.AccountDetailsByUserPhone, nil
}

const updateAccountLevelMutation = `
	mutation accountUpdateLevel($input: AccountUpdateLevelInput!) {
		accountUpdateLevel(input: $input) {
			errors {
				message
			}
			accountDetails {
				id
				username
				level
			}
		}
	}
`

// UpdateAccountLevel mutates the account tier on the Flash side. Field-level
// rejections come back inside the result; a remote NOT_FOUND here is a hard
// error, unlike on lookups.
func (c *Client) UpdateAccountLevel(ctx context.Context, operator domain.Operator, uid string, level domain.AccountLevel) (*AccountLevelResult, error) {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"uid":   uid,
			"level": level,
		},
	}
	envelope, err := c.execute(ctx, operator, updateAccountLevelMutation, variables)
	if err != nil {
		return nil, err
	}
	if len(envelope.Errors) > 0 {
		return nil, remoteError(envelope.Errors)
	}

	var data struct {
		AccountUpdateLevel *AccountLevelResult `json:"accountUpdateLevel"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, &ProtocolError{Reason: "unexpected accountUpdateLevel payload", Err: err}
	}
	if data.AccountUpdateLevel == nil {
		return nil, &ProtocolError{Reason: "accountUpdateLevel missing from response"}
	}
	return data.AccountUpdateLevel, nil
}

const broadcastAlertMutation = `
	mutation adminBroadcastSend($input: AdminBroadcastSendInput!) {
		adminBroadcastSend(input: $input) {
			success
			errors {
				message
			}
		}
	}
`

// SendBroadcastAlert pushes an alert to every Flash user.
func (c *Client) SendBroadcastAlert(ctx context.Context, operator domain.Operator, title, body, tag string) (*BroadcastResult, error) {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"title": title,
			"body":  body,
			"tag":   tag,
		},
	}
	envelope, err := c.execute(ctx, operator, broadcastAlertMutation, variables)
	if err != nil {
		return nil, err
	}
	if len(envelope.Errors) > 0 {
		return nil, remoteError(envelope.Errors)
	}

	var data struct {
		AdminBroadcastSend *BroadcastResult `json:"adminBroadcastSend"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, &ProtocolError{Reason: "unexpected adminBroadcastSend payload", Err: err}
	}
	if data.AdminBroadcastSend == nil {
		return nil, &ProtocolError{Reason: "adminBroadcastSend missing from response"}
	}
	return data.AdminBroadcastSend, nil
}

const idDocumentURLQuery = `
	query idDocumentUrl($input: IdDocumentUrlInput!) {
		idDocumentUrl(input: $input) {
			url
			errors {
				message
				code
			}
		}
	}
`

// IDDocumentURL fetches a presigned read URL for an identity document held
// in the Flash object store.
func (c *Client) IDDocumentURL(ctx context.Context, operator domain.Operator, fileKey string) (string, error) {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"fileKey": fileKey,
		},
	}
	envelope, err := c.execute(ctx, operator, idDocumentURLQuery, variables)
	if err != nil {
		return "", err
	}
	if len(envelope.Errors) > 0 {
		return "", remoteError(envelope.Errors)
	}

	var data struct {
		IDDocumentURL *struct {
			URL    string              `json:"url"`
			Errors []domain.FieldError `json:"errors"`
		} `json:"idDocumentUrl"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return "", &ProtocolError{Reason: "unexpected idDocumentUrl payload", Err: err}
	}
	if data.IDDocumentURL == nil {
		return "", &ProtocolError{Reason: "idDocumentUrl missing from response"}
	}
	if len(data.IDDocumentURL.Errors) > 0 {
		return "", &RemoteError{Errors: data.IDDocumentURL.Errors}
	}
	return data.IDDocumentURL.URL, nil
}
