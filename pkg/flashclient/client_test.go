package flashclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lnflash/admin-service/internal/domain"
)

const testSigningKey = "test-signing-key"

var testOperator = domain.Operator{ID: "admin@flash", Roles: []string{"admin"}}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, testSigningKey)
	if err != nil {
		t.Fatalf("expected client construction to succeed, got %v", err)
	}
	return client
}

func TestNewClientRejectsMissingConfig(t *testing.T) {
	cases := []struct {
		name string
		url  string
		key  string
	}{
		{name: "empty url", url: "", key: "key"},
		{name: "empty key", url: "http://localhost", key: ""},
		{name: "whitespace key", url: "http://localhost", key: "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClient(tc.url, tc.key); !errors.Is(err, ErrMisconfigured) {
				t.Fatalf("expected ErrMisconfigured, got %v", err)
			}
		})
	}
}

func TestAccountByPhoneSendsSignedToken(t *testing.T) {
	var authHeader string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{"accountDetailsByUserPhone":{"id":"acct-1","username":"jdoe","level":"ONE"}}}`))
	})

	account, err := client.AccountByPhone(context.Background(), testOperator, "+18765551234")
	if err != nil {
		t.Fatalf("expected lookup to succeed, got %v", err)
	}
	if account.ID != "acct-1" || account.Username != "jdoe" {
		t.Errorf("unexpected account: %+v", account)
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		t.Fatalf("expected a bearer token, got header %q", authHeader)
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSigningKey), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("expected a valid signed token, got %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["userId"] != testOperator.ID {
		t.Errorf("expected userId claim %q, got %v", testOperator.ID, claims["userId"])
	}
	if claims["iss"] != "flash-admin-panel" {
		t.Errorf("expected issuer flash-admin-panel, got %v", claims["iss"])
	}
}

func TestAccountByPhoneNotFoundIsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"account does not exist","code":"NOT_FOUND"}]}`))
	})

	account, err := client.AccountByPhone(context.Background(), testOperator, "+18765550000")
	if err != nil {
		t.Fatalf("expected NOT_FOUND to be a valid empty result, got %v", err)
	}
	if account != nil {
		t.Errorf("expected a nil account, got %+v", account)
	}
}

func TestAccountByPhoneOtherRemoteErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"permission denied","code":"FORBIDDEN"}]}`))
	})

	_, err := client.AccountByPhone(context.Background(), testOperator, "+18765550000")
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if !strings.Contains(remoteErr.Error(), "permission denied") {
		t.Errorf("expected the remote message verbatim, got %q", remoteErr.Error())
	}
}

func TestUpdateAccountLevelSurfacesFieldErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"accountUpdateLevel":{"errors":[{"message":"account is locked"}],"accountDetails":null}}}`))
	})

	result, err := client.UpdateAccountLevel(context.Background(), testOperator, "acct-1", domain.LevelTwo)
	if err != nil {
		t.Fatalf("expected a well-formed response to decode, got %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Message != "account is locked" {
		t.Errorf("unexpected field errors: %+v", result.Errors)
	}
}

func TestSendBroadcastAlert(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"adminBroadcastSend":{"success":true,"errors":[]}}}`))
	})

	result, err := client.SendBroadcastAlert(context.Background(), testOperator, "Maintenance", "Down at 2am", "maintenance")
	if err != nil {
		t.Fatalf("expected broadcast to succeed, got %v", err)
	}
	if !result.Success {
		t.Error("expected success true")
	}
}

func TestExecuteMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := client.AccountByPhone(context.Background(), testOperator, "+18765551234")
	var protocolErr *ProtocolError
	if !errors.As(err, &protocolErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestExecuteUnexpectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.AccountByPhone(context.Background(), testOperator, "+18765551234")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestIDDocumentURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"idDocumentUrl":{"url":"https://files.flash.io/doc?sig=abc","errors":[]}}}`))
	})

	url, err := client.IDDocumentURL(context.Background(), testOperator, "kyc/doc-1.jpg")
	if err != nil {
		t.Fatalf("expected url fetch to succeed, got %v", err)
	}
	if url != "https://files.flash.io/doc?sig=abc" {
		t.Errorf("unexpected url %q", url)
	}
}
