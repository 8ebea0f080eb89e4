package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lnflash/admin-service/internal/domain"
	"github.com/lnflash/admin-service/internal/store"
	"github.com/lnflash/admin-service/pkg/flashclient"
)

type upgradeRepoStub struct {
	store.Repository

	req      domain.UpgradeRequest
	decision *store.UpgradeDecision

	customer          *domain.Customer
	createdCustomer   *domain.Customer
	createCustomerErr error

	addresses        []domain.Address
	createdAddress   *domain.Address
	createAddressErr error

	bank        *domain.Bank
	createdBank *domain.Bank

	accountNumberExists  bool
	createdBankAccount   *domain.BankAccount
	createBankAccountErr error
}

func (s *upgradeRepoStub) DecideUpgradeRequest(ctx context.Context, requestID uuid.UUID, decide store.DecideUpgradeFunc) error {
	req := s.req
	decision, err := decide(&req)
	if err != nil {
		return err
	}
	s.decision = decision
	return nil
}

func (s *upgradeRepoStub) FindCustomerByPhone(ctx context.Context, phoneNumber string) (*domain.Customer, error) {
	if s.customer == nil {
		return nil, store.ErrCustomerNotFound
	}
	return s.customer, nil
}

func (s *upgradeRepoStub) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	if s.createCustomerErr != nil {
		return s.createCustomerErr
	}
	s.createdCustomer = customer
	return nil
}

func (s *upgradeRepoStub) FindAddressesByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Address, error) {
	return s.addresses, nil
}

func (s *upgradeRepoStub) CreateAddress(ctx context.Context, address *domain.Address) error {
	if s.createAddressErr != nil {
		return s.createAddressErr
	}
	s.createdAddress = address
	return nil
}

func (s *upgradeRepoStub) FindBankByName(ctx context.Context, name string) (*domain.Bank, error) {
	if s.bank == nil {
		return nil, store.ErrBankNotFound
	}
	return s.bank, nil
}

func (s *upgradeRepoStub) CreateBank(ctx context.Context, bank *domain.Bank) error {
	s.createdBank = bank
	return nil
}

func (s *upgradeRepoStub) BankAccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	return s.accountNumberExists, nil
}

func (s *upgradeRepoStub) CreateBankAccount(ctx context.Context, account *domain.BankAccount) error {
	if s.createBankAccountErr != nil {
		return s.createBankAccountErr
	}
	s.createdBankAccount = account
	return nil
}

type gatewayStub struct {
	account       *domain.RemoteAccount
	accountErr    error
	accountCalled bool

	levelResult *flashclient.AccountLevelResult
	levelErr    error
	levelCalled bool
	levelUID    string
	levelValue  domain.AccountLevel
}

func (g *gatewayStub) AccountByPhone(ctx context.Context, operator domain.Operator, phone string) (*domain.RemoteAccount, error) {
	g.accountCalled = true
	return g.account, g.accountErr
}

func (g *gatewayStub) UpdateAccountLevel(ctx context.Context, operator domain.Operator, uid string, level domain.AccountLevel) (*flashclient.AccountLevelResult, error) {
	g.levelCalled = true
	g.levelUID = uid
	g.levelValue = level
	if g.levelErr != nil {
		return nil, g.levelErr
	}
	if g.levelResult != nil {
		return g.levelResult, nil
	}
	return &flashclient.AccountLevelResult{}, nil
}

func (g *gatewayStub) SendBroadcastAlert(ctx context.Context, operator domain.Operator, title, body, tag string) (*flashclient.BroadcastResult, error) {
	return &flashclient.BroadcastResult{Success: true}, nil
}

func (g *gatewayStub) IDDocumentURL(ctx context.Context, operator domain.Operator, fileKey string) (string, error) {
	return "", nil
}

func pendingRequest(level domain.AccountLevel) domain.UpgradeRequest {
	return domain.UpgradeRequest{
		ID:             uuid.New(),
		Username:       "jdoe",
		PhoneNumber:    "+18765551234",
		RequestedLevel: level,
		Status:         domain.StatusPending,
		FullName:       "Jane Doe",
		AddressLine1:   "12 Harbour St",
		City:           "Kingston",
		Country:        "Jamaica",
		BankName:       "NCB",
		AccountNumber:  "123456789",
	}
}

func TestApproveUpgradeRequestCreatesDependentRecords(t *testing.T) {
	repo := &upgradeRepoStub{req: pendingRequest(domain.LevelThree)}
	gateway := &gatewayStub{account: &domain.RemoteAccount{ID: "acct-1"}}
	service := NewService(repo, gateway, nil, nil)
	operator := domain.Operator{ID: "admin@flash", Roles: []string{"admin"}}

	approved, err := service.ApproveUpgradeRequest(context.Background(), repo.req.ID, operator)
	if err != nil {
		t.Fatalf("expected approval to succeed, got %v", err)
	}
	if approved.Status != domain.StatusApproved {
		t.Errorf("expected status Approved, got %s", approved.Status)
	}
	if approved.ApprovedBy != operator.ID {
		t.Errorf("expected approved_by %q, got %q", operator.ID, approved.ApprovedBy)
	}
	if repo.decision == nil || repo.decision.Status != domain.StatusApproved {
		t.Fatalf("expected an Approved decision to be persisted, got %+v", repo.decision)
	}
	if repo.createdCustomer == nil {
		t.Error("expected a customer to be created")
	}
	if repo.createdAddress == nil {
		t.Error("expected an address to be created")
	}
	if repo.createdBank == nil || repo.createdBankAccount == nil {
		t.Error("expected a bank and bank account to be created")
	}
	if !gateway.levelCalled || gateway.levelUID != "acct-1" || gateway.levelValue != domain.LevelThree {
		t.Errorf("expected level update for acct-1 at THREE, got called=%v uid=%q level=%q", gateway.levelCalled, gateway.levelUID, gateway.levelValue)
	}
}

func TestApproveUpgradeRequestLowTierSkipsDependentRecords(t *testing.T) {
	repo := &upgradeRepoStub{req: pendingRequest(domain.LevelOne)}
	gateway := &gatewayStub{account: &domain.RemoteAccount{ID: "acct-1"}}
	service := NewService(repo, gateway, nil, nil)

	if _, err := service.ApproveUpgradeRequest(context.Background(), repo.req.ID, domain.Operator{ID: "admin@flash"}); err != nil {
		t.Fatalf("expected approval to succeed, got %v", err)
	}
	if repo.createdCustomer != nil || repo.createdAddress != nil || repo.createdBankAccount != nil {
		t.Error("expected no dependent records for a tier ONE approval")
	}
}

func TestApproveUpgradeRequestAlreadyFinalized(t *testing.T) {
	req := pendingRequest(domain.LevelTwo)
	req.Status = domain.StatusApproved
	repo := &upgradeRepoStub{req: req}
	gateway := &gatewayStub{account: &domain.RemoteAccount{ID: "acct-1"}}
	service := NewService(repo, gateway, nil, nil)

	_, err := service.ApproveUpgradeRequest(context.Background(), req.ID, domain.Operator{ID: "admin@flash"})
	var finalizedErr *RequestFinalizedError
	if !errors.As(err, &finalizedErr) {
		t.Fatalf("expected RequestFinalizedError, got %v", err)
	}
	if finalizedErr.Status != domain.StatusApproved {
		t.Errorf("expected conflict status Approved, got %s", finalizedErr.Status)
	}
	if gateway.accountCalled {
		t.Error("expected no remote lookup for a finalized request")
	}
}

func TestApproveUpgradeRequestNoRemoteAccount(t *testing.T) {
	repo := &upgradeRepoStub{req: pendingRequest(domain.LevelTwo)}
	gateway := &gatewayStub{account: nil}
	service := NewService(repo, gateway, nil, nil)

	_, err := service.ApproveUpgradeRequest(context.Background(), repo.req.ID, domain.Operator{ID: "admin@flash"})
	if !errors.Is(err, ErrRemoteAccountNotFound) {
		t.Fatalf("expected ErrRemoteAccountNotFound, got %v", err)
	}
	if repo.decision != nil {
		t.Error("expected no decision to be persisted")
	}
	if gateway.levelCalled {
		t.Error("expected no level update without a remote account")
	}
}

func TestApproveUpgradeRequestAddressFailureKeepsCustomer(t *testing.T) {
	repo := &upgradeRepoStub{
		req:              pendingRequest(domain.LevelThree),
		createAddressErr: errors.New("insert failed"),
	}
	gateway := &gatewayStub{account: &domain.RemoteAccount{ID: "acct-1"}}
	service := NewService(repo, gateway, nil, nil)

	_, err := service.ApproveUpgradeRequest(context.Background(), repo.req.ID, domain.Operator{ID: "admin@flash"})
	var depErr *DependentRecordError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependentRecordError, got %v", err)
	}
	if !strings.Contains(depErr.Error(), "Address") {
		t.Errorf("expected error to name the Address step, got %q", depErr.Error())
	}
	if repo.createdCustomer == nil {
		t.Error("expected the customer created before the failure to survive")
	}
	if repo.decision != nil {
		t.Error("expected the request to stay Pending")
	}
	if gateway.levelCalled {
		t.Error("expected no level update after a dependent record failure")
	}
}

func TestApproveUpgradeRequestSkipsExistingBankAccount(t *testing.T) {
	repo := &upgradeRepoStub{
		req:                 pendingRequest(domain.LevelTwo),
		customer:            &domain.Customer{ID: uuid.New(), PhoneNumber: "+18765551234"},
		accountNumberExists: true,
	}
	gateway := &gatewayStub{account: &domain.RemoteAccount{ID: "acct-1"}}
	service := NewService(repo, gateway, nil, nil)

	if _, err := service.ApproveUpgradeRequest(context.Background(), repo.req.ID, domain.Operator{ID: "admin@flash"}); err != nil {
		t.Fatalf("expected approval to succeed, got %v", err)
	}
	if repo.createdBankAccount != nil {
		t.Error("expected no duplicate bank account for an existing account number")
	}
	if repo.createdCustomer != nil {
		t.Error("expected the existing customer to be reused")
	}
}

func TestApproveUpgradeRequestRemoteRejection(t *testing.T) {
	repo := &upgradeRepoStub{req: pendingRequest(domain.LevelOne)}
	gateway := &gatewayStub{
		account: &domain.RemoteAccount{ID: "acct-1"},
		levelResult: &flashclient.AccountLevelResult{
			Errors: []domain.FieldError{{Message: "account is locked"}},
		},
	}
	service := NewService(repo, gateway, nil, nil)

	_, err := service.ApproveUpgradeRequest(context.Background(), repo.req.ID, domain.Operator{ID: "admin@flash"})
	var levelErr *LevelUpdateError
	if !errors.As(err, &levelErr) {
		t.Fatalf("expected LevelUpdateError, got %v", err)
	}
	if !strings.Contains(levelErr.Error(), "account is locked") {
		t.Errorf("expected the remote message verbatim, got %q", levelErr.Error())
	}
	if repo.decision != nil {
		t.Error("expected the request to stay Pending after a remote rejection")
	}
}

func TestRejectUpgradeRequestDefaultsReason(t *testing.T) {
	repo := &upgradeRepoStub{req: pendingRequest(domain.LevelTwo)}
	gateway := &gatewayStub{}
	service := NewService(repo, gateway, nil, nil)

	rejected, err := service.RejectUpgradeRequest(context.Background(), repo.req.ID, domain.Operator{ID: "admin@flash"}, "   ")
	if err != nil {
		t.Fatalf("expected rejection to succeed, got %v", err)
	}
	if rejected.RejectionReason != "No reason provided" {
		t.Errorf("expected default reason, got %q", rejected.RejectionReason)
	}
	if repo.decision == nil || repo.decision.Status != domain.StatusRejected {
		t.Fatalf("expected a Rejected decision to be persisted, got %+v", repo.decision)
	}
	if gateway.accountCalled || gateway.levelCalled {
		t.Error("expected rejection to be purely local")
	}
}

func TestRejectUpgradeRequestAlreadyFinalized(t *testing.T) {
	req := pendingRequest(domain.LevelTwo)
	req.Status = domain.StatusRejected
	repo := &upgradeRepoStub{req: req}
	service := NewService(repo, &gatewayStub{}, nil, nil)

	_, err := service.RejectUpgradeRequest(context.Background(), req.ID, domain.Operator{ID: "admin@flash"}, "duplicate")
	var finalizedErr *RequestFinalizedError
	if !errors.As(err, &finalizedErr) {
		t.Fatalf("expected RequestFinalizedError, got %v", err)
	}
}
