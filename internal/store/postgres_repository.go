/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all SQL for upgrade requests, dependent KYC records
 * (customers, addresses, banks, bank accounts), the user-alert log, and
 * cash-out reconciliation records.
 *
 * @dependencies
 * - context, fmt, strings, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lnflash/admin-service/internal/domain"
)

// PostgresRepository is the pgx-backed implementation of Repository.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const upgradeRequestColumns = `
	id, username, phone_number, requested_level, status,
	COALESCE(full_name, ''), COALESCE(address_line1, ''), COALESCE(address_line2, ''),
	COALESCE(city, ''), COALESCE(state, ''), COALESCE(pincode, ''), COALESCE(country, ''),
	COALESCE(bank_name, ''), COALESCE(bank_branch, ''), COALESCE(account_type, ''),
	COALESCE(currency, ''), COALESCE(account_number, ''),
	COALESCE(approved_by, ''), approval_date, COALESCE(rejection_reason, ''), created_at`

func scanUpgradeRequest(row pgx.Row) (*domain.UpgradeRequest, error) {
	var req domain.UpgradeRequest
	err := row.Scan(
		&req.ID, &req.Username, &req.PhoneNumber, &req.RequestedLevel, &req.Status,
		&req.FullName, &req.AddressLine1, &req.AddressLine2,
		&req.City, &req.State, &req.Pincode, &req.Country,
		&req.BankName, &req.BankBranch, &req.AccountType,
		&req.Currency, &req.AccountNumber,
		&req.ApprovedBy, &req.ApprovalDate, &req.RejectionReason, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// DecideUpgradeRequest locks the request row with FOR UPDATE, runs the decide
// callback while the lock is held, and persists the returned decision before
// committing. The lock serializes concurrent approve/reject attempts on the
// same request; a decide error rolls everything back.
func (r *PostgresRepository) DecideUpgradeRequest(ctx context.Context, requestID uuid.UUID, decide DecideUpgradeFunc) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + upgradeRequestColumns + ` FROM upgrade_requests WHERE id = $1 FOR UPDATE`
	req, err := scanUpgradeRequest(tx.QueryRow(ctx, query, requestID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrUpgradeRequestNotFound
		}
		return err
	}

	decision, err := decide(req)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE upgrade_requests
		SET status = $1, approved_by = $2, approval_date = $3, rejection_reason = NULLIF($4, '')
		WHERE id = $5`,
		decision.Status, decision.DecidedBy, decision.DecidedAt, decision.RejectionReason, requestID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func upgradeRequestWhere(filter UpgradeRequestFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RequestedLevel != "" {
		args = append(args, filter.RequestedLevel)
		clauses = append(clauses, fmt.Sprintf("requested_level = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListUpgradeRequests returns one page of upgrade requests, newest first.
func (r *PostgresRepository) ListUpgradeRequests(ctx context.Context, filter UpgradeRequestFilter, limit, offset int) ([]domain.UpgradeRequest, error) {
	where, args := upgradeRequestWhere(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT %s FROM upgrade_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		upgradeRequestColumns, where, len(args)-1, len(args),
	)
	return r.queryUpgradeRequests(ctx, query, args...)
}

// CountUpgradeRequests returns the total row count for a filter.
func (r *PostgresRepository) CountUpgradeRequests(ctx context.Context, filter UpgradeRequestFilter) (int, error) {
	where, args := upgradeRequestWhere(filter)
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM upgrade_requests`+where, args...).Scan(&total)
	return total, err
}

// SearchUpgradeRequestsByPhone finds requests whose phone number contains the query.
func (r *PostgresRepository) SearchUpgradeRequestsByPhone(ctx context.Context, query string) ([]domain.UpgradeRequest, error) {
	sql := `SELECT ` + upgradeRequestColumns + `
		FROM upgrade_requests WHERE phone_number LIKE '%' || $1 || '%'
		ORDER BY created_at DESC`
	return r.queryUpgradeRequests(ctx, sql, query)
}

// SearchUpgradeRequestsByUsername finds requests whose username contains the query.
func (r *PostgresRepository) SearchUpgradeRequestsByUsername(ctx context.Context, query string) ([]domain.UpgradeRequest, error) {
	sql := `SELECT ` + upgradeRequestColumns + `
		FROM upgrade_requests WHERE username ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC`
	return r.queryUpgradeRequests(ctx, sql, query)
}

func (r *PostgresRepository) queryUpgradeRequests(ctx context.Context, sql string, args ...interface{}) ([]domain.UpgradeRequest, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []domain.UpgradeRequest{}
	for rows.Next() {
		req, err := scanUpgradeRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// FindCustomerByPhone retrieves the customer keyed by a phone number.
func (r *PostgresRepository) FindCustomerByPhone(ctx context.Context, phoneNumber string) (*domain.Customer, error) {
	var customer domain.Customer
	query := `SELECT id, COALESCE(full_name, ''), COALESCE(username, ''), phone_number, created_at
		FROM customers WHERE phone_number = $1`
	err := r.db.QueryRow(ctx, query, phoneNumber).Scan(
		&customer.ID, &customer.FullName, &customer.Username, &customer.PhoneNumber, &customer.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// CreateCustomer inserts a new customer record.
func (r *PostgresRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	query := `INSERT INTO customers (id, full_name, username, phone_number) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, query, customer.ID, customer.FullName, customer.Username, customer.PhoneNumber)
	return err
}

// FindAddressesByCustomerID returns every address linked to a customer.
func (r *PostgresRepository) FindAddressesByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Address, error) {
	query := `SELECT id, customer_id, address_line1, COALESCE(address_line2, ''), city,
		COALESCE(state, ''), COALESCE(pincode, ''), country, created_at
		FROM addresses WHERE customer_id = $1`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addresses := []domain.Address{}
	for rows.Next() {
		var addr domain.Address
		err := rows.Scan(&addr.ID, &addr.CustomerID, &addr.Line1, &addr.Line2, &addr.City,
			&addr.State, &addr.Pincode, &addr.Country, &addr.CreatedAt)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

// CreateAddress inserts a new address linked to a customer.
func (r *PostgresRepository) CreateAddress(ctx context.Context, address *domain.Address) error {
	query := `INSERT INTO addresses (id, customer_id, address_line1, address_line2, city, state, pincode, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query, address.ID, address.CustomerID, address.Line1, address.Line2,
		address.City, address.State, address.Pincode, address.Country)
	return err
}

// FindBankByName retrieves a bank by its name.
func (r *PostgresRepository) FindBankByName(ctx context.Context, name string) (*domain.Bank, error) {
	var bank domain.Bank
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM banks WHERE name = $1`, name).Scan(
		&bank.ID, &bank.Name, &bank.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBankNotFound
		}
		return nil, err
	}
	return &bank, nil
}

// CreateBank inserts a new bank record.
func (r *PostgresRepository) CreateBank(ctx context.Context, bank *domain.Bank) error {
	_, err := r.db.Exec(ctx, `INSERT INTO banks (id, name) VALUES ($1, $2)`, bank.ID, bank.Name)
	return err
}

// BankAccountNumberExists reports whether any bank account carries the number.
func (r *PostgresRepository) BankAccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM bank_accounts WHERE account_number = $1)`, accountNumber,
	).Scan(&exists)
	return exists, err
}

// CreateBankAccount inserts a new bank account linked to a customer and bank.
func (r *PostgresRepository) CreateBankAccount(ctx context.Context, account *domain.BankAccount) error {
	query := `INSERT INTO bank_accounts (id, customer_id, bank_id, bank_branch, account_type, currency, account_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query, account.ID, account.CustomerID, account.BankID,
		account.BankBranch, account.AccountType, account.Currency, account.AccountNumber)
	return err
}

// FindBankAccountByPhone returns the newest bank account on file for the
// customer keyed by the phone number. Used to enrich search results.
func (r *PostgresRepository) FindBankAccountByPhone(ctx context.Context, phoneNumber string) (*domain.BankAccount, error) {
	var account domain.BankAccount
	query := `
		SELECT ba.id, ba.customer_id, ba.bank_id, b.name,
			COALESCE(ba.bank_branch, ''), COALESCE(ba.account_type, ''),
			COALESCE(ba.currency, ''), ba.account_number, ba.created_at
		FROM bank_accounts ba
		JOIN customers c ON c.id = ba.customer_id
		JOIN banks b ON b.id = ba.bank_id
		WHERE c.phone_number = $1
		ORDER BY ba.created_at DESC
		LIMIT 1`
	err := r.db.QueryRow(ctx, query, phoneNumber).Scan(
		&account.ID, &account.CustomerID, &account.BankID, &account.BankName,
		&account.BankBranch, &account.AccountType, &account.Currency,
		&account.AccountNumber, &account.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBankAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// InsertUserAlert appends a broadcast log row. Alert rows are never updated
// or deleted.
func (r *PostgresRepository) InsertUserAlert(ctx context.Context, alert *domain.UserAlert) error {
	query := `INSERT INTO user_alerts (id, title, message, tag, sent_by, sent_on) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query, alert.ID, alert.Title, alert.Message, alert.Tag, alert.SentBy, alert.SentOn)
	return err
}

// ListUserAlerts returns the latest alert log rows, newest first.
func (r *PostgresRepository) ListUserAlerts(ctx context.Context, limit int) ([]domain.UserAlert, error) {
	query := `SELECT id, title, message, tag, sent_by, sent_on FROM user_alerts ORDER BY sent_on DESC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := []domain.UserAlert{}
	for rows.Next() {
		var alert domain.UserAlert
		if err := rows.Scan(&alert.ID, &alert.Title, &alert.Message, &alert.Tag, &alert.SentBy, &alert.SentOn); err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

const cashoutColumns = `
	id, order_id, COALESCE(offer_id, ''), username, COALESCE(phone_number, ''),
	COALESCE(full_name, ''), COALESCE(email, ''),
	COALESCE(business_name, ''), COALESCE(business_address, ''),
	COALESCE(bank_name, ''), COALESCE(bank_branch, ''), COALESCE(account_type, ''),
	COALESCE(account_number, ''),
	currency, send_currency, send_amount, receive_amount,
	COALESCE(exchange_rate, 0), COALESCE(flash_fee, 0),
	status, expiration_time, COALESCE(confirmed_by, ''), COALESCE(confirmation_code, ''),
	payment_date, created_at`

func scanCashoutRequest(row pgx.Row) (*domain.CashoutRequest, error) {
	var req domain.CashoutRequest
	err := row.Scan(
		&req.ID, &req.OrderID, &req.OfferID, &req.Username, &req.PhoneNumber,
		&req.FullName, &req.Email,
		&req.BusinessName, &req.BusinessAddress,
		&req.BankName, &req.BankBranch, &req.AccountType,
		&req.AccountNumber,
		&req.Currency, &req.SendCurrency, &req.SendAmount, &req.ReceiveAmount,
		&req.ExchangeRate, &req.FlashFee,
		&req.Status, &req.ExpirationTime, &req.ConfirmedBy, &req.ConfirmationCode,
		&req.PaymentDate, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func cashoutWhere(filter CashoutFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Currency != "" {
		args = append(args, filter.Currency)
		clauses = append(clauses, fmt.Sprintf("currency = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListCashoutRequests returns one page of cash-out records, newest first.
func (r *PostgresRepository) ListCashoutRequests(ctx context.Context, filter CashoutFilter, limit, offset int) ([]domain.CashoutRequest, error) {
	where, args := cashoutWhere(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT %s FROM cashout_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		cashoutColumns, where, len(args)-1, len(args),
	)
	return r.queryCashoutRequests(ctx, query, args...)
}

// CountCashoutRequests returns the total row count for a filter.
func (r *PostgresRepository) CountCashoutRequests(ctx context.Context, filter CashoutFilter) (int, error) {
	where, args := cashoutWhere(filter)
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cashout_requests`+where, args...).Scan(&total)
	return total, err
}

// SearchCashoutRequests matches order ids exactly and usernames loosely.
func (r *PostgresRepository) SearchCashoutRequests(ctx context.Context, query string) ([]domain.CashoutRequest, error) {
	sql := `SELECT ` + cashoutColumns + `
		FROM cashout_requests
		WHERE order_id = $1 OR username ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC`
	return r.queryCashoutRequests(ctx, sql, query)
}

func (r *PostgresRepository) queryCashoutRequests(ctx context.Context, sql string, args ...interface{}) ([]domain.CashoutRequest, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []domain.CashoutRequest{}
	for rows.Next() {
		req, err := scanCashoutRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// ConfirmCashoutPayment marks a Pending cash-out as Completed. The row is
// locked with FOR UPDATE so two operators cannot both confirm it.
func (r *PostgresRepository) ConfirmCashoutPayment(ctx context.Context, requestID uuid.UUID, confirmedBy, confirmationCode string, paidAt time.Time) (*domain.CashoutRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + cashoutColumns + ` FROM cashout_requests WHERE id = $1 FOR UPDATE`
	req, err := scanCashoutRequest(tx.QueryRow(ctx, query, requestID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCashoutRequestNotFound
		}
		return nil, err
	}

	if req.Status != domain.CashoutPending {
		return nil, &CashoutStateError{Status: req.Status}
	}

	_, err = tx.Exec(ctx, `
		UPDATE cashout_requests
		SET status = $1, confirmed_by = $2, confirmation_code = $3, payment_date = $4
		WHERE id = $5`,
		domain.CashoutCompleted, confirmedBy, confirmationCode, paidAt, requestID,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	req.Status = domain.CashoutCompleted
	req.ConfirmedBy = confirmedBy
	req.ConfirmationCode = confirmationCode
	req.PaymentDate = &paidAt
	return req, nil
}
