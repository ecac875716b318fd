package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"paygate/internal/domain"
	"paygate/internal/repository"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create persists a payment and its items inside a single transaction.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertPayment(ctx, tx, payment); err != nil {
		return err
	}

	if err = insertItems(ctx, tx, payment.ID, payment.Items); err != nil {
		return err
	}

	return tx.Commit()
}

func insertPayment(ctx context.Context, q Querier, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, gateway_id, amount, description, payer_email, status, preference_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.ExecContext(ctx, query,
		payment.ID,
		nullString(payment.GatewayID),
		payment.Amount,
		payment.Description,
		payment.PayerEmail,
		payment.Status,
		nullString(payment.PreferenceID),
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateGatewayID
	}

	return err
}

func insertItems(ctx context.Context, q Querier, paymentID string, items []domain.PaymentItem) error {
	query := `
		INSERT INTO payment_items (payment_id, title, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
	`

	for _, item := range items {
		if _, err := q.ExecContext(ctx, query, paymentID, item.Title, item.Quantity, item.UnitPrice); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves a payment and its items by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `
		SELECT id, gateway_id, amount, description, payer_email, status, preference_id, created_at, updated_at
		FROM payments WHERE id = $1
	`

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if payment.Items, err = r.loadItems(ctx, payment.ID); err != nil {
		return nil, err
	}

	return payment, nil
}

// GetAll retrieves all payments with their items, newest first.
func (r *PaymentRepository) GetAll(ctx context.Context) ([]*domain.Payment, error) {
	query := `
		SELECT id, gateway_id, amount, description, payer_email, status, preference_id, created_at, updated_at
		FROM payments ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, payment := range payments {
		if payment.Items, err = r.loadItems(ctx, payment.ID); err != nil {
			return nil, err
		}
	}

	return payments, nil
}

// SetGatewayID stores the gateway order/charge id on a payment.
func (r *PaymentRepository) SetGatewayID(ctx context.Context, id, gatewayID string) error {
	query := `UPDATE payments SET gateway_id = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, gatewayID, time.Now(), id)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateGatewayID
	}
	if err != nil {
		return err
	}

	return requireRow(result)
}

// ApplyGatewayUpdate sets the gateway id and status in one statement, so two
// concurrent deliveries for the same payment never interleave partial writes.
func (r *PaymentRepository) ApplyGatewayUpdate(ctx context.Context, id, gatewayID string, status domain.PaymentStatus) error {
	query := `UPDATE payments SET gateway_id = $1, status = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, gatewayID, status, time.Now(), id)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateGatewayID
	}
	if err != nil {
		return err
	}

	return requireRow(result)
}

// UpdateStatusFrom moves a payment between statuses only if it still holds
// the expected current status.
func (r *PaymentRepository) UpdateStatusFrom(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error) {
	query := `UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// Delete removes a payment and its items.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM payment_items WHERE payment_id = $1`, id); err != nil {
		return err
	}

	var result sql.Result
	if result, err = tx.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id); err != nil {
		return err
	}

	if err = requireRow(result); err != nil {
		return err
	}

	return tx.Commit()
}

// ListStalePending returns pending payments created before the cutoff that
// never received a gateway id. Items are not loaded; callers only need the
// payment identity and timestamps.
func (r *PaymentRepository) ListStalePending(ctx context.Context, before time.Time) ([]*domain.Payment, error) {
	query := `
		SELECT id, gateway_id, amount, description, payer_email, status, preference_id, created_at, updated_at
		FROM payments
		WHERE status = $1 AND gateway_id IS NULL AND created_at < $2
	`

	rows, err := r.db.QueryContext(ctx, query, domain.PaymentStatusPending, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

func (r *PaymentRepository) loadItems(ctx context.Context, paymentID string) ([]domain.PaymentItem, error) {
	query := `SELECT title, quantity, unit_price FROM payment_items WHERE payment_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.PaymentItem
	for rows.Next() {
		var item domain.PaymentItem
		if err := rows.Scan(&item.Title, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	var gatewayID, preferenceID sql.NullString

	err := row.Scan(
		&payment.ID,
		&gatewayID,
		&payment.Amount,
		&payment.Description,
		&payment.PayerEmail,
		&payment.Status,
		&preferenceID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	payment.GatewayID = gatewayID.String
	payment.PreferenceID = preferenceID.String

	return &payment, nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
