package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tillchat/internal/domain"
	"tillchat/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) QueryProducts(ctx context.Context, ownerID string) ([]domain.CatalogProduct, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, COALESCE(brand, ''), unit_price, stock_quantity,
		       COALESCE(unit_of_measure, ''), COALESCE(category, '')
		FROM products
		WHERE owner_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.CatalogProduct, 0, 64)
	for rows.Next() {
		var p domain.CatalogProduct
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Brand, &p.UnitPrice, &p.StockQuantity, &p.UnitOfMeasure, &p.Category); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// DecrementStock is one conditional statement so concurrent sales of the
// same product never interleave a read with a write. The GREATEST clamp
// keeps stock from going negative; overselling relative to recorded stock
// is tolerated rather than blocking the sale.
func (s *Store) DecrementStock(ctx context.Context, ownerID string, productID string, quantity float64) (float64, error) {
	if quantity <= 0 {
		return 0, store.ErrInvalidReceipt
	}

	var newStock float64
	err := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock_quantity = GREATEST(0, stock_quantity - $1), updated_at = now()
		WHERE owner_id = $2 AND id = $3
		RETURNING stock_quantity
	`, quantity, ownerID, productID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrNotFound
		}
		return 0, err
	}
	return newStock, nil
}

func (s *Store) StageReceipt(ctx context.Context, receipt domain.Receipt) error {
	if receipt.TransactionID == "" || receipt.OwnerID == "" || len(receipt.Items) == 0 {
		return store.ErrInvalidReceipt
	}
	if receipt.Status != domain.ReceiptStatusPending {
		return store.ErrInvalidReceipt
	}

	items, err := json.Marshal(receipt.Items)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO receipts (
			transaction_id, owner_id, store_id, customer_name, sale_date, sale_time,
			items, subtotal, tax_rate, tax_amount, total, payment_method, status, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, receipt.TransactionID, receipt.OwnerID, receipt.StoreID, nullIfEmpty(receipt.CustomerName),
		receipt.Date, receipt.Time, items, receipt.Subtotal, receipt.TaxRate, receipt.TaxAmount,
		receipt.Total, receipt.PaymentMethod, receipt.Status, receipt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidReceipt
		}
		return err
	}
	return nil
}

const receiptColumns = `
	transaction_id,
	COALESCE(NULLIF(owner_id, ''), user_id, '') AS owner_id,
	store_id, COALESCE(customer_name, ''), sale_date, sale_time,
	items, subtotal, tax_rate, tax_amount, total, payment_method, status, created_at
`

func (s *Store) GetReceipt(ctx context.Context, transactionID string) (*domain.Receipt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+receiptColumns+`
		FROM receipts
		WHERE transaction_id = $1
	`, transactionID)

	rcpt, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return rcpt, nil
}

// FinalizeReceipt transitions pending -> terminal with a conditional
// update, so two concurrent confirms for the same id cannot both succeed.
func (s *Store) FinalizeReceipt(ctx context.Context, transactionID string, status string) (*domain.Receipt, error) {
	if status != domain.ReceiptStatusConfirmed && status != domain.ReceiptStatusCancelled {
		return nil, store.ErrInvalidReceipt
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE receipts
		SET status = $2, finalized_at = now()
		WHERE transaction_id = $1 AND status = 'pending'
		RETURNING `+receiptColumns+`
	`, transactionID, status)

	rcpt, err := scanReceipt(row)
	if err == nil {
		return rcpt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Nothing was pending: distinguish missing from already finalized.
	var existing string
	lookupErr := s.db.QueryRowContext(ctx, `
		SELECT status FROM receipts WHERE transaction_id = $1
	`, transactionID).Scan(&existing)
	if lookupErr != nil {
		if errors.Is(lookupErr, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, lookupErr
	}
	return nil, store.ErrAlreadyFinalized
}

func (s *Store) ListPendingReceipts(ctx context.Context, ownerID string, limit int) ([]domain.Receipt, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+receiptColumns+`
		FROM receipts
		WHERE status = 'pending' AND COALESCE(NULLIF(owner_id, ''), user_id, '') = $1
		ORDER BY created_at DESC, transaction_id
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := make([]domain.Receipt, 0, limit)
	for rows.Next() {
		rcpt, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, *rcpt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return receipts, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, owner_id, store_id, actor_username, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.OwnerID, entry.StoreID, entry.ActorUsername, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrInvalidReceipt
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*domain.Receipt, error) {
	var rcpt domain.Receipt
	var customerName string
	var items []byte
	err := row.Scan(
		&rcpt.TransactionID, &rcpt.OwnerID, &rcpt.StoreID, &customerName,
		&rcpt.Date, &rcpt.Time, &items, &rcpt.Subtotal, &rcpt.TaxRate,
		&rcpt.TaxAmount, &rcpt.Total, &rcpt.PaymentMethod, &rcpt.Status, &rcpt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rcpt.CustomerName = customerName
	rcpt.CreatedAt = rcpt.CreatedAt.UTC()
	if err := json.Unmarshal(items, &rcpt.Items); err != nil {
		return nil, err
	}
	return &rcpt, nil
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
