package store

import (
	"context"
	"errors"

	"tillchat/internal/domain"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyFinalized = errors.New("transaction already finalized")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidReceipt   = errors.New("invalid receipt")
)

// Repository is the persistence boundary of the transaction core. Catalog
// products are owned by the external catalog; the core only reads them and
// requests stock decrements. FinalizeReceipt and DecrementStock must be
// atomic at the persistence layer: the former is a compare-and-swap on the
// pending status, the latter a single conditional floor-clamped update.
type Repository interface {
	QueryProducts(ctx context.Context, ownerID string) ([]domain.CatalogProduct, error)
	DecrementStock(ctx context.Context, ownerID string, productID string, quantity float64) (float64, error)

	StageReceipt(ctx context.Context, receipt domain.Receipt) error
	GetReceipt(ctx context.Context, transactionID string) (*domain.Receipt, error)
	FinalizeReceipt(ctx context.Context, transactionID string, status string) (*domain.Receipt, error)
	ListPendingReceipts(ctx context.Context, ownerID string, limit int) ([]domain.Receipt, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
