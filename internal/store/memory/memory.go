package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tillchat/internal/domain"
	"tillchat/internal/store"
)

type productRecord struct {
	product   domain.CatalogProduct
	updatedAt time.Time
}

type Store struct {
	mu              sync.RWMutex
	productsByOwner map[string]map[string]*productRecord
	receiptsByID    map[string]*domain.Receipt
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials come from SEED_OWNER_PASSWORD and SEED_ASSISTANT_PASSWORD; if
// unset, hardcoded dev defaults are used with a warning. These credentials
// are never used in production (the backend uses PostgreSQL when
// DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	ownerPwd := envOr("SEED_OWNER_PASSWORD", "owner123")
	assistantPwd := envOr("SEED_ASSISTANT_PASSWORD", "assistant123")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" || os.Getenv("SEED_ASSISTANT_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_OWNER_PASSWORD and SEED_ASSISTANT_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"owner", ownerPwd, "owner"},
		{"assistant", assistantPwd, "assistant"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store preloaded with a demo catalog for the owner id
// "owner-demo".
func NewSeeded() *Store {
	products := []domain.CatalogProduct{
		{ID: "prod-001", DisplayName: "Bread", Brand: "Lobels", UnitPrice: 1.25, StockQuantity: 40, UnitOfMeasure: "loaf", Category: "bakery"},
		{ID: "prod-002", DisplayName: "Fresh Milk 1L", Brand: "Dairibord", UnitPrice: 2.50, StockQuantity: 18, UnitOfMeasure: "bottle", Category: "dairy"},
		{ID: "prod-003", DisplayName: "Mazoe Orange Crush", Brand: "Mazoe", UnitPrice: 3.50, StockQuantity: 24, UnitOfMeasure: "bottle", Category: "beverage"},
		{ID: "prod-004", DisplayName: "Raspberry Juice", Brand: "Mazoe", UnitPrice: 2.75, StockQuantity: 12, UnitOfMeasure: "bottle", Category: "beverage"},
		{ID: "prod-005", DisplayName: "Mahewu", Brand: "Dairibord", UnitPrice: 0.75, StockQuantity: 30, UnitOfMeasure: "bottle", Category: "beverage"},
		{ID: "prod-006", DisplayName: "Sugar 2kg", Brand: "Hullets", UnitPrice: 3.20, StockQuantity: 15, UnitOfMeasure: "bag", Category: "grocery"},
		{ID: "prod-007", DisplayName: "Cooking Oil 750ml", Brand: "Olivine", UnitPrice: 4.10, StockQuantity: 9, UnitOfMeasure: "bottle", Category: "grocery"},
		{ID: "prod-008", DisplayName: "Eggs Dozen", UnitPrice: 2.90, StockQuantity: 20, UnitOfMeasure: "tray", Category: "grocery"},
	}

	now := time.Now().UTC()
	byOwner := map[string]map[string]*productRecord{"owner-demo": {}}
	for _, p := range products {
		byOwner["owner-demo"][p.ID] = &productRecord{product: p, updatedAt: now}
	}

	return &Store{
		productsByOwner: byOwner,
		receiptsByID:    make(map[string]*domain.Receipt),
		auditLogs:       make([]domain.AuditLog, 0, 64),
		usersByUsername: seedUsers(),
	}
}

// New returns an empty store. Products can be loaded with SetProducts.
func New() *Store {
	return &Store{
		productsByOwner: make(map[string]map[string]*productRecord),
		receiptsByID:    make(map[string]*domain.Receipt),
		auditLogs:       make([]domain.AuditLog, 0, 64),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// SetProducts replaces an owner's catalog. Intended for tests and seeding.
func (s *Store) SetProducts(ownerID string, products []domain.CatalogProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	byID := make(map[string]*productRecord, len(products))
	for _, p := range products {
		byID[p.ID] = &productRecord{product: p, updatedAt: now}
	}
	s.productsByOwner[ownerID] = byID
}

func (s *Store) QueryProducts(_ context.Context, ownerID string) ([]domain.CatalogProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.productsByOwner[ownerID]
	products := make([]domain.CatalogProduct, 0, len(byID))
	for _, rec := range byID {
		products = append(products, rec.product)
	}
	slices.SortFunc(products, func(a, b domain.CatalogProduct) int {
		return strings.Compare(a.ID, b.ID)
	})
	return products, nil
}

// DecrementStock clamps at zero rather than failing: overselling relative to
// recorded stock is tolerated, never blocks the sale.
func (s *Store) DecrementStock(_ context.Context, ownerID string, productID string, quantity float64) (float64, error) {
	if quantity <= 0 {
		return 0, store.ErrInvalidReceipt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.productsByOwner[ownerID]
	rec, ok := byID[productID]
	if !ok {
		return 0, store.ErrNotFound
	}

	newStock := rec.product.StockQuantity - quantity
	if newStock < 0 {
		newStock = 0
	}
	rec.product.StockQuantity = newStock
	rec.updatedAt = time.Now().UTC()
	return newStock, nil
}

func (s *Store) StageReceipt(_ context.Context, receipt domain.Receipt) error {
	if receipt.TransactionID == "" || receipt.OwnerID == "" || len(receipt.Items) == 0 {
		return store.ErrInvalidReceipt
	}
	if receipt.Status != domain.ReceiptStatusPending {
		return store.ErrInvalidReceipt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.receiptsByID[receipt.TransactionID]; exists {
		return store.ErrInvalidReceipt
	}
	stored := cloneReceipt(receipt)
	s.receiptsByID[receipt.TransactionID] = &stored
	return nil
}

func (s *Store) GetReceipt(_ context.Context, transactionID string) (*domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rcpt, ok := s.receiptsByID[transactionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := cloneReceipt(*rcpt)
	return &copied, nil
}

// FinalizeReceipt is the compare-and-swap that makes confirmation
// race-free: the transition only happens while the stored status is still
// pending, under the same lock that any concurrent caller must take.
func (s *Store) FinalizeReceipt(_ context.Context, transactionID string, status string) (*domain.Receipt, error) {
	if status != domain.ReceiptStatusConfirmed && status != domain.ReceiptStatusCancelled {
		return nil, store.ErrInvalidReceipt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rcpt, ok := s.receiptsByID[transactionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if rcpt.Status != domain.ReceiptStatusPending {
		return nil, store.ErrAlreadyFinalized
	}

	rcpt.Status = status
	copied := cloneReceipt(*rcpt)
	return &copied, nil
}

func (s *Store) ListPendingReceipts(_ context.Context, ownerID string, limit int) ([]domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Receipt, 0, 8)
	for _, rcpt := range s.receiptsByID {
		if rcpt.OwnerID != ownerID || rcpt.Status != domain.ReceiptStatusPending {
			continue
		}
		result = append(result, cloneReceipt(*rcpt))
	}
	slices.SortFunc(result, func(a, b domain.Receipt) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(a.TransactionID, b.TransactionID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

// AuditLogs returns a copy of the recorded entries. Intended for tests.
func (s *Store) AuditLogs() []domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.AuditLog, len(s.auditLogs))
	copy(logs, s.auditLogs)
	return logs
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	if user.Username == "" {
		return store.ErrInvalidReceipt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidReceipt
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneReceipt(r domain.Receipt) domain.Receipt {
	copied := r
	copied.Items = make([]domain.LineItem, len(r.Items))
	copy(copied.Items, r.Items)
	return copied
}
