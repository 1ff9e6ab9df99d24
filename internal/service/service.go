package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"tillchat/internal/cache"
	"tillchat/internal/domain"
	"tillchat/internal/matcher"
	"tillchat/internal/parser"
	"tillchat/internal/receipt"
	"tillchat/internal/store"
	"tillchat/internal/xid"
)

// ErrNoMatch is returned when a cart line cannot be resolved against the
// owner's catalog. It names the offending text via wrapping.
var ErrNoMatch = errors.New("product not found")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo           store.Repository
	resolver       *matcher.Resolver
	catalogCache   cache.CatalogCache
	taxRate        float64
	cacheTTL       time.Duration
	defaultStoreID string
}

func New(repo store.Repository, resolver *matcher.Resolver, catalogCache cache.CatalogCache, taxRate float64, cacheTTL time.Duration, defaultStoreID string) *Service {
	if resolver == nil {
		resolver = matcher.New(nil, nil, 0)
	}
	if catalogCache == nil {
		catalogCache = cache.NoopCatalogCache{}
	}
	if defaultStoreID == "" {
		defaultStoreID = "main-store"
	}

	return &Service{
		repo:           repo,
		resolver:       resolver,
		catalogCache:   catalogCache,
		taxRate:        taxRate,
		cacheTTL:       cacheTTL,
		defaultStoreID: defaultStoreID,
	}
}

func (s *Service) catalog(ctx context.Context, ownerID string) ([]domain.CatalogProduct, error) {
	if products, ok, err := s.catalogCache.Get(ctx, ownerID); err != nil {
		log.Printf("[service] WARN: catalog cache read failed owner=%s: %v", ownerID, err)
	} else if ok {
		return products, nil
	}

	products, err := s.repo.QueryProducts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.catalogCache.Set(ctx, ownerID, products, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: catalog cache write failed owner=%s: %v", ownerID, err)
	}
	return products, nil
}

func (s *Service) invalidateCatalog(ctx context.Context, ownerID string) {
	if err := s.catalogCache.Invalidate(ctx, ownerID); err != nil {
		log.Printf("[service] WARN: catalog cache invalidation failed owner=%s: %v", ownerID, err)
	}
}

func (s *Service) ListProducts(ctx context.Context, ownerID string) ([]domain.CatalogProduct, error) {
	if ownerID == "" {
		return nil, store.ErrInvalidReceipt
	}
	return s.catalog(ctx, ownerID)
}

// ProcessSale runs the full pipeline: parse, resolve every entry, price,
// stage the pending receipt and return the confirmation prompt. Nothing is
// deducted from stock at this stage.
func (s *Service) ProcessSale(ctx context.Context, req domain.SaleRequest) (domain.SaleResponse, error) {
	if req.OwnerID == "" {
		return domain.SaleResponse{}, store.ErrInvalidReceipt
	}
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}

	entries, err := parser.Parse(req.Message)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	catalog, err := s.catalog(ctx, req.OwnerID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	byID := make(map[string]domain.CatalogProduct, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	resolved := make([]receipt.ResolvedEntry, 0, len(entries))
	for _, entry := range entries {
		candidate, ok := s.resolver.Resolve(entry.MatchText, catalog)
		if !ok {
			return domain.SaleResponse{}, fmt.Errorf("%w: %q", ErrNoMatch, entry.DisplayText)
		}
		resolved = append(resolved, receipt.ResolvedEntry{
			Entry:   entry,
			Product: byID[candidate.ProductID],
		})
	}

	rcpt, warnings := receipt.Compute(resolved, s.taxRate)

	now := time.Now().UTC()
	rcpt.TransactionID = xid.New("txn")
	rcpt.OwnerID = req.OwnerID
	rcpt.StoreID = req.StoreID
	rcpt.CustomerName = strings.TrimSpace(req.CustomerName)
	rcpt.Date = now.Format("2006-01-02")
	rcpt.Time = now.Format("15:04:05")
	rcpt.CreatedAt = now

	if err := s.repo.StageReceipt(ctx, rcpt); err != nil {
		return domain.SaleResponse{}, err
	}

	s.logAudit(ctx, req.OwnerID, req.StoreID, "sale_staged", "receipt", rcpt.TransactionID,
		fmt.Sprintf("items=%d,total=%.2f", len(rcpt.Items), rcpt.Total))

	return domain.SaleResponse{
		Receipt:      rcpt,
		Warnings:     warnings,
		Confirmation: RenderConfirmationRequest(rcpt),
	}, nil
}

// Confirm finalizes a pending receipt. The status transition happens first
// as a compare-and-swap at the store, so a concurrent duplicate confirm
// fails with ErrAlreadyFinalized and stock is deducted exactly once. Stock
// deductions after the swap are per-item best effort: a failed item becomes
// a warning, never a rollback.
func (s *Service) Confirm(ctx context.Context, req domain.ConfirmRequest) (domain.ConfirmResponse, error) {
	return s.finalize(ctx, req, domain.ReceiptStatusConfirmed)
}

// Cancel retires a pending receipt with no stock side effects.
func (s *Service) Cancel(ctx context.Context, req domain.ConfirmRequest) (domain.ConfirmResponse, error) {
	return s.finalize(ctx, req, domain.ReceiptStatusCancelled)
}

func (s *Service) finalize(ctx context.Context, req domain.ConfirmRequest, status string) (domain.ConfirmResponse, error) {
	if req.TransactionID == "" || req.OwnerID == "" {
		return domain.ConfirmResponse{}, store.ErrInvalidReceipt
	}

	existing, err := s.repo.GetReceipt(ctx, req.TransactionID)
	if err != nil {
		return domain.ConfirmResponse{}, err
	}
	if existing.OwnerID != req.OwnerID {
		return domain.ConfirmResponse{}, store.ErrUnauthorized
	}
	if req.StoreID != "" && existing.StoreID != "" && existing.StoreID != req.StoreID {
		return domain.ConfirmResponse{}, store.ErrUnauthorized
	}

	final, err := s.repo.FinalizeReceipt(ctx, req.TransactionID, status)
	if err != nil {
		return domain.ConfirmResponse{}, err
	}

	action := domain.ConfirmActionCancel
	warnings := make([]string, 0)
	if status == domain.ReceiptStatusConfirmed {
		action = domain.ConfirmActionConfirm
		for _, item := range final.Items {
			if _, err := s.repo.DecrementStock(ctx, final.OwnerID, item.ProductID, item.Quantity); err != nil {
				log.Printf("[service] WARN: stock deduction failed txn=%s product=%s: %v", final.TransactionID, item.ProductID, err)
				warnings = append(warnings, fmt.Sprintf("stock update failed for %s", item.DisplayName))
				s.logAudit(ctx, final.OwnerID, final.StoreID, "stock_deduct_failed", "product", item.ProductID, err.Error())
			}
		}
		s.invalidateCatalog(ctx, final.OwnerID)
	}

	s.logAudit(ctx, final.OwnerID, final.StoreID, "sale_"+status, "receipt", final.TransactionID,
		fmt.Sprintf("total=%.2f", final.Total))

	return domain.ConfirmResponse{
		Receipt:  *final,
		Action:   action,
		Warnings: warnings,
	}, nil
}

func (s *Service) ListPending(ctx context.Context, ownerID string, limit int) (domain.PendingListResponse, error) {
	if ownerID == "" {
		return domain.PendingListResponse{}, store.ErrInvalidReceipt
	}
	receipts, err := s.repo.ListPendingReceipts(ctx, ownerID, limit)
	if err != nil {
		return domain.PendingListResponse{}, err
	}
	return domain.PendingListResponse{Receipts: receipts}, nil
}

var priceInquiryRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)what'?s?\s+(?:the\s+)?price\s+of\s+(.+?)(?:\?|$)`),
	regexp.MustCompile(`(?i)price\s+(?:of\s+|for\s+)?(.+?)(?:\?|$)`),
	regexp.MustCompile(`(?i)how\s+much\s+(?:is\s+)?(.+?)(?:\?|$)`),
	regexp.MustCompile(`(?i)cost\s+(?:of\s+)?(.+?)(?:\?|$)`),
}

// PriceInquiry answers "how much is bread?" style questions through the
// same resolver the sale pipeline uses.
func (s *Service) PriceInquiry(ctx context.Context, req domain.PriceInquiryRequest) (domain.PriceInquiryResponse, error) {
	if req.OwnerID == "" {
		return domain.PriceInquiryResponse{}, store.ErrInvalidReceipt
	}

	var nameText string
	for _, re := range priceInquiryRes {
		if m := re.FindStringSubmatch(req.Message); m != nil {
			nameText = strings.ToLower(strings.TrimSpace(m[1]))
			break
		}
	}
	if nameText == "" {
		return domain.PriceInquiryResponse{}, fmt.Errorf("%w: %q", ErrNoMatch, req.Message)
	}

	catalog, err := s.catalog(ctx, req.OwnerID)
	if err != nil {
		return domain.PriceInquiryResponse{}, err
	}

	candidate, ok := s.resolver.Resolve(nameText, catalog)
	if !ok {
		return domain.PriceInquiryResponse{}, fmt.Errorf("%w: %q", ErrNoMatch, nameText)
	}

	for _, p := range catalog {
		if p.ID == candidate.ProductID {
			return domain.PriceInquiryResponse{
				ProductID:   p.ID,
				DisplayName: p.DisplayName,
				UnitPrice:   p.UnitPrice,
				Stock:       p.StockQuantity,
				Category:    p.Category,
			}, nil
		}
	}
	return domain.PriceInquiryResponse{}, store.ErrNotFound
}

var (
	priceInquiryKeywords = []string{"what's the price", "whats the price", "price of", "how much", "cost of", "price for"}
	confirmCommandRe     = regexp.MustCompile(`(?i)\b(confirm|cancel)\s+(txn[-_][a-z0-9-]+)`)
	saleShapeRes         = []*regexp.Regexp{
		regexp.MustCompile(`\d+\s+\w+`),
		regexp.MustCompile(`\d+\s*x\s*\w+`),
		regexp.MustCompile(`\w+\s*@\s*\d+`),
	}
)

// DetectMessageType classifies a raw chat message. Order matters: a price
// question mentioning a quantity must not be mistaken for a sale.
func DetectMessageType(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return domain.MessageKindUnknown
	}

	for _, kw := range priceInquiryKeywords {
		if strings.Contains(lower, kw) {
			return domain.MessageKindPriceInquiry
		}
	}
	if confirmCommandRe.MatchString(lower) {
		return domain.MessageKindConfirmation
	}
	for _, re := range saleShapeRes {
		if re.MatchString(lower) {
			return domain.MessageKindSale
		}
	}
	return domain.MessageKindUnknown
}

// HandleMessage is the single chat entry point: it classifies the message
// and dispatches to the sale, confirmation or price inquiry flow.
func (s *Service) HandleMessage(ctx context.Context, req domain.MessageRequest) (domain.MessageResponse, error) {
	kind := DetectMessageType(req.Message)

	switch kind {
	case domain.MessageKindSale:
		sale, err := s.ProcessSale(ctx, domain.SaleRequest{
			OwnerID:      req.OwnerID,
			StoreID:      req.StoreID,
			Message:      req.Message,
			CustomerName: req.CustomerName,
		})
		if err != nil {
			return domain.MessageResponse{}, err
		}
		return domain.MessageResponse{
			Kind:  kind,
			Sale:  &sale,
			Reply: sale.Confirmation,
		}, nil

	case domain.MessageKindConfirmation:
		m := confirmCommandRe.FindStringSubmatch(strings.ToLower(req.Message))
		confirmReq := domain.ConfirmRequest{
			TransactionID: m[2],
			OwnerID:       req.OwnerID,
			StoreID:       req.StoreID,
		}
		var (
			resp domain.ConfirmResponse
			err  error
		)
		if m[1] == "confirm" {
			resp, err = s.Confirm(ctx, confirmReq)
		} else {
			resp, err = s.Cancel(ctx, confirmReq)
		}
		if err != nil {
			return domain.MessageResponse{}, err
		}
		return domain.MessageResponse{
			Kind:         kind,
			Confirmation: &resp,
			Reply:        RenderConfirmationResult(resp),
		}, nil

	case domain.MessageKindPriceInquiry:
		inquiry, err := s.PriceInquiry(ctx, domain.PriceInquiryRequest{
			OwnerID: req.OwnerID,
			Message: req.Message,
		})
		if err != nil {
			return domain.MessageResponse{}, err
		}
		return domain.MessageResponse{
			Kind:         kind,
			PriceInquiry: &inquiry,
			Reply: fmt.Sprintf("%s costs %.2f per unit. Stock available: %v.",
				inquiry.DisplayName, inquiry.UnitPrice, inquiry.Stock),
		}, nil
	}

	return domain.MessageResponse{
		Kind:  domain.MessageKindUnknown,
		Reply: "Sorry, I could not understand that. Try something like \"2 bread @1.25, 1 milk\" or \"how much is bread?\".",
	}, nil
}

func (s *Service) logAudit(ctx context.Context, ownerID string, storeID string, action string, entityType string, entityID string, detail string) {
	actorUsername := ""
	if actor, ok := ActorFromContext(ctx); ok {
		actorUsername = actor.Username
	}

	entry := domain.AuditLog{
		ID:            xid.New("audit"),
		OwnerID:       ownerID,
		StoreID:       storeID,
		ActorUsername: actorUsername,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		log.Printf("[service] WARN: failed to write audit log action=%s entity=%s: %v", action, entityID, err)
	}
}
