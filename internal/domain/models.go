package domain

import "time"

// RawEntry is one parsed but unresolved cart line from a free-text message.
// MatchText is the lower-cased form used for catalog matching; DisplayText
// keeps the customer's original casing.
type RawEntry struct {
	Quantity    float64  `json:"quantity"`
	MatchText   string   `json:"match_text"`
	DisplayText string   `json:"display_text"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
}

// CatalogProduct is the normalized read-only shape of an owner's product.
// The core never creates or deletes these, only reads them and requests
// stock decrements.
type CatalogProduct struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"display_name"`
	Brand         string  `json:"brand,omitempty"`
	UnitPrice     float64 `json:"unit_price"`
	StockQuantity float64 `json:"stock_quantity"`
	UnitOfMeasure string  `json:"unit_of_measure"`
	Category      string  `json:"category"`
}

// MatchCandidate is an ephemeral scored catalog match for one RawEntry.
type MatchCandidate struct {
	ProductID  string  `json:"product_id"`
	Score      float64 `json:"score"`
	MatchedVia string  `json:"matched_via"`
}

const (
	MatchedViaExact         = "exact"
	MatchedViaSubstring     = "substring"
	MatchedViaKeyword       = "keyword"
	MatchedViaBrand         = "brand"
	MatchedViaTypoCorrected = "typo_corrected"
	MatchedViaSimilarity    = "similarity"
)

// LineItem is a resolved, priced cart line. LineTotal is always
// round(Quantity*UnitPrice, 2).
type LineItem struct {
	ProductID      string  `json:"product_id"`
	DisplayName    string  `json:"display_name"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	LineTotal      float64 `json:"line_total"`
	Category       string  `json:"category"`
	StockAvailable bool    `json:"stock_available"`
}

type Receipt struct {
	TransactionID string     `json:"transaction_id"`
	OwnerID       string     `json:"owner_id"`
	StoreID       string     `json:"store_id"`
	CustomerName  string     `json:"customer_name,omitempty"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	Items         []LineItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	TaxRate       float64    `json:"tax_rate"`
	TaxAmount     float64    `json:"tax_amount"`
	Total         float64    `json:"total"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

const (
	ReceiptStatusPending   = "pending"
	ReceiptStatusConfirmed = "confirmed"
	ReceiptStatusCancelled = "cancelled"
)

// SaleRequest carries a free-text sale message into the pipeline.
type SaleRequest struct {
	OwnerID      string `json:"owner_id"`
	StoreID      string `json:"store_id"`
	Message      string `json:"message"`
	CustomerName string `json:"customer_name,omitempty"`
}

// SaleResponse is the staged receipt awaiting confirmation, plus any
// non-fatal warnings gathered during resolution and pricing.
type SaleResponse struct {
	Receipt      Receipt  `json:"receipt"`
	Warnings     []string `json:"warnings,omitempty"`
	Confirmation string   `json:"confirmation"`
}

type ConfirmRequest struct {
	TransactionID string `json:"transaction_id"`
	OwnerID       string `json:"owner_id"`
	StoreID       string `json:"store_id"`
	Action        string `json:"action"`
}

const (
	ConfirmActionConfirm = "confirm"
	ConfirmActionCancel  = "cancel"
)

// ConfirmResponse reports the finalized receipt. Warnings lists line items
// whose stock deduction failed; the confirmation itself still succeeded.
type ConfirmResponse struct {
	Receipt  Receipt  `json:"receipt"`
	Action   string   `json:"action"`
	Warnings []string `json:"warnings,omitempty"`
}

type PriceInquiryRequest struct {
	OwnerID string `json:"owner_id"`
	Message string `json:"message"`
}

type PriceInquiryResponse struct {
	ProductID   string  `json:"product_id"`
	DisplayName string  `json:"display_name"`
	UnitPrice   float64 `json:"unit_price"`
	Stock       float64 `json:"stock"`
	Category    string  `json:"category"`
}

// MessageRequest is the single free-form entry point: the service detects
// whether the message is a sale, a confirmation command, or a price inquiry.
type MessageRequest struct {
	OwnerID      string `json:"owner_id"`
	StoreID      string `json:"store_id"`
	Message      string `json:"message"`
	CustomerName string `json:"customer_name,omitempty"`
}

type MessageResponse struct {
	Kind         string                `json:"kind"`
	Sale         *SaleResponse         `json:"sale,omitempty"`
	Confirmation *ConfirmResponse      `json:"confirmation,omitempty"`
	PriceInquiry *PriceInquiryResponse `json:"price_inquiry,omitempty"`
	Reply        string                `json:"reply"`
}

const (
	MessageKindSale         = "sale"
	MessageKindConfirmation = "confirmation"
	MessageKindPriceInquiry = "price_inquiry"
	MessageKindUnknown      = "unknown"
)

type PendingListResponse struct {
	Receipts []Receipt `json:"receipts"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	StoreID       string    `json:"store_id"`
	ActorUsername string    `json:"actor_username"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
