package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tillchat/internal/domain"
	"tillchat/internal/service"
	"tillchat/internal/store/memory"
)

// newTestAPI builds a full API with the seeded in-memory store, real
// AuthManager and real Service so handler tests exercise the complete
// request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, nil, 0.05, 0, "main-store")
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for key, val := range headers {
		req.Header.Set(key, val)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func loginHeaders(t *testing.T, handler http.Handler, username string, password string) map[string]string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&loginBody); err != nil {
		t.Fatalf("decode login body: %v", err)
	}

	csrfRec := doJSON(t, handler, http.MethodGet, "/api/v1/auth/csrf-token", nil, nil)
	if csrfRec.Code != http.StatusOK {
		t.Fatalf("csrf-token: expected 200, got %d", csrfRec.Code)
	}
	var csrfBody struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(csrfRec.Body).Decode(&csrfBody); err != nil {
		t.Fatalf("decode csrf body: %v", err)
	}

	return map[string]string{
		"Authorization": "Bearer " + loginBody.AccessToken,
		"X-CSRF-Token":  csrfBody.CSRFToken,
	}
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "owner",
		"password": "wrongpassword",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products?owner_id=owner-demo", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleSale_CSRFRequired(t *testing.T) {
	handler := newTestAPI(t).Handler()
	headers := loginHeaders(t, handler, "owner", "owner123")
	delete(headers, "X-CSRF-Token")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleRequest{
		OwnerID: "owner-demo",
		Message: "1 bread",
	}, headers)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without CSRF token, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestSaleConfirmFlow(t *testing.T) {
	handler := newTestAPI(t).Handler()
	headers := loginHeaders(t, handler, "owner", "owner123")

	saleRec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleRequest{
		OwnerID: "owner-demo",
		Message: "2 bread @1.25, 1 milk @2.50",
	}, headers)
	if saleRec.Code != http.StatusCreated {
		t.Fatalf("sale: expected 201, got %d (body: %s)", saleRec.Code, saleRec.Body.String())
	}

	var sale domain.SaleResponse
	if err := json.NewDecoder(saleRec.Body).Decode(&sale); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	if sale.Receipt.Total != 5.25 {
		t.Fatalf("expected total 5.25, got %v", sale.Receipt.Total)
	}

	confirmPath := fmt.Sprintf("/api/v1/sales/%s/confirm", sale.Receipt.TransactionID)
	confirmRec := doJSON(t, handler, http.MethodPost, confirmPath, domain.ConfirmRequest{
		OwnerID: "owner-demo",
	}, headers)
	if confirmRec.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d (body: %s)", confirmRec.Code, confirmRec.Body.String())
	}

	var confirm domain.ConfirmResponse
	if err := json.NewDecoder(confirmRec.Body).Decode(&confirm); err != nil {
		t.Fatalf("decode confirm: %v", err)
	}
	if confirm.Receipt.Status != domain.ReceiptStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirm.Receipt.Status)
	}

	// A duplicate confirm must conflict, not deduct again.
	dupRec := doJSON(t, handler, http.MethodPost, confirmPath, domain.ConfirmRequest{
		OwnerID: "owner-demo",
	}, headers)
	if dupRec.Code != http.StatusConflict {
		t.Fatalf("duplicate confirm: expected 409, got %d (body: %s)", dupRec.Code, dupRec.Body.String())
	}
}

func TestHandleSale_UnknownProduct(t *testing.T) {
	handler := newTestAPI(t).Handler()
	headers := loginHeaders(t, handler, "owner", "owner123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleRequest{
		OwnerID: "owner-demo",
		Message: "2 flux capacitors",
	}, headers)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleMessage_PriceInquiry(t *testing.T) {
	handler := newTestAPI(t).Handler()
	headers := loginHeaders(t, handler, "assistant", "assistant123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/messages", domain.MessageRequest{
		OwnerID: "owner-demo",
		Message: "how much is bread?",
	}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp domain.MessageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode message response: %v", err)
	}
	if resp.Kind != domain.MessageKindPriceInquiry || resp.PriceInquiry == nil {
		t.Fatalf("expected a price inquiry response, got %+v", resp)
	}
	if resp.PriceInquiry.UnitPrice != 1.25 {
		t.Fatalf("expected price 1.25, got %v", resp.PriceInquiry.UnitPrice)
	}
}

func TestHandlePendingSales(t *testing.T) {
	handler := newTestAPI(t).Handler()
	headers := loginHeaders(t, handler, "owner", "owner123")

	saleRec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleRequest{
		OwnerID: "owner-demo",
		Message: "1 mazoe",
	}, headers)
	if saleRec.Code != http.StatusCreated {
		t.Fatalf("sale: expected 201, got %d (body: %s)", saleRec.Code, saleRec.Body.String())
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/sales/pending?owner_id=owner-demo", nil, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var list domain.PendingListResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode pending list: %v", err)
	}
	if len(list.Receipts) != 1 {
		t.Fatalf("expected 1 pending receipt, got %d", len(list.Receipts))
	}
}
