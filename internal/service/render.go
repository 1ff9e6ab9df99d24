package service

import (
	"fmt"
	"strings"

	"tillchat/internal/domain"
)

// RenderConfirmationRequest builds the plain-text prompt shown after a sale
// is staged, including the exact confirm/cancel commands for the receipt.
func RenderConfirmationRequest(rcpt domain.Receipt) string {
	var b strings.Builder

	b.WriteString("Transaction ready for confirmation\n")
	fmt.Fprintf(&b, "Transaction ID: %s\n", rcpt.TransactionID)
	fmt.Fprintf(&b, "Date: %s %s\n", rcpt.Date, rcpt.Time)
	if rcpt.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", rcpt.CustomerName)
	}

	b.WriteString("\nItems:\n")
	writeItems(&b, rcpt.Items)
	writeTotals(&b, rcpt)

	b.WriteString("\nReply with:\n")
	fmt.Fprintf(&b, "  confirm %s  to save this sale\n", rcpt.TransactionID)
	fmt.Fprintf(&b, "  cancel %s   to discard it\n", rcpt.TransactionID)
	b.WriteString("The sale is not saved until confirmed.")

	return b.String()
}

// RenderReceipt builds the plain-text final receipt for chat display.
func RenderReceipt(rcpt domain.Receipt) string {
	var b strings.Builder

	b.WriteString("Receipt\n")
	fmt.Fprintf(&b, "Transaction ID: %s\n", rcpt.TransactionID)
	fmt.Fprintf(&b, "Date: %s %s\n", rcpt.Date, rcpt.Time)
	if rcpt.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", rcpt.CustomerName)
	}

	b.WriteString("\nItems:\n")
	writeItems(&b, rcpt.Items)
	writeTotals(&b, rcpt)
	fmt.Fprintf(&b, "Paid by %s. Thank you for your business.", rcpt.PaymentMethod)

	return b.String()
}

// RenderConfirmationResult builds the chat reply for a finalized receipt.
func RenderConfirmationResult(resp domain.ConfirmResponse) string {
	if resp.Action == domain.ConfirmActionCancel {
		return fmt.Sprintf("Transaction %s cancelled. No changes were made to your inventory.", resp.Receipt.TransactionID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Transaction %s confirmed. Total: %.2f. Stock levels have been updated.", resp.Receipt.TransactionID, resp.Receipt.Total)
	for _, warning := range resp.Warnings {
		b.WriteString("\nNote: ")
		b.WriteString(warning)
	}
	return b.String()
}

func writeItems(b *strings.Builder, items []domain.LineItem) {
	for _, item := range items {
		fmt.Fprintf(b, "  %vx %s @ %.2f = %.2f\n", item.Quantity, item.DisplayName, item.UnitPrice, item.LineTotal)
	}
}

func writeTotals(b *strings.Builder, rcpt domain.Receipt) {
	fmt.Fprintf(b, "\nSubtotal: %.2f\n", rcpt.Subtotal)
	fmt.Fprintf(b, "Tax (%.0f%%): %.2f\n", rcpt.TaxRate*100, rcpt.TaxAmount)
	fmt.Fprintf(b, "Total: %.2f\n", rcpt.Total)
}
