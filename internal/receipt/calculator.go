// Package receipt prices resolved cart entries into a receipt. It never
// mutates catalog state; stock problems become warnings, not rejections.
package receipt

import (
	"fmt"
	"math"

	"tillchat/internal/domain"
)

// ResolvedEntry pairs a parsed cart line with the catalog product it
// resolved to.
type ResolvedEntry struct {
	Entry   domain.RawEntry
	Product domain.CatalogProduct
}

// priceDifferenceEpsilon is the point at which a user-supplied price is
// considered materially different from the catalog price.
const priceDifferenceEpsilon = 0.01

// Compute builds a pending receipt from resolved entries. A price given in
// the message prevails over the catalog price when they materially differ;
// the difference is surfaced as a warning. This override is a deliberate
// business-policy choice carried over from the field: the storekeeper's
// stated price wins, even though it can drift from the catalog.
func Compute(entries []ResolvedEntry, taxRate float64) (domain.Receipt, []string) {
	items := make([]domain.LineItem, 0, len(entries))
	warnings := make([]string, 0)
	subtotal := 0.0

	for _, resolved := range entries {
		product := resolved.Product
		entry := resolved.Entry

		unitPrice := product.UnitPrice
		if entry.UnitPrice != nil {
			provided := *entry.UnitPrice
			if math.Abs(provided-product.UnitPrice) > priceDifferenceEpsilon {
				warnings = append(warnings, fmt.Sprintf(
					"price difference for %s: provided %.2f, catalog %.2f - using provided price",
					product.DisplayName, provided, product.UnitPrice))
			}
			unitPrice = provided
		}

		stockAvailable := entry.Quantity <= product.StockQuantity
		if !stockAvailable {
			warnings = append(warnings, fmt.Sprintf(
				"insufficient stock for %s: requested %v, available %v",
				product.DisplayName, entry.Quantity, product.StockQuantity))
		}

		lineTotal := Round2(entry.Quantity * unitPrice)
		items = append(items, domain.LineItem{
			ProductID:      product.ID,
			DisplayName:    product.DisplayName,
			Quantity:       entry.Quantity,
			UnitPrice:      unitPrice,
			LineTotal:      lineTotal,
			Category:       product.Category,
			StockAvailable: stockAvailable,
		})
		subtotal += lineTotal
	}

	subtotal = Round2(subtotal)
	taxAmount := Round2(subtotal * taxRate)

	return domain.Receipt{
		Items:         items,
		Subtotal:      subtotal,
		TaxRate:       taxRate,
		TaxAmount:     taxAmount,
		Total:         Round2(subtotal + taxAmount),
		PaymentMethod: "cash",
		Status:        domain.ReceiptStatusPending,
	}, warnings
}

// Round2 rounds half-up to two decimal places.
func Round2(val float64) float64 {
	return math.Round(val*100) / 100
}
