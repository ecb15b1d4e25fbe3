package classifier

import (
	"strings"

	"github.com/xaenox/chatter-assist/internal/models"
)

// PurchasedOfferIDs returns the offer ids the fan already bought. Tips do
// not count.
func PurchasedOfferIDs(transactions []models.Transaction) map[string]struct{} {
	purchased := make(map[string]struct{})
	for _, tx := range transactions {
		if tx.Type == models.TransactionPurchase && tx.OfferID != "" {
			purchased[tx.OfferID] = struct{}{}
		}
	}
	return purchased
}

// AvailableItems keeps active items not in purchased, preserving order.
func AvailableItems(catalog []models.CatalogItem, purchased map[string]struct{}) []models.CatalogItem {
	available := make([]models.CatalogItem, 0, len(catalog))
	for _, item := range catalog {
		if !item.IsActive {
			continue
		}
		if _, bought := purchased[item.OfferID]; bought {
			continue
		}
		available = append(available, item)
	}
	return available
}

// OutstandingOffer reports whether the latest model message within the last
// lookback messages of history contains one of markers.
func OutstandingOffer(history []models.ChatMessage, lookback int, markers []string) bool {
	start := len(history) - lookback
	if start < 0 {
		start = 0
	}
	for i := len(history) - 1; i >= start; i-- {
		if history[i].From == models.FromModel {
			return containsAny(history[i].Message, markers)
		}
	}
	return false
}

// itemKeywords returns the item's keywords followed by its comma separated tags.
func itemKeywords(item models.CatalogItem) []string {
	words := make([]string, 0, len(item.Keywords)+4)
	words = append(words, item.Keywords...)
	if item.Tags != "" {
		words = append(words, strings.Split(item.Tags, ",")...)
	}
	return words
}

// SelectOffer picks the item to offer from available. An item whose keywords
// or tags occur in the message wins; otherwise energy decides by nivel.
// Returns nil when available is empty.
func SelectOffer(message string, energy Energy, available []models.CatalogItem) *models.CatalogItem {
	if len(available) == 0 {
		return nil
	}

	for i := range available {
		if containsAny(message, itemKeywords(available[i])) {
			return pick(available[i])
		}
	}

	switch energy {
	case EnergyExplicit:
		return firstOr(available, func(item models.CatalogItem) bool { return item.Nivel >= 2 })
	case EnergyFlirty:
		return firstOr(available, func(item models.CatalogItem) bool { return item.Nivel <= 2 })
	default:
		return pick(available[0])
	}
}

// firstOr returns the first item matching ok, or the first item.
func firstOr(items []models.CatalogItem, ok func(models.CatalogItem) bool) *models.CatalogItem {
	for i := range items {
		if ok(items[i]) {
			return pick(items[i])
		}
	}
	return pick(items[0])
}

func pick(item models.CatalogItem) *models.CatalogItem {
	return &item
}
