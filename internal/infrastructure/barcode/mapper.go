package barcode

import (
	"github.com/itembuilder/backend/internal/domain"
)

// MapToResolvedItem converts a lookup product into a resolved item.
// The title is truncated, MSRP is the first store with a price and images are padded to the fixed slot count.
func MapToResolvedItem(upc string, product *domain.BarcodeProduct) domain.ResolvedItem {
	return domain.ResolvedItem{
		UPC:            upc,
		Title:          TruncateTitle(product.Title),
		Brand:          product.Brand,
		VendorCategory: product.Category,
		MSRP:           FirstStorePrice(product.Stores),
		Images:         PadImages(product.Images),
		Source:         domain.SourceLookup,
	}
}

// TruncateTitle keeps at most domain.MaxTitleLength characters of a title
func TruncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= domain.MaxTitleLength {
		return title
	}
	return string(runes[:domain.MaxTitleLength])
}

// FirstStorePrice returns the price of the first store that has one.
// Store order decides, not the lowest price.
func FirstStorePrice(stores []domain.BarcodeStore) string {
	for _, store := range stores {
		if store.Price != "" {
			return string(store.Price)
		}
	}
	return ""
}

// PadImages keeps the first images and pads the rest with empty strings
func PadImages(images []string) [domain.ImageSlots]string {
	var slots [domain.ImageSlots]string
	copy(slots[:], images)
	return slots
}
