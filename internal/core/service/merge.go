package service

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

const (
	// notForSalePrice is assigned when the provider marks a volume
	// NOT_FOR_SALE; the catalog still lists it at a placeholder price.
	notForSalePrice = 100000

	// Seeded stock is synthesized in [16, 20]; the provider has no
	// inventory concept.
	seedStockBase   = 20
	seedStockJitter = 5

	// fallbackImage is served when a seeded book's live volume detail
	// carries no medium-resolution image.
	fallbackImage = "https://previews.123rf.com/images/hchjjl/hchjjl1504/hchjjl150402710/38564779-doodle-book-seamless-pattern-background.jpg"
)

// MergeExternalVolume converts one provider volume into a book candidate.
// It returns false when the volume's language does not match lang; such
// volumes must not be persisted. The transform is pure apart from the
// synthesized stock count and generated id.
func MergeExternalVolume(vol port.Volume, lang string) (domain.Book, bool) {
	if vol.Language != lang {
		return domain.Book{}, false
	}

	price := vol.RetailPrice
	if !vol.ForSale {
		price = notForSalePrice
	}

	authors := vol.Authors
	if authors == nil {
		authors = []string{}
	}
	categories := vol.Categories
	if categories == nil {
		categories = []string{}
	}

	return domain.Book{
		ID:          uuid.New().String(),
		Title:       vol.Title,
		Authors:     authors,
		Categories:  categories,
		Rating:      vol.Rating,
		Price:       price,
		Stock:       seedStockBase - rand.IntN(seedStockJitter),
		Description: vol.Description,
		Image:       vol.Thumbnail,
		ExternalID:  vol.ID,
	}, true
}
