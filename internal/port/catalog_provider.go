package port

import "context"

// Volume is the subset of a provider volume record this service consumes.
// Absent nested fields decode to zero values.
type Volume struct {
	ID          string
	Title       string
	Authors     []string
	Categories  []string
	Rating      float64
	Description string
	Language    string
	Thumbnail   string
	MediumImage string
	ForSale     bool
	RetailPrice float64
}

type CatalogProvider interface {
	// GetVolume fetches live detail for one volume by provider id
	GetVolume(ctx context.Context, externalID string) (*Volume, error)

	// SearchByAuthor returns volumes matching an author name query
	SearchByAuthor(ctx context.Context, author string) ([]Volume, error)
}
