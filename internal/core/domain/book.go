package domain

import "time"

type Book struct {
	ID          string
	Title       string
	Authors     []string
	Categories  []string
	Rating      float64
	Price       float64
	Stock       int
	Description string
	Image       string
	// ExternalID is the provider's volume id for seeded records,
	// empty for locally authored books. Immutable once set.
	ExternalID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BookPatch carries a field-level update. Nil pointers mean "leave as is".
// ExternalID and Stock are deliberately absent: the former is immutable,
// the latter only changes through the conditional decrement path.
type BookPatch struct {
	Title       *string
	Authors     []string
	Categories  []string
	Rating      *float64
	Price       *float64
	Description *string
	Image       *string
}

func (p BookPatch) Empty() bool {
	return p.Title == nil && p.Authors == nil && p.Categories == nil &&
		p.Rating == nil && p.Price == nil && p.Description == nil && p.Image == nil
}
