package domain

// CartLine is one desired purchase: a user wants Quantity copies of a book.
// Lines are owned by the cart service; this subsystem only reads them.
type CartLine struct {
	ID       string
	UserID   string
	BookID   string
	Quantity int
}

// ReservationLine is one cart line resolved against current stock.
type ReservationLine struct {
	BookID   string `json:"book_id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// ReservationOutcome partitions a user's cart into lines the current stock
// can satisfy and lines it cannot. Every input line lands in exactly one
// partition. The outcome is advisory: stock may change before commit.
type ReservationOutcome struct {
	Approved      bool              `json:"approved"`
	Satisfiable   []ReservationLine `json:"satisfiable"`
	Unsatisfiable []ReservationLine `json:"unsatisfiable"`
}
