package domain

import "fmt"

// CartSnapshot is the server-authoritative state of a product cart.
// The client never patches it in place; each sync replaces it wholesale.
type CartSnapshot struct {
	Items      []CartLine `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
}

// CartLine is one row of a product cart.
type CartLine struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage *string `json:"product_image"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	// ItemTotal is computed server-side; the client treats it as
	// authoritative and never recomputes it.
	ItemTotal float64 `json:"item_total"`
}

// SessionCartSnapshot is the server-authoritative state of a session
// booking cart. Sessions are singleton bookings, so lines carry no quantity.
type SessionCartSnapshot struct {
	Items      []SessionCartLine `json:"items"`
	TotalItems int               `json:"total_items"`
	TotalPrice float64           `json:"total_price"`
}

// SessionCartLine is one booked class session in the session cart.
type SessionCartLine struct {
	CartItemID  int64   `json:"cart_item_id"`
	SessionID   int64   `json:"session_id"`
	ClassType   string  `json:"class_type"`
	TrainerName string  `json:"trainer_name"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Price       float64 `json:"price"`
}

// Session is a bookable class slot from the catalog.
type Session struct {
	ID          int64   `json:"id"`
	ClassType   string  `json:"class_type"`
	TrainerName string  `json:"trainer_name"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Price       float64 `json:"price"`
	Capacity    int     `json:"capacity"`
	Booked      int     `json:"booked"`
}

// Product is a shop item from the catalog.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"rating_count"`
}

// Equipment is a gym equipment catalog entry.
type Equipment struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// HasItems reports whether the cart has at least one line.
func (s *CartSnapshot) HasItems() bool {
	return s != nil && s.TotalItems > 0
}

// HasItems reports whether the session cart has at least one booking.
func (s *SessionCartSnapshot) HasItems() bool {
	return s != nil && s.TotalItems > 0
}

// Clone returns an independent copy so consumers can hold a read-only view
// without aliasing the controller's state.
func (s *CartSnapshot) Clone() *CartSnapshot {
	if s == nil {
		return nil
	}
	out := &CartSnapshot{
		Items:      make([]CartLine, len(s.Items)),
		TotalItems: s.TotalItems,
		TotalPrice: s.TotalPrice,
	}
	copy(out.Items, s.Items)
	for i, line := range s.Items {
		if line.ProductImage != nil {
			img := *line.ProductImage
			out.Items[i].ProductImage = &img
		}
	}
	return out
}

// Clone returns an independent copy of the session cart snapshot.
func (s *SessionCartSnapshot) Clone() *SessionCartSnapshot {
	if s == nil {
		return nil
	}
	out := &SessionCartSnapshot{
		Items:      make([]SessionCartLine, len(s.Items)),
		TotalItems: s.TotalItems,
		TotalPrice: s.TotalPrice,
	}
	copy(out.Items, s.Items)
	return out
}

// Validate checks the invariants the server is expected to uphold. A snapshot
// that fails validation is rejected at the HTTP boundary rather than cached.
func (s *CartSnapshot) Validate() error {
	if s.TotalItems < 0 {
		return fmt.Errorf("negative total_items %d", s.TotalItems)
	}
	if s.TotalPrice < 0 {
		return fmt.Errorf("negative total_price %v", s.TotalPrice)
	}
	seen := make(map[int64]bool, len(s.Items))
	for _, line := range s.Items {
		if line.Quantity < 1 {
			return fmt.Errorf("line %d has quantity %d, want >= 1", line.ID, line.Quantity)
		}
		if line.Price < 0 {
			return fmt.Errorf("line %d has negative price %v", line.ID, line.Price)
		}
		if line.ItemTotal < 0 {
			return fmt.Errorf("line %d has negative item_total %v", line.ID, line.ItemTotal)
		}
		if seen[line.ID] {
			return fmt.Errorf("duplicate line id %d", line.ID)
		}
		seen[line.ID] = true
	}
	return nil
}

// Validate checks the session cart invariants, including that a session
// appears at most once.
func (s *SessionCartSnapshot) Validate() error {
	if s.TotalItems < 0 {
		return fmt.Errorf("negative total_items %d", s.TotalItems)
	}
	if s.TotalPrice < 0 {
		return fmt.Errorf("negative total_price %v", s.TotalPrice)
	}
	seenLine := make(map[int64]bool, len(s.Items))
	seenSession := make(map[int64]bool, len(s.Items))
	for _, line := range s.Items {
		if line.Price < 0 {
			return fmt.Errorf("cart item %d has negative price %v", line.CartItemID, line.Price)
		}
		if seenLine[line.CartItemID] {
			return fmt.Errorf("duplicate cart_item_id %d", line.CartItemID)
		}
		if seenSession[line.SessionID] {
			return fmt.Errorf("session %d appears more than once", line.SessionID)
		}
		seenLine[line.CartItemID] = true
		seenSession[line.SessionID] = true
	}
	return nil
}
