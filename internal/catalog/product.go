package catalog

import "time"

// Status is the derived inventory-health label for a product.
type Status string

const (
	StatusActive   Status = "active"
	StatusLowStock Status = "low_stock"
	StatusInactive Status = "inactive"
)

// lowStockThreshold is the stock level at or below which a product is
// considered low on stock.
const lowStockThreshold = 5

// DeriveStatus computes the status for a stock count. Status is never set
// directly by callers; it is always recomputed from stock.
func DeriveStatus(stock int) Status {
	switch {
	case stock == 0:
		return StatusInactive
	case stock <= lowStockThreshold:
		return StatusLowStock
	default:
		return StatusActive
	}
}

// Product is a catalog record. Status is a pure function of Stock.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Status      Status    `json:"status"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Fields carries caller-supplied product attributes for Create.
type Fields struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// Patch carries a partial update. Nil fields are left unchanged.
type Patch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	Category    *string  `json:"category,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

// Stats summarizes the catalog: counts per status plus the total inventory
// value (sum of price x stock over all products).
type Stats struct {
	Total      int     `json:"total"`
	Active     int     `json:"active"`
	LowStock   int     `json:"low_stock"`
	Inactive   int     `json:"inactive"`
	TotalValue float64 `json:"total_value"`
}
