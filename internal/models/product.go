package models

// Product is one catalog entry. The metrics engine reads it but never
// writes derived performance data back into it.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}
