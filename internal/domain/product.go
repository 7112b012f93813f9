package domain

// Product is the catalog record served by the persistence service.
type Product struct {
	ID               int64  `json:"id"`
	CategoryID       int64  `json:"categoryId"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	ListPriceInCents int64  `json:"listPriceInCents"`
}
