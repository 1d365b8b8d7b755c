package models

// Product is the snapshot of a catalog entry taken when it is put in a cart.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discountPrice,omitempty"`
	Stock         int      `json:"stock"`
	Flavor        string   `json:"flavor,omitempty"`
	Weight        string   `json:"weight,omitempty"`
	CategoryID    string   `json:"categoryId,omitempty"`
	Images        []string `json:"images,omitempty"`
}
