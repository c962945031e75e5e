package domain

import "encoding/json"

// Product is a catalog entry as returned by the remote service.
type Product struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description,omitempty"`
	Price              Price       `json:"price"`
	OriginalPrice      *Price      `json:"original_price,omitempty"`
	DiscountPercentage int         `json:"discount_percentage,omitempty"`
	Stock              int         `json:"stock"`
	Sold               int         `json:"sold,omitempty"`
	Rating             json.Number `json:"rating,omitempty"`
	Image              string      `json:"image,omitempty"`
	CategoryID         int64       `json:"category,omitempty"`
	CategoryName       string      `json:"category_name,omitempty"`
	ShopID             *int64      `json:"shop,omitempty"`
	ShopName           string      `json:"shop_name,omitempty"`
}
