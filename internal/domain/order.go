package domain

import "time"

// PaymentMethod values accepted by the order endpoint.
const (
	PaymentCOD    = "cod"
	PaymentBank   = "bank"
	PaymentCredit = "credit"
)

// ValidPaymentMethod reports whether m is one of the supported payment methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCOD, PaymentBank, PaymentCredit:
		return true
	}
	return false
}

// ShippingInfo holds the delivery fields collected at checkout.
type ShippingInfo struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	District   string `json:"district"`
	PostalCode string `json:"postalCode"`
}

// Quote is the price breakdown of the selected cart lines.
type Quote struct {
	Subtotal    Price `json:"subtotal"`
	ShippingFee Price `json:"shippingFee"`
	Discount    Price `json:"discount"`
	Total       Price `json:"total"`
	ItemCount   int   `json:"itemCount"`
}

type OrderItem struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product"`
	ProductName  string  `json:"product_name"`
	ProductPrice Price   `json:"product_price"`
	ProductImage string  `json:"product_image,omitempty"`
	Variant      Variant `json:"variant,omitempty"`
	Quantity     int     `json:"quantity"`
	Subtotal     Price   `json:"subtotal"`
}

// Order is a submitted order as returned by the remote service.
type Order struct {
	ID            int64       `json:"id"`
	OrderNumber   string      `json:"order_number"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"payment_method"`
	PaymentStatus string      `json:"payment_status"`
	FullName      string      `json:"full_name"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	District      string      `json:"district"`
	PostalCode    string      `json:"postal_code"`
	Subtotal      Price       `json:"subtotal"`
	ShippingFee   Price       `json:"shipping_fee"`
	Discount      Price       `json:"discount"`
	Total         Price       `json:"total"`
	Items         []OrderItem `json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
}
