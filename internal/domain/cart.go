package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Variant is the option set chosen for a product, e.g. color and size.
type Variant map[string]string

// Signature encodes the variant so that equal option sets compare equal
// regardless of key order. An empty or nil variant has an empty signature.
func (v Variant) Signature() string {
	if len(v) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(v[k]))
	}
	return b.String()
}

// Clone returns an independent copy, nil for an empty variant.
func (v Variant) Clone() Variant {
	if len(v) == 0 {
		return nil
	}
	out := make(Variant, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// CartLine is one product+variant entry in the cart.
type CartLine struct {
	LineID    string  `json:"lineId"`
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	ShopName  string  `json:"shopName,omitempty"`
	UnitPrice Price   `json:"unitPrice"`
	Variant   Variant `json:"variant,omitempty"`
	Quantity  int     `json:"quantity"`
	Selected  bool    `json:"selected"`
}

// Subtotal is the line's unit price times its quantity.
func (l CartLine) Subtotal() Price {
	return l.UnitPrice.Times(l.Quantity)
}

// Matches reports whether the line holds the given product and variant.
func (l CartLine) Matches(productID int64, signature string) bool {
	return l.ProductID == productID && l.Variant.Signature() == signature
}
