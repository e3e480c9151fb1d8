package domain

// CartLine pairs a product with a quantity inside a cart.
// Quantity is always >= 1; a decrement that would reach zero removes
// the line instead.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}
