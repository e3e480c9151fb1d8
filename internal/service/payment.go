package service

import (
	"fmt"
	"time"

	"github.com/sebav/tienda/internal/domain"
)

// Receipt summarizes a completed (simulated) payment.
type Receipt struct {
	Items  int       `json:"items"`
	Total  float64   `json:"total"`
	Method string    `json:"method"`
	PaidAt time.Time `json:"paidAt"`
}

// PaymentService simulates checkout: no money moves, the cart is simply
// settled and emptied.
type PaymentService struct {
	cart *CartService
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(cart *CartService) *PaymentService {
	return &PaymentService{cart: cart}
}

// Checkout requires a selected payment method, captures the cart totals,
// and clears the cart.
func (s *PaymentService) Checkout(method string) (*Receipt, error) {
	if method == "" {
		return nil, fmt.Errorf("%w: selecciona un método de pago", domain.ErrInvalidInput)
	}

	items, total := s.cart.Settle()
	return &Receipt{
		Items:  items,
		Total:  total,
		Method: method,
		PaidAt: time.Now().UTC(),
	}, nil
}
