package handler

import (
	"errors"
	"net/http"

	"github.com/sebav/tienda/internal/domain"
	"github.com/sebav/tienda/internal/service"
)

// CheckoutHandler simulates payment for the current cart.
type CheckoutHandler struct {
	payments *service.PaymentService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(payments *service.PaymentService) *CheckoutHandler {
	return &CheckoutHandler{payments: payments}
}

// HandleCheckout settles and clears the cart.
// POST /api/checkout
// Request:  {"method":"credit-card"}
// Response: {"receipt": {...}}
func (h *CheckoutHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	receipt, err := h.payments.Checkout(req.Method)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, "Por favor, selecciona un método de pago.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "¡Pago realizado con éxito!",
		"receipt": receipt,
	})
}
