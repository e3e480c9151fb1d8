package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sebav/tienda/internal/domain"
	"github.com/sebav/tienda/internal/service"
	"github.com/starfederation/datastar-go/datastar"
)

// CartHandler exposes the cart store over HTTP, including a live SSE view.
type CartHandler struct {
	cart    *service.CartService
	catalog *service.CatalogService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cart *service.CartService, catalog *service.CatalogService) *CartHandler {
	return &CartHandler{cart: cart, catalog: catalog}
}

// HandleGet returns the current cart snapshot with derived totals.
// GET /api/cart
func (h *CartHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cartDTO())
}

// HandleAddItem adds one unit of a product to the cart.
// POST /api/cart/items
// Request: {"productId": 3}
func (h *CartHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	product, err := h.catalog.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Producto no encontrado.")
			return
		}
		slog.Error("load product for cart", "id", req.ProductID, "error", err)
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
		return
	}

	h.cart.Add(*product)
	writeJSON(w, http.StatusCreated, h.cartDTO())
}

// HandleIncrease adds one unit to an existing line.
// POST /api/cart/items/{id}/increase
func (h *CartHandler) HandleIncrease(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product id.")
		return
	}
	h.cart.Increase(id)
	writeJSON(w, http.StatusOK, h.cartDTO())
}

// HandleDecrease removes one unit from an existing line; the last unit
// removes the line.
// POST /api/cart/items/{id}/decrease
func (h *CartHandler) HandleDecrease(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product id.")
		return
	}
	h.cart.Decrease(id)
	writeJSON(w, http.StatusOK, h.cartDTO())
}

// HandleRemoveItem drops a line from the cart.
// DELETE /api/cart/items/{id}
func (h *CartHandler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product id.")
		return
	}
	h.cart.Remove(id)
	writeJSON(w, http.StatusOK, h.cartDTO())
}

// HandleClear empties the cart.
// DELETE /api/cart
func (h *CartHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// HandleCount returns the derived item count.
// GET /api/cart/count
func (h *CartHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": h.cart.Count()})
}

// HandleLive streams cart snapshots over SSE. The subscriber immediately
// receives the current state and a fresh snapshot after every mutation,
// until the client disconnects.
// GET /api/cart/live
func (h *CartHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	updates, cancel := h.cart.Subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-r.Context().Done():
			return
		case lines := <-updates:
			if err := sse.MarshalAndPatchSignals(toCartDTO(lines)); err != nil {
				slog.Debug("patch cart signals", "error", err)
				return
			}
		}
	}
}

func (h *CartHandler) cartDTO() CartDTO {
	return toCartDTO(h.cart.Items())
}

func toCartDTO(lines []domain.CartLine) CartDTO {
	dto := CartDTO{Items: lines}
	if dto.Items == nil {
		dto.Items = []domain.CartLine{}
	}
	for _, line := range lines {
		dto.Count += line.Quantity
		dto.Total += line.Product.Price * float64(line.Quantity)
	}
	return dto
}
