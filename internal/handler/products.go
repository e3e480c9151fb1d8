package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sebav/tienda/internal/domain"
	"github.com/sebav/tienda/internal/service"
)

// ProductsHandler serves the product catalog.
type ProductsHandler struct {
	catalog *service.CatalogService
}

// NewProductsHandler creates a new ProductsHandler.
func NewProductsHandler(catalog *service.CatalogService) *ProductsHandler {
	return &ProductsHandler{catalog: catalog}
}

// HandleList returns the catalog, optionally filtered by ?q=.
// GET /api/products
func (h *ProductsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("list products", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Error loading products",
		})
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// HandleGet returns a single product by id.
// GET /api/products/{id}
func (h *ProductsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product id.")
		return
	}

	product, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Producto no encontrado.")
			return
		}
		slog.Error("get product", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Error loading products",
		})
		return
	}
	writeJSON(w, http.StatusOK, product)
}
