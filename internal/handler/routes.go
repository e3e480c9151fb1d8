package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sebav/tienda/internal/domain"
	"github.com/sebav/tienda/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	guard *Guard,
	accounts *service.AccountService,
	catalog *service.CatalogService,
	cart *service.CartService,
	payments *service.PaymentService,
	settings domain.SettingsRepository,
	limiter *service.TokenBucket,
) {
	authHandler := NewAuthHandler(accounts, guard, limiter)
	productsHandler := NewProductsHandler(catalog)
	cartHandler := NewCartHandler(cart, catalog)
	checkoutHandler := NewCheckoutHandler(payments)
	profileHandler := NewProfileHandler(accounts, catalog, settings)

	// Public routes.
	mux.HandleFunc("GET /api/health", HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/products", productsHandler.HandleList)
	mux.HandleFunc("GET /api/products/{id}", productsHandler.HandleGet)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/auth/recover", authHandler.HandleRecover)

	// Everything past the guard requires a valid session marker.
	protected := func(h http.HandlerFunc) http.Handler {
		return guard.RequireAuth(h)
	}
	mux.Handle("POST /api/auth/logout", protected(authHandler.HandleLogout))
	mux.Handle("GET /api/auth/me", protected(authHandler.HandleMe))

	mux.Handle("GET /api/cart", protected(cartHandler.HandleGet))
	mux.Handle("POST /api/cart/items", protected(cartHandler.HandleAddItem))
	mux.Handle("POST /api/cart/items/{id}/increase", protected(cartHandler.HandleIncrease))
	mux.Handle("POST /api/cart/items/{id}/decrease", protected(cartHandler.HandleDecrease))
	mux.Handle("DELETE /api/cart/items/{id}", protected(cartHandler.HandleRemoveItem))
	mux.Handle("DELETE /api/cart", protected(cartHandler.HandleClear))
	mux.Handle("GET /api/cart/count", protected(cartHandler.HandleCount))
	mux.Handle("GET /api/cart/live", protected(cartHandler.HandleLive))

	mux.Handle("POST /api/checkout", protected(checkoutHandler.HandleCheckout))

	mux.Handle("GET /api/profile", protected(profileHandler.HandleGet))
	mux.Handle("PUT /api/profile", protected(profileHandler.HandleUpdateName))
	mux.Handle("PUT /api/profile/photo", protected(profileHandler.HandleUpdatePhoto))
	mux.Handle("GET /api/users/stats", protected(profileHandler.HandleStats))
	mux.Handle("PUT /api/settings/catalog-url", protected(profileHandler.HandleSetCatalogURL))
}
