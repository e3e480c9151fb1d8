package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/sebav/tienda/internal/handler"
	"github.com/sebav/tienda/internal/repository/sqlite"
	"github.com/sebav/tienda/internal/service"
)

// newTestServer wires the full stack over a fresh SQLite database with the
// demo catalog seeded.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	accounts := service.NewAccountService(db.Users(), db.Sessions())
	catalog := service.NewCatalogService(db.Products(), db.Settings())
	if err := catalog.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	cart := service.NewCartService()
	payments := service.NewPaymentService(cart)
	guard := handler.NewGuard(accounts, testJWTSecret, false, false)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, guard, accounts, catalog, cart, payments, db.Settings(), service.NewTokenBucket(100, 100))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("build %s %s: %v", method, url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", email, resp.StatusCode)
	}
}

func TestIntegration_RegisterLoginLogout(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	// 1. Register a new account.
	resp := postJSON(t, client, srv.URL+"/api/auth/register", map[string]string{
		"email":           "integ@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	var registered struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	resp.Body.Close()
	if registered.User.ID == "" || registered.User.Email != "integ@example.com" {
		t.Fatalf("unexpected register response: %+v", registered)
	}

	// 2. Login with the new credentials.
	login(t, client, srv.URL, "integ@example.com", "password123")

	// The auth cookie was set.
	srvURL, _ := url.Parse(srv.URL)
	var hasAuthToken bool
	for _, c := range client.Jar.Cookies(srvURL) {
		if c.Name == "auth_token" {
			hasAuthToken = true
		}
	}
	if !hasAuthToken {
		t.Fatal("expected auth_token cookie to be set after login")
	}

	// 3. Protected route works.
	resp, err := client.Get(srv.URL + "/api/cart")
	if err != nil {
		t.Fatalf("GET /api/cart: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cart: expected 200, got %d", resp.StatusCode)
	}

	// 4. Logout.
	resp = postJSON(t, client, srv.URL+"/api/auth/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}

	// 5. The protected route now denies access: the marker is cleared even
	// if a stale cookie were replayed.
	resp, err = client.Get(srv.URL + "/api/cart")
	if err != nil {
		t.Fatalf("GET /api/cart after logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("cart after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestIntegration_Login_WrongCredentials(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "password123",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Credenciales incorrectas" {
		t.Fatalf("expected generic credentials message, got %q", body["error"])
	}
}

func TestIntegration_Register_Duplicate(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	form := map[string]string{
		"email":           "dup@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
	}

	resp := postJSON(t, client, srv.URL+"/api/auth/register", form)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", resp.StatusCode)
	}

	resp = postJSON(t, client, srv.URL+"/api/auth/register", form)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Este email ya está registrado" {
		t.Fatalf("expected duplicate message, got %q", body["error"])
	}
}

func TestIntegration_Register_WeakPassword(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/api/auth/register", map[string]string{
		"email":           "weak@example.com",
		"password":        "12345",
		"confirmPassword": "12345",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("weak password: expected 422, got %d", resp.StatusCode)
	}
}

func TestIntegration_Login_RateLimited(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	accounts := service.NewAccountService(db.Users(), db.Sessions())
	guard := handler.NewGuard(accounts, testJWTSecret, false, false)

	mux := http.NewServeMux()
	// Tight limiter: a single attempt per client.
	handler.RegisterRoutes(mux, guard, accounts, nil, service.NewCartService(), nil, nil, service.NewTokenBucket(0.01, 1))

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email":    "seba@gmail.com",
		"password": "123456",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first login: expected 200, got %d", resp.StatusCode)
	}

	resp = postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email":    "seba@gmail.com",
		"password": "123456",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second login: expected 429, got %d", resp.StatusCode)
	}
}

func TestIntegration_CartFlow(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	login(t, client, srv.URL, "seba@gmail.com", "123456")

	// Add product 1 twice and product 3 once.
	for _, id := range []int64{1, 1, 3} {
		resp := postJSON(t, client, srv.URL+"/api/cart/items", map[string]int64{"productId": id})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("add item %d: expected 201, got %d", id, resp.StatusCode)
		}
	}

	var cart struct {
		Items []struct {
			Product struct {
				ID int64 `json:"id"`
			} `json:"product"`
			Quantity int `json:"quantity"`
		} `json:"items"`
		Count int     `json:"count"`
		Total float64 `json:"total"`
	}

	resp, err := client.Get(srv.URL + "/api/cart")
	if err != nil {
		t.Fatalf("GET /api/cart: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	resp.Body.Close()

	if len(cart.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Items))
	}
	if cart.Items[0].Product.ID != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("expected product 1 x2 first, got %+v", cart.Items[0])
	}
	if cart.Count != 3 {
		t.Fatalf("expected count 3, got %d", cart.Count)
	}
	// Seeded prices: product 1 is 1400000, product 3 is 130000.
	if cart.Total != 2*1400000+130000 {
		t.Fatalf("unexpected total %f", cart.Total)
	}

	// Decrease product 1, remove product 3.
	resp = postJSON(t, client, srv.URL+"/api/cart/items/1/decrease", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("decrease: expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/api/cart/items/3", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + "/api/cart/count")
	if err != nil {
		t.Fatalf("GET /api/cart/count: %v", err)
	}
	var count map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		t.Fatalf("decode count: %v", err)
	}
	resp.Body.Close()
	if count["count"] != 1 {
		t.Fatalf("expected count 1, got %d", count["count"])
	}
}

func TestIntegration_AddUnknownProduct(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	login(t, client, srv.URL, "seba@gmail.com", "123456")

	resp := postJSON(t, client, srv.URL+"/api/cart/items", map[string]int64{"productId": 999})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestIntegration_Checkout(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	login(t, client, srv.URL, "seba@gmail.com", "123456")

	resp := postJSON(t, client, srv.URL+"/api/cart/items", map[string]int64{"productId": 2})
	resp.Body.Close()

	// Checkout without a method is rejected and keeps the cart.
	resp = postJSON(t, client, srv.URL+"/api/checkout", map[string]string{"method": ""})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("checkout without method: expected 422, got %d", resp.StatusCode)
	}

	resp = postJSON(t, client, srv.URL+"/api/checkout", map[string]string{"method": "credit-card"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
		Receipt struct {
			Items  int     `json:"items"`
			Total  float64 `json:"total"`
			Method string  `json:"method"`
		} `json:"receipt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}
	resp.Body.Close()
	if body.Message != "¡Pago realizado con éxito!" {
		t.Fatalf("expected success message, got %q", body.Message)
	}
	if body.Receipt.Items != 1 || body.Receipt.Method != "credit-card" {
		t.Fatalf("unexpected receipt: %+v", body.Receipt)
	}

	// The cart is emptied by checkout.
	resp, err := client.Get(srv.URL + "/api/cart/count")
	if err != nil {
		t.Fatalf("GET /api/cart/count: %v", err)
	}
	var count map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		t.Fatalf("decode count: %v", err)
	}
	resp.Body.Close()
	if count["count"] != 0 {
		t.Fatalf("expected empty cart after checkout, got %d", count["count"])
	}
}

func TestIntegration_ProfileFlow(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/api/auth/register", map[string]string{
		"email":           "perfil@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	resp.Body.Close()
	login(t, client, srv.URL, "perfil@example.com", "password123")

	// Update the display name.
	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/profile", map[string]string{"name": "Nombre Nuevo"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("update name: expected 204, got %d", resp.StatusCode)
	}

	// A too-short name is rejected.
	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/profile", map[string]string{"name": " a "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("short name: expected 422, got %d", resp.StatusCode)
	}

	// Store a photo reference.
	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/profile/photo", map[string]string{"url": "https://example.com/p.png"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("update photo: expected 204, got %d", resp.StatusCode)
	}

	// The profile view reflects both.
	resp, err := client.Get(srv.URL + "/api/profile")
	if err != nil {
		t.Fatalf("GET /api/profile: %v", err)
	}
	var profile struct {
		Session struct {
			Email string `json:"email"`
		} `json:"session"`
		User *struct {
			Name string `json:"name"`
		} `json:"user"`
		Photo string `json:"photo"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	resp.Body.Close()
	if profile.Session.Email != "perfil@example.com" {
		t.Fatalf("expected session email, got %q", profile.Session.Email)
	}
	if profile.User == nil || profile.User.Name != "Nombre Nuevo" {
		t.Fatalf("expected updated name in profile, got %+v", profile.User)
	}
	if profile.Photo != "https://example.com/p.png" {
		t.Fatalf("expected stored photo reference, got %q", profile.Photo)
	}

	// Stats count the registered account.
	resp, err = client.Get(srv.URL + "/api/users/stats")
	if err != nil {
		t.Fatalf("GET /api/users/stats: %v", err)
	}
	var stats struct {
		TotalUsers     int     `json:"totalUsers"`
		LastRegistered *string `json:"lastRegistered"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	resp.Body.Close()
	if stats.TotalUsers != 1 || stats.LastRegistered == nil {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestIntegration_Profile_FallbackAccountHasNoStoredUser(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	login(t, client, srv.URL, "seba@gmail.com", "123456")

	resp, err := client.Get(srv.URL + "/api/profile")
	if err != nil {
		t.Fatalf("GET /api/profile: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", resp.StatusCode)
	}

	var profile struct {
		User *json.RawMessage `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	// The demo account is never stored; the profile still renders.
	if profile.User != nil && string(*profile.User) != "null" {
		t.Fatalf("expected null user for fallback account, got %s", *profile.User)
	}
}

func TestIntegration_Recover(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	// Recovery succeeds for unknown emails too, leaking nothing.
	resp := postJSON(t, client, srv.URL+"/api/auth/recover", map[string]string{
		"email": "unknown@example.com",
		"name":  "Cualquiera",
		"phone": "+56 9 1234 5678",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recover: expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Solicitud de recuperación enviada" {
		t.Fatalf("expected recovery message, got %q", body["message"])
	}
}

func TestIntegration_Recover_InvalidEmail(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	// The recovery form rejects malformed emails with the same pattern the
	// login and registration forms use.
	resp := postJSON(t, client, srv.URL+"/api/auth/recover", map[string]string{
		"email": "not-an-email",
		"name":  "Usuario",
		"phone": "+56 9 1234 5678",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Formato de email inválido" {
		t.Fatalf("expected email-format message, got %q", body["error"])
	}
}

func TestIntegration_Recover_InvalidPhone(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/api/auth/recover", map[string]string{
		"email": "user@example.com",
		"name":  "Usuario",
		"phone": "abc",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}
