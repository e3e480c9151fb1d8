package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sebav/tienda/internal/client"
	"github.com/sebav/tienda/internal/domain"
)

// CatalogService serves the product catalog. Products normally come from
// the local store; when a base-URL override is set, the list is fetched
// from that remote catalog server instead and failures degrade to an
// empty list rather than an error.
type CatalogService struct {
	products domain.ProductRepository
	settings domain.SettingsRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(products domain.ProductRepository, settings domain.SettingsRepository) *CatalogService {
	return &CatalogService{products: products, settings: settings}
}

// SeedDefaults loads the demo catalog into the product store (idempotent).
func (s *CatalogService) SeedDefaults(ctx context.Context) error {
	return s.products.Seed(ctx, defaultProducts)
}

// List returns the catalog, optionally filtered by a search term matched
// case-insensitively against name, category, and description.
func (s *CatalogService) List(ctx context.Context, query string) ([]domain.Product, error) {
	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if query == "" {
		return products, nil
	}

	term := strings.ToLower(query)
	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Category), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// GetByID returns a single product from the local store.
func (s *CatalogService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// SetCatalogURL stores a base-URL override for the catalog source. The
// trailing slash is trimmed; an empty URL clears the override.
func (s *CatalogService) SetCatalogURL(ctx context.Context, url string) error {
	if url == "" {
		return s.settings.Delete(ctx, domain.SettingCatalogURL)
	}
	return s.settings.Set(ctx, domain.SettingCatalogURL, strings.TrimRight(url, "/"))
}

// CatalogURL returns the active override, or "" when none is set.
func (s *CatalogService) CatalogURL(ctx context.Context) (string, error) {
	url, err := s.settings.Get(ctx, domain.SettingCatalogURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get catalog url: %w", err)
	}
	return url, nil
}

func (s *CatalogService) load(ctx context.Context) ([]domain.Product, error) {
	override, err := s.CatalogURL(ctx)
	if err != nil {
		return nil, err
	}

	if override != "" {
		remote := client.NewCatalog(override)
		products, err := remote.Products(ctx)
		if err != nil {
			slog.Error("fetch remote catalog", "url", override, "error", err)
			return []domain.Product{}, nil
		}
		return products, nil
	}

	return s.products.All(ctx)
}

// defaultProducts is the demo catalog seeded at startup.
var defaultProducts = []domain.Product{
	{
		ID:          1,
		Name:        "RTX 4080 Super 16GB",
		Price:       1400000,
		Image:       "https://media.spdigital.cl/thumbnails/products/ww0mcw1i_bb8520b9_thumbnail_512.png",
		Category:    "Tarjetas Gráficas",
		InStock:     true,
		Description: "Tarjeta gráfica de alto rendimiento para gaming 4K",
	},
	{
		ID:          2,
		Name:        "Intel Core i7-13700K",
		Price:       400000,
		Image:       "https://media.solotodo.com/media/products/1648741_picture_1664520596.jpg",
		Category:    "Procesadores",
		InStock:     true,
		Description: "Procesador de 16 núcleos para gaming y productividad",
	},
	{
		ID:          3,
		Name:        "Teclado Mecánico RGB",
		Price:       130000,
		Image:       "https://www.winpy.cl/files/33309-8123-HyperX-Alloy-Origins-1.jpg",
		Category:    "Periféricos",
		InStock:     true,
		Description: "Teclado gaming con switches Cherry MX y retroiluminación RGB",
	},
	{
		ID:          4,
		Name:        "SSD NVMe 2TB",
		Price:       150000,
		Image:       "https://media.spdigital.cl/thumbnails/products/jpe6hd0i_3209cbe3_thumbnail_4096.jpg",
		Category:    "Almacenamiento",
		InStock:     false,
		Description: "Almacenamiento ultrarrápido para sistema y juegos",
	},
	{
		ID:          5,
		Name:        "VXE r1 PRO MAX",
		Price:       36000,
		Image:       "https://i.ytimg.com/vi/jJ_UQmw_Fmo/maxresdefault.jpg",
		Category:    "Periféricos",
		InStock:     true,
		Description: "Mouse de precisión con sensor óptico de 16000 DPI",
	},
	{
		ID:          6,
		Name:        "Placa Madre Z790",
		Price:       250000,
		Image:       "https://www.asus.com/microsite/motherboard/Intel-Raptor-Lake-Z790-H770-B760/es/v1/img/pd/rog-strix-z790-f-gaming-wifi.png",
		Category:    "Placas Base",
		InStock:     true,
		Description: "Placa madre para Intel 12th/13th gen con WiFi 6E",
	},
	{
		ID:          7,
		Name:        "RAM DDR5 32GB",
		Price:       99990,
		Image:       "https://media.spdigital.cl/thumbnails/products/jiilrvjj_607a5545_thumbnail_4096.jpg",
		Category:    "Memoria RAM",
		InStock:     true,
		Description: "Memoria RAM de alta velocidad 5600MHz",
	},
	{
		ID:          8,
		Name:        "Fuente de Poder 850W",
		Price:       110000,
		Image:       "https://s3.amazonaws.com/w3.assets/fotos/34239/1..webp?v=259272006",
		Category:    "Fuentes de Poder",
		InStock:     true,
		Description: "Fuente modular 80+ Gold para sistemas de alto consumo",
	},
	{
		ID:          9,
		Name:        "Monitor Gaming 27\" 144Hz",
		Price:       200000,
		Image:       "https://media.spdigital.cl/thumbnails/products/fbe6xvuk_35a260c4_thumbnail_512.jpg",
		Category:    "Monitores",
		InStock:     true,
		Description: "Monitor QHD con FreeSync y HDR para gaming competitivo",
	},
}
