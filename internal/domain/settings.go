package domain

import "context"

// Well-known settings keys.
const (
	SettingProfilePhoto = "profile_photo"
	SettingCatalogURL   = "api_url_override"
)

// SettingsRepository is a small string key/value store for values that
// live outside the account collection: the profile photo reference and
// the catalog base-URL override. Get returns ErrNotFound for absent keys.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
