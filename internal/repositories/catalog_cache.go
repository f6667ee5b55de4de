package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/shared"
)

// CatalogCache stores the last successful catalog page for each request key.
//
// Pages are replaced wholesale; there is no merging across fetches.
type CatalogCache struct {
	db *sql.DB
}

// NewCatalogCache creates a new [CatalogCache] with the given database connection
func NewCatalogCache(db *sql.DB) *CatalogCache {
	return &CatalogCache{db: db}
}

// StorePage caches page under key, replacing any previous page.
func (c *CatalogCache) StorePage(key string, page models.Page) error {
	payload, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to encode catalog page: %w", err)
	}

	query := `
		INSERT INTO catalog_cache (request_key, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(request_key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`

	if _, err := c.db.Exec(query, key, payload, time.Now()); err != nil {
		return fmt.Errorf("%w: cache page %s: %v", shared.ErrStorageWrite, key, err)
	}
	return nil
}

// LoadPage returns the cached page for key and when it was fetched.
//
// A missing key reports found=false with a nil error.
func (c *CatalogCache) LoadPage(key string) (page models.Page, fetchedAt time.Time, found bool, err error) {
	var payload []byte
	err = c.db.QueryRow(`SELECT payload, fetched_at FROM catalog_cache WHERE request_key = ?`, key).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Page{}, time.Time{}, false, nil
	}
	if err != nil {
		return models.Page{}, time.Time{}, false, fmt.Errorf("%w: cached page %s: %v", shared.ErrStorageRead, key, err)
	}

	if err := json.Unmarshal(payload, &page); err != nil {
		return models.Page{}, time.Time{}, false, fmt.Errorf("failed to decode cached page %s: %w", key, err)
	}

	return page, fetchedAt, true, nil
}

// Prune deletes cached pages fetched before cutoff and returns how many were removed.
func (c *CatalogCache) Prune(cutoff time.Time) (int64, error) {
	result, err := c.db.Exec(`DELETE FROM catalog_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: prune catalog cache: %v", shared.ErrStorageWrite, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
