package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLInventoryRepository handles database operations for inventory items
// and their assets.
type SQLInventoryRepository struct {
	db *DB
}

var _ InventoryRepository = (*SQLInventoryRepository)(nil)

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *DB) *SQLInventoryRepository {
	return &SQLInventoryRepository{db: db}
}

// ReplaceInventory swaps the feed's inventory for the given records and
// marks the feed ready. The delete, inserts and status update run in one
// transaction: a failure mid-run rolls everything back, so the previous
// inventory survives and the feed stays observably 'processing'.
func (r *SQLInventoryRepository) ReplaceInventory(feedID int64, items []ItemRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM inventory_items WHERE feed_id = ?", feedID); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}

	now := time.Now().UTC()
	for _, item := range items {
		result, err := tx.Exec(`
			INSERT INTO inventory_items (
				feed_id, stock_number, description, manufacturer,
				condition_type, make, model, year, product_type,
				status, msrp, sale_price, location, item_detail_url, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, feedID, item.StockNumber, item.Description, item.Manufacturer,
			item.Condition, item.Make, item.Model, item.Year, item.ProductType,
			item.Status, item.MSRP, item.SalePrice, item.Location,
			item.ItemDetailURL, now)
		if err != nil {
			return fmt.Errorf("failed to insert inventory item: %w", err)
		}

		itemID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get inserted item ID: %w", err)
		}

		for _, url := range item.AssetURLs {
			if _, err := tx.Exec(
				"INSERT INTO inventory_assets (item_id, url) VALUES (?, ?)",
				itemID, url); err != nil {
				return fmt.Errorf("failed to insert inventory asset: %w", err)
			}
		}
	}

	if _, err := tx.Exec(
		"UPDATE feeds SET status = ?, last_updated = ? WHERE id = ?",
		StatusReady, now, feedID); err != nil {
		return fmt.Errorf("failed to mark feed ready: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inventory replacement: %w", err)
	}

	return nil
}

const itemColumns = `i.id, i.feed_id, i.stock_number, i.description, i.manufacturer,
	       i.condition_type, i.make, i.model, i.year, i.product_type,
	       i.status, i.msrp, i.sale_price, i.location, i.item_detail_url, i.created_at`

func scanItem(row interface{ Scan(...any) error }, extra ...any) (*InventoryItem, error) {
	var item InventoryItem
	dest := []any{
		&item.ID, &item.FeedID, &item.StockNumber, &item.Description,
		&item.Manufacturer, &item.Condition, &item.Make, &item.Model,
		&item.Year, &item.ProductType, &item.Status, &item.MSRP,
		&item.SalePrice, &item.Location, &item.ItemDetailURL, &item.CreatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemsWithAssets returns one entry per item with its asset URLs
// grouped, the flat row set the render/export collaborators consume.
func (r *SQLInventoryRepository) GetItemsWithAssets(feedID int64) ([]InventoryItem, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`, a.url
		FROM inventory_items i
		LEFT JOIN inventory_assets a ON a.item_id = i.id
		WHERE i.feed_id = ?
		ORDER BY i.id, a.id
	`, feedID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory items: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		var assetURL *string
		item, err := scanItem(rows, &assetURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}

		if len(items) > 0 && items[len(items)-1].ID == item.ID {
			if assetURL != nil {
				last := &items[len(items)-1]
				last.AssetURLs = append(last.AssetURLs, *assetURL)
			}
			continue
		}

		if assetURL != nil {
			item.AssetURLs = []string{*assetURL}
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory rows: %w", err)
	}

	return items, nil
}

// GetItem returns a single item by stock number within a feed
func (r *SQLInventoryRepository) GetItem(feedID int64, stockNumber string) (*InventoryItem, error) {
	item, err := scanItem(r.db.QueryRow(`
		SELECT `+itemColumns+`
		FROM inventory_items i
		WHERE i.feed_id = ? AND i.stock_number = ?
	`, feedID, stockNumber))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}

	rows, err := r.db.Query(
		"SELECT url FROM inventory_assets WHERE item_id = ? ORDER BY id", item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		item.AssetURLs = append(item.AssetURLs, url)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset rows: %w", err)
	}

	return item, nil
}

// GetItemCount returns the number of items for a feed
func (r *SQLInventoryRepository) GetItemCount(feedID int64) (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM inventory_items WHERE feed_id = ?", feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// GetAssetCount returns the number of asset rows for a feed
func (r *SQLInventoryRepository) GetAssetCount(feedID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM inventory_assets a
		JOIN inventory_items i ON i.id = a.item_id
		WHERE i.feed_id = ?
	`, feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get asset count: %w", err)
	}
	return count, nil
}

// GetStats aggregates dashboard statistics across all feeds. Prices are
// free-form upstream strings, so currency symbols and thousands
// separators are stripped before casting.
func (r *SQLInventoryRepository) GetStats() (*InventoryStats, error) {
	var stats InventoryStats
	var avgPrice, totalValue sql.NullFloat64
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN condition_type = 'New' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN condition_type = 'Used' THEN 1 ELSE 0 END), 0),
			AVG(CAST(REPLACE(REPLACE(sale_price, '$', ''), ',', '') AS REAL)),
			SUM(CAST(REPLACE(REPLACE(sale_price, '$', ''), ',', '') AS REAL))
		FROM inventory_items
	`).Scan(&stats.TotalUnits, &stats.NewUnits, &stats.UsedUnits, &avgPrice, &totalValue)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory stats: %w", err)
	}

	stats.AvgPrice = avgPrice.Float64
	stats.TotalValue = totalValue.Float64

	return &stats, nil
}

// GetRecentItems returns the most recently ingested items across all feeds
func (r *SQLInventoryRepository) GetRecentItems(limit int) ([]InventoryItem, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM inventory_items i
		ORDER BY i.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent items: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory rows: %w", err)
	}

	return items, nil
}
