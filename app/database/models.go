package database

import (
	"time"
)

// Feed processing statuses. Any status except StatusProcessing accepts a
// new processing trigger.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Feed represents a feed record in the database, one row per source URL.
type Feed struct {
	ID           int64
	URL          string
	Status       string
	ErrorMessage *string
	AutoUpdate   bool
	CreatedAt    time.Time
	LastUpdated  *time.Time
}

// InventoryItem represents a single unit extracted from a feed's most
// recent successful parse. AssetURLs is populated by joined queries.
type InventoryItem struct {
	ID            int64
	FeedID        int64
	StockNumber   *string
	Description   *string
	Manufacturer  *string
	Condition     *string
	Make          *string
	Model         *string
	Year          *string
	ProductType   *string
	Status        *string
	MSRP          *string
	SalePrice     *string
	Location      *string
	ItemDetailURL *string
	CreatedAt     time.Time
	AssetURLs     []string
}

// InventoryStats aggregates inventory counts and prices for the dashboard.
type InventoryStats struct {
	TotalUnits int
	NewUnits   int
	UsedUnits  int
	AvgPrice   float64
	TotalValue float64
}
