package database

// ItemRecord is the write-side representation of a normalized unit, as
// produced by the feed normalizer. Nil fields are stored as NULL.
type ItemRecord struct {
	StockNumber   *string
	Description   *string
	Manufacturer  *string
	Condition     string
	Make          *string
	Model         *string
	Year          *string
	ProductType   *string
	Status        string
	MSRP          *string
	SalePrice     *string
	Location      *string
	ItemDetailURL *string
	AssetURLs     []string
}

type FeedRepository interface {
	GetFeed(id int64) (*Feed, error)
	GetFeedByURL(url string) (*Feed, error)
	ListFeeds() ([]Feed, error)
	GetFeedCount() (int, error)
	GetReadyFeedCount() (int, error)

	// CreateFeed inserts a feed for the URL if none exists, returning the
	// feed row and whether it was newly created.
	CreateFeed(url string) (*Feed, bool, error)

	// BeginProcessing advances the feed to 'processing' and clears its
	// error message, but only if it is not already processing. Returns
	// false when another run holds the feed.
	BeginProcessing(id int64) (bool, error)

	MarkFailed(id int64, message string) error
	SetAutoUpdate(id int64, enabled bool) error
	GetFeedsForAutoUpdate() ([]Feed, error)
	DeleteFeed(id int64) error
}

type InventoryRepository interface {
	// ReplaceInventory atomically swaps the feed's inventory for the given
	// records and marks the feed ready, all in one transaction.
	ReplaceInventory(feedID int64, items []ItemRecord) error

	GetItemsWithAssets(feedID int64) ([]InventoryItem, error)
	GetItem(feedID int64, stockNumber string) (*InventoryItem, error)
	GetItemCount(feedID int64) (int, error)
	GetAssetCount(feedID int64) (int, error)
	GetStats() (*InventoryStats, error)
	GetRecentItems(limit int) ([]InventoryItem, error)
}
