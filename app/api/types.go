package api

import (
	"context"
	"time"

	"github.com/lotview/lotview/app/database"
	"github.com/lotview/lotview/app/feed"
)

// ProcessorInterface is the slice of the feed processor the handlers use.
type ProcessorInterface interface {
	AddFeed(ctx context.Context, url string) (*feed.Outcome, error)
	Process(ctx context.Context, feedID int64, url string) (*feed.Outcome, error)
}

var _ ProcessorInterface = (*feed.Processor)(nil)

type Handler struct {
	feedRepo  database.FeedRepository
	invRepo   database.InventoryRepository
	processor ProcessorInterface
}

type addFeedRequest struct {
	URL string `json:"url" binding:"required"`
}

type autoUpdateRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type feedResponse struct {
	ID           int64      `json:"id"`
	URL          string     `json:"url"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message"`
	AutoUpdate   bool       `json:"auto_update"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUpdated  *time.Time `json:"last_updated"`
}

type itemResponse struct {
	ID            int64     `json:"id"`
	FeedID        int64     `json:"feed_id"`
	StockNumber   *string   `json:"stock_number"`
	Description   *string   `json:"description"`
	Manufacturer  *string   `json:"manufacturer"`
	Condition     *string   `json:"condition_type"`
	Make          *string   `json:"make"`
	Model         *string   `json:"model"`
	Year          *string   `json:"year"`
	ProductType   *string   `json:"product_type"`
	Status        *string   `json:"status"`
	MSRP          *string   `json:"msrp"`
	SalePrice     *string   `json:"sale_price"`
	Location      *string   `json:"location"`
	ItemDetailURL *string   `json:"item_detail_url"`
	CreatedAt     time.Time `json:"created_at"`
	AssetURLs     []string  `json:"asset_urls"`
}

func newFeedResponse(f database.Feed) feedResponse {
	return feedResponse{
		ID:           f.ID,
		URL:          f.URL,
		Status:       f.Status,
		ErrorMessage: f.ErrorMessage,
		AutoUpdate:   f.AutoUpdate,
		CreatedAt:    f.CreatedAt,
		LastUpdated:  f.LastUpdated,
	}
}

func newItemResponse(item database.InventoryItem) itemResponse {
	assets := item.AssetURLs
	if assets == nil {
		assets = []string{}
	}
	return itemResponse{
		ID:            item.ID,
		FeedID:        item.FeedID,
		StockNumber:   item.StockNumber,
		Description:   item.Description,
		Manufacturer:  item.Manufacturer,
		Condition:     item.Condition,
		Make:          item.Make,
		Model:         item.Model,
		Year:          item.Year,
		ProductType:   item.ProductType,
		Status:        item.Status,
		MSRP:          item.MSRP,
		SalePrice:     item.SalePrice,
		Location:      item.Location,
		ItemDetailURL: item.ItemDetailURL,
		CreatedAt:     item.CreatedAt,
		AssetURLs:     assets,
	}
}
