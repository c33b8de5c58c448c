package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/lotview/lotview/app/database"
)

// ErrInvalidURL rejects feed URLs that are not absolute before any
// network call is made.
var ErrInvalidURL = errors.New("invalid feed URL")

// Processor orchestrates one unit of work per feed: fetch the document,
// normalize it, replace the feed's inventory, and advance the status.
// Fetch and normalize failures are classified into a status+message pair
// and never escape as raw errors; only storage faults do.
type Processor struct {
	fetcher    *Fetcher
	normalizer *Normalizer
	feedRepo   database.FeedRepository
	invRepo    database.InventoryRepository
}

func NewProcessor(fetcher *Fetcher, normalizer *Normalizer,
	feedRepo database.FeedRepository, invRepo database.InventoryRepository) *Processor {
	return &Processor{
		fetcher:    fetcher,
		normalizer: normalizer,
		feedRepo:   feedRepo,
		invRepo:    invRepo,
	}
}

// AddFeed registers the URL (reusing the existing feed row if the URL is
// already known) and processes it immediately.
func (p *Processor) AddFeed(ctx context.Context, feedURL string) (*Outcome, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, feedURL)
	}

	f, created, err := p.feedRepo.CreateFeed(feedURL)
	if err != nil {
		return nil, err
	}
	if created {
		slog.Info("Feed registered", "feed_id", f.ID, "url", feedURL)
	}

	return p.Process(ctx, f.ID, feedURL)
}

// Process runs the state machine for one feed. The previous inventory is
// deleted only after the new document has been fetched and parsed, so a
// failed run never destroys the last good data set.
func (p *Processor) Process(ctx context.Context, feedID int64, feedURL string) (*Outcome, error) {
	started := time.Now()

	acquired, err := p.feedRepo.BeginProcessing(feedID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		// Another trigger holds the feed; report busy, touch nothing.
		slog.Debug("Feed already processing, skipping", "feed_id", feedID)
		return &Outcome{FeedID: feedID, Status: database.StatusProcessing}, nil
	}

	data, err := p.fetcher.Run(ctx, feedURL)
	if err != nil {
		return p.fail(feedID, err)
	}

	units, err := p.normalizer.Run(data)
	if err != nil {
		return p.fail(feedID, err)
	}

	records := make([]database.ItemRecord, 0, len(units))
	for _, unit := range units {
		records = append(records, database.ItemRecord{
			StockNumber:   unit.StockNumber,
			Description:   unit.Description,
			Manufacturer:  unit.Manufacturer,
			Condition:     unit.Condition,
			Make:          unit.Make,
			Model:         unit.Model,
			Year:          unit.Year,
			ProductType:   unit.ProductType,
			Status:        unit.Status,
			MSRP:          unit.MSRP,
			SalePrice:     unit.SalePrice,
			Location:      unit.Location,
			ItemDetailURL: unit.ItemDetailURL,
			AssetURLs:     unit.AssetURLs,
		})
	}

	if err := p.invRepo.ReplaceInventory(feedID, records); err != nil {
		// Best effort; the transaction already rolled back, so the
		// previous inventory is intact either way.
		if markErr := p.feedRepo.MarkFailed(feedID, "Failed to process feed"); markErr != nil {
			slog.Error("Failed to mark feed failed after storage error", "feed_id", feedID, "error", markErr)
		}
		return nil, err
	}

	slog.Info("Feed processed",
		"feed_id", feedID,
		"status", database.StatusReady,
		"units", len(records),
		"duration", time.Since(started))

	return &Outcome{FeedID: feedID, Status: database.StatusReady}, nil
}

// fail records a classified fetch or normalize failure on the feed and
// returns it as a definite outcome rather than an error.
func (p *Processor) fail(feedID int64, cause error) (*Outcome, error) {
	message := userMessage(cause)

	if err := p.feedRepo.MarkFailed(feedID, message); err != nil {
		return nil, err
	}

	slog.Warn("Feed processing failed", "feed_id", feedID, "reason", message)

	return &Outcome{FeedID: feedID, Status: database.StatusFailed, Error: message}, nil
}

func userMessage(err error) string {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Error()
	}

	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		return formatErr.Error()
	}

	return "Failed to process feed"
}
