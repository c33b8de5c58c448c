package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lotview/lotview/app/cfg"
	"github.com/lotview/lotview/app/database"
	"github.com/lotview/lotview/app/feed"
)

func NewHandler(feedRepo database.FeedRepository, invRepo database.InventoryRepository,
	processor ProcessorInterface) *Handler {
	return &Handler{
		feedRepo:  feedRepo,
		invRepo:   invRepo,
		processor: processor,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

// ListFeeds returns all registered feeds, newest first.
func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.feedRepo.ListFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch feeds"})
		return
	}

	response := make([]feedResponse, 0, len(feeds))
	for _, f := range feeds {
		response = append(response, newFeedResponse(f))
	}

	c.JSON(http.StatusOK, response)
}

// AddFeed registers a feed URL and processes it synchronously. Domain
// failures are reported as a definite outcome with HTTP 200; only
// storage faults surface as a server error.
func (h *Handler) AddFeed(c *gin.Context) {
	var req addFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed URL"})
		return
	}

	outcome, err := h.processor.AddFeed(c.Request.Context(), req.URL)
	if err != nil {
		if errors.Is(err, feed.ErrInvalidURL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Feed URL must be a valid absolute URL"})
			return
		}
		slog.Error("Unexpected error adding feed", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add feed"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// UpdateFeed re-processes a feed on demand.
func (h *Handler) UpdateFeed(c *gin.Context) {
	h.reprocess(c, "Failed to update feed")
}

// RetryFeed re-processes a feed after a failure. The normalizer
// dispatches on the document's root element, so legacy-shaped feeds go
// through the same path.
func (h *Handler) RetryFeed(c *gin.Context) {
	h.reprocess(c, "Failed to retry feed")
}

func (h *Handler) reprocess(c *gin.Context, failureMessage string) {
	f, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	outcome, err := h.processor.Process(c.Request.Context(), f.ID, f.URL)
	if err != nil {
		slog.Error("Unexpected error processing feed", "feed_id", f.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// SetAutoUpdate toggles scheduled re-fetching for a feed.
func (h *Handler) SetAutoUpdate(c *gin.Context) {
	f, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	var req autoUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing enabled flag"})
		return
	}

	if err := h.feedRepo.SetAutoUpdate(f.ID, *req.Enabled); err != nil {
		slog.Error("Database error", "operation", "set_auto_update", "feed_id", f.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update auto-update settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "auto_update": *req.Enabled})
}

// DeleteFeed removes a feed and cascades to its inventory and assets.
func (h *Handler) DeleteFeed(c *gin.Context) {
	f, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	if err := h.feedRepo.DeleteFeed(f.ID); err != nil {
		slog.Error("Database error", "operation", "delete_feed", "feed_id", f.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Feed deleted successfully"})
}

// GetInventory returns the feed's items with grouped asset URLs.
func (h *Handler) GetInventory(c *gin.Context) {
	feedID, ok := parseFeedID(c)
	if !ok {
		return
	}

	items, err := h.invRepo.GetItemsWithAssets(feedID)
	if err != nil {
		slog.Error("Database error", "operation", "get_inventory", "feed_id", feedID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}

	response := make([]itemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, newItemResponse(item))
	}

	c.JSON(http.StatusOK, gin.H{
		"total_items": len(response),
		"inventory":   response,
	})
}

// GetInventoryItem returns a single item by stock number within a feed.
func (h *Handler) GetInventoryItem(c *gin.Context) {
	feedID, ok := parseFeedID(c)
	if !ok {
		return
	}

	stockNumber := c.Param("stockNumber")
	item, err := h.invRepo.GetItem(feedID, stockNumber)
	if err != nil {
		slog.Error("Database error", "operation", "get_item", "feed_id", feedID, "stock_number", stockNumber, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory item"})
		return
	}

	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	c.JSON(http.StatusOK, newItemResponse(*item))
}

// GetDashboard returns aggregate statistics across all feeds.
func (h *Handler) GetDashboard(c *gin.Context) {
	stats, err := h.invRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "dashboard_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard stats"})
		return
	}

	activeFeeds, err := h.feedRepo.GetReadyFeedCount()
	if err != nil {
		slog.Error("Database error", "operation", "dashboard_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard stats"})
		return
	}

	recent, err := h.invRepo.GetRecentItems(5)
	if err != nil {
		slog.Error("Database error", "operation", "dashboard_recent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard stats"})
		return
	}

	recentItems := make([]itemResponse, 0, len(recent))
	for _, item := range recent {
		recentItems = append(recentItems, newItemResponse(item))
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"total_units": stats.TotalUnits,
			"new_units":   stats.NewUnits,
			"used_units":  stats.UsedUnits,
			"avg_price":   stats.AvgPrice,
			"total_value": stats.TotalValue,
		},
		"activeFeeds": activeFeeds,
		"recentItems": recentItems,
	})
}

func (h *Handler) lookupFeed(c *gin.Context) (*database.Feed, bool) {
	feedID, ok := parseFeedID(c)
	if !ok {
		return nil, false
	}

	f, err := h.feedRepo.GetFeed(feedID)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed_id", feedID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if f == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return nil, false
	}

	return f, true
}

func parseFeedID(c *gin.Context) (int64, bool) {
	param := c.Param("id")
	if param == "" {
		param = c.Param("feedId")
	}

	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feed ID"})
		return 0, false
	}

	return id, true
}

func exportFilename(feedID int64, extension string) string {
	return fmt.Sprintf("inventory_%d_%d.%s", feedID, time.Now().UnixMilli(), extension)
}
