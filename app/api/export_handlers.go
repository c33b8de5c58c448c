package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lotview/lotview/app/database"
	"github.com/lotview/lotview/app/export"
)

// ExportCSV streams the feed's inventory as a CSV download.
func (h *Handler) ExportCSV(c *gin.Context) {
	feedID, items, ok := h.exportRows(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+exportFilename(feedID, "csv"))
	c.Status(http.StatusOK)

	if err := export.WriteCSV(c.Writer, items); err != nil {
		slog.Error("CSV export failed", "feed_id", feedID, "error", err)
	}
}

// ExportXLSX streams the feed's inventory as a spreadsheet download.
func (h *Handler) ExportXLSX(c *gin.Context) {
	feedID, items, ok := h.exportRows(c)
	if !ok {
		return
	}

	workbook, err := export.BuildWorkbook(items)
	if err != nil {
		slog.Error("Spreadsheet export failed", "feed_id", feedID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export inventory"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+exportFilename(feedID, "xlsx"))
	c.Status(http.StatusOK)

	if err := workbook.Write(c.Writer); err != nil {
		slog.Error("Spreadsheet export failed", "feed_id", feedID, "error", err)
	}
}

func (h *Handler) exportRows(c *gin.Context) (int64, []database.InventoryItem, bool) {
	feedID, ok := parseFeedID(c)
	if !ok {
		return 0, nil, false
	}

	items, err := h.invRepo.GetItemsWithAssets(feedID)
	if err != nil {
		slog.Error("Database error", "operation", "export_inventory", "feed_id", feedID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export inventory"})
		return 0, nil, false
	}

	if len(items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No inventory found"})
		return 0, nil, false
	}

	return feedID, items, true
}
