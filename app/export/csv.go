package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/lotview/lotview/app/database"
)

var columns = []string{
	"stock_number", "description", "manufacturer", "condition",
	"make", "model", "year", "product_type", "status",
	"msrp", "sale_price", "location", "item_detail_url", "asset_urls",
}

// WriteCSV renders the feed's inventory as CSV, one row per item with
// its asset URLs joined into the last column.
func WriteCSV(w io.Writer, items []database.InventoryItem) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, item := range items {
		row := []string{
			orEmpty(item.StockNumber),
			orEmpty(item.Description),
			orEmpty(item.Manufacturer),
			orEmpty(item.Condition),
			orEmpty(item.Make),
			orEmpty(item.Model),
			orEmpty(item.Year),
			orEmpty(item.ProductType),
			orEmpty(item.Status),
			orEmpty(item.MSRP),
			orEmpty(item.SalePrice),
			orEmpty(item.Location),
			orEmpty(item.ItemDetailURL),
			strings.Join(item.AssetURLs, " "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
