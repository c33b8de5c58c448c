package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lotview/lotview/app/database"
)

const sheetName = "Inventory"

// BuildWorkbook renders the feed's inventory as a spreadsheet with a
// summary block followed by one row per item.
func BuildWorkbook(items []database.InventoryItem) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	newCount := 0
	for _, item := range items {
		if item.Condition != nil && *item.Condition == "New" {
			newCount++
		}
	}

	f.SetCellValue(sheetName, "A1", "Total Items")
	f.SetCellValue(sheetName, "B1", len(items))
	f.SetCellValue(sheetName, "A2", "New Items")
	f.SetCellValue(sheetName, "B2", newCount)
	f.SetCellValue(sheetName, "A3", "Used Items")
	f.SetCellValue(sheetName, "B3", len(items)-newCount)

	const headerRow = 5
	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve header cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, name)
	}

	for i, item := range items {
		values := []string{
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
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, headerRow+1+i)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve data cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	return f, nil
}
