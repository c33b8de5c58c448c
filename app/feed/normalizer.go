package feed

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Normalizer turns an upstream XML document into a flat sequence of
// units. Two document shapes exist in the wild: the account/locations
// hierarchy and a flat legacy inventory list. The root element decides
// which field mapping applies; the rest of the pipeline is shared.
//
// Repeatable elements (location, unit, asset) may appear once or many
// times upstream; decoding them into slices absorbs both cases without
// per-call-site handling.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Document shape A: account/locations/location/units/unit.
type accountDoc struct {
	Locations *struct {
		Location []struct {
			Name  string    `xml:"name,attr"`
			Units *unitList `xml:"units"`
		} `xml:"location"`
	} `xml:"locations"`
}

type unitList struct {
	Unit []accountUnit `xml:"unit"`
}

type accountUnit struct {
	StockNumber  string `xml:"stockNumber"`
	Description  string `xml:"description"`
	Manufacturer string `xml:"manufacturer"`
	IsNew        string `xml:"isNew"`
	Make         string `xml:"make"`
	Model        string `xml:"model"`
	Year         string `xml:"year"`
	ProductType  string `xml:"productType"`
	Status       string `xml:"status"`
	Prices       *struct {
		MSRP  string `xml:"msrp"`
		Sales string `xml:"sales"`
	} `xml:"prices"`
	ItemDetailURL string `xml:"itemDetailUrl"`
	Assets        struct {
		Asset []struct {
			URL string `xml:"url"`
		} `xml:"asset"`
	} `xml:"assets"`
}

// Document shape B: flat inventory/unit list with legacy field names.
type inventoryDoc struct {
	Unit []legacyUnit `xml:"unit"`
}

type legacyUnit struct {
	Stock        string `xml:"stock"`
	Description  string `xml:"description"`
	Manufacturer string `xml:"manufacturer"`
	Condition    string `xml:"condition"`
	Make         string `xml:"make"`
	Model        string `xml:"model"`
	Year         string `xml:"year"`
	Type         string `xml:"type"`
	Status       string `xml:"status"`
	MSRP         string `xml:"msrp"`
	Price        string `xml:"price"`
	Location     string `xml:"location"`
}

// Run parses the document and returns the normalized unit sequence.
// Structural problems come back as *FormatError; there is no partial
// success.
func (n *Normalizer) Run(data []byte) ([]Unit, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel

	root, err := findRootElement(decoder)
	if err != nil {
		return nil, err
	}

	switch root.Name.Local {
	case "account":
		return n.decodeAccount(decoder, root)
	case "inventory":
		return n.decodeInventory(decoder, root)
	default:
		return nil, &FormatError{Message: "Invalid XML format: Missing required data structure"}
	}
}

func findRootElement(decoder *xml.Decoder) (*xml.StartElement, error) {
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil, &FormatError{Message: "Invalid XML format: Missing required data structure"}
		}
		if err != nil {
			return nil, &FormatError{Message: "Invalid XML format: " + err.Error(), Err: err}
		}
		if start, ok := token.(xml.StartElement); ok {
			return &start, nil
		}
	}
}

func (n *Normalizer) decodeAccount(decoder *xml.Decoder, root *xml.StartElement) ([]Unit, error) {
	var doc accountDoc
	if err := decoder.DecodeElement(&doc, root); err != nil {
		return nil, &FormatError{Message: "Invalid XML format: " + err.Error(), Err: err}
	}

	if doc.Locations == nil {
		return nil, &FormatError{Message: "Invalid XML format: Missing required data structure"}
	}

	units := []Unit{}
	for _, location := range doc.Locations.Location {
		// Locations without units are legitimate, not an error.
		if location.Units == nil {
			continue
		}

		locationName := nullable(location.Name)
		for _, raw := range location.Units.Unit {
			unit := Unit{
				StockNumber:   nullable(raw.StockNumber),
				Description:   nullable(raw.Description),
				Manufacturer:  nullable(raw.Manufacturer),
				Condition:     conditionFromIsNew(raw.IsNew),
				Make:          nullable(raw.Make),
				Model:         nullable(raw.Model),
				Year:          nullable(raw.Year),
				ProductType:   nullable(raw.ProductType),
				Status:        defaultString(raw.Status, "Available"),
				Location:      locationName,
				ItemDetailURL: nullable(raw.ItemDetailURL),
			}

			if raw.Prices != nil {
				unit.MSRP = nullable(raw.Prices.MSRP)
				unit.SalePrice = nullable(raw.Prices.Sales)
			}

			for _, asset := range raw.Assets.Asset {
				if url := strings.TrimSpace(asset.URL); url != "" {
					unit.AssetURLs = append(unit.AssetURLs, url)
				}
			}

			units = append(units, unit)
		}
	}

	return units, nil
}

func (n *Normalizer) decodeInventory(decoder *xml.Decoder, root *xml.StartElement) ([]Unit, error) {
	var doc inventoryDoc
	if err := decoder.DecodeElement(&doc, root); err != nil {
		return nil, &FormatError{Message: "Invalid XML format: " + err.Error(), Err: err}
	}

	if len(doc.Unit) == 0 {
		return nil, &FormatError{Message: "Invalid XML format: Missing inventory data"}
	}

	units := make([]Unit, 0, len(doc.Unit))
	for _, raw := range doc.Unit {
		units = append(units, Unit{
			StockNumber:  nullable(raw.Stock),
			Description:  nullable(raw.Description),
			Manufacturer: nullable(raw.Manufacturer),
			Condition:    defaultString(raw.Condition, "New"),
			Make:         nullable(raw.Make),
			Model:        nullable(raw.Model),
			Year:         nullable(raw.Year),
			ProductType:  nullable(raw.Type),
			Status:       defaultString(raw.Status, "Available"),
			MSRP:         nullable(raw.MSRP),
			SalePrice:    nullable(raw.Price),
			Location:     nullable(raw.Location),
		})
	}

	return units, nil
}

func conditionFromIsNew(isNew string) string {
	if strings.TrimSpace(isNew) == "true" {
		return "New"
	}
	return "Used"
}

// nullable coerces empty or whitespace-only values to nil so they are
// stored as NULL rather than marker strings.
func nullable(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func defaultString(s, fallback string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return fallback
}
