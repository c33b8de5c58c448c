package feed

// Unit is a normalized inventory record extracted from an upstream
// document, one per unit regardless of the source shape. Optional fields
// are nil when absent or empty upstream.
type Unit struct {
	StockNumber   *string
	Description   *string
	Manufacturer  *string
	Condition     string // "New" or "Used"
	Make          *string
	Model         *string
	Year          *string
	ProductType   *string
	Status        string // defaults to "Available"
	MSRP          *string
	SalePrice     *string
	Location      *string
	ItemDetailURL *string
	AssetURLs     []string
}

// Outcome is the definite result of a processing run, returned to
// callers even when the run failed for a classified reason.
type Outcome struct {
	FeedID int64  `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
