package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lotview/lotview/app/cfg"
	"github.com/lotview/lotview/app/database"
	"github.com/lotview/lotview/app/feed"
)

// stubProcessor records calls and returns canned outcomes, so handler
// tests exercise routing and response shaping without network fetches.
type stubProcessor struct {
	feedRepo database.FeedRepository

	addFeedErr error
	outcome    *feed.Outcome

	processedID int64
}

func (s *stubProcessor) AddFeed(ctx context.Context, url string) (*feed.Outcome, error) {
	if s.addFeedErr != nil {
		return nil, s.addFeedErr
	}
	f, _, err := s.feedRepo.CreateFeed(url)
	if err != nil {
		return nil, err
	}
	if s.outcome != nil {
		out := *s.outcome
		out.FeedID = f.ID
		return &out, nil
	}
	return &feed.Outcome{FeedID: f.ID, Status: database.StatusReady}, nil
}

func (s *stubProcessor) Process(ctx context.Context, feedID int64, url string) (*feed.Outcome, error) {
	s.processedID = feedID
	if s.outcome != nil {
		out := *s.outcome
		out.FeedID = feedID
		return &out, nil
	}
	return &feed.Outcome{FeedID: feedID, Status: database.StatusReady}, nil
}

type testServer struct {
	engine    *gin.Engine
	feedRepo  *database.SQLFeedRepository
	invRepo   *database.SQLInventoryRepository
	processor *stubProcessor
}

func newTestServer(t *testing.T, apiAccessKey string) *testServer {
	t.Helper()
	cfg.Set(&cfg.Cfg{Version: "test"})

	db, err := database.NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	feedRepo := database.NewFeedRepository(db)
	invRepo := database.NewInventoryRepository(db)
	processor := &stubProcessor{feedRepo: feedRepo}

	handler := NewHandler(feedRepo, invRepo, processor)
	engine := NewServer(handler, apiAccessKey)

	return &testServer{engine: engine, feedRepo: feedRepo, invRepo: invRepo, processor: processor}
}

func (ts *testServer) request(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("Response is not valid JSON: %v\nbody: %s", err, w.Body.String())
	}
}

func TestGetHealth(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.request(t, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var body map[string]any
	decodeJSON(t, w, &body)
	if body["version"] != "test" {
		t.Errorf("Expected version 'test', got: %v", body["version"])
	}
	if _, ok := body["feeds"]; !ok {
		t.Errorf("Expected feed count in health response")
	}
}

func TestAddFeed(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.request(t, "POST", "/api/feeds", `{"url":"https://feeds.example.com/a.xml"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d (%s)", w.Code, w.Body.String())
	}

	var body map[string]any
	decodeJSON(t, w, &body)
	if body["status"] != database.StatusReady {
		t.Errorf("Expected outcome status 'ready', got: %v", body["status"])
	}
	if body["id"] == nil {
		t.Errorf("Expected feed ID in outcome")
	}
}

func TestAddFeedMissingURL(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.request(t, "POST", "/api/feeds", `{}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got: %d", w.Code)
	}
}

func TestAddFeedInvalidURL(t *testing.T) {
	ts := newTestServer(t, "")
	ts.processor.addFeedErr = feed.ErrInvalidURL

	w := ts.request(t, "POST", "/api/feeds", `{"url":"not-a-url"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got: %d", w.Code)
	}
}

func TestAddFeedReportsFailureOutcome(t *testing.T) {
	ts := newTestServer(t, "")
	ts.processor.outcome = &feed.Outcome{Status: database.StatusFailed, Error: "Connection timed out"}

	w := ts.request(t, "POST", "/api/feeds", `{"url":"https://feeds.example.com/down.xml"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for a definite failure outcome, got: %d", w.Code)
	}

	var body map[string]any
	decodeJSON(t, w, &body)
	if body["status"] != database.StatusFailed {
		t.Errorf("Expected status 'failed', got: %v", body["status"])
	}
	if body["error"] != "Connection timed out" {
		t.Errorf("Expected error message in outcome, got: %v", body["error"])
	}
}

func TestListFeeds(t *testing.T) {
	ts := newTestServer(t, "")
	ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")
	ts.feedRepo.CreateFeed("https://feeds.example.com/b.xml")

	w := ts.request(t, "GET", "/api/feeds", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var body []map[string]any
	decodeJSON(t, w, &body)
	if len(body) != 2 {
		t.Fatalf("Expected 2 feeds, got: %d", len(body))
	}
	if body[0]["url"] != "https://feeds.example.com/b.xml" {
		t.Errorf("Expected newest feed first, got: %v", body[0]["url"])
	}
}

func TestUpdateFeed(t *testing.T) {
	ts := newTestServer(t, "")
	f, _, _ := ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")

	w := ts.request(t, "POST", "/api/feeds/1/update", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d (%s)", w.Code, w.Body.String())
	}
	if ts.processor.processedID != f.ID {
		t.Errorf("Expected feed %d to be processed, got: %d", f.ID, ts.processor.processedID)
	}
}

func TestUpdateFeedNotFound(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.request(t, "POST", "/api/feeds/9999/update", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got: %d", w.Code)
	}
}

func TestUpdateFeedInvalidID(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.request(t, "POST", "/api/feeds/abc/update", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got: %d", w.Code)
	}
}

func TestSetAutoUpdate(t *testing.T) {
	ts := newTestServer(t, "")
	f, _, _ := ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")

	w := ts.request(t, "POST", "/api/feeds/1/auto-update", `{"enabled":true}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d (%s)", w.Code, w.Body.String())
	}

	loaded, _ := ts.feedRepo.GetFeed(f.ID)
	if !loaded.AutoUpdate {
		t.Errorf("Expected auto-update enabled")
	}

	// The flag is required, not defaulted.
	w = ts.request(t, "POST", "/api/feeds/1/auto-update", `{}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing flag, got: %d", w.Code)
	}
}

func TestDeleteFeed(t *testing.T) {
	ts := newTestServer(t, "")
	f, _, _ := ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")

	w := ts.request(t, "DELETE", "/api/feeds/1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	loaded, _ := ts.feedRepo.GetFeed(f.ID)
	if loaded != nil {
		t.Errorf("Expected feed removed, got: %+v", loaded)
	}
}

func TestGetInventory(t *testing.T) {
	ts := newTestServer(t, "")
	f, _, _ := ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")

	stock := "A-1"
	ts.invRepo.ReplaceInventory(f.ID, []database.ItemRecord{
		{StockNumber: &stock, Condition: "New", Status: "Available", AssetURLs: []string{"https://cdn.example.com/1.jpg"}},
	})

	w := ts.request(t, "GET", "/api/inventory/1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var body struct {
		TotalItems int              `json:"total_items"`
		Inventory  []map[string]any `json:"inventory"`
	}
	decodeJSON(t, w, &body)

	if body.TotalItems != 1 {
		t.Fatalf("Expected 1 item, got: %d", body.TotalItems)
	}
	item := body.Inventory[0]
	if item["stock_number"] != "A-1" {
		t.Errorf("Expected stock 'A-1', got: %v", item["stock_number"])
	}
	if item["condition_type"] != "New" {
		t.Errorf("Expected condition_type 'New', got: %v", item["condition_type"])
	}
	assets, ok := item["asset_urls"].([]any)
	if !ok || len(assets) != 1 {
		t.Errorf("Expected 1 asset URL, got: %v", item["asset_urls"])
	}
}

func TestGetInventoryEmptyFeed(t *testing.T) {
	ts := newTestServer(t, "")
	ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")

	w := ts.request(t, "GET", "/api/inventory/1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var body struct {
		TotalItems int              `json:"total_items"`
		Inventory  []map[string]any `json:"inventory"`
	}
	decodeJSON(t, w, &body)
	if body.TotalItems != 0 {
		t.Errorf("Expected empty inventory, got: %d", body.TotalItems)
	}
	if body.Inventory == nil {
		t.Errorf("Expected empty array, not null")
	}
}

func TestGetInventoryItem(t *testing.T) {
	ts := newTestServer(t, "")
	f, _, _ := ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")

	stock := "A-1"
	ts.invRepo.ReplaceInventory(f.ID, []database.ItemRecord{
		{StockNumber: &stock, Condition: "New", Status: "Available"},
	})

	w := ts.request(t, "GET", "/api/inventory/1/items/A-1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var item map[string]any
	decodeJSON(t, w, &item)
	if item["stock_number"] != "A-1" {
		t.Errorf("Expected stock 'A-1', got: %v", item["stock_number"])
	}
	if _, ok := item["asset_urls"].([]any); !ok {
		t.Errorf("Expected asset_urls array, got: %v", item["asset_urls"])
	}

	w = ts.request(t, "GET", "/api/inventory/1/items/NOPE", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown stock number, got: %d", w.Code)
	}
}

func TestGetDashboard(t *testing.T) {
	ts := newTestServer(t, "")
	f, _, _ := ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")

	stock := "A-1"
	price := "10000"
	ts.invRepo.ReplaceInventory(f.ID, []database.ItemRecord{
		{StockNumber: &stock, Condition: "New", Status: "Available", SalePrice: &price},
	})

	w := ts.request(t, "GET", "/api/dashboard", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var body struct {
		Stats struct {
			TotalUnits int     `json:"total_units"`
			NewUnits   int     `json:"new_units"`
			AvgPrice   float64 `json:"avg_price"`
		} `json:"stats"`
		ActiveFeeds int              `json:"activeFeeds"`
		RecentItems []map[string]any `json:"recentItems"`
	}
	decodeJSON(t, w, &body)

	if body.Stats.TotalUnits != 1 || body.Stats.NewUnits != 1 {
		t.Errorf("Unexpected stats: %+v", body.Stats)
	}
	if body.Stats.AvgPrice != 10000 {
		t.Errorf("Expected average price 10000, got: %f", body.Stats.AvgPrice)
	}
	if body.ActiveFeeds != 1 {
		t.Errorf("Expected 1 active feed, got: %d", body.ActiveFeeds)
	}
	if len(body.RecentItems) != 1 {
		t.Errorf("Expected 1 recent item, got: %d", len(body.RecentItems))
	}
}

func TestExportCSV(t *testing.T) {
	ts := newTestServer(t, "")
	f, _, _ := ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")

	stock := "A-1"
	ts.invRepo.ReplaceInventory(f.ID, []database.ItemRecord{
		{StockNumber: &stock, Condition: "New", Status: "Available"},
	})

	w := ts.request(t, "GET", "/api/inventory/1/export/csv", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "text/csv" {
		t.Errorf("Expected text/csv, got: %s", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attachment") {
		t.Errorf("Expected attachment disposition, got: %s", w.Header().Get("Content-Disposition"))
	}
	if !strings.Contains(w.Body.String(), "A-1") {
		t.Errorf("Expected CSV body to contain stock number")
	}
}

func TestExportEmptyFeed(t *testing.T) {
	ts := newTestServer(t, "")
	ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")

	w := ts.request(t, "GET", "/api/inventory/1/export/csv", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for empty inventory, got: %d", w.Code)
	}
}

func TestExportXLSX(t *testing.T) {
	ts := newTestServer(t, "")
	f, _, _ := ts.feedRepo.CreateFeed("https://feeds.example.com/a.xml")

	stock := "A-1"
	ts.invRepo.ReplaceInventory(f.ID, []database.ItemRecord{
		{StockNumber: &stock, Condition: "New", Status: "Available"},
	})

	w := ts.request(t, "GET", "/api/inventory/1/export/xlsx", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "spreadsheetml") {
		t.Errorf("Unexpected content type: %s", w.Header().Get("Content-Type"))
	}
	if w.Body.Len() == 0 {
		t.Errorf("Expected non-empty workbook body")
	}
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t, "secret-key")

	w := ts.request(t, "GET", "/api/feeds", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got: %d", w.Code)
	}

	w = ts.request(t, "GET", "/api/feeds", "", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got: %d", w.Code)
	}

	w = ts.request(t, "GET", "/api/feeds", "", map[string]string{"X-API-Key": "secret-key"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid key, got: %d", w.Code)
	}

	w = ts.request(t, "GET", "/api/feeds", "", map[string]string{"Authorization": "Bearer secret-key"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got: %d", w.Code)
	}

	// Health stays open for probes.
	w = ts.request(t, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected health endpoint unauthenticated, got: %d", w.Code)
	}
}
