package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "eventhive/internal/auctionService"
	model "eventhive/internal/models"
	"eventhive/internal/repository"
	"eventhive/internal/server"

	"github.com/gin-gonic/gin"
)

// testApp bundles the router with the seams the API tests need: the seeded
// store and a mutable clock shared by the store and the service.
type testApp struct {
	router *gin.Engine
	store  *repository.MemoryStore
	clock  *time.Time
}

// advance moves the shared clock forward.
func (app *testApp) advance(d time.Duration) {
	*app.clock = app.clock.Add(d)
}

// SetupTestApp initializes the router with an in-memory store seeded with one
// event and two sponsors.
func SetupTestApp(opts ...auction.Option) *testApp {
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	store.AddEvent(model.Event{EventID: "event1", Title: "Tech Summit", HostID: "host1", HostEmail: "host@example.com"})
	store.AddUser(model.User{UserID: "sponsor1", Username: "sponsor-one", Email: "sponsor1@example.com"})
	store.AddUser(model.User{UserID: "sponsor2", Username: "sponsor-two", Email: "sponsor2@example.com"})

	now := time.Now().UTC()
	clock := &now
	store.SetClock(func() time.Time { return *clock })
	opts = append(opts, auction.WithClock(func() time.Time { return *clock }))

	service := auction.NewAuctionService(store, store, opts...)
	router := server.SetupRouter(service, nil)

	return &testApp{router: router, store: store, clock: clock}
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}

		if w.Code == 201 {
			resp = resp["data"].(map[string]any)
		}
	}

	return resp, w
}

// CreateAuction creates an auction over the API and returns its ID.
func CreateAuction(t *testing.T, app *testApp, durationMinutes int) string {
	t.Helper()

	body := map[string]any{
		"event_id":         "event1",
		"item_name":        "Logo Placement",
		"item_description": "Main stage banner",
		"starting_bid":     100,
		"bid_increment":    10,
		"duration_minutes": durationMinutes,
	}
	resp, w := ExecuteRequestAndParse(t, app.router, "POST", "/auctions", body)
	if w.Code != 201 {
		t.Fatalf("failed to create auction: status %d body %s", w.Code, w.Body.String())
	}
	return resp["auction_id"].(string)
}
