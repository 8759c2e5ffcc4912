package ginserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staybook/internal/app/commands"
	bookingapp "staybook/internal/app/handlers/booking"
	calendarapp "staybook/internal/app/handlers/calendar"
	catalogapp "staybook/internal/app/handlers/catalog"
	quoteapp "staybook/internal/app/handlers/quote"
	"staybook/internal/app/middleware"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/infra/config"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	"staybook/internal/infra/storage/memory"
)

type testEnv struct {
	handler    http.Handler
	guestToken string
	hostToken  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	listingStore := memory.NewListingStore()
	reservationStore := memory.NewReservationStore()
	outboxStore := memory.NewOutboxStore()
	uowFactory := memory.NewFactory(listingStore, reservationStore)

	listing, err := listings.NewListing(listings.CreateParams{
		ID:          "lst-1",
		Host:        "usr-host",
		Title:       "Test loft",
		Address:     listings.Address{Line1: "Main 1", City: "Utrecht", Country: "NL"},
		GuestsLimit: 4,
		MinNights:   2,
		Currency:    "EUR",
		NightlyRate: 100,
		CleaningFee: 30,
		Addons:      []pricing.Addon{{ID: "addon-crib", Name: "Baby crib", Price: 15}},
		Now:         now,
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if err := listing.Publish(now); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := listingStore.Save(context.Background(), listing); err != nil {
		t.Fatalf("save listing: %v", err)
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingKey, bookingapp.NewRequestBookingHandler(nil, nil, outboxStore).Handle)
	transitions := bookingapp.NewTransitionHandler(outboxStore)
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingKey, transitions.HandleConfirm)
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingKey, transitions.HandleCancel)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, calendarapp.GetCalendarKey, calendarapp.NewGetCalendarHandler(listingStore, reservationStore).Handle)
	queries.RegisterHandler(queryBus, quoteapp.GetQuoteKey, quoteapp.NewGetQuoteHandler(listingStore, reservationStore, nil).Handle)
	queries.RegisterHandler(queryBus, catalogapp.GetOverviewKey, catalogapp.NewGetOverviewHandler(listingStore).Handle)
	queries.RegisterHandler(queryBus, bookingapp.GetBookingKey, bookingapp.NewGetBookingHandler(reservationStore, listingStore).Handle)

	wrappedCommands := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(memory.NewIdempotencyStore(0), nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	wrappedQueries := middleware.ChainQueries(queryBus, middleware.QueryValidation(middleware.SelfValidator{}))

	sessions := memory.NewSessionStore()
	if err := sessions.AddUser(policies.Principal{ID: "usr-guest", Email: "guest@example.com", Roles: []string{"guest"}}, "pw"); err != nil {
		t.Fatalf("add guest: %v", err)
	}
	if err := sessions.AddUser(policies.Principal{ID: "usr-host", Email: "host@example.com", Roles: []string{"guest", "host"}}, "pw"); err != nil {
		t.Fatalf("add host: %v", err)
	}
	guestToken, err := sessions.Login(context.Background(), "guest@example.com", "pw")
	if err != nil {
		t.Fatalf("guest login: %v", err)
	}
	hostToken, err := sessions.Login(context.Background(), "host@example.com", "pw")
	if err != nil {
		t.Fatalf("host login: %v", err)
	}

	server := ginserver.NewServer(config.Config{Env: "test", HTTPAddr: ":0"}, obs.Middleware{}, obs.HealthHandlers{}, ginserver.Handlers{
		Booking:        ginserver.BookingHandler{Commands: wrappedCommands, Queries: wrappedQueries},
		Listing:        ginserver.ListingHandler{Queries: wrappedQueries},
		Auth:           ginserver.AuthHandler{Service: sessions},
		AuthMiddleware: ginserver.AuthMiddleware{Sessions: sessions}.Handle,
	})
	return &testEnv{handler: server.Handler, guestToken: guestToken, hostToken: hostToken}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestBookingFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/listings/lst-1/overview", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview status = %d: %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/listings/lst-1/quote?check_in=2026-09-10&check_out=2026-09-13&guests=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("quote status = %d: %s", rec.Code, rec.Body)
	}
	var quote struct {
		Nights int `json:"nights"`
		Price  struct {
			TotalPrice float64 `json:"total_price"`
		} `json:"price"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if quote.Nights != 3 || quote.Price.TotalPrice != 372 {
		t.Fatalf("quote = %+v, want 3 nights at 372", quote)
	}

	booking := map[string]any{
		"listing_id": "lst-1",
		"check_in":   "2026-09-10T00:00:00Z",
		"check_out":  "2026-09-13T00:00:00Z",
		"guests":     2,
	}
	rec = env.do(t, http.MethodPost, "/api/v1/bookings", env.guestToken, booking)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var created struct {
		ReservationID string `json:"reservation_id"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.Status != "PENDING" {
		t.Fatalf("status = %s, want PENDING", created.Status)
	}

	// Same dates again: the second submission hits the fresh calendar.
	rec = env.do(t, http.MethodPost, "/api/v1/bookings", env.guestToken, booking)
	if rec.Code != http.StatusConflict {
		t.Fatalf("overlap status = %d, want 409: %s", rec.Code, rec.Body)
	}

	confirmPath := fmt.Sprintf("/api/v1/bookings/%s/confirm", created.ReservationID)
	rec = env.do(t, http.MethodPost, confirmPath, env.guestToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("guest confirm status = %d, want 403", rec.Code)
	}
	rec = env.do(t, http.MethodPost, confirmPath, env.hostToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("host confirm status = %d: %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/listings/lst-1/calendar", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calendar status = %d: %s", rec.Code, rec.Body)
	}
	var cal struct {
		Unavailable []string `json:"unavailable"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cal); err != nil {
		t.Fatalf("decode calendar: %v", err)
	}
	// Sep 10 through the Sep 13 turnover day.
	if len(cal.Unavailable) != 4 {
		t.Fatalf("unavailable = %v, want 4 days", cal.Unavailable)
	}
}

func TestBookingRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/bookings", "", map[string]any{"listing_id": "lst-1"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestIdempotentBookingReplay(t *testing.T) {
	env := newTestEnv(t)
	booking := map[string]any{
		"listing_id": "lst-1",
		"check_in":   "2026-09-20T00:00:00Z",
		"check_out":  "2026-09-23T00:00:00Z",
		"guests":     2,
	}

	first := env.doWithKey(t, booking, "retry-1")
	if first.Code != http.StatusAccepted {
		t.Fatalf("first status = %d: %s", first.Code, first.Body)
	}
	second := env.doWithKey(t, booking, "retry-1")
	if second.Code != http.StatusAccepted {
		t.Fatalf("replay status = %d: %s", second.Code, second.Body)
	}
	var a, b struct {
		ReservationID string `json:"reservation_id"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if a.ReservationID != b.ReservationID {
		t.Fatalf("replay created a second reservation: %s vs %s", a.ReservationID, b.ReservationID)
	}
}

func (e *testEnv) doWithKey(t *testing.T, body any, key string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.guestToken)
	req.Header.Set("Idempotency-Key", key)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}
