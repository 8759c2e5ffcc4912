package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"staybook/internal/app/commands"
	bookingapp "staybook/internal/app/handlers/booking"
	calendarapp "staybook/internal/app/handlers/calendar"
	catalogapp "staybook/internal/app/handlers/catalog"
	quoteapp "staybook/internal/app/handlers/quote"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainreservation "staybook/internal/domain/reservation"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	mongodb "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	infraoutbox "staybook/internal/infra/outbox"
	"staybook/internal/infra/storage/memory"
	"staybook/internal/infra/tax"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	fixturesPath := getenv("LISTINGS_FIXTURES", filepath.Join("data", "listings.json"))
	if err := app.loadListingFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox relay stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	listings domainlistings.Repository
	worker   *infraoutbox.Worker
	ready    func() error
	closers  []func() error
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		app              application
		listingRepo      domainlistings.Repository
		reservationRepo  domainreservation.Repository
		uowFactory       uow.UoWFactory
		outboxStore      appoutbox.Outbox
		relayStore       infraoutbox.Store
		idempotencyStore middleware.IdempotencyStore
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		listings := mongodb.NewListingRepository(client.DB)
		reservations := mongodb.NewReservationRepository(client.DB)
		outbox := mongodb.NewOutboxStore(client.DB)
		idStore, err := mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		if err != nil {
			return application{}, fmt.Errorf("idempotency index: %w", err)
		}
		listingRepo = listings
		reservationRepo = reservations
		uowFactory = mongodb.Factory{DB: client.DB, ListingsRepo: listings, ReservationsRepo: reservations}
		outboxStore = outbox
		relayStore = outbox
		idempotencyStore = idStore
		app.ready = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(ctx)
		}
	default:
		listings := memory.NewListingStore()
		reservations := memory.NewReservationStore()
		outbox := memory.NewOutboxStore()
		listingRepo = listings
		reservationRepo = reservations
		uowFactory = memory.NewFactory(listings, reservations)
		outboxStore = outbox
		relayStore = outbox
		idempotencyStore = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		app.ready = func() error { return nil }
	}
	app.listings = listingRepo

	var taxPort policies.TaxPort = policies.ZeroTax{}
	if cfg.TaxMode == "http" {
		taxPort = &tax.HTTPClient{
			Client:   &http.Client{Timeout: cfg.TaxTimeout},
			Endpoint: cfg.TaxServiceURL,
			Logger:   logger,
		}
	}
	policyBook := policies.DefaultCancellationPolicies()

	commandBus := commands.NewInMemoryBus()
	requestHandler := bookingapp.NewRequestBookingHandler(taxPort, policyBook, outboxStore)
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingKey, requestHandler.Handle)
	transitions := bookingapp.NewTransitionHandler(outboxStore)
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingKey, transitions.HandleConfirm)
	commands.RegisterHandler(commandBus, bookingapp.RejectBookingKey, transitions.HandleReject)
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingKey, transitions.HandleCancel)
	commands.RegisterHandler(commandBus, bookingapp.CheckInKey, transitions.HandleCheckIn)
	commands.RegisterHandler(commandBus, bookingapp.CheckOutKey, transitions.HandleCheckOut)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, calendarapp.GetCalendarKey, calendarapp.NewGetCalendarHandler(listingRepo, reservationRepo).Handle)
	queries.RegisterHandler(queryBus, quoteapp.GetQuoteKey, quoteapp.NewGetQuoteHandler(listingRepo, reservationRepo, taxPort).Handle)
	queries.RegisterHandler(queryBus, catalogapp.GetOverviewKey, catalogapp.NewGetOverviewHandler(listingRepo).Handle)
	queries.RegisterHandler(queryBus, bookingapp.GetBookingKey, bookingapp.NewGetBookingHandler(reservationRepo, listingRepo).Handle)

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(idempotencyStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus, middleware.QueryValidation(middleware.SelfValidator{}))

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, fmt.Errorf("kafka producer: %w", err)
		}
		app.closers = append(app.closers, producer.Close)
		app.worker = &infraoutbox.Worker{
			Store:       relayStore,
			Producer:    producer,
			Logger:      logger,
			Interval:    cfg.OutboxPollInterval,
			BatchSize:   cfg.OutboxBatchSize,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
	} else {
		logger.Warn("no kafka brokers configured, outbox relay disabled")
	}

	sessions := memory.NewSessionStore()
	if err := seedDemoUsers(cfg.Env, sessions); err != nil {
		return application{}, fmt.Errorf("seed users: %w", err)
	}

	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Listing: ginserver.ListingHandler{
			Queries: queryBusWithMiddleware,
		},
		Auth: ginserver.AuthHandler{
			Service: sessions,
		},
		AuthMiddleware: ginserver.AuthMiddleware{Sessions: sessions, Logger: logger}.Handle,
	}
	return app, nil
}

func (a application) close(logger *slog.Logger) {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

// seedDemoUsers provisions well-known accounts for dev runs. Production
// deployments resolve sessions against the external identity service
// and skip this entirely.
func seedDemoUsers(env string, sessions *memory.SessionStore) error {
	if env != "dev" && env != "local" {
		return nil
	}
	users := []struct {
		principal policies.Principal
		password  string
	}{
		{policies.Principal{ID: "usr-guest", Email: "guest@example.com", Name: "Demo Guest", Roles: []string{"guest"}}, "guest-pass"},
		{policies.Principal{ID: "usr-host", Email: "host@example.com", Name: "Demo Host", Roles: []string{"guest", "host"}}, "host-pass"},
	}
	for _, u := range users {
		if err := sessions.AddUser(u.principal, u.password); err != nil {
			return err
		}
	}
	return nil
}

func (a application) loadListingFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		addons := make([]domainpricing.Addon, 0, len(fx.Addons))
		for _, a := range fx.Addons {
			addons = append(addons, domainpricing.Addon{ID: a.ID, Name: a.Name, Price: a.Price})
		}
		listing, err := domainlistings.NewListing(domainlistings.CreateParams{
			ID:          domainlistings.ListingID(fx.ID),
			Host:        domainlistings.HostID(fx.Host),
			Title:       fx.Title,
			Description: fx.Description,
			Address: domainlistings.Address{
				Line1:   fx.Address.Line1,
				Line2:   fx.Address.Line2,
				City:    fx.Address.City,
				Country: fx.Address.Country,
				Lat:     fx.Address.Lat,
				Lon:     fx.Address.Lon,
			},
			GuestsLimit:          fx.GuestsLimit,
			MinNights:            fx.MinNights,
			MaxNights:            fx.MaxNights,
			Currency:             fx.Currency,
			NightlyRate:          fx.NightlyRate,
			CleaningFee:          fx.CleaningFee,
			ServiceFeeRate:       fx.ServiceFeeRate,
			WeeklyDiscountRate:   fx.WeeklyDiscountRate,
			MonthlyDiscountRate:  fx.MonthlyDiscountRate,
			Addons:               addons,
			CancellationPolicyID: fx.CancellationPolicyID,
			ThumbnailURL:         fx.ThumbnailURL,
			Now:                  now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := listing.Publish(now); err != nil {
			logger.Error("fixture publish failed", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := a.listings.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID)
	}
	return nil
}

type listingFixture struct {
	ID                   string         `json:"id"`
	Host                 string         `json:"host"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	Address              fixtureAddress `json:"address"`
	GuestsLimit          int            `json:"guests_limit"`
	MinNights            int            `json:"min_nights"`
	MaxNights            int            `json:"max_nights"`
	Currency             string         `json:"currency"`
	NightlyRate          float64        `json:"nightly_rate"`
	CleaningFee          float64        `json:"cleaning_fee"`
	ServiceFeeRate       float64        `json:"service_fee_rate"`
	WeeklyDiscountRate   float64        `json:"weekly_discount_rate"`
	MonthlyDiscountRate  float64        `json:"monthly_discount_rate"`
	Addons               []fixtureAddon `json:"addons"`
	CancellationPolicyID string         `json:"cancellation_policy_id"`
	ThumbnailURL         string         `json:"thumbnail_url"`
}

type fixtureAddress struct {
	Line1   string  `json:"line1"`
	Line2   string  `json:"line2"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type fixtureAddon struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
