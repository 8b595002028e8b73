package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/journal"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/remote"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// logNavigator records where the shell should go next; the shell reads the same
// destination from the checkout view.
type logNavigator struct{}

func (logNavigator) Navigate(userID int64, to checkout.Destination) {
	logger.Info("navigation requested", map[string]interface{}{"user_id": userID, "destination": to})
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	logger.Info("storefront starting", map[string]interface{}{"port": cfg.HTTPPort, "backend": cfg.BackendBaseURL})

	var wg sync.WaitGroup

	// Trace context travels from the shell through to the backend
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	// Remote client
	var opts []remote.Option
	if cfg.BreakerEnabled {
		opts = append(opts, remote.WithBreaker(circuitbreaker.Settings{
			Name:                "storefront-backend",
			ConsecutiveFailures: uint32(cfg.BreakerFailures),
			OpenTimeout:         cfg.BreakerOpenTimeout,
		}))
	}
	client := remote.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, opts...)

	// Credential store and cart cache
	var store session.Store
	var snapshots cache.SnapshotCache
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("failed to connect to redis", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		}
		cancel()

		store = session.NewRedisStore(rdb)
		snapshots = cache.NewRedisCache(rdb, cfg.CartCacheTTL)
		logger.Info("using redis for sessions and cart cache", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		store = session.NewMemoryStore()
		snapshots = cache.NewMemoryCache(cfg.CartCacheTTL)
	}
	sessions := session.NewManager(store, client)

	// Checkout journal
	jr, err := journal.New(cfg.JournalPath)
	if err != nil {
		logger.Fatal("failed to open journal", map[string]interface{}{"path": cfg.JournalPath, "error": err.Error()})
	}
	defer jr.Close()

	if err := jr.RunMigrations(); err != nil {
		logger.Fatal("failed to run journal migrations", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("journal migrations completed", nil)

	// Reconciliation publisher
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	if cfg.KafkaEnabled() {
		poller := publisher.NewOutboxPoller(jr, publisher.Config{
			Brokers:    cfg.KafkaBrokers,
			Topic:      cfg.KafkaTopic,
			BatchSize:  cfg.OutboxBatchSize,
			EventTick:  cfg.OutboxInterval,
			StaleAfter: 2 * cfg.GatewayCallbackTimeout,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(pollerCtx)
		}()
	} else {
		logger.Warn("no kafka brokers configured, reconciliation events stay in the journal", nil)
	}

	// Payment bridge and checkout
	bridge := payment.NewBridge(payment.Config{
		Key:             cfg.GatewayKey,
		Name:            cfg.GatewayName,
		Currency:        cfg.GatewayCurrency,
		ScriptURL:       cfg.GatewayScriptURL,
		PublicBaseURL:   cfg.PublicBaseURL,
		CallbackTimeout: cfg.GatewayCallbackTimeout,
	})

	registry := checkout.NewRegistry(func(s domain.Session) checkout.Backend {
		return client.WithSession(s)
	}, checkout.Deps{
		Gateway:   bridge,
		Journal:   jr,
		Cache:     snapshots,
		Navigator: logNavigator{},
	})

	router := h.NewRouter(h.Handlers{
		Auth:      h.NewAuthHandler(sessions, client, registry, cfg.RequestTimeout),
		Catalog:   h.NewCatalogHandler(client, cfg.RequestTimeout),
		Cart:      h.NewCartHandler(registry, cfg.RequestTimeout),
		Addresses: h.NewAddressHandler(registry, cfg.RequestTimeout),
		Checkout:  h.NewCheckoutHandler(registry, cfg.RequestTimeout),
		Orders:    h.NewOrdersHandler(client, cfg.RequestTimeout),
		Payment:   h.NewPaymentHandler(bridge, cfg.RequestTimeout),
	}, sessions, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", map[string]interface{}{"error": err.Error()})
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down storefront", nil)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(err, "server forced to shutdown", nil)
	}

	// Open payment pages can no longer call back; settle them as timed out.
	bridge.Close(ctx)
	pollerCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("publisher stopped cleanly", nil)
	case <-ctx.Done():
		logger.Warn("publisher didn't stop in time", nil)
	}

	logger.Info("storefront stopped", nil)
}
