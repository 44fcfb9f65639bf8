// Package cleanerd собирает движок квот и подписки, его хранилище, магазин,
// поток обновлений транзакций и локальный HTTP API в одно приложение.
package cleanerd

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/phone-cleaner/internal/cache"
	"github.com/magabrotheeeer/phone-cleaner/internal/config"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/jws"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/metrics"
	"github.com/magabrotheeeer/phone-cleaner/internal/migrations"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/authorizer"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/duplicates"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/engine"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/entitlement"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/notifier"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/profile"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/quota"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/scheduler"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/subscription"
	"github.com/magabrotheeeer/phone-cleaner/internal/storage"
	"github.com/magabrotheeeer/phone-cleaner/internal/storage/memory"
	"github.com/magabrotheeeer/phone-cleaner/internal/storekit"
)

const shutdownTimeout = 15 * time.Second

// App: собранное приложение.
type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *slog.Logger
	engine   *engine.Engine
	listener *entitlement.Listener
	channel  *amqp.Channel
	closers  []func() error
}

// New создает приложение: открывает хранилище, подключается к брокеру, если
// он настроен, и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "cleanerd.New"
	a := &App{cfg: cfg, logger: logger}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	kv, err := a.openStorage(ctx)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	verifier := entitlement.NewVerifier(jws.NewParser(loadRoots(cfg.RootCertPath, logger)), cfg.ProductIDs)
	client := storekit.NewClient(cfg.BaseURL, cfg.APIKey, cfg.StoreTimeout)
	m := metrics.New(prometheus.DefaultRegisterer)
	tracker := quota.NewTracker(nil, loc)
	selector := duplicates.NewSelector(logger)

	var events engine.Notifier
	if cfg.URL != "" {
		conn, err := rabbitmq.Connect(cfg.URL, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, conn.Close)

		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, []rabbitmq.QueueConfig{
			{QueueName: cfg.TransactionQueue, RoutingKey: cfg.TransactionKey},
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.channel = ch
		events = notifier.New(ch, cfg.Exchange, cfg.EventsKey, logger)
	} else {
		logger.Warn("rabbitmq url is not set, transaction updates and profile events are disabled")
	}

	a.engine = engine.New(engine.Config{
		ProductIDs:     cfg.ProductIDs,
		TrialDuration:  cfg.TrialDuration,
		ReservationTTL: cfg.ReservationTTL,
		StoreTimeout:   cfg.StoreTimeout,
	}, engine.Deps{
		Profiles:     profile.NewStore(kv, logger),
		Entitlements: entitlement.NewService(client, verifier, cfg.StoreTimeout, tracker.Now, m, logger),
		Store:        client,
		Verifier:     verifier,
		Selector:     selector,
		Tracker:      tracker,
		Authorizer:   authorizer.New(tracker),
		Machine:      subscription.NewMachine(logger),
		Metrics:      m,
		Notifier:     events,
		Log:          logger,
	})
	if a.channel != nil {
		a.listener = entitlement.NewListener(verifier, a.engine, client, cfg.StoreTimeout, m, logger)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.API, a.engine, selector)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

func (a *App) openStorage(ctx context.Context) (profile.KV, error) {
	switch a.cfg.Driver {
	case config.DriverPostgres:
		db, err := storage.New(ctx, a.cfg.ConnectionString, a.cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := migrations.Run(db.DB, a.cfg.MigrationsPath); err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverMemory:
		a.logger.Warn("using in-memory storage, profile will not survive restart")
		return memory.New(), nil
	default:
		c, err := cache.InitServer(ctx, a.cfg.RedisConnection, a.cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	}
}

func loadRoots(path string, logger *slog.Logger) *x509.CertPool {
	if path == "" {
		logger.Warn("store root certificate is not configured, every transaction will fail verification")
		return nil
	}
	roots, err := jws.LoadRoots(path)
	if err != nil {
		logger.Error("failed to load store root certificates", sl.Err(err))
		return nil
	}
	return roots
}

// Run запускает движок, подписку на обновления транзакций и HTTP-сервер.
// Возвращает управление после отмены ctx и корректной остановки.
func (a *App) Run(ctx context.Context) error {
	const op = "cleanerd.Run"
	defer a.close()

	engineCtx, stopEngine := context.WithCancel(context.WithoutCancel(ctx))
	defer func() {
		stopEngine()
		<-a.engine.Done()
	}()
	go a.engine.Run(engineCtx)

	select {
	case <-a.engine.Ready():
	case <-ctx.Done():
		return nil
	}

	if _, err := a.engine.Refresh(ctx, subscription.TriggerLaunch); err != nil {
		a.logger.Warn("launch refresh failed", slog.String("op", op), sl.Err(err))
	}

	if a.listener != nil {
		updates, err := storekit.Updates(ctx, a.channel, a.cfg.TransactionQueue, a.logger)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		go a.listener.Run(ctx, updates)
	}
	go scheduler.New(a.engine, a.cfg.RefreshInterval, a.logger).Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

func (a *App) close() {
	if a.channel != nil {
		if err := a.channel.Close(); err != nil {
			a.logger.Warn("failed to close amqp channel", sl.Err(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
	a.channel = nil
}
