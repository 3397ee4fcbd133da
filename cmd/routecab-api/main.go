// README: Entry point; loads config, wires stores and services, serves HTTP until signalled.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go/v4"

	"routecab/internal/config"
	httptransport "routecab/internal/http"
	"routecab/internal/infra"
	"routecab/internal/logging"
	"routecab/internal/modules/account"
	"routecab/internal/modules/driver"
	"routecab/internal/modules/location"
	"routecab/internal/modules/matching"
	"routecab/internal/modules/notify"
	"routecab/internal/modules/ride"
	"routecab/internal/modules/route"
)

var errMissingProject = errors.New("ROUTECAB_FIREBASE_PROJECT_ID is required")

type positionStore interface {
	driver.PositionReader
	location.PositionWriter
}

type stores struct {
	routes    route.Repository
	drivers   driver.Repository
	rides     ride.Repository
	accounts  account.Repository
	positions positionStore
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.NewLogger(cfg.Log.Level)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("routecab-api exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.Firebase.ProjectID == "" {
		return errMissingProject
	}
	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return err
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, app)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(ctx, cfg, app, log)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	var publisher location.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp := location.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.LocationTopic)
		defer func() {
			if err := kp.Close(); err != nil {
				log.Warn("close kafka publisher", "err", err)
			}
		}()
		publisher = kp
	}

	catalog := route.NewCatalog(st.routes, cfg.Routes.CacheTTL)
	drivers := driver.NewRegistry(st.drivers, st.positions, catalog)
	rides := ride.NewService(st.rides, drivers, notifier, log)
	defer rides.Wait()

	router := httptransport.NewRouter(httptransport.Deps{
		Matching: matching.NewService(catalog, drivers, cfg.Matching),
		Rides:    rides,
		Accounts: account.NewService(st.accounts, rides, drivers, log),
		Drivers:  drivers,
		Routes:   catalog,
		Location: location.NewService(drivers, st.positions, publisher, log),
		Verifier: verifier,
		Log:      log,
	})

	return httptransport.NewServer(cfg.HTTP.Addr, router, log).Run(ctx)
}

func newNotifier(ctx context.Context, cfg config.Config, app *firebase.App, log *slog.Logger) (notify.Notifier, error) {
	if cfg.Notifier.Backend == config.NotifierLog {
		log.Warn("notifications are logged, not delivered")
		return notify.NewLogNotifier(log), nil
	}
	fcm, err := infra.NewMessaging(ctx, app)
	if err != nil {
		return nil, err
	}
	return notify.NewFCMNotifier(fcm, log), nil
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	if cfg.Store.Backend == config.StoreMemory {
		log.Warn("using in-memory stores; state is lost on restart")
		return &stores{
			routes:    route.NewMemoryStore(),
			drivers:   driver.NewMemoryStore(),
			rides:     ride.NewMemoryStore(),
			accounts:  account.NewMemoryStore(),
			positions: location.NewMemoryStore(),
			close:     func() {},
		}, nil
	}

	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &stores{
		routes:    route.NewStore(db),
		drivers:   driver.NewStore(db),
		rides:     ride.NewStore(db),
		accounts:  account.NewStore(db),
		positions: location.NewStore(redisClient),
		close: func() {
			_ = redisClient.Close()
			db.Close()
		},
	}, nil
}
