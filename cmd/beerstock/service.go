package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"beerstock/pkg/beer/domain/model"
	"beerstock/pkg/beer/domain/service"
	"beerstock/pkg/beer/infrastructure/event"
	"beerstock/pkg/beer/infrastructure/repository"
	"beerstock/pkg/beer/infrastructure/rpc"
	"beerstock/pkg/beer/infrastructure/seed"
	"beerstock/pkg/beer/infrastructure/transport"
	"beerstock/pkg/common/domain"
	"beerstock/pkg/common/observability"
)

func runService(c *cli.Context) error {
	cfg, err := parseEnv()
	if err != nil {
		return err
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	logger := log.StandardLogger()

	ctx := c.Context
	shutdownTracing, err := observability.SetupTracing(ctx, appID, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Error("failed to flush traces")
		}
	}()

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	dispatcher, closeDispatcher := newDispatcher(cfg, logger)
	defer closeDispatcher()

	beerService := service.NewBeerService(repo, dispatcher, logger)
	if cfg.SeedFile != "" {
		if err := seedCatalogue(ctx, cfg.SeedFile, beerService, logger); err != nil {
			return err
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           transport.Router(beerService, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	grpcServer, healthServer := rpc.NewGRPCServer(beerService, logger)

	killSignalChan := getKillSignalChan()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("address", cfg.HTTPAddress).Info("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})
	g.Go(func() error {
		listener, err := net.Listen("tcp", cfg.GRPCAddress)
		if err != nil {
			return errors.Wrap(err, "failed to listen for grpc")
		}
		logger.WithField("address", cfg.GRPCAddress).Info("Starting gRPC server")
		return errors.Wrap(grpcServer.Serve(listener), "grpc server failed")
	})
	g.Go(func() error {
		select {
		case killSignal := <-killSignalChan:
			logKillSignal(killSignal)
		case <-gctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		healthServer.Shutdown()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runMigrate(c *cli.Context) error {
	cfg, err := parseEnv()
	if err != nil {
		return err
	}
	if cfg.Storage != storageMySQL {
		return errors.New("migrations need BEERSTOCK_STORAGE=mysql")
	}

	db, err := repository.OpenMySQL(c.Context, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("down") {
		if err := repository.Rollback(db.DB); err != nil {
			return err
		}
		log.Info("Rolled back last migration")
		return nil
	}
	if err := repository.Migrate(db.DB); err != nil {
		return err
	}
	log.Info("Migrations applied")
	return nil
}

func runExport(c *cli.Context) error {
	cfg, err := parseEnv()
	if err != nil {
		return err
	}
	// A fresh memory store is always empty.
	if cfg.Storage != storageMySQL {
		return errors.New("export needs BEERSTOCK_STORAGE=mysql")
	}

	repo, closeRepo, err := newRepository(c.Context, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	beers, err := repo.ListAll(c.Context)
	if err != nil {
		return err
	}
	if err := seed.SaveCatalogue(c.String("file"), beers); err != nil {
		return err
	}
	log.WithFields(log.Fields{"file": c.String("file"), "count": len(beers)}).Info("Catalogue exported")
	return nil
}

func seedCatalogue(ctx context.Context, filePath string, beerService service.BeerService, logger log.FieldLogger) error {
	beers, err := seed.LoadCatalogue(filePath)
	if err != nil {
		return err
	}
	registered, err := seed.Apply(ctx, beerService, beers, logger)
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{"file": filePath, "registered": registered}).Info("Catalogue seeded")
	return nil
}

func newRepository(ctx context.Context, cfg *config) (model.BeerRepository, func(), error) {
	if cfg.Storage == storageMemory {
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := repository.OpenMySQL(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := repository.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Error("failed to close database")
		}
	}
	return repository.NewMySQLRepository(db), closeDB, nil
}

func newDispatcher(cfg *config, logger log.FieldLogger) (domain.EventDispatcher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return event.NewLogDispatcher(logger), func() {}
	}

	dispatcher := event.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.KafkaTopic)
	return dispatcher, func() {
		if err := dispatcher.Close(); err != nil {
			logger.WithError(err).Error("failed to close kafka writer")
		}
	}
}
