package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"alvara/cmd/buildCFG"
	"alvara/internal/api/api"
	rabbitReader "alvara/internal/consumerWorker"
	"alvara/internal/rabbit"
	"alvara/internal/repo"
	"alvara/internal/review"
	"alvara/internal/service"
	"alvara/internal/session"
)

func main() {
	zlog.Init()
	log := zlog.Logger
	log.Info().Msg("Starting alvará process service")

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)
	port := serverCfg.Port

	storageCfg, err := buildCFG.BuildStorageConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build storage config")
	}
	gateway, cleanup := openStorage(cfg, storageCfg, &log)
	defer cleanup()

	sess := session.New(gateway, &log)
	if err := sess.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load database")
	}
	log.Info().Msg("Database loaded")

	reviewCfg, err := buildCFG.BuildReviewConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build review config")
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	opts := []review.Option{review.WithDelay(reviewCfg.Delay), review.WithLogger(&log)}
	var rmq *rabbit.Client
	if reviewCfg.Scheduler == buildCFG.SchedulerRabbit {
		rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
		}
		rmq, err = rabbit.NewRabbit(rabbitCfg)
		if err != nil {
			log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rmq.Close()
		opts = append(opts, review.WithScheduler(review.NewQueueScheduler(rmq)))
	}
	engine := review.NewEngine(sess, opts...)
	if reviewCfg.SeedHistory {
		if _, err := engine.SeedCurrent(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to seed demo history")
		}
	}

	var reader *rabbitReader.Reader
	if rmq != nil {
		reader = rabbitReader.NewReader(rmq, engine)
		reader.Start(workerCtx)
	}

	serviceInstance := service.NewService(sess, engine, &log, service.Config{
		MailFrom:    serverCfg.MailFrom,
		SeedHistory: reviewCfg.SeedHistory,
	})
	app := api.NewRouters(&api.Routers{Service: serviceInstance})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", port)
		if err := app.Run(":" + port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorkers()
	if reader != nil {
		reader.Stop()
	}
	if timers, ok := engine.Scheduler().(*review.TimerScheduler); ok {
		timers.Stop()
		log.Info().Msg("Pending simulated reviews cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if closer, ok := interface{}(app).(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(shutdownCtx); err != nil {
			log.Error().Msgf("Error shutting down server: %v", err)
		}
	}

	log.Info().Msg("Shutdown complete")
}

// openStorage connects the configured gateway and returns its cleanup.
func openStorage(cfg *config.Config, sc buildCFG.StorageConfig, log *zerolog.Logger) (repo.Gateway, func()) {
	switch sc.Driver {
	case buildCFG.StoragePostgres:
		masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build DB config")
		}
		db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
		if err != nil {
			log.Fatal().Msgf("failed to connect to DB: %v", err)
		}
		if err := db.Master.Ping(); err != nil {
			log.Fatal().Msgf("DB ping failed: %v", err)
		}
		log.Info().Msg("Database connected successfully")

		store, err := repo.NewPostgresStore(db, log)
		if err != nil {
			log.Fatal().Msgf("failed to initialize repository: %v", err)
		}
		cwd, err := os.Getwd()
		if err != nil {
			log.Fatal().Err(err).Msg("cannot get working directory")
		}
		if err := store.MigrateUp(filepath.Join(cwd, "migrations/postgres")); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		log.Info().Msg("Migrations applied successfully")
		return store, func() { _ = db.Master.Close() }

	case buildCFG.StorageRedis:
		rc, err := buildCFG.BuildRedisConfig(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build Redis config")
		}
		store, err := repo.NewRedisStore(context.Background(), rc.Addr, rc.Password, rc.DB, rc.Key, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		return store, func() { _ = store.Close() }

	default:
		store, err := repo.NewFileStore(sc.FilePath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database file")
		}
		return store, func() {}
	}
}
