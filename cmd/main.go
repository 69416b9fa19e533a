package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-calendar/internal/availability"
	"github.com/Leganyst/clinic-calendar/internal/cache"
	"github.com/Leganyst/clinic-calendar/internal/calendar"
	"github.com/Leganyst/clinic-calendar/internal/config"
	"github.com/Leganyst/clinic-calendar/internal/db"
	"github.com/Leganyst/clinic-calendar/internal/metrics"
	"github.com/Leganyst/clinic-calendar/internal/repository"
	"github.com/Leganyst/clinic-calendar/internal/reservation"
	"github.com/Leganyst/clinic-calendar/internal/seed"
	"github.com/Leganyst/clinic-calendar/internal/server"
	"github.com/Leganyst/clinic-calendar/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-calendar",
		Short: "Clinic reservation calendar gRPC server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC server and the ops HTTP endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCfg, err := config.LoadDBConfig()
			if err != nil {
				return err
			}
			if dbCfg.Driver == config.DriverSQLite {
				gdb, err := db.NewGormDB(dbCfg)
				if err != nil {
					return err
				}
				defer closeDB(gdb)
				if err := db.Prepare(dbCfg, gdb); err != nil {
					return err
				}
				fmt.Println("sqlite schema is up to date")
				return nil
			}

			version, err := db.MigrateUp(dbCfg)
			if err != nil {
				return err
			}
			fmt.Printf("migrations applied, version %d\n", version)
			return nil
		},
	})
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create or update the reference doctors",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := config.LoadAppConfig()
			if err != nil {
				return err
			}
			logger := newLogger(appCfg)

			dbCfg, err := config.LoadDBConfig()
			if err != nil {
				return err
			}
			gdb, err := db.NewGormDB(dbCfg)
			if err != nil {
				return err
			}
			defer closeDB(gdb)
			if err := db.Prepare(dbCfg, gdb); err != nil {
				return err
			}

			var providers repository.ProviderRepository = repository.NewGormProviderRepository(gdb)
			if rdb, err := newRedis(appCfg); err != nil {
				return err
			} else if rdb != nil {
				defer rdb.Close()
				providers = cache.NewProviders(providers, rdb, appCfg.ProviderCacheTTL, logger)
			}

			n, err := seed.Seed(cmd.Context(), providers)
			if err != nil {
				return err
			}
			logger.Info().Int("doctors", n).Msg("seed complete")
			return nil
		},
	}
}

func runServer() error {
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		return fmt.Errorf("load app config: %w", err)
	}
	logger := newLogger(appCfg)

	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load db config")
	}

	gdb, err := db.NewGormDB(dbCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer closeDB(gdb)
	logger.Info().Str("driver", dbCfg.Driver).Msg("connected to database")

	if dbCfg.AutoMigrate || dbCfg.Driver == config.DriverSQLite {
		if err := db.Prepare(dbCfg, gdb); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	loc, err := appCfg.Location()
	if err != nil {
		return err
	}
	clock := calendar.NewClock(loc)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCalendarMetrics(reg)

	store := repository.NewStore(gdb)

	var providers availability.ProviderSource = store.Providers
	var directory service.Directory = store.Providers
	rdb, err := newRedis(appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	if rdb != nil {
		defer rdb.Close()
		cached := cache.NewProviders(store.Providers, rdb, appCfg.ProviderCacheTTL, logger)
		providers, directory = cached, cached
		logger.Info().Dur("ttl", appCfg.ProviderCacheTTL).Msg("provider cache enabled")
	}

	avail := availability.NewEngine(providers, store.Claims, clock, m)
	engine := reservation.NewEngine(store, avail, clock, logger, m)
	svc := service.NewCalendarService(avail, engine, directory, logger)
	grpcServer := service.NewGRPCServer(svc, appCfg.JWTSecret, logger)

	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}
	ops := server.NewOpsServer(sqlDB, reg, logger)

	lis, err := net.Listen("tcp", appCfg.GRPCAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", appCfg.GRPCAddr).Msg("failed to listen")
	}

	go func() {
		logger.Info().Str("addr", appCfg.GRPCAddr).Str("tz", loc.String()).Msg("grpc server listening")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal().Err(err).Msg("grpc serve")
		}
	}()

	go func() {
		logger.Info().Str("addr", appCfg.OpsAddr).Msg("ops server listening")
		if err := ops.Start(appCfg.OpsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("ops serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := ops.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("ops shutdown")
	}
	grpcServer.GracefulStop()
	return nil
}

func newLogger(cfg *config.AppConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(level)
}

// newRedis возвращает nil, если REDIS_URL не задан: кеш справочника выключен.
func newRedis(cfg *config.AppConfig) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
