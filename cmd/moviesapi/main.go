package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	httpAPI "movies-api/internal/api"
	"movies-api/internal/config"
	"movies-api/internal/cors"
	"movies-api/internal/domain"
	grpcServer "movies-api/internal/grpc"
	"movies-api/internal/seed"
	"movies-api/internal/store"
	"movies-api/internal/validation"
)

// redactURL hides the password of a connection string before it is logged.
func redactURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "<unparsable database url>"
	}
	return u.Redacted()
}

// connectToDB opens and pings the PostgreSQL database.
func connectToDB(ctx context.Context, dbURL string, logger *slog.Logger) (*sqlx.DB, error) {
	logger.Info("Attempting to connect to movies database", slog.String("dbURL_used", redactURL(dbURL)))

	db, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	logger.Info("Successfully connected to movies PostgreSQL database.")
	return db, nil
}

// openStore returns the PostgreSQL store when a database URL is configured and the
// in-memory store otherwise. The returned cleanup closes what was opened.
func openStore(ctx context.Context, cfg config.Config, movies []domain.Movie, logger *slog.Logger) (store.MovieStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("MOVIES_DATABASE_URL not set, using in-memory movie store", slog.Int("seed_count", len(movies)))
		return store.NewMemoryMovieStore(movies, logger), func() {}, nil
	}

	db, err := connectToDB(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		logger.Info("Closing movies PostgreSQL database connection...")
		if err := db.Close(); err != nil {
			logger.Error("Failed to close PostgreSQL connection", slog.String("error", err.Error()))
		}
	}

	pg, err := store.NewPostgresMovieStore(db, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	if _, err := pg.SeedIfEmpty(ctx, movies); err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("PostgreSQL movie store initialized.")
	return pg, cleanup, nil
}

func run(logger *slog.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validation.New()

	startupCtx, cancelStartup := context.WithTimeout(ctx, 30*time.Second)
	defer cancelStartup()

	movies, err := seed.Load(startupCtx, cfg.SeedFile, validate)
	if err != nil {
		return fmt.Errorf("failed to load seed movies: %w", err)
	}

	movieStorage, closeStore, err := openStore(startupCtx, cfg, movies, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize movie store: %w", err)
	}
	defer closeStore()

	// --- gRPC server ---
	var grpcSrv *grpc.Server
	if cfg.GRPCEnabled() {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC on port %s: %w", cfg.GRPCPort, err)
		}
		grpcSrv = grpc.NewServer()
		grpcServer.RegisterMovieInterServiceServer(grpcSrv, grpcServer.NewServer(movieStorage, logger))
		reflection.Register(grpcSrv)

		go func() {
			logger.Info("gRPC server starting", slog.String("port", cfg.GRPCPort))
			if err := grpcSrv.Serve(lis); err != nil {
				logger.Error("gRPC server Serve() failed", slog.String("error", err.Error()))
			}
		}()
	}

	// --- HTTP server ---
	var corsOpts []cors.Option
	corsOpts = append(corsOpts, cors.WithLogger(logger))
	if cfg.CORSAllowAnyOrigin {
		logger.Warn("CORS_ALLOW_ANY_ORIGIN enabled: allowed origins are answered with a wildcard")
		corsOpts = append(corsOpts, cors.WithWildcard())
	}
	policy := cors.NewPolicy(cors.DefaultAllowedOrigins, corsOpts...)

	movieAPIHandler := httpAPI.NewMovieHandler(movieStorage, logger, validate)
	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpAPI.NewRouter(movieAPIHandler, policy),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", "http://localhost:"+cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case err := <-serveErr:
		if err != nil {
			if grpcSrv != nil {
				grpcSrv.Stop()
			}
			return fmt.Errorf("HTTP server ListenAndServe() failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	if grpcSrv != nil {
		grpcSrv.GracefulStop()
		logger.Info("gRPC server gracefully stopped.")
	}
	return nil
}

func main() {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(logger, cfg); err != nil {
		logger.Error("moviesapi exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
