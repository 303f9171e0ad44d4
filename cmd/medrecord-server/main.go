package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medrecord/medrecord/internal/config"
	"github.com/medrecord/medrecord/internal/domain/appointments"
	"github.com/medrecord/medrecord/internal/domain/qrcodes"
	"github.com/medrecord/medrecord/internal/domain/records"
	"github.com/medrecord/medrecord/internal/domain/users"
	"github.com/medrecord/medrecord/internal/domain/vault"
	"github.com/medrecord/medrecord/internal/platform/ai"
	"github.com/medrecord/medrecord/internal/platform/auth"
	"github.com/medrecord/medrecord/internal/platform/blobstore"
	"github.com/medrecord/medrecord/internal/platform/db"
	"github.com/medrecord/medrecord/internal/platform/metrics"
	"github.com/medrecord/medrecord/internal/platform/middleware"
)

const serviceName = "medrecord"

func main() {
	rootCmd := &cobra.Command{
		Use:   "medrecord-server",
		Short: "MedRecord API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MedRecord API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, db.PoolConfig{
				URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, db.PoolConfig{
				URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	store, err := newObjectStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	analyzer := newAnalyzer(cfg, logger)

	coll := metrics.NewCollector(serviceName)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(coll.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	jwtCfg := auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		JWKSURL:    cfg.AuthJWKSURL,
		SigningKey: []byte(cfg.JWTSecret),
	}
	if cfg.IsDev() {
		e.Use(auth.DevMiddleware(jwtCfg))
	} else {
		e.Use(auth.Middleware(jwtCfg))
	}

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Domain services
	recordsSvc := records.NewService(records.NewRepoPG(pool), store, analyzer, coll, logger, cfg.AITimeout)
	records.NewHandler(recordsSvc, logger).RegisterRoutes(apiV1)

	usersSvc := users.NewService(users.NewRepoPG(pool), logger)
	users.NewHandler(usersSvc, logger).RegisterRoutes(apiV1)

	apptSvc := appointments.NewService(appointments.NewRepoPG(pool), logger)
	appointments.NewHandler(apptSvc, logger).RegisterRoutes(apiV1)

	vaultSvc := vault.NewService(vault.NewRepoPG(pool), store, logger)
	vault.NewHandler(vaultSvc, logger).RegisterRoutes(apiV1)

	qrSvc := qrcodes.NewService(qrcodes.NewRepoPG(pool), &medIDResolver{users: usersSvc}, coll, logger)
	qrcodes.NewHandler(qrSvc, logger).RegisterRoutes(apiV1)

	// Direct analysis endpoint, mirroring the upload pipeline's analyzer.
	ai.NewHandler(analyzer, logger).RegisterRoutes(apiV1)

	// Dashboard aggregates the per-domain summaries for the session user.
	dash := &dashboardHandler{records: recordsSvc, appointments: apptSvc}
	apiV1.GET("/dashboard", dash.get)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": serviceName,
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(serviceName, pool))
	e.GET("/metrics", echo.WrapHandler(coll.Handler()))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newObjectStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (blobstore.ObjectStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		store, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("using S3 object storage")
		return store, nil
	default:
		logger.Warn().Msg("using in-memory object storage; uploaded files will not survive restarts")
		return blobstore.NewInMemoryStore(), nil
	}
}

// newAnalyzer returns nil when no API key is configured; the pipeline then
// degrades to fallback results.
func newAnalyzer(cfg *config.Config, logger zerolog.Logger) ai.Analyzer {
	if cfg.GeminiAPIKey == "" {
		return nil
	}
	client := ai.NewGeminiClient(ai.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.AITimeout,
	}, logger)
	return ai.NewBreakerAnalyzer(client)
}

// medIDResolver adapts the users service to the qrcodes.MedIDSource
// interface.
type medIDResolver struct {
	users *users.Service
}

func (r *medIDResolver) MedIDFor(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := r.users.GetProfile(ctx, auth.Session{UserID: userID})
	if err != nil {
		return "", err
	}
	return u.MedID, nil
}

// dashboardHandler aggregates record and appointment summaries.
type dashboardHandler struct {
	records      *records.Service
	appointments *appointments.Service
}

func (d *dashboardHandler) get(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	stats, err := d.records.Stats(c.Request().Context(), sess)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load record stats")
	}
	upcoming, err := d.appointments.UpcomingCount(c.Request().Context(), sess)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load appointment stats")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"records":               stats,
		"upcoming_appointments": upcoming,
	})
}
