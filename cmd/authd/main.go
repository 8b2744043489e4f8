package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"agora/internal/adapters/api"
	"agora/internal/adapters/db/memory"
	pgrepo "agora/internal/adapters/db/postgres"
	"agora/internal/adapters/mail"
	appauth "agora/internal/application/auth"
	"agora/internal/config"
	domainauth "agora/internal/domain/auth"
	"agora/internal/infrastructure/metrics"
)

//	@title			Agora auth API
//	@version		1.0
//	@description	Sessions, credentials and short codes for the agora frontends.

//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the access token.

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg := config.LoadConfig()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping default")
	}

	log.Info().
		Str("http_port", cfg.HTTPPort).
		Bool("db_enabled", cfg.Database.Enabled).
		Str("public_url", cfg.PublicURL).
		Msg("Starting agora auth service")

	// Initialize repositories (choose Postgres or in-memory)
	var credsRepo domainauth.CredentialsRepository
	var codesRepo domainauth.ShortCodeRepository
	var locks *pgrepo.LockManager
	checks := map[string]api.HealthCheck{}

	if cfg.Database.Enabled {
		log.Info().Msg("Initializing Postgres repositories")
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres")
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("ping postgres")
		}
		if err := pgrepo.RunMigrations(ctx, db, cfg.Database.Migrations); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}

		pool, err := pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres pool")
		}

		credsRepo = pgrepo.NewCredentialsRepository(db)
		codesRepo = pgrepo.NewShortCodeRepository(pool)
		locks = pgrepo.NewLockManager(pool)
		checks["postgres"] = db.PingContext
	} else {
		log.Warn().Msg("DB disabled - using in-memory repositories")
		credsRepo = memory.NewCredentialsRepository()
		codesRepo = memory.NewShortCodeRepository()
	}

	// Initialize services
	authService := appauth.NewService(cfg, credsRepo, codesRepo, mail.NewLogMailer())
	seedAdmin(cfg, authService, locks)

	m := metrics.New("agora")
	handler := api.NewHandler(authService, m, checks)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigin},
		AllowMethods:     []string{"GET", "HEAD", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	handler.RegisterRoutes(r)

	// Start server
	log.Info().Msgf("Starting agora auth service on port %s", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

// seedAdmin creates the configured super admin when it does not exist yet. With a
// database, replicas starting together serialize on an advisory lock.
func seedAdmin(cfg *config.Config, svc *appauth.Service, locks *pgrepo.LockManager) {
	if cfg.Auth.AdminEmail == "" || cfg.Auth.AdminPassword == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ensure := func(ctx context.Context) error {
		creds, err := svc.EnsureCredentials(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, domainauth.RoleSuperAdmin)
		if err != nil {
			return err
		}
		log.Info().Str("user_id", creds.ID).Str("role", string(creds.Role)).Msg("admin account ready")
		return nil
	}

	var err error
	if locks != nil {
		err = locks.WithLock(ctx, "seed-admin", ensure)
	} else {
		err = ensure(ctx)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("seed admin account")
	}
}
