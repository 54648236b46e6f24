package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-auth-service/internal/handlers"
	authjwt "github.com/sbilibin2017/gw-auth-service/internal/jwt"
	"github.com/sbilibin2017/gw-auth-service/internal/logger"
	"github.com/sbilibin2017/gw-auth-service/internal/middlewares"
	"github.com/sbilibin2017/gw-auth-service/internal/password"
	"github.com/sbilibin2017/gw-auth-service/internal/repositories"
	"github.com/sbilibin2017/gw-auth-service/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title gw-auth-service API
// @version 1.0.0
// @description Microservice for user registration, login and token-based authentication
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		redisPoolSize, redisMinIdleConns, userCacheExpSecond,
		kafkaAddr, kafkaTopic,
		jwtSecret, jwtExpSecond, bcryptCost,
		err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(),
		appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		redisPoolSize, redisMinIdleConns, userCacheExpSecond,
		kafkaAddr, kafkaTopic,
		jwtSecret, jwtExpSecond, bcryptCost,
	); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns all
// application, database, Redis, Kafka, logging and auth configuration.
// The JWT signing secret is deliberately defaultless: the service refuses
// to start without one.
func parseConfig(path string) (
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort, redisDB int, redisPassword string,
	redisPoolSize, redisMinIdleConns, userCacheExpSecond int,
	kafkaAddr, kafkaTopic string,
	jwtSecretKey string, jwtExpSecond, bcryptCost int,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	appHost = getEnv("APP_HOST", "localhost")
	appPort = getEnv("APP_PORT", "8080")
	logLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	pgHost = getEnv("POSTGRES_HOST", "localhost")
	pgUser = getEnv("POSTGRES_USER", "user")
	pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	pgDB = getEnv("POSTGRES_DB", "database")
	if pgPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}

	// Redis config
	redisHost = getEnv("REDIS_HOST", "localhost")
	if redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	redisPassword = getEnv("REDIS_PASSWORD", "")
	if redisPoolSize, err = strconv.Atoi(getEnv("REDIS_POOL_SIZE", "10")); err != nil {
		return
	}
	if redisMinIdleConns, err = strconv.Atoi(getEnv("REDIS_MIN_IDLE_CONNS", "2")); err != nil {
		return
	}
	if userCacheExpSecond, err = strconv.Atoi(getEnv("USER_CACHE_EXP_SECOND", "60")); err != nil {
		return
	}

	// Kafka config; an empty address disables event publishing
	kafkaAddr = getEnv("KAFKA_ADDR", "")
	kafkaTopic = getEnv("KAFKA_TOPIC", "user-registrations")

	// Auth config
	jwtSecretKey = getEnv("JWT_SECRET_KEY", "")
	if jwtSecretKey == "" {
		err = errors.New("JWT_SECRET_KEY must be set")
		return
	}
	if jwtExpSecond, err = strconv.Atoi(getEnv("JWT_EXP_SECOND", "604800")); err != nil {
		return
	}
	if bcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", "10")); err != nil {
		return
	}

	return
}

// run initializes the logger, database, Redis, Kafka writer and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context,
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort, redisDB int, redisPassword string,
	redisPoolSize, redisMinIdleConns, userCacheExpSecond int,
	kafkaAddr, kafkaTopic string,
	jwtSecretKey string, jwtExpSecond, bcryptCost int,
) error {
	// Initialize logger
	if err := logger.Initialize(logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", logLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pgUser, pgPassword, pgHost, pgPort, pgDB)
	logger.Log.Infof("Connecting to PostgreSQL at %s:%d/%s", pgHost, pgPort, pgDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		logger.Log.Errorw("PostgreSQL connection error", "error", err)
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		logger.Log.Errorw("PostgreSQL ping failed", "error", err)
		return err
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", redisHost, redisPort),
		Password:     redisPassword,
		DB:           redisDB,
		PoolSize:     redisPoolSize,
		MinIdleConns: redisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Log.Errorw("Redis connection error", "error", err)
		return err
	}
	defer rdb.Close()

	// Kafka writer for registration events
	var events services.EventPublisher
	if kafkaAddr != "" {
		kafkaWriter := &kafka.Writer{
			Addr:     kafka.TCP(kafkaAddr),
			Topic:    kafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer kafkaWriter.Close()
		events = kafkaWriter
		logger.Log.Infof("Kafka producer configured for %s topic %s", kafkaAddr, kafkaTopic)
	} else {
		logger.Log.Info("Kafka address not set, registration events disabled")
	}

	// Initialize token codec and password hasher
	tokens := authjwt.New(
		authjwt.WithSecretKey(jwtSecretKey),
		authjwt.WithExpiration(time.Duration(jwtExpSecond)*time.Second),
	)
	hasher := password.New(bcryptCost)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)
	userCacheRepo := repositories.NewUserCacheRepository(rdb, time.Duration(userCacheExpSecond)*time.Second)

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, hasher, tokens, events)
	userService := services.NewUserService(userReadRepo, userCacheRepo)

	// Initialize handlers
	registerHandler := handlers.NewRegisterHandler(authService)
	loginHandler := handlers.NewLoginHandler(authService)
	meHandler := handlers.NewMeHandler(userService)
	healthHandler := handlers.NewHealthHandler()

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))

	// Public routes
	r.Get("/health", healthHandler)
	r.Post("/register", registerHandler)
	r.Post("/login", loginHandler)

	// Protected routes with JWT middleware
	r.Group(func(r chi.Router) {
		r.Use(middlewares.AuthMiddleware(tokens, authService))
		r.Get("/me", meHandler)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", appHost, appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appHost, appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", appHost, appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
