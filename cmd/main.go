package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notes_service/internal/bot"
	"notes_service/internal/handlers"
	"notes_service/internal/logger"
	"notes_service/internal/repository"
	sqlitedb "notes_service/internal/repository/db"
	"notes_service/internal/server"
	"notes_service/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

const (
	defaultPort       = "8080"
	defaultDBPath     = "notes.db"
	defaultTokenTTL   = 30 * time.Minute
	defaultSessionTTL = time.Hour
)

func main() {
	// load config.yml, then init the logger with the configured level
	cfgErr := loadConfig()

	log := logger.Get(logLevel())
	defer log.Close()

	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	authCfg, err := loadAuthConfig()
	if err != nil {
		log.Fatalw("invalid auth config", "err", err)
	}

	port := viper.GetString("port")
	if port == "" {
		port = defaultPort
	}

	// wire dependencies
	repos := repository.NewRepository(db)
	services := service.NewService(repos, authCfg)
	chat := bot.NewEngine(newSessionStore(log), bot.NewAPIClient(apiBaseURL(port)), log)
	apiHandler := handlers.NewHandler(services, chat, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

func logLevel() string {
	if lvl := viper.GetString("log.level"); lvl != "" {
		return lvl
	}
	return logger.InfoLevel
}

// loadAuthConfig reads the token signing material; the secret is mandatory.
func loadAuthConfig() (service.AuthConfig, error) {
	secret := viper.GetString("auth.secret")
	if secret == "" {
		return service.AuthConfig{}, errors.New("auth.secret is not set")
	}
	ttl := defaultTokenTTL
	if m := viper.GetInt("auth.token_ttl_minutes"); m > 0 {
		ttl = time.Duration(m) * time.Minute
	}
	return service.AuthConfig{SigningKey: secret, TokenTTL: ttl}, nil
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", defaultDBPath)
		dbPath = defaultDBPath
	}
	return sqlitedb.InitDB(dbPath)
}

// newSessionStore prefers redis when configured and falls back to the
// in-process store so the chat gateway still works without one.
func newSessionStore(log *logger.Logger) bot.SessionStore {
	addr := viper.GetString("redis.addr")
	if addr == "" {
		log.Infow("redis.addr not set; chat sessions held in memory")
		return bot.NewMemorySessionStore()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnw("redis unreachable; chat sessions held in memory", "addr", addr, "err", err)
		_ = rdb.Close()
		return bot.NewMemorySessionStore()
	}

	ttl := defaultSessionTTL
	if m := viper.GetInt("bot.session_ttl_minutes"); m > 0 {
		ttl = time.Duration(m) * time.Minute
	}
	return bot.NewRedisSessionStore(rdb, ttl)
}

// apiBaseURL is where the chat engine proxies its HTTP calls; by default the
// service talks to itself.
func apiBaseURL(port string) string {
	if base := viper.GetString("api.base_url"); base != "" {
		return base
	}
	return fmt.Sprintf("http://localhost:%s", port)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
