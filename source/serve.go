package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"worklogz/source/database"
	"worklogz/source/entities/users"
	"worklogz/source/events"
	"worklogz/source/middlewares"
	"worklogz/source/pipeline"
	"worklogz/source/server"
	"worklogz/source/utils"
)

const SHUTDOWN_TIMEOUT = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg utils.Config) error {
	if cfg.Env == utils.ENV_RELEASE {
		color.New(color.FgRed, color.Bold, color.BgWhite).Println("[WARNING] Running in PRODUCTION!")
	} else {
		color.New(color.FgCyan).Printf("[INFO] Current environment: %s\n", cfg.Env)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := pipeline.LoadCatalog(cfg.PipelinesFile)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var directory users.Directory = users.NewMemoryDirectory()
	if cfg.MySQLURI != "" {
		mysqlDB, err := database.ConnectMySQL(ctx, cfg.MySQLURI)
		if err != nil {
			return err
		}
		defer mysqlDB.Close()
		directory = users.NewMySQLDirectory(mysqlDB)
	}

	var rdb *redis.Client
	if cfg.RedisURI != "" {
		rdb, err = database.ConnectRedis(ctx, cfg.RedisURI)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	hub := events.NewHub(cfg.AllowedOrigins)
	var emitter pipeline.Emitter = hub
	if rdb != nil {
		bus := events.NewRedisBus(rdb, hub)
		emitter = bus
		go func() {
			if err := bus.Subscribe(ctx, nil); err != nil {
				log.Printf("[Events] subscription ended: %v", err)
			}
		}()
	}

	service := pipeline.NewService(store, catalog, directory, emitter)
	if err := seedAll(ctx, service, catalog.Types()); err != nil {
		log.Printf("[Pipeline] seeding failed, retried on first access: %v", err)
	}

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Port),
		Handler: server.NewRouter(server.Dependencies{
			Service:        service,
			Directory:      directory,
			Hub:            hub,
			Auth:           middlewares.NewIdentityAuth(cfg.IdentityURL, rdb).Middleware,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("Server started on port %s at %s\n", cfg.Port, time.Now().Format("2006-01-02 15:04:05"))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[HTTP] shutdown: %v", err)
	}
	return nil
}
