package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/spf13/cobra"

	"worklogz/source/database"
	"worklogz/source/database/memstore"
	"worklogz/source/database/mongostore"
	"worklogz/source/pipeline"
	"worklogz/source/utils"
)

// loadConfig reads the .env file named by --env-file, when present, and
// builds the typed configuration from the resulting environment.
func loadConfig(cmd *cobra.Command) (utils.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := utils.LoadEnvFile(envFile); err != nil {
				return utils.Config{}, err
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return utils.Config{}, fmt.Errorf("stat %s: %w", envFile, err)
		}
	}
	return utils.ReadConfig()
}

// openStore returns the configured pipeline store and a function releasing
// its connections.
func openStore(ctx context.Context, cfg utils.Config) (pipeline.Store, func(), error) {
	if cfg.StorageDriver == utils.STORAGE_MEMORY {
		log.Printf("[Storage] using in-memory store, data is lost on exit")
		return memstore.New(), func() {}, nil
	}

	client, err := database.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("[MongoDB] disconnect: %v", err)
		}
	}

	store := mongostore.New(client, database.GetDB(), cfg.MongoTransactions)
	if err := store.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}

// seedAll makes sure every pipeline of the catalog has its stages.
func seedAll(ctx context.Context, service *pipeline.Service, types []string) error {
	for _, pipelineType := range types {
		stages, err := service.EnsureDefaultStages(ctx, pipelineType)
		if err != nil {
			return fmt.Errorf("seed %s: %w", pipelineType, err)
		}
		log.Printf("[Pipeline] %s has %d active stages", pipelineType, len(stages))
	}
	return nil
}
