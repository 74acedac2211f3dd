package main

import (
	"github.com/spf13/cobra"

	"worklogz/source/pipeline"
)

func seedCmd() *cobra.Command {
	var pipelines []string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default stages of pipelines that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := pipeline.LoadCatalog(cfg.PipelinesFile)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			if len(pipelines) == 0 {
				pipelines = catalog.Types()
			}
			service := pipeline.NewService(store, catalog, nil, nil)
			return seedAll(cmd.Context(), service, pipelines)
		},
	}

	cmd.Flags().StringSliceVar(&pipelines, "pipeline", nil, "pipeline types to seed (default: every catalog type)")
	return cmd
}
