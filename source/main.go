package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "worklogz",
		Short: "Worklogz CRM pipeline API",
		Long: `Worklogz serves the CRM pipeline: stages, leads and the
drag-and-drop ordering of leads across stage columns.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("env-file", ".env", "path of the .env file; skipped when missing")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
