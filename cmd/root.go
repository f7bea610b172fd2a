package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carroceria-sur/taller/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "taller",
	Short: "Georeference backend for the bodywork order system",
	Long:  "Looks up Argentine provinces, localities and addresses against the Georef API with caching, rate limiting, retries and a bundled fallback dataset.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
