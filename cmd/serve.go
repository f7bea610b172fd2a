package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carroceria-sur/taller/internal/server"
	"github.com/carroceria-sur/taller/pkg/georef"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the georef HTTP API for the address selectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		reg := server.NewRegistry()
		client, err := newGeorefClient(cfg.Georef, reg)
		if err != nil {
			return err
		}

		if cfg.Server.Preload {
			go func() {
				if err := georef.Preload(ctx, client, cfg.Georef.PreloadMax); err != nil {
					zap.L().Warn("province preload failed", zap.Error(err))
				}
			}()
		}

		return server.New(client, cfg.Server, limitsFromConfig(cfg.Georef.Max), reg).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
