package main

import (
	"context"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/internal/logger"
	srv "github.com/mohammad-safakhou/newsrag/internal/server"
	"github.com/mohammad-safakhou/newsrag/internal/telemetry"
	"github.com/spf13/cobra"
)

func serveCMD() *cobra.Command {
	var serveAddr string
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if serveAddr != "" {
				cfg.Server.Address = serveAddr
			}
			log := logger.New(cfg.General.LogLevel, cfg.General.Debug)

			tel, err := telemetry.Setup(cmd.Context(), cfg.Telemetry, version)
			if err != nil {
				return err
			}
			defer func() {
				if err := tel.Shutdown(context.Background()); err != nil {
					log.Warn().Err(err).Msg("telemetry shutdown")
				}
			}()
			return srv.Run(cmd.Context(), cfg, log)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json or ./config.json)")

	return serve
}
