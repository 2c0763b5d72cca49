package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/internal/logger"
	srv "github.com/mohammad-safakhou/newsrag/internal/server"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/spf13/cobra"
)

func askCMD() *cobra.Command {
	var sessionID string
	var cfgPath string
	var ask = &cobra.Command{
		Use:   "ask [question]",
		Short: "Run one query through the pipeline and print the answer as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.General.LogLevel, true)

			app, err := srv.Build(cmd.Context(), cfg, log, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			answer, err := app.Pipeline.Run(cmd.Context(), models.QueryRequest{
				Query:     strings.Join(args, " "),
				SessionID: sessionID,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", models.ErrorKind(err), err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(answer)
		},
	}
	ask.Flags().StringVarP(&sessionID, "session", "s", "", "session id (default: a fresh uuid)")
	ask.Flags().StringVarP(&cfgPath, "config", "c", "", "config file")
	return ask
}
