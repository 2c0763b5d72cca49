package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var root = &cobra.Command{
		Use:          "newsrag",
		Short:        "Answer questions from fresh news coverage",
		SilenceUsage: true,
	}
	root.AddCommand(serveCMD(), askCMD())
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
