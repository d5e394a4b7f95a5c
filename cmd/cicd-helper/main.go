package main

import (
	"context"
	"os"

	"github.com/savaki/cicd-helper/cmd/cicd-helper/commands"
	"github.com/savaki/cicd-helper/internal/di"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := commands.NewApp(&logger)
	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
