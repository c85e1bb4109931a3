package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "time/tzdata"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:           "clinic-api",
		Short:         "Doctor and appointment scheduling API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yml (default: search ., ./config, /app/config)")

	root.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
		newRelayCommand(&configPath),
		newListenCommand(&configPath),
	)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
