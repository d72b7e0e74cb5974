package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/openclinic/ehr-api/internal/config"
	"github.com/openclinic/ehr-api/internal/repository/postgres"
	"github.com/openclinic/ehr-api/pkg/logger"
)

func main() {
	logger.Setup()

	root := &cobra.Command{
		Use:          "ehrctl",
		Short:        "Administrative tasks for the EHR API",
		SilenceUsage: true,
	}

	root.AddCommand(
		newInitCmd(),
		newSeedCmd(),
		newPurgeUnconfirmedCmd(),
		newDeleteDoctorCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB loads the configuration and connects; every subcommand starts here.
func openDB() (*sqlx.DB, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}
