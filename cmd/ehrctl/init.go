package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclinic/ehr-api/internal/repository/postgres"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.InitSchema(cmd.Context(), db); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
			fmt.Println("schema created")
			return nil
		},
	}
}
