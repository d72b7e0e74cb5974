package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openclinic/ehr-api/internal/repository/postgres"
	"github.com/openclinic/ehr-api/internal/storage"
)

func newPurgeUnconfirmedCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge-unconfirmed",
		Short: "Delete doctor accounts that never confirmed their email",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			files, err := storage.NewLocalStore(cfg.Upload.Dir)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			repo := postgres.NewDoctorRepository(db)
			cutoff := time.Now().UTC().AddDate(0, 0, -days)

			doctors, err := repo.ListUnconfirmedBefore(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("failed to list unconfirmed doctors: %w", err)
			}

			for _, d := range doctors {
				filenames, err := repo.DeleteCascade(ctx, d.ID)
				if err != nil {
					return fmt.Errorf("failed to delete doctor %s: %w", d.Username, err)
				}
				removeFiles(files, filenames)
				fmt.Printf("deleted %s (%s), registered %s\n", d.Username, d.Email, d.CreatedAt.Format("2006-01-02"))
			}
			fmt.Printf("%d unconfirmed accounts removed\n", len(doctors))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "minimum account age in days")
	return cmd
}

func newDeleteDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-doctor <doctor-id>",
		Short: "Delete a doctor account with all owned patients and records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doctorID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid doctor id: %w", err)
			}

			db, cfg, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			files, err := storage.NewLocalStore(cfg.Upload.Dir)
			if err != nil {
				return err
			}

			filenames, err := postgres.NewDoctorRepository(db).DeleteCascade(cmd.Context(), doctorID)
			if err != nil {
				return fmt.Errorf("failed to delete doctor: %w", err)
			}
			removeFiles(files, filenames)
			fmt.Printf("doctor %s deleted, %d stored images removed\n", doctorID, len(filenames))
			return nil
		},
	}
}

func removeFiles(files storage.FileStore, names []string) {
	for _, name := range names {
		if err := files.Delete(name); err != nil {
			fmt.Printf("warning: failed to remove %s: %v\n", name, err)
		}
	}
}
