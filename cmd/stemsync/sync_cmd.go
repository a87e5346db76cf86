package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/openforest/stemsync/internal/client"
	"github.com/openforest/stemsync/internal/engine"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push all pending records to the remote store now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper()
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true

		app, err := client.New(cfg)
		if err != nil {
			return err
		}
		if err := app.Open(); err != nil {
			return err
		}
		defer app.Close()

		report, err := app.Engine.RunSync(cmd.Context(), engine.TriggerManual)
		switch {
		case errors.Is(err, engine.ErrOffline):
			fmt.Println("Offline. Pending records will sync when the network is back.")
			return nil
		case errors.Is(err, engine.ErrSyncAlreadyRunning):
			fmt.Println("A sync is already in progress.")
			return nil
		case err != nil:
			return err
		}

		switch report.Outcome {
		case engine.OutcomeNoData:
			fmt.Println("Nothing to sync.")
		default:
			fmt.Printf("Synced %d record(s), uploaded %d image(s) in %s.\n",
				report.Synced, report.Uploaded, report.Took.Round(time.Millisecond))
		}
		return nil
	},
}
