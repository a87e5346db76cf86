package main

import (
	"fmt"

	"github.com/openforest/stemsync/internal/client"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pending queue size, device id and remote totals",
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

		pending, err := app.Store.Count()
		if err != nil {
			return err
		}

		deviceID, err := app.Store.DeviceID()
		if err != nil {
			return err
		}
		if deviceID == "" {
			deviceID = "(not set)"
		}

		fmt.Printf("Ledger:        %s\n", app.Ledger.BaseURL())
		fmt.Printf("Device id:     %s\n", deviceID)
		fmt.Printf("Pending:       %d record(s)\n", pending)

		// live total when reachable, last cached value otherwise
		if app.Oracle.Reachable(cmd.Context()) {
			total, err := app.Ledger.TotalCount(cmd.Context())
			if err != nil {
				return err
			}
			_ = app.Store.SetCachedRemoteTotal(total)
			fmt.Printf("Remote total:  %d\n", total)
			return nil
		}

		cached, err := app.Store.CachedRemoteTotal()
		if err != nil {
			return err
		}
		if cached < 0 {
			fmt.Printf("Remote total:  unknown (offline)\n")
		} else {
			fmt.Printf("Remote total:  %d (cached, offline)\n", cached)
		}
		return nil
	},
}
