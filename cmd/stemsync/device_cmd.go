package main

import (
	"fmt"

	"github.com/openforest/stemsync/internal/client"
	"github.com/openforest/stemsync/internal/store"
	"github.com/spf13/cobra"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Show or change the device identifier stamped onto synced rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *client.App) error {
			id, err := app.Store.DeviceID()
			if err != nil {
				return err
			}
			if id == "" {
				fmt.Println("(not set)")
				return nil
			}
			fmt.Println(id)
			return nil
		})
	},
}

var deviceSetCmd = &cobra.Command{
	Use:   "set [id]",
	Short: "Assign the device identifier, or derive one from the machine id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *client.App) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				derived, err := store.DefaultDeviceID()
				if err != nil {
					return fmt.Errorf("derive device id: %w", err)
				}
				id = derived
			}
			if err := app.Store.SetDeviceID(id); err != nil {
				return err
			}
			fmt.Printf("device id set to %s\n", green(id))
			return nil
		})
	},
}

var deviceResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the stored device identifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *client.App) error {
			if err := app.Store.ResetDeviceID(); err != nil {
				return err
			}
			fmt.Println("device id cleared")
			return nil
		})
	},
}

func init() {
	deviceCmd.AddCommand(deviceSetCmd, deviceResetCmd)
}

// withApp opens the app for a short-lived subcommand and closes it after.
func withApp(cmd *cobra.Command, fn func(app *client.App) error) error {
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

	return fn(app)
}
