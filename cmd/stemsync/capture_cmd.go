package main

import (
	"fmt"

	"github.com/openforest/stemsync/internal/capture"
	"github.com/openforest/stemsync/internal/client"
	"github.com/openforest/stemsync/internal/record"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record a stem measurement entry",
	Long: "Record a stem measurement entry with an optional photo and GPS fix.\n" +
		"The entry is saved remotely right away when online, otherwise it is\n" +
		"queued locally and synced later.",
	Example: `  stemsync capture -m 12.5 -m 13.1 -m 9.8 --image ./stems.jpg --lat 46.2 --lng 6.1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper()
		if err != nil {
			return err
		}

		measurements, _ := cmd.Flags().GetFloat64Slice("measurement")
		imagePath, _ := cmd.Flags().GetString("image")

		var loc *record.Location
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
			lat, _ := cmd.Flags().GetFloat64("lat")
			lng, _ := cmd.Flags().GetFloat64("lng")
			loc = &record.Location{Latitude: lat, Longitude: lng}
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

		res, err := app.Capture().Capture(cmd.Context(), &capture.Input{
			AssetRef:     imagePath,
			Stems:        len(measurements),
			Measurements: measurements,
			Location:     loc,
		})
		if err != nil {
			return err
		}

		if res.Queued {
			fmt.Printf("%s record %s (%d stems) queued for sync\n",
				cyan("queued"), res.Record.ID, res.Record.StemCount())
		} else {
			fmt.Printf("%s record %s (%d stems) saved remotely\n",
				green("saved"), res.Record.ID, res.Record.StemCount())
		}
		return nil
	},
}

func init() {
	captureCmd.Flags().Float64SliceP("measurement", "m", nil, "Stem measurement, repeat once per stem")
	captureCmd.Flags().String("image", "", "Path to the photo for this entry")
	captureCmd.Flags().Float64("lat", 0, "Latitude of the capture location")
	captureCmd.Flags().Float64("lng", 0, "Longitude of the capture location")
	captureCmd.MarkFlagRequired("measurement")
}
