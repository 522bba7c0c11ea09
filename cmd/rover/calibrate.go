package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewCalibrateCommand() *cobra.Command {
	seconds := 0.0

	cmd := &cobra.Command{
		Use:     "calibrate",
		Aliases: []string{"cali"},
		Short:   "Calibrate the light sensors",
		GroupID: gBasic,
		Long: `Calibrate the light sensors.

The robot drives straight for the calibration window while recording the
brightest and darkest readings of both sensors. Place it so the sweep crosses
both the line and the background. The discovered bounds are saved to the
daemon config and applied immediately.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Println("Calibrating, the robot will drive straight for a few seconds...")

			result, err := apiClient.Calibrate(seconds)
			if err != nil {
				return fmt.Errorf("failed to calibrate: %w", err)
			}

			cmd.Println(bold("Calibration complete:"))
			cmd.Printf("  Left sensor:  %s\n", bold("%.0f .. %.0f", result.Bounds.LeftLow, result.Bounds.LeftHigh))
			cmd.Printf("  Right sensor: %s\n", bold("%.0f .. %.0f", result.Bounds.RightLow, result.Bounds.RightHigh))
			cmd.Printf("  Sweep took %.1fs\n", result.DurationSeconds)

			return nil
		},
	}

	cmd.Flags().Float64Var(&seconds, "seconds", 0, "calibration sweep duration (0 = default 5s)")

	return cmd
}
