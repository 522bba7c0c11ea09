package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smallbots/rover/pkg/client"
	"github.com/smallbots/rover/pkg/config"
	"github.com/smallbots/rover/pkg/version"
)

var apiClient = client.NewClient("/var/run/rover.sock")

type statusData struct {
	status      *client.Status
	batteryInfo *client.BatteryInfo
	config      *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	st, err := apiClient.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	bat, err := apiClient.GetBatteryInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get battery info: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		status:      st,
		batteryInfo: bat,
		config:      conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of the robot",
		Long:    `Get robot status, battery info, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Get various info first.
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			config := config.NewFileFromConfig(data.config, "")

			cmd.Println(bold("Robot status:"))
			if data.status.Busy {
				cmd.Println("  Motion: " + color.New(color.Bold, color.FgYellow).Sprint("in progress"))
			} else {
				cmd.Println("  Motion: " + bold("idle"))
			}
			cmd.Printf("  Gyro heading: %s\n", bold("%.1f degrees", data.status.GyroAngle))
			if data.status.DriftCheckCron != "" {
				cmd.Printf("  Drift check schedule: %s\n", bold("%s", data.status.DriftCheckCron))
				if data.status.NextDriftCheck != "" {
					cmd.Printf("  Next drift check: %s\n", bold("%s", data.status.NextDriftCheck))
				}
			} else {
				cmd.Println("  Drift check schedule: " + bold("none"))
			}

			cmd.Println()

			cmd.Println(bold("Battery status:"))
			cmd.Printf("  Current charge: %s\n", bold("%.0f%%", data.batteryInfo.ChargePercent()))
			cmd.Printf("  Voltage: %s\n", bold("%.2f V", data.batteryInfo.Voltage))

			cmd.Println()

			bounds := config.SensorBounds()
			cmd.Println(bold("Sensor configuration:"))
			cmd.Printf("  Left sensor bounds:  %s\n", bold("%.0f .. %.0f", bounds.LeftLow, bounds.LeftHigh))
			cmd.Printf("  Right sensor bounds: %s\n", bold("%.0f .. %.0f", bounds.RightLow, bounds.RightHigh))
			cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(config.AllowNonRootAccess()))

			if data.status.Version != version.Version {
				cmd.Println()
				cmd.Printf("Daemon version %s does not match client version %s.\n", data.status.Version, version.Version)
			}

			return nil
		},
	}
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
