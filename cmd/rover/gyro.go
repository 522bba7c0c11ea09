package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewGyroCommand() *cobra.Command {
	resetAngle := 0.0

	cmd := &cobra.Command{
		Use:     "gyro",
		Short:   "Inspect and manage the gyro",
		GroupID: gAdvanced,
		Long: `Inspect and manage the gyro.

The gyro heading is an integrated value and drifts slowly over time. Reset it
when the robot is at a known heading, and schedule periodic drift checks to
get warned when a reset is due.`,
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Rebase the gyro heading",
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.ResetGyro(resetAngle)
			if err != nil {
				return fmt.Errorf("failed to reset gyro: %w", err)
			}

			if ret != "" {
				logrus.Debugf("daemon responded: %s", ret)
			}

			logrus.Infof("gyro heading rebased to %v degrees", resetAngle)

			return nil
		},
	}
	resetCmd.Flags().Float64Var(&resetAngle, "angle", 0, "heading to rebase to, in degrees")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "angle",
			Short: "Print the current gyro heading",
			RunE: func(cmd *cobra.Command, _ []string) error {
				angle, err := apiClient.GetGyroAngle()
				if err != nil {
					return fmt.Errorf("failed to get gyro angle: %w", err)
				}

				cmd.Printf("%.2f\n", angle)

				return nil
			},
		},
		resetCmd,
		&cobra.Command{
			Use:   "check",
			Short: "Check the gyro for drift",
			Long:  `Check the gyro for drift. The robot must be stationary; the check samples the heading twice a second apart.`,
			RunE: func(cmd *cobra.Command, _ []string) error {
				drifting, err := apiClient.CheckGyroDrift()
				if err != nil {
					return fmt.Errorf("failed to check gyro drift: %w", err)
				}

				if drifting {
					cmd.Println("The gyro is drifting. Run \"rover gyro reset\" while the robot is at a known heading.")
				} else {
					cmd.Println("No drift detected.")
				}

				return nil
			},
		},
		&cobra.Command{
			Use:   "drift-cron [expression]",
			Short: "Schedule periodic drift checks",
			Long: `Schedule periodic drift checks with a cron expression, e.g. "@every 1h".
An empty expression ("") disables the schedule.`,
			Args: cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				ret, err := apiClient.SetDriftCheckCron(args[0])
				if err != nil {
					return fmt.Errorf("failed to set drift check cron: %w", err)
				}

				if ret != "" {
					logrus.Debugf("daemon responded: %s", ret)
				}

				if args[0] == "" {
					logrus.Info("disabled scheduled drift checks")
				} else {
					logrus.Infof("scheduled drift checks at %q", args[0])
				}

				return nil
			},
		},
	)

	return cmd
}
