package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewFollowCommand() *cobra.Command {
	leftSide := false
	useRightSensor := false

	cmd := &cobra.Command{
		Use:     "follow",
		Short:   "Follow a line edge with one light sensor",
		GroupID: gBasic,
		Long: `Follow a line edge with a PD controller on one light sensor.

By default the robot tracks the right edge of the line with the left sensor.
Use --left-side to track the left edge and --right-sensor to track with the
right sensor; the two are independent.`,
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&leftSide, "left-side", false, "track the left edge of the line instead of the right")
	pf.BoolVar(&useRightSensor, "right-sensor", false, "track with the right light sensor instead of the left")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "to-line [speed]",
			Short: "Follow until the opposite sensor crosses a line",
			RunE: func(_ *cobra.Command, args []string) error {
				speed, err := parseFloatArg(args, 0, "speed")
				if err != nil {
					return err
				}

				ret, err := apiClient.FollowLineToLine(speed, !leftSide, useRightSensor)
				if err != nil {
					return fmt.Errorf("failed to follow line: %w", err)
				}

				if ret != "" {
					logrus.Debugf("daemon responded: %s", ret)
				}

				logrus.Infof("reached the cross line")

				return nil
			},
		},
		&cobra.Command{
			Use:   "for [seconds] [speed]",
			Short: "Follow for a fixed duration",
			RunE: func(_ *cobra.Command, args []string) error {
				seconds, err := parseFloatArg(args, 0, "seconds")
				if err != nil {
					return err
				}
				speed, err := parseFloatArg(args, 1, "speed")
				if err != nil {
					return err
				}

				ret, err := apiClient.FollowLineForTime(speed, seconds, !leftSide, useRightSensor)
				if err != nil {
					return fmt.Errorf("failed to follow line: %w", err)
				}

				if ret != "" {
					logrus.Debugf("daemon responded: %s", ret)
				}

				logrus.Infof("followed the line for %vs", seconds)

				return nil
			},
		},
	)

	return cmd
}
