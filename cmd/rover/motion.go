package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewDriveCommand() *cobra.Command {
	timeoutSeconds := 0.0

	cmd := &cobra.Command{
		Use:     "drive [distance] [speed]",
		Short:   "Drive straight for a distance",
		GroupID: gBasic,
		Long: `Drive straight for a distance, correcting heading drift against the gyro.

Distance is in robot distance units (wheel rotation degrees / 51.9); a negative
distance drives backwards. Speed is in wheel degrees per second and must be
nonzero. The motion ramps up and down over the travel and holds the wheels at
the end.`,
		RunE: func(_ *cobra.Command, args []string) error {
			distance, err := parseFloatArg(args, 0, "distance")
			if err != nil {
				return err
			}
			speed, err := parseFloatArg(args, 1, "speed")
			if err != nil {
				return err
			}

			ret, err := apiClient.Drive(distance, speed, timeoutSeconds)
			if err != nil {
				return fmt.Errorf("failed to drive: %w", err)
			}

			if ret != "" {
				logrus.Debugf("daemon responded: %s", ret)
			}

			logrus.Infof("drive of %v finished", distance)

			return nil
		},
	}

	cmd.Flags().Float64Var(&timeoutSeconds, "timeout", 0, "abort the drive after this many seconds (0 = default)")

	return cmd
}

func NewTurnCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "turn [angle] [speed]",
		Short:   "Turn in place to an absolute gyro heading",
		GroupID: gBasic,
		Long: `Turn in place to an absolute gyro heading in degrees.

The heading is absolute, not relative: "rover turn 90 300" turns until the
gyro reads 90 degrees, wherever the robot is pointing now. Use "rover gyro
reset" to rebase the heading first if needed.`,
		RunE: func(_ *cobra.Command, args []string) error {
			angle, err := parseFloatArg(args, 0, "angle")
			if err != nil {
				return err
			}
			speed, err := parseFloatArg(args, 1, "speed")
			if err != nil {
				return err
			}

			ret, err := apiClient.Turn(angle, speed)
			if err != nil {
				return fmt.Errorf("failed to turn: %w", err)
			}

			if ret != "" {
				logrus.Debugf("daemon responded: %s", ret)
			}

			logrus.Infof("turn to %v degrees finished", angle)

			return nil
		},
	}
}

func NewTurnToLineCommand() *cobra.Command {
	useRightSensor := false
	timeoutSeconds := 0.0

	cmd := &cobra.Command{
		Use:     "turn-to-line [speed]",
		Short:   "Spin until a light sensor crosses a line marker",
		GroupID: gBasic,
		Long: `Spin in place until the selected light sensor sees a line marker (a white
gap followed by a black bar), then hold.`,
		RunE: func(_ *cobra.Command, args []string) error {
			speed, err := parseFloatArg(args, 0, "speed")
			if err != nil {
				return err
			}

			ret, err := apiClient.TurnToLine(speed, useRightSensor, timeoutSeconds)
			if err != nil {
				return fmt.Errorf("failed to turn to line: %w", err)
			}

			if ret != "" {
				logrus.Debugf("daemon responded: %s", ret)
			}

			logrus.Infof("reached the line")

			return nil
		},
	}

	cmd.Flags().BoolVar(&useRightSensor, "right-sensor", false, "watch the right light sensor instead of the left")
	cmd.Flags().Float64Var(&timeoutSeconds, "timeout", 0, "give up after this many seconds (0 = wait forever)")

	return cmd
}

func NewDriveToLineCommand() *cobra.Command {
	useRightSensor := false
	distanceBefore := 0.0
	distanceAfter := 0.0

	cmd := &cobra.Command{
		Use:     "drive-to-line [speed]",
		Short:   "Drive until a light sensor crosses a line marker",
		GroupID: gBasic,
		Long: `Drive a fixed pre-distance, creep forward at half speed until the selected
light sensor sees a line marker, then drive a fixed post-distance.`,
		RunE: func(_ *cobra.Command, args []string) error {
			speed, err := parseFloatArg(args, 0, "speed")
			if err != nil {
				return err
			}

			ret, err := apiClient.DriveToLine(speed, distanceBefore, distanceAfter, useRightSensor)
			if err != nil {
				return fmt.Errorf("failed to drive to line: %w", err)
			}

			if ret != "" {
				logrus.Debugf("daemon responded: %s", ret)
			}

			logrus.Infof("reached the line")

			return nil
		},
	}

	cmd.Flags().BoolVar(&useRightSensor, "right-sensor", false, "watch the right light sensor instead of the left")
	cmd.Flags().Float64Var(&distanceBefore, "before", 0, "distance to drive before hunting for the line")
	cmd.Flags().Float64Var(&distanceAfter, "after", 0, "distance to drive past the line")

	return cmd
}
