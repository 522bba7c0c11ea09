package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/smallbots/rover/pkg/events"
)

func NewEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "events",
		Short:   "Stream daemon events",
		GroupID: gAdvanced,
		Long:    `Stream daemon events (motion lifecycle, calibration results, drift warnings) until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigc
				cancel()
			}()

			for ev := range apiClient.SubscribeEvents(ctx) {
				switch ev.Name {
				case events.MotionStarted, events.MotionFinished:
					payload, err := events.DecodeAs[events.MotionEvent](ev)
					if err != nil {
						logrus.WithError(err).Errorf("failed to decode %s event", ev.Name)
						continue
					}
					if payload.Error != "" {
						cmd.Printf("%s %s: %s\n", ev.Name, payload.Op, payload.Error)
					} else {
						cmd.Printf("%s %s\n", ev.Name, payload.Op)
					}
				case events.GyroDrift:
					payload, err := events.DecodeAs[events.DriftEvent](ev)
					if err != nil {
						logrus.WithError(err).Error("failed to decode gyro.drift event")
						continue
					}
					if payload.Drifting {
						cmd.Println("gyro.drift: the gyro is drifting")
					} else {
						cmd.Println("gyro.drift: no drift")
					}
				default:
					cmd.Printf("%s %s\n", ev.Name, string(ev.Data))
				}
			}

			return nil
		},
	}
}
