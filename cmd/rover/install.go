package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/smallbots/rover/pkg/config"
	daemonutils "github.com/smallbots/rover/pkg/utils/daemon"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install rover (system-wide)",
		GroupID: gInstallation,
		Long: `Install the rover daemon to systemd (system-wide).

This makes rover run in the background and automatically start on boot. You must run this command as root.

By default, only root is allowed to access the rover daemon. If you want to let non-root users drive the robot without sudo, use the --allow-non-root-access flag.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			conf.SetAllowNonRootAccess(allowNonRootAccess)
			if allowNonRootAccess {
				logrus.Info("non-root users are allowed to access the rover daemon.")
			} else {
				logrus.Info("only root user is allowed to access the rover daemon.")
			}

			err = daemonutils.Install()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v. Are you root?", err)
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("systemd will use the current binary (%s) at startup, so please make sure you do not move it. Once this binary is moved or deleted, you will need to run ``rover install'' again.\n", exePath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to access the rover daemon.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall rover (system-wide)",
		GroupID: gInstallation,
		Long: `Uninstall the rover daemon from systemd (system-wide).

This stops rover and removes it from systemd. You must run this command as root.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			logrus.Infof("uninstallation succeeded")

			return nil
		},
	}
}
