// Package hack holds build and install scaffolding that does not belong in
// the runtime packages.
package hack

// SystemdUnitTemplate is the systemd unit installed by "rover install".
// "/path/to/rover" is replaced with the absolute path of the running binary.
const SystemdUnitTemplate = `[Unit]
Description=rover robot control daemon
After=network.target

[Service]
Type=simple
ExecStart=/path/to/rover daemon
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`
