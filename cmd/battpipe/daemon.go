package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battpipe/battpipe/pkg/config"
	"github.com/battpipe/battpipe/pkg/daemon"
	"github.com/battpipe/battpipe/pkg/version"
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	var (
		pipePath     string
		pipeUID      int
		pipeGID      int
		pipeMode     string
		defaultStart int
		defaultEnd   int
		startPath    string
		endPath      string
		allowNonRoot bool
	)

	cmd := &cobra.Command{
		Use:     "daemon",
		Short:   "Run the battpipe daemon in the foreground",
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("battpipe daemon starting")

			raw, err := config.LoadRaw(configPath)
			if err != nil {
				return err
			}

			// Explicit flags win over the config file; unset fields fall
			// back to built-in defaults during Materialize.
			f := cmd.Flags()
			if f.Changed("pipe-path") {
				raw.PipePath = &pipePath
			}
			if f.Changed("pipe-uid") {
				raw.PipeUID = &pipeUID
			}
			if f.Changed("pipe-gid") {
				raw.PipeGID = &pipeGID
			}
			if f.Changed("pipe-mode") {
				raw.PipeMode = &pipeMode
			}
			if f.Changed("default-start") {
				raw.DefaultStart = &defaultStart
			}
			if f.Changed("default-end") {
				raw.DefaultEnd = &defaultEnd
			}
			if f.Changed("start-path") {
				raw.StartThresholdPath = &startPath
			}
			if f.Changed("end-path") {
				raw.EndThresholdPath = &endPath
			}
			if f.Changed("allow-non-root-access") {
				raw.AllowNonRootAccess = &allowNonRoot
			}
			if cmd.Root().PersistentFlags().Changed("daemon-socket") {
				raw.SocketPath = &unixSocketPath
			}

			conf, err := raw.Materialize()
			if err != nil {
				return err
			}

			return daemon.Run(conf)
		},
	}

	f := cmd.Flags()
	f.StringVar(&pipePath, "pipe-path", "/var/run/battpipe.pipe", "path of the named pipe to receive threshold expressions on")
	f.IntVar(&pipeUID, "pipe-uid", -1, "owner uid for the pipe, -1 leaves it unchanged")
	f.IntVar(&pipeGID, "pipe-gid", -1, "owner gid for the pipe, -1 leaves it unchanged")
	f.StringVar(&pipeMode, "pipe-mode", "0666", "permission bits for the pipe, octal")
	f.IntVar(&defaultStart, "default-start", 75, "start threshold used when an expression leaves it out")
	f.IntVar(&defaultEnd, "default-end", 80, "end threshold used when an expression leaves it out")
	f.StringVar(&startPath, "start-path", "/sys/class/power_supply/BAT0/charge_control_start_threshold", "charge_control_start_threshold attribute path")
	f.StringVar(&endPath, "end-path", "/sys/class/power_supply/BAT0/charge_control_end_threshold", "charge_control_end_threshold attribute path")
	f.BoolVar(&allowNonRoot, "allow-non-root-access", false, "allow non-root users to access the daemon socket")

	return cmd
}
