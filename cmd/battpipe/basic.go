package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/battpipe/battpipe/pkg/client"
	"github.com/battpipe/battpipe/pkg/threshold"
	"github.com/battpipe/battpipe/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewSetCommand() *cobra.Command {
	var pipePath string

	cmd := &cobra.Command{
		Use:     "set <expression>",
		Short:   "Send a threshold expression to the daemon",
		GroupID: gBasic,
		Long: `Send a threshold expression through the battpipe named pipe.

Accepted expressions:

  battpipe set 20..80      set start to 20% and end to 80%
  battpipe set 20 to 80    same
  battpipe set start=30    set only the start threshold
  battpipe set end=85      set only the end threshold
  battpipe set 30..        set only the start threshold
  battpipe set ..85        set only the end threshold
  battpipe set 30          bare values below 50 set the start threshold
  battpipe set 85          bare values from 50 up set the end threshold

Whichever threshold the expression leaves out is filled from the daemon's
configured defaults. The daemon does not answer through the pipe; watch its
log, or use "battpipe status" to read the effective values back.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			expr := strings.Join(args, " ")

			// Catch typos locally before touching the pipe. Range checks
			// still happen daemon-side against its configured defaults.
			if _, err := threshold.Parse(expr); err != nil {
				return err
			}

			// A FIFO with no reader fails a non-blocking write open with
			// ENXIO, which is exactly the "daemon not running" case.
			f, err := os.OpenFile(pipePath, os.O_WRONLY|unix.O_NONBLOCK, 0)
			if err != nil {
				if errors.Is(err, unix.ENXIO) || os.IsNotExist(err) {
					return fmt.Errorf("no daemon reading %s: %w", pipePath, client.ErrDaemonNotRunning)
				}
				if os.IsPermission(err) {
					return fmt.Errorf("cannot write to %s: %w", pipePath, client.ErrPermissionDenied)
				}
				return err
			}
			defer func() {
				if err := f.Close(); err != nil {
					logrus.Warnf("failed to close pipe: %v", err)
				}
			}()

			if _, err := f.WriteString(expr + "\n"); err != nil {
				return fmt.Errorf("failed to write to pipe: %w", err)
			}

			logrus.Infof("sent %q to %s", expr, pipePath)

			return nil
		},
	}

	cmd.Flags().StringVar(&pipePath, "pipe-path", "/var/run/battpipe.pipe", "path of the daemon's named pipe")

	return cmd
}
