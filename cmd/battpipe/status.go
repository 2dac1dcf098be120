package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/battpipe/battpipe/pkg/client"
	"github.com/battpipe/battpipe/pkg/config"
	"github.com/battpipe/battpipe/pkg/powerinfo"
	"github.com/battpipe/battpipe/pkg/threshold"
)

type statusData struct {
	thresholds  *threshold.Resolved
	batteryInfo *powerinfo.Snapshot
	config      *config.Config
	version     string
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData(apiClient *client.Client) (*statusData, error) {
	thresholds, err := apiClient.GetThresholds()
	if err != nil {
		return nil, fmt.Errorf("failed to get thresholds: %w", err)
	}

	bat, err := apiClient.GetBatteryInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get battery info: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	ver, err := apiClient.GetVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get daemon version: %w", err)
	}

	return &statusData{
		thresholds:  thresholds,
		batteryInfo: bat,
		config:      conf,
		version:     ver,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current charge-control thresholds and battery state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData(client.NewClient(unixSocketPath))
			if err != nil {
				return err
			}

			cmd.Println(bold("Charge-control thresholds:"))

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"", "Effective", "Default"})
			t.AppendRows([]table.Row{
				{"Start threshold", percent(int(data.thresholds.Start)), percent(data.config.DefaultStart)},
				{"End threshold", percent(int(data.thresholds.End)), percent(data.config.DefaultEnd)},
			})
			t.SetStyle(table.StyleLight)
			t.Render()

			cmd.Println()
			cmd.Println(bold("Battery status:"))
			cmd.Printf("  Current charge: %s\n", bold("%d%%", data.batteryInfo.CurrentCharge))
			state := data.batteryInfo.State
			switch state {
			case "Charging":
				state = color.GreenString("charging")
			case "Discharging":
				state = color.RedString("discharging")
			case "Full":
				state = "full"
			}
			cmd.Printf("  State: %s\n", bold("%s", state))
			cmd.Printf("  Health: %s\n", bold("%d%%", data.batteryInfo.Health))
			watts := float64(data.batteryInfo.ChargeRate) / 1e3
			cmd.Printf("  Charge rate: %s\n", bold("%+.1f W", watts))
			cmd.Printf("  Voltage: %s\n", bold("%.2f V", data.batteryInfo.Voltage))

			cmd.Println()
			cmd.Println(bold("Daemon:"))
			cmd.Printf("  Version: %s\n", bold("%s", data.version))
			cmd.Printf("  Pipe: %s\n", bold("%s", data.config.PipePath))
			cmd.Printf("  Pipe mode: %s\n", bold("0%s", strconv.FormatUint(uint64(data.config.PipeMode.Perm()), 8)))
			cmd.Printf("  Non-root socket access: %s\n", bool2Text(data.config.AllowNonRootAccess))

			return nil
		},
	}
}

func percent(v int) string {
	return strconv.Itoa(v) + "%"
}
