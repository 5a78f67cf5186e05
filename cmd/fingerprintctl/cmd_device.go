package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDeviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect and control devices",
	}
	cmd.AddCommand(
		newDeviceInfoCmd(),
		newDeviceRestartCmd(),
		newDeviceTimeCmd(),
	)
	return cmd
}

func newDeviceInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <key>",
		Short: "Show detailed status for one device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			status, err := a.Facade.DeviceStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !status.Online {
				fmt.Printf("%s: offline (%s)\n", status.Key, status.Error)
				return nil
			}
			fmt.Printf("%s: online\n  serial=%s firmware=%s users=%d fingerprints=%d records=%d\n",
				status.Key, status.Info.SerialNumber, status.Info.FirmwareVersion,
				status.Info.UserCount, status.Info.FingerprintCount, status.Info.AttendanceCount)
			return nil
		},
	}
}

func newDeviceRestartCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "restart <key>",
		Short: "Restart a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("device restart: pass --confirm to restart %q", args[0])
			}
			a, err := buildApp()
			if err != nil {
				return err
			}
			if err := a.Facade.RestartDevice(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("device %s restarting\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm the restart")
	return cmd
}

func newDeviceTimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "time <key>",
		Short: "Get or sync a device's clock",
		Args:  cobra.ExactArgs(1),
	}
	var sync bool
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		if sync {
			if err := a.Facade.SyncDeviceTime(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("device %s time synced\n", args[0])
			return nil
		}
		t, err := a.Facade.GetDeviceTime(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(t.Format(time.RFC3339))
		return nil
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "set the device clock to the current time instead of reading it")
	return cmd
}
