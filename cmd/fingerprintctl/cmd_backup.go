package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Run, list, and restore device backups",
	}
	cmd.AddCommand(
		newBackupRunCmd(),
		newBackupListCmd(),
		newBackupRestoreCmd(),
	)
	return cmd
}

func newBackupRunCmd() *cobra.Command {
	var includeAttendance bool
	cmd := &cobra.Command{
		Use:   "run <key>",
		Short: "Snapshot a device's users and fingerprints to the object store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			objKey, err := a.Facade.RunBackup(cmd.Context(), args[0], includeAttendance)
			if err != nil {
				return err
			}
			fmt.Println(objKey)
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeAttendance, "include-attendance", false, "also snapshot attendance records")
	return cmd
}

func newBackupListCmd() *cobra.Command {
	var device string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			objs, err := a.Facade.ListBackups(cmd.Context(), device)
			if err != nil {
				return err
			}
			for _, o := range objs {
				fmt.Printf("%s %-10s %8d %s\n", o.LastModified.Format(time.RFC3339), o.DeviceKey, o.Size, o.Key)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&device, "device", "", "filter to one device key")
	return cmd
}

func newBackupRestoreCmd() *cobra.Command {
	var target string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "restore <s3_key>",
		Short: "Apply a stored backup to a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			result, err := a.Facade.RestoreBackup(cmd.Context(), args[0], target, dryRun)
			if err != nil {
				return err
			}
			fmt.Printf("users_applied=%d fingerprints_applied=%d fingerprints_skipped=%d\n",
				result.UsersApplied, result.FingerprintsApplied, result.FingerprintsSkipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "device key to restore onto, defaults to the backup's own device key")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "report what would be applied without writing it")
	cmd.Flags().Bool("no-dry-run", false, "alias for --dry-run=false")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if noDryRun, _ := cmd.Flags().GetBool("no-dry-run"); noDryRun {
			dryRun = false
		}
		return nil
	}
	return cmd
}
