// fingerprintctl operates and administers the fingerprint terminal
// middleware: run the HTTP API, probe device health, and manage users,
// attendance, and backups from the command line.
//
// Usage:
//
//	fingerprintctl serve                 # run the HTTP API + scheduler
//	fingerprintctl list                  # list configured devices
//	fingerprintctl status                # probe every device
//	fingerprintctl device info tmi       # detailed device info
//	fingerprintctl attendance get tmi    # attendance records
//	fingerprintctl backup run tmi        # full backup
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "fingerprintctl",
	Short:         "Operate the fingerprint terminal middleware",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(
		newServeCmd(),
		newListCmd(),
		newStatusCmd(),
		newTestConnectionCmd(),
		newInitCheckCmd(),
		newDeviceCmd(),
		newAttendanceCmd(),
		newUserCmd(),
		newFingerCmd(),
		newBackupCmd(),
	)
}
