package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newAttendanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Read attendance records",
	}
	cmd.AddCommand(
		newAttendanceGetCmd(),
		newAttendanceCountCmd(),
		newAttendanceCacheCmd(),
		newAttendanceLiveCmd(),
	)
	return cmd
}

func parseFlagTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q, want RFC3339: %w", raw, err)
	}
	return &t, nil
}

func newAttendanceGetCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "List attendance records for a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromT, err := parseFlagTime(from)
			if err != nil {
				return err
			}
			toT, err := parseFlagTime(to)
			if err != nil {
				return err
			}
			a, err := buildApp()
			if err != nil {
				return err
			}
			records, err := a.Facade.GetAttendance(cmd.Context(), args[0], fromT, toT, true)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Printf("%s uid=%d user=%s status=%d punch=%d\n", r.Timestamp.Format(time.RFC3339), r.UID, r.UserID, r.Status, r.Punch)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "inclusive lower bound, RFC3339")
	cmd.Flags().StringVar(&to, "to", "", "inclusive upper bound, RFC3339")
	return cmd
}

func newAttendanceCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <key>",
		Short: "Print the attendance record count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			count, err := a.Facade.CountAttendance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(count)
			return nil
		},
	}
}

func newAttendanceCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache <key>",
		Short: "Show cache status for a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			status := a.Facade.CacheStatus(args[0])
			fmt.Printf("cached=%v count=%d loading=%v error=%q\n", status.Cached, status.Count, status.IsLoading, status.Error)
			return nil
		},
	}
}

func newAttendanceLiveCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "live <key>",
		Short: "Poll and print new attendance records as they appear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			key := args[0]
			seen := make(map[string]bool)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				records, err := a.Facade.GetAttendance(cmd.Context(), key, nil, nil, true)
				if err == nil {
					for _, r := range records {
						id := fmt.Sprintf("%d|%s", r.UID, r.Timestamp.Format(time.RFC3339Nano))
						if !seen[id] {
							seen[id] = true
							fmt.Printf("%s uid=%d user=%s\n", r.Timestamp.Format(time.RFC3339), r.UID, r.UserID)
						}
					}
				}
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "poll interval")
	return cmd
}
