package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe every configured device",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			statuses, err := a.Facade.AllDeviceStatuses(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range statuses {
				if s.Online {
					fmt.Printf("%-12s online  serial=%s users=%d\n", s.Key, s.Info.SerialNumber, s.Info.UserCount)
				} else {
					fmt.Printf("%-12s offline %s\n", s.Key, s.Error)
				}
			}
			return nil
		},
	}
}
