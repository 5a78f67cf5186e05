package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			for _, cfg := range a.Facade.ListDevices() {
				fmt.Printf("%-12s %-20s %s:%d\n", cfg.Key, cfg.Name, cfg.IP, cfg.Port)
			}
			return nil
		},
	}
}
