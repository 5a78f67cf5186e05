package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newTestConnectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Verify connectivity to every device and the backup object store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			results := a.TestConnections(cmd.Context())

			names := make([]string, 0, len(results))
			for name := range results {
				names = append(names, name)
			}
			sort.Strings(names)

			failed := false
			for _, name := range names {
				if err := results[name]; err != nil {
					failed = true
					fmt.Printf("%-20s FAIL: %v\n", name, err)
				} else {
					fmt.Printf("%-20s OK\n", name)
				}
			}
			if failed {
				return fmt.Errorf("test-connection: one or more checks failed")
			}
			return nil
		},
	}
}
