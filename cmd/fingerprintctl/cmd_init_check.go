package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newInitCheckCmd() *cobra.Command {
	var interval time.Duration
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "init-check",
		Short: "Block until every configured device is reachable (Docker init-container convenience)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			keys := a.Pool.Keys()
			pending := make(map[string]bool, len(keys))
			for _, k := range keys {
				pending[k] = true
			}

			for {
				for key := range pending {
					slot, err := a.Pool.Client(key)
					if err == nil && slot.Ping(ctx) == nil {
						delete(pending, key)
					}
				}
				if len(pending) == 0 {
					fmt.Println("init-check: all devices reachable")
					return nil
				}
				select {
				case <-ctx.Done():
					return fmt.Errorf("init-check: timed out waiting for devices: %v", keysOf(pending))
				case <-time.After(interval):
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "retry interval between sweeps")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
	return cmd
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
