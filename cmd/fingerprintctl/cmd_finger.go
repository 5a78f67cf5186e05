package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFingerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finger",
		Short: "Inspect enrolled fingerprint templates",
	}
	cmd.AddCommand(
		newFingerListCmd(),
		newFingerCountCmd(),
	)
	return cmd
}

func newFingerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <key> <user_id>",
		Short: "List fingerprint templates enrolled for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			fps, err := a.Facade.GetFingerprints(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			for _, fp := range fps {
				fmt.Printf("uid=%d finger=%d size=%d\n", fp.UID, fp.FingerIndex, len(fp.Template))
			}
			return nil
		},
	}
}

func newFingerCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <key>",
		Short: "Print total templates and the number of users with at least one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			total, usersWithFP, err := a.Facade.FingerprintCounts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("templates=%d users_enrolled=%d\n", total, usersWithFP)
			return nil
		},
	}
}
