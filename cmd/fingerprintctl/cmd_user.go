package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abcfood/fingerprint-mw/internal/models"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage enrolled users",
	}
	cmd.AddCommand(
		newUserListCmd(),
		newUserAddCmd(),
		newUserDeleteCmd(),
		newUserSyncCmd(),
	)
	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <key>",
		Short: "List enrolled users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			users, err := a.Facade.ListUsers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%-6d %-12s %s\n", u.UID, u.UserID, u.Name)
			}
			return nil
		},
	}
}

func newUserAddCmd() *cobra.Command {
	var uid int
	var userID, name string
	cmd := &cobra.Command{
		Use:   "add <key>",
		Short: "Enroll a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			u := models.User{UID: uid, UserID: userID, Name: name}
			if err := a.Facade.AddUser(cmd.Context(), args[0], u); err != nil {
				return err
			}
			fmt.Printf("user %s (uid=%d) added to %s\n", userID, uid, args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&uid, "uid", 0, "device-internal slot number")
	cmd.Flags().StringVar(&userID, "user-id", "", "external identifier")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func newUserDeleteCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "delete <key> <uid>",
		Short: "Remove a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("user delete: pass --confirm to delete uid %s on %q", args[1], args[0])
			}
			var uid int
			if _, err := fmt.Sscanf(args[1], "%d", &uid); err != nil {
				return fmt.Errorf("uid must be an integer: %w", err)
			}
			a, err := buildApp()
			if err != nil {
				return err
			}
			if err := a.Facade.DeleteUser(cmd.Context(), args[0], uid); err != nil {
				return err
			}
			fmt.Printf("user uid=%d deleted from %s\n", uid, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm the deletion")
	return cmd
}

func newUserSyncCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync <key>",
		Short: "Reconcile device users against the HRIS roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			result, err := a.Facade.SyncUsersFromHRIS(cmd.Context(), args[0], dryRun)
			if err != nil {
				return err
			}
			fmt.Printf("to_add=%d to_update=%d unchanged=%d\n", len(result.ToAdd), len(result.ToUpdate), len(result.Unchanged))
			for _, u := range result.ToAdd {
				fmt.Printf("  + %s (uid=%d) %s\n", u.UserID, u.UID, u.Name)
			}
			for _, u := range result.ToUpdate {
				fmt.Printf("  ~ %s %s\n", u.UserID, u.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "report the diff without writing it")
	cmd.Flags().Bool("no-dry-run", false, "alias for --dry-run=false")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if noDryRun, _ := cmd.Flags().GetBool("no-dry-run"); noDryRun {
			dryRun = false
		}
		return nil
	}
	return cmd
}
