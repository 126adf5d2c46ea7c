package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aimd54/academy-progression/internal/models"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage player and coach profiles",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a player or coach profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		if username == "" {
			return fmt.Errorf("--username is required")
		}
		email, _ := cmd.Flags().GetString("email")
		position, _ := cmd.Flags().GetString("position")
		coach, _ := cmd.Flags().GetBool("coach")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		user := &models.User{Username: username, Email: email, Position: strings.ToLower(position), IsCoach: coach}
		if err := a.store.Users.Create(cmd.Context(), user); err != nil {
			return err
		}
		if ok, err := printJSON(cmd, user); ok || err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s with id %d\n", user.Username, user.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		coaches, _ := cmd.Flags().GetBool("coaches")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.store.Users.List(cmd.Context(), coaches)
		if err != nil {
			return err
		}
		if ok, err := printJSON(cmd, users); ok || err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-5s  %-24s  %-12s  %s\n", "ID", "Username", "Position", "Coach")
		fmt.Fprintln(out, strings.Repeat("─", 52))
		for _, u := range users {
			fmt.Fprintf(out, "%-5d  %-24s  %-12s  %t\n", u.ID, truncate(u.Username, 24), u.Position, u.IsCoach)
		}
		return nil
	},
}

func init() {
	userAddCmd.Flags().String("username", "", "Username (required)")
	userAddCmd.Flags().String("email", "", "Email address")
	userAddCmd.Flags().String("position", "", "Playing position: striker, midfielder, defender or goalkeeper")
	userAddCmd.Flags().Bool("coach", false, "Grant the coach role")
	userListCmd.Flags().Bool("coaches", false, "Only list coaches")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
}
