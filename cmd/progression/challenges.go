package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aimd54/academy-progression/internal/service/progression"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the challenge statuses of a new user",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := requireUint(cmd, "user")
		if err != nil {
			return err
		}
		return withEngine(cmd, func(ctx context.Context, a *app, e *progression.Engine) error {
			n, err := e.InitializeChallengeStatuses(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %d challenge statuses for user %d\n", n, userID)
			return nil
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete a challenge for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := requireUint(cmd, "user")
		if err != nil {
			return err
		}
		challengeID, err := requireUint(cmd, "challenge")
		if err != nil {
			return err
		}
		return withEngine(cmd, func(ctx context.Context, a *app, e *progression.Engine) error {
			view, err := e.CompleteChallenge(ctx, userID, challengeID)
			if err != nil {
				return err
			}
			if ok, err := printJSON(cmd, view); ok || err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Challenge %d %s for user %d\n", view.ChallengeID, view.State, view.UserID)
			if len(view.Unlocked) > 0 {
				fmt.Fprintf(out, "Unlocked: %v\n", view.Unlocked)
			}
			if view.Badge != nil {
				fmt.Fprintf(out, "Badge: %s\n", view.Badge.Name)
			}
			printVector(cmd, view.Vector)
			return nil
		})
	},
}

var challengesCmd = &cobra.Command{
	Use:   "challenges",
	Short: "List catalog challenges with a user's status",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := requireUint(cmd, "user")
		if err != nil {
			return err
		}
		return withEngine(cmd, func(ctx context.Context, a *app, e *progression.Engine) error {
			views, err := e.GetChallengesWithStatus(ctx, userID)
			if err != nil {
				return err
			}
			if ok, err := printJSON(cmd, views); ok || err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-5s  %-32s  %-12s  %5s  %-10s\n", "ID", "Title", "Category", "Level", "State")
			fmt.Fprintln(out, strings.Repeat("─", 72))
			for _, v := range views {
				fmt.Fprintf(out, "%-5d  %-32s  %-12s  %5d  %-10s\n",
					v.ID, truncate(v.Title, 32), v.Category, v.Level, v.State)
			}
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a user's challenge statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := requireUint(cmd, "user")
		if err != nil {
			return err
		}
		return withEngine(cmd, func(ctx context.Context, a *app, e *progression.Engine) error {
			stats, err := e.GetChallengeStatistics(ctx, userID)
			if err != nil {
				return err
			}
			if ok, err := printJSON(cmd, stats); ok || err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Completed %d of %d challenges (activity level %.2f)\n",
				stats.Completed, stats.TotalChallenges, stats.ActivityLevel)

			categories := make([]string, 0, len(stats.CompletedByCategory))
			for c := range stats.CompletedByCategory {
				categories = append(categories, c)
			}
			sort.Strings(categories)
			for _, c := range categories {
				fmt.Fprintf(out, "  %-14s  %3d completed  %3d badges\n", c, stats.CompletedByCategory[c], stats.BadgesByCategory[c])
			}
			return nil
		})
	},
}

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "List a user's badges",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := requireUint(cmd, "user")
		if err != nil {
			return err
		}
		return withEngine(cmd, func(ctx context.Context, a *app, e *progression.Engine) error {
			badges, err := e.GetUserBadges(ctx, userID)
			if err != nil {
				return err
			}
			if ok, err := printJSON(cmd, badges); ok || err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, b := range badges {
				fmt.Fprintf(out, "%s  %-40s  %s\n", b.EarnedAt.Format("2006-01-02"), b.Name, b.Category)
			}
			fmt.Fprintf(out, "\n%d badges\n", len(badges))
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{initCmd, completeCmd, challengesCmd, statsCmd, badgesCmd} {
		c.Flags().Uint("user", 0, "User ID (required)")
	}
	completeCmd.Flags().Uint("challenge", 0, "Challenge ID (required)")
}
