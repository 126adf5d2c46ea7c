package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aimd54/academy-progression/internal/service/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the challenge catalog",
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert challenges from a YAML seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = a.cfg.Catalog.SeedFile
		}
		if path == "" {
			return fmt.Errorf("--file or catalog.seed_file is required")
		}

		n, err := catalog.Seed(cmd.Context(), a.store.Challenges, path)
		if err != nil {
			return err
		}
		a.log.Info().Str("file", path).Int("challenges", n).Msg("Catalog seeded")
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d challenges from %s\n", n, path)
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog challenges",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		cat, err := catalog.Load(cmd.Context(), a.store.Challenges)
		if err != nil {
			return err
		}

		category, _ := cmd.Flags().GetString("category")
		challenges := cat.All()
		if category != "" {
			challenges = cat.ListByCategory(category)
		}
		if ok, err := printJSON(cmd, challenges); ok || err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-5s  %-32s  %-12s  %5s  %6s  %6s  %s\n",
			"ID", "Title", "Category", "Level", "Prereq", "Weight", "Weekly")
		fmt.Fprintln(out, strings.Repeat("─", 86))
		for _, ch := range challenges {
			prereq := "-"
			if ch.PrerequisiteID != nil {
				prereq = fmt.Sprint(*ch.PrerequisiteID)
			}
			fmt.Fprintf(out, "%-5d  %-32s  %-12s  %5d  %6s  %6d  %t\n",
				ch.ID, truncate(ch.Title, 32), ch.Category, ch.Level, prereq, ch.RewardWeight, ch.IsWeekly)
		}
		fmt.Fprintf(out, "\n%d challenges\n", len(challenges))
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	catalogSeedCmd.Flags().StringP("file", "f", "", "Seed file (defaults to catalog.seed_file)")
	catalogListCmd.Flags().String("category", "", "Filter by category")

	catalogCmd.AddCommand(catalogSeedCmd)
	catalogCmd.AddCommand(catalogListCmd)
}
