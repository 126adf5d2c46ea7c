package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/internal/service/progression"
)

var vectorCmd = &cobra.Command{
	Use:   "vector",
	Short: "Show a user's skill vector",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := requireUint(cmd, "user")
		if err != nil {
			return err
		}
		return withEngine(cmd, func(ctx context.Context, a *app, e *progression.Engine) error {
			vec, err := e.GetPlayerSkillVector(ctx, userID)
			if err != nil {
				return err
			}
			if ok, err := printJSON(cmd, vec); ok || err != nil {
				return err
			}
			printVector(cmd, vec)
			return nil
		})
	},
}

var submitTestCmd = &cobra.Command{
	Use:   "submit-test",
	Short: "Submit physical test results for a player",
	Long: "Submit raw physical test results. Only the tests passed as flags are rated.\n" +
		"Sprint and dribbling are times in seconds; the other tests are counts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		playerID, err := requireUint(cmd, "player")
		if err != nil {
			return err
		}
		position, _ := cmd.Flags().GetString("position")

		raw := models.Measurements{}
		for _, test := range models.TestTypes {
			flag := testFlag(test)
			if !cmd.Flags().Changed(flag) {
				continue
			}
			v, _ := cmd.Flags().GetFloat64(flag)
			raw[test] = v
		}

		return withEngine(cmd, func(ctx context.Context, a *app, e *progression.Engine) error {
			principal, err := resolvePrincipal(cmd, a, playerID)
			if err != nil {
				return err
			}

			sample, err := e.SubmitSkillTest(ctx, playerID, raw, position, principal)
			if err != nil {
				return err
			}
			if ok, err := printJSON(cmd, sample); ok || err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sample %s (%s), test overall %.1f\n", sample.SampleUUID, sample.Position, sample.Overall)
			for _, test := range models.TestTypes {
				if r, ok := sample.Ratings[test]; ok {
					fmt.Fprintf(out, "  %-12s  raw %8.2f  rating %5.1f\n", test, sample.Raw[test], r)
				}
			}
			printVector(cmd, sample.Vector)
			return nil
		})
	},
}

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "List a player's skill test history",
	RunE: func(cmd *cobra.Command, args []string) error {
		playerID, err := requireUint(cmd, "player")
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		latest, _ := cmd.Flags().GetBool("latest")

		return withEngine(cmd, func(ctx context.Context, a *app, e *progression.Engine) error {
			principal, err := resolvePrincipal(cmd, a, playerID)
			if err != nil {
				return err
			}

			var samples []progression.SkillTestSampleView
			if latest {
				sample, err := e.LatestSkillTest(ctx, principal, playerID)
				if err != nil {
					return err
				}
				samples = append(samples, *sample)
			} else {
				samples, err = e.ListSkillTests(ctx, principal, playerID, limit)
				if err != nil {
					return err
				}
			}
			if ok, err := printJSON(cmd, samples); ok || err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-16s  %-36s  %-10s  %7s  %8s\n", "Taken", "Sample", "Position", "Overall", "Activity")
			fmt.Fprintln(out, strings.Repeat("─", 86))
			for _, s := range samples {
				fmt.Fprintf(out, "%-16s  %-36s  %-10s  %7.1f  %8.2f\n",
					s.TakenAt.Format("2006-01-02 15:04"), s.SampleUUID, s.Position, s.Overall, s.ActivityLevel)
			}
			return nil
		})
	},
}

// resolvePrincipal returns the --as principal, or the player acting for themselves.
func resolvePrincipal(cmd *cobra.Command, a *app, playerID uint) (models.Principal, error) {
	ctx := cmd.Context()
	if as, _ := cmd.Flags().GetString("as"); as != "" {
		return a.identity().ByUsername(ctx, as)
	}
	p, err := a.identity().ByID(ctx, playerID)
	if errors.Is(err, models.ErrUserNotFound) {
		return models.Principal{UserID: playerID}, nil
	}
	return p, err
}

func printVector(cmd *cobra.Command, vec *progression.PlayerSkillVectorView) {
	if vec == nil {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"PAC %5.1f  SHO %5.1f  PAS %5.1f  DRI %5.1f  JUG %5.1f  FIR %5.1f  OVR %5.1f  (v%d)\n",
		vec.Pace, vec.Shooting, vec.Passing, vec.Dribbling, vec.Juggles, vec.FirstTouch, vec.Overall, vec.Version)
}

func testFlag(test models.TestType) string {
	return strings.ReplaceAll(string(test), "_", "-")
}

func init() {
	vectorCmd.Flags().Uint("user", 0, "User ID (required)")

	submitTestCmd.Flags().Uint("player", 0, "Player user ID (required)")
	submitTestCmd.Flags().String("position", "", "Position override (defaults to the player profile)")
	submitTestCmd.Flags().String("as", "", "Username of the submitting user (defaults to the player)")
	for _, test := range models.TestTypes {
		submitTestCmd.Flags().Float64(testFlag(test), 0, fmt.Sprintf("Raw %s result", strings.ReplaceAll(string(test), "_", " ")))
	}

	testsCmd.Flags().Uint("player", 0, "Player user ID (required)")
	testsCmd.Flags().String("as", "", "Username of the reading user (defaults to the player)")
	testsCmd.Flags().IntP("limit", "n", 20, "Number of samples to show")
	testsCmd.Flags().Bool("latest", false, "Only show the most recent sample")
}
