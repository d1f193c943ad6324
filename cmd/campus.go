package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	campusCmd.AddCommand(campusLoginCmd)

	rootCmd.AddCommand(campusCmd)
}

var campusCmd = &cobra.Command{
	Use:   "campus",
	Short: "Sign in through the campus account portal",
	Long: `Sign in through the campus account portal.

Requires the portal base url in the config, for example:

  campus:
    baseUrl: https://mc.example.edu`,
}

var campusLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Add a player with your campus credentials",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		studentNumber, err := promptLine("Student number")
		if err != nil {
			fail(err)
		}
		password, err := promptSecret("Portal password")
		if err != nil {
			fail(err)
		}

		requiresBind, err := service.CampusLogin(ctx, studentNumber, password)
		if err != nil {
			service.CampusCancel()
			fail(err)
		}

		if requiresBind {
			fmt.Println("This campus account has no player name yet.")
			playerName, err := promptLine("Player name to bind")
			if err != nil {
				service.CampusCancel()
				fail(err)
			}
			if err := service.CampusBindPlayerName(ctx, playerName); err != nil {
				service.CampusCancel()
				fail(err)
			}
		}

		candidates, err := service.CampusAuthenticate(ctx, password)
		if err != nil {
			fail(err)
		}
		if len(candidates) != 0 {
			picked, err := pickCandidate(candidates)
			if err != nil {
				fail(err)
			}
			if err := service.AddFromSelection(ctx, *picked); err != nil {
				fail(err)
			}
		}
		finishLogin()
	},
}
