package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/craftling/craftling/internals/accounts"
	"github.com/craftling/craftling/internals/offline"
	"github.com/craftling/craftling/internals/utils"
	"github.com/spf13/cobra"
)

func init() {
	playersCmd.AddCommand(playersListCmd)
	playersCmd.AddCommand(playersAddOfflineCmd)
	playersCmd.AddCommand(playersSelectCmd)
	playersCmd.AddCommand(playersRemoveCmd)
	playersCmd.AddCommand(playersRefreshCmd)
	playersCmd.AddCommand(playersReloginCmd)
	playersCmd.AddCommand(playersSkinCmd)

	playersReloginCmd.Flags().Bool("password", false, "relogin with username and password instead of the browser flow")

	playersAddOfflineCmd.Flags().String("uuid", "", "use this uuid instead of deriving one from the name")

	rootCmd.AddCommand(playersCmd)
}

var playersCmd = &cobra.Command{
	Use:     "players",
	Aliases: []string{"accounts"},
	Short:   "Manage the player roster",
}

var playersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all players on the roster",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		players := service.Players()
		if len(players) == 0 {
			fmt.Println("No players yet. Try \"craftling login microsoft\" or \"craftling players add-offline <name>\".")
			return
		}
		selected := service.SelectedPlayerID()
		for _, p := range players {
			marker := " "
			if p.ID == selected {
				marker = "*"
			}
			fmt.Printf("%s %-16s %-9s %s\n", marker, p.Name, p.Type, p.UUID)
			fmt.Printf("    id: %s\n", p.ID)
			if p.AuthServerURL != "" {
				fmt.Printf("    server: %s\n", p.AuthServerURL)
			}
		}
	},
}

var playersAddOfflineCmd = &cobra.Command{
	Use:   "add-offline <name>",
	Short: "Add an offline player (no account needed)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rawUUID, _ := cmd.Flags().GetString("uuid")
		player, err := service.AddOfflinePlayer(args[0], rawUUID)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Added offline player %s (%s)\n", player.Name, player.UUID)
	},
}

var playersSelectCmd = &cobra.Command{
	Use:   "select <player-id>",
	Short: "Select the player used for launching",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := service.SelectPlayer(args[0]); err != nil {
			fail(err)
		}
		fmt.Println("Selected", args[0])
	},
}

var playersRemoveCmd = &cobra.Command{
	Use:     "remove <player-id>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a player from the roster",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := service.DeletePlayer(args[0]); err != nil {
			fail(err)
		}
		fmt.Println("Removed", args[0])
	},
}

var playersRefreshCmd = &cobra.Command{
	Use:   "refresh <player-id>",
	Short: "Renew the stored credentials of a player",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := service.RefreshPlayer(context.Background(), args[0]); err != nil {
			fail(err)
		}
		if group := service.TextureDownloads(); group != nil && group.Len() != 0 {
			if err := group.Start(context.Background()); err != nil {
				fmt.Println("Could not cache the skin:", err)
			}
		}
		fmt.Println("Refreshed", args[0])
	},
}

var playersReloginCmd = &cobra.Command{
	Use:   "relogin <player-id>",
	Short: "Renew a player by logging in again",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		playerID := args[0]

		usePassword, _ := cmd.Flags().GetBool("password")
		if usePassword {
			password, err := promptSecret("Password")
			if err != nil {
				fail(err)
			}
			if err := service.ReloginPasswordPlayer(ctx, playerID, password); err != nil {
				fail(err)
			}
			fmt.Println("Relogin successful for", playerID)
			return
		}

		var target *accounts.Player
		for _, p := range service.Players() {
			if p.ID == playerID {
				player := p
				target = &player
				break
			}
		}
		if target == nil {
			fail(fmt.Errorf("no player with id %s", playerID))
		}

		prompt, err := service.BeginOAuth(ctx, target.Type, target.AuthServerURL)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Open %s and enter the code %s\n", prompt.VerificationURI, prompt.UserCode)
		utils.OpenBrowser(prompt.VerificationURI)

		if err := service.ReloginOAuth(ctx, playerID, prompt.Handle); err != nil {
			fail(err)
		}
		fmt.Println("Relogin successful for", playerID)
	},
}

var playersSkinCmd = &cobra.Command{
	Use:   "skin <player-id> <preset>",
	Short: "Set the skin preset of an offline player",
	Long: "Set the skin preset of an offline player.\n\nAvailable presets: " +
		strings.Join(offline.PresetRoles(), ", "),
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := service.UpdateOfflineSkinPreset(args[0], args[1]); err != nil {
			fail(err)
		}
		fmt.Printf("Skin of %s is now %q\n", args[0], args[1])
	},
}
