package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftling/craftling/internals/accounts"
	"github.com/craftling/craftling/internals/utils"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func init() {
	loginCmd.AddCommand(loginMicrosoftCmd)
	loginCmd.AddCommand(loginServerCmd)
	loginCmd.AddCommand(loginPasswordCmd)

	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"signin"},
	Short:   "Add a player by signing in to an account",
}

var loginMicrosoftCmd = &cobra.Command{
	Use:     "microsoft",
	Aliases: []string{"msa"},
	Short:   "Sign in with a Microsoft account",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runDeviceLogin(accounts.Microsoft, "")
	},
}

var loginServerCmd = &cobra.Command{
	Use:   "server <auth-server-url>",
	Short: "Sign in to a third party server with its oauth device flow",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runDeviceLogin(accounts.ThirdParty, args[0])
	},
}

var loginPasswordCmd = &cobra.Command{
	Use:   "password <auth-server-url>",
	Short: "Sign in to a registered third party server with username and password",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		username, err := promptLine("Username (email)")
		if err != nil {
			fail(err)
		}
		password, err := promptSecret("Password")
		if err != nil {
			fail(err)
		}

		fmt.Println("Your password is sent to the chosen server directly and NOT saved anywhere.")
		candidates, err := service.AddPasswordPlayer(ctx, args[0], username, password)
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

// runDeviceLogin runs the shared device-code dance: request the code,
// point the user at the verification page and poll until they finish.
func runDeviceLogin(serverType accounts.PlayerType, authServerURL string) {
	ctx := context.Background()

	prompt, err := service.BeginOAuth(ctx, serverType, authServerURL)
	if err != nil {
		fail(err)
	}

	fmt.Printf("Open %s and enter the code %s\n", prompt.VerificationURI, prompt.UserCode)
	fmt.Println("A browser window should open. Waiting for you to finish there …")
	utils.OpenBrowser(prompt.VerificationURI)

	player, err := service.CompleteOAuth(ctx, prompt.Handle)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Signed in as %s\n", player.Name)
	finishLogin()
}

// finishLogin drains pending skin downloads and reports the selection
func finishLogin() {
	if group := service.TextureDownloads(); group != nil && group.Len() != 0 {
		if err := group.Start(context.Background()); err != nil {
			fmt.Println("Could not cache the skin:", err)
		}
	}
	fmt.Println("Login successful. Selected player:", service.SelectedPlayerID())
}

func pickCandidate(candidates []accounts.Player) (*accounts.Player, error) {
	labels := make([]string, len(candidates))
	for i, c := range candidates {
		labels[i] = fmt.Sprintf("%s (%s)", c.Name, c.UUID)
	}
	sel := promptui.Select{
		Label: "This account owns several profiles, pick one",
		Items: labels,
	}
	i, _, err := sel.Run()
	if err != nil {
		return nil, err
	}
	return &candidates[i], nil
}

func promptLine(label string) (string, error) {
	p := promptui.Prompt{Label: label, Validate: notEmpty}
	return p.Run()
}

func promptSecret(label string) (string, error) {
	p := promptui.Prompt{Label: label, Validate: notEmpty, Mask: '■'}
	return p.Run()
}

func notEmpty(input string) error {
	if len(input) == 0 {
		return errors.New("you have to enter something …")
	}
	return nil
}
