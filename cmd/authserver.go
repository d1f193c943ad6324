package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	authserverCmd.AddCommand(authserverListCmd)
	authserverCmd.AddCommand(authserverAddCmd)
	authserverCmd.AddCommand(authserverRemoveCmd)

	rootCmd.AddCommand(authserverCmd)
}

var authserverCmd = &cobra.Command{
	Use:     "authserver",
	Aliases: []string{"servers"},
	Short:   "Manage third party identity servers",
}

var authserverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered identity servers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		servers := service.AuthServers()
		if len(servers) == 0 {
			fmt.Println("No identity servers registered.")
			return
		}
		for _, s := range servers {
			fmt.Printf("%-24s %s\n", s.Name, s.AuthURL)
			if s.ClientID != "" {
				fmt.Printf("    oauth client: %s\n", s.ClientID)
			}
		}
	},
}

var authserverAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Register an identity server by its site or api url",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		server, err := service.AddAuthServer(context.Background(), args[0])
		if err != nil {
			fail(err)
		}
		fmt.Printf("Registered %s (%s)\n", server.Name, server.AuthURL)
	},
}

var authserverRemoveCmd = &cobra.Command{
	Use:     "remove <auth-url>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove an identity server and all of its players",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := service.DeleteAuthServer(args[0]); err != nil {
			fail(err)
		}
		fmt.Println("Removed", args[0])
	},
}
