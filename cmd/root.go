package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/craftling/craftling/internals/accounts"
	"github.com/craftling/craftling/internals/config"
	"github.com/craftling/craftling/internals/credentials"
	"github.com/craftling/craftling/internals/downloadmgr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is a constant of the current craftling version
const Version = "0.1.0"

// default oauth app id for the vendor device flow, overridable via
// config key "microsoft.clientId"
const defaultMicrosoftClientID = "1f0e0b5b-7b39-4c43-b3b8-8a8f2f7c6a10"

var (
	globalDir string
	service   *accounts.Service
	downloads = downloadmgr.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: Version,
	Use:     "craftling",
	Short:   "Craftling at your service.",
	Long:    "Manage your Minecraft accounts with ease",

	Example: `
  craftling players list
  craftling login microsoft
  craftling authserver add https://littleskin.cn/api/yggdrasil`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	globalDir = filepath.Join(home, ".craftling")

	cobra.OnInitialize(initService)

	rootCmd.PersistentFlags().Bool("no-keyring", false, "store credentials in a plain file instead of the system keyring")
	viper.BindPFlag("noKeyring", rootCmd.PersistentFlags().Lookup("no-keyring"))
}

// initService wires the stores and the account service. Called once
// by cobra before any command runs.
func initService() {
	viper.SetEnvPrefix("CRAFTLING")
	viper.AutomaticEnv()

	cfg, err := config.New(filepath.Join(globalDir, "config.yaml"))
	if err != nil {
		fmt.Println("Could not read config:", err)
		os.Exit(1)
	}
	if cfg.Get(config.KeyCacheDir) == "" {
		cfg.Set(config.KeyCacheDir, filepath.Join(globalDir, "cache"))
	}

	credStore := credentials.New(globalDir)
	if viper.GetBool("noKeyring") {
		credStore.NoKeyRingMode = true
	}

	clientID := viper.GetString("microsoft.clientId")
	if clientID == "" {
		clientID = defaultMicrosoftClientID
	}

	service, err = accounts.New(accounts.Options{
		Store:             credStore,
		Config:            cfg,
		HTTP:              &http.Client{Timeout: 30 * time.Second},
		MicrosoftClientID: clientID,
		CampusBaseURL:     viper.GetString("campus.baseUrl"),
		Downloads:         downloads,
	})
	if err != nil {
		fmt.Println("Could not load accounts:", err)
		os.Exit(1)
	}
}

// fail prints the error and exits. The CLI surfaces account errors
// verbatim, the kinds already read well.
func fail(err error) {
	fmt.Println("Error:", err)
	os.Exit(1)
}
