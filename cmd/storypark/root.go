package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"storypark/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "storypark",
	Short: "Archive photos and videos from a Storypark account",
	Long: `storypark mirrors the photos and videos attached to every story of
every child on a Storypark account into a local directory tree:

  <root>/<date> - <title>/<NN>.<ext>

Files already present are never downloaded again, so a crawl can be
repeated at any time to pick up new stories.

Authentication uses the _session_id cookie of a signed-in browser session,
taken from STORYPARK_SESSION_ID or stored with 'storypark auth login'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}

		if cmd.Name() != "help" && cmd.Name() != "version" {
			ui.PrintBanner(version)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .storypark.yaml or $HOME/.config/storypark/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and failed summaries")

	rootCmd.SetVersionTemplate(`storypark {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
