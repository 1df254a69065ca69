package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"storypark/pkg/auth"
	"storypark/pkg/config"
	"storypark/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage storypark configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (STORYPARK_*)
  - .env and $HOME/.storypark.env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.storypark.yaml' in the current directory unless a
different path is given with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. The session value is
masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value ranges
  - Whether the archive root and log file directory can be created
  - Whether a session is available`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# storypark configuration file
#
# Every option can also be set with an environment variable, for example
# STORYPARK_SESSION_ID, STORYPARK_ROOT_PATH or STORYPARK_LOG_LEVEL.

storypark:
  # _session_id cookie of a signed-in browser session.
  # Prefer 'storypark auth login' or STORYPARK_SESSION_ID over storing it here.
  session_id: ""
  base_url: "https://app.storypark.com/api/v3"
  user_agent: ""

output:
  # Archive root, normally given as the crawl argument
  root_path: ""
  # Keep "/" and "\" in story titles, as archives made before title cleaning did
  legacy_names: false
  # Append a JSON line per saved file to this path (empty disables)
  manifest_file: ""

download:
  # Range: 1-16
  concurrent_downloads: 3
  timeout: 60s

crawl:
  # Children crawled in parallel
  concurrent_children: 1

rate_limit:
  # Requests per minute across API and media requests. 0 disables the limit.
  requests_per_minute: 120

retry:
  enabled: true
  max_attempts: 3
  base_delay: 1s
  max_delay: 30s

logging:
  # debug, info, warn, error or disabled
  level: "info"
  # Log file path. Empty logs to the console.
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".storypark.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	ui.PrintInfo("Next", "storypark config validate")
	return nil
}

// maskedConfig returns a copy of cfg that is safe to print
func maskedConfig(cfg *config.Config) config.Config {
	display := *cfg
	if display.Storypark.SessionID != "" {
		display.Storypark.SessionID = auth.Mask(display.Storypark.SessionID)
	}
	return display
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	display := maskedConfig(cfg)
	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current configuration")
	fmt.Fprintln(ui.Output())
	fmt.Fprint(ui.Output(), string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none, defaults and environment only)"
	}
	fmt.Fprintln(ui.Output())
	ui.PrintInfo("Configuration file", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	problems := checkPaths(cfg)
	if len(problems) > 0 {
		for _, p := range problems {
			ui.PrintError(p)
		}
		return fmt.Errorf("configuration has %d problem(s)", len(problems))
	}

	var manager *auth.Manager
	if m, err := auth.NewManager(); err == nil {
		manager = m
	}
	if _, source, err := auth.ResolveSession(cfg.Storypark.SessionID, manager); err != nil {
		ui.PrintWarning("No session available; run 'storypark auth login' or set " + config.SessionEnvVar)
	} else {
		ui.PrintInfo("Session source", source)
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Concurrent downloads", fmt.Sprint(cfg.Download.ConcurrentDownloads))
	ui.PrintInfo("Concurrent children", fmt.Sprint(cfg.Crawl.ConcurrentChildren))
	ui.PrintInfo("Rate limit", fmt.Sprintf("%d requests/minute", cfg.RateLimit.RequestsPerMinute))
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}

// checkPaths reports directories the configuration needs but cannot create
func checkPaths(cfg *config.Config) []string {
	var problems []string
	if cfg.Output.RootPath != "" {
		if err := os.MkdirAll(cfg.Output.RootPath, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create archive root: %v", err))
		}
	}
	for _, f := range []string{cfg.Output.ManifestFile, cfg.Logging.File} {
		if f == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(f), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create directory for %s: %v", f, err))
		}
	}
	return problems
}
