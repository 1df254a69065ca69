package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"storypark/pkg/archiver"
	"storypark/pkg/auth"
	"storypark/pkg/config"
	"storypark/pkg/logger"
	"storypark/pkg/metadata"
	"storypark/pkg/ratelimit"
	"storypark/pkg/retry"
	"storypark/pkg/storage"
	"storypark/pkg/storypark"
	"storypark/pkg/ui"
)

var (
	// Crawl command flags
	concurrent   int
	children     int
	rateLimit    int
	legacyNames  bool
	manifestFile string
	notify       bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl <root_path>",
	Short: "Download every story photo and video into root_path",
	Long: `Download the media attached to every story of every child on the account.

Each story gets a directory named "<date> - <title>" under root_path and its
media are saved as 00.jpg, 01.mp4 and so on, in the order the story lists
them. Files that already exist are skipped, so an interrupted crawl can
simply be started again.

The session is taken from (first match wins):
  - storypark.session_id in the configuration file
  - the STORYPARK_SESSION_ID environment variable
  - a session stored with 'storypark auth login'`,
	Example: `  # Archive into ./storypark
  storypark crawl ./storypark

  # Two children in parallel, five downloads at a time
  storypark crawl ./storypark --children 2 --concurrent 5

  # Keep a JSON-lines record of every saved file
  storypark crawl ./storypark --manifest ./storypark/manifest.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().IntVar(&concurrent, "concurrent", 3, "number of concurrent downloads")
	crawlCmd.Flags().IntVar(&children, "children", 1, "number of children crawled in parallel")
	crawlCmd.Flags().IntVar(&rateLimit, "rate-limit", 120, "requests per minute (0 disables the limit)")
	crawlCmd.Flags().BoolVar(&legacyNames, "legacy-names", false, "keep path separators in story titles, as older archives did")
	crawlCmd.Flags().StringVar(&manifestFile, "manifest", "", "append a JSON line for every saved file to this path")
	crawlCmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when the crawl ends")
}

// crawlFlags collects the flags the user actually set so they override
// file and environment configuration
func crawlFlags(cmd *cobra.Command, rootPath string) map[string]interface{} {
	flags := map[string]interface{}{
		"root-path": strings.TrimSpace(rootPath),
	}
	if cmd.Flags().Changed("concurrent") {
		flags["concurrent-downloads"] = concurrent
	}
	if cmd.Flags().Changed("children") {
		flags["concurrent-children"] = children
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["requests-per-minute"] = rateLimit
	}
	if cmd.Flags().Changed("legacy-names") {
		flags["legacy-names"] = legacyNames
	}
	if cmd.Flags().Changed("manifest") {
		flags["manifest-file"] = manifestFile
	}
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, crawlFlags(cmd, args[0]))
	if err != nil {
		return err
	}
	if cfg.Output.RootPath == "" {
		return errors.New("root_path must not be empty")
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	runID := logger.NewRunID()
	log := logger.GetLogger().WithField("run_id", runID)
	log.WithField("version", version).Info("storypark archiver starting")

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("credential stores unavailable")
		manager = nil
	}

	session, source, err := auth.ResolveSession(cfg.Storypark.SessionID, manager)
	if err != nil {
		log.Error("no session credential found")
		ui.PrintError("No Storypark session found")
		auth.ShowSessionGuide(ui.Output())
		return err
	}
	log.WithField("source", source).Debug("using session")

	ui.PrintInfo("Archive root", cfg.Output.RootPath)
	ui.PrintInfo("Session", auth.Mask(session)+" ("+source+")")

	a, closer, err := newArchiver(cfg, session, runID, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	progress := ui.NewProgressDisplay(strings.EqualFold(cfg.Logging.Level, "debug"))
	a.SetProgress(progress)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := a.Run(ctx)
	progress.Finish()
	ui.PrintSummary(summary)

	if notify {
		n := ui.NewNotifier()
		if runErr != nil {
			n.Notify("Storypark archive failed", fmt.Sprintf("%d saved, %d failed", summary.Saved, summary.Failed+summary.Invalid))
		} else {
			n.Notify("Storypark archive complete", fmt.Sprintf("%d new files", summary.Saved))
		}
	}

	if runErr != nil {
		log.WithError(runErr).Error("crawl finished with failures")
		return fmt.Errorf("crawl finished with failures: %w", runErr)
	}
	return nil
}

// newArchiver wires the API client, storage and optional manifest for one
// crawl. The returned closer flushes the manifest.
func newArchiver(cfg *config.Config, session, runID string, log logger.Logger) (*archiver.Archiver, io.Closer, error) {
	client, err := storypark.NewClient(session, storypark.Options{
		BaseURL:   cfg.Storypark.BaseURL,
		UserAgent: cfg.Storypark.UserAgent,
		Timeout:   cfg.Download.Timeout,
		Limiter:   ratelimit.New(cfg.RateLimit.RequestsPerMinute),
		Retry:     retry.FromSettings(cfg.Retry, log),
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}

	store, err := storage.NewManager(cfg.Output.RootPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to prepare archive root: %w", err)
	}

	var recorder metadata.Recorder = metadata.Discard{}
	if cfg.Output.ManifestFile != "" {
		manifest, err := metadata.OpenManifest(cfg.Output.ManifestFile)
		if err != nil {
			return nil, nil, err
		}
		recorder = manifest
	}

	a := archiver.New(client, store, recorder, archiver.Options{
		Root:                store.Root(),
		LegacyNames:         cfg.Output.LegacyNames,
		ConcurrentDownloads: cfg.Download.ConcurrentDownloads,
		ConcurrentChildren:  cfg.Crawl.ConcurrentChildren,
		RunID:               runID,
	}, log)

	return a, recorder, nil
}
