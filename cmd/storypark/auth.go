package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"storypark/pkg/auth"
	"storypark/pkg/config"
	"storypark/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored Storypark session",
	Long: `Manage the Storypark session credential.

The session is stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation

STORYPARK_SESSION_ID always takes precedence over a stored session.
Never share your session value or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a Storypark session securely",
	Long: `Store the _session_id cookie of a signed-in browser session.

The value is read without echo and saved in the system keychain, or in an
encrypted file when no keychain is available.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where a session is available",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	auth.ShowSessionGuide(ui.Output())
	fmt.Fprint(ui.Output(), "\n_session_id cookie value: ")

	session, err := readSecret(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if session == "" {
		return errors.New("session value is required")
	}

	storeName, err := manager.Store(session)
	if err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Session %s stored in %s", auth.Mask(session), storeName))
	if os.Getenv(config.SessionEnvVar) != "" {
		ui.PrintWarning(config.SessionEnvVar + " is set and will be used instead of the stored session")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintInfo("No stored session", "nothing to remove")
			return nil
		}
		return err
	}
	ui.PrintSuccess("Stored session removed")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	ui.PrintHighlight("Session sources")
	env := auth.NewEnvironmentStore()
	printStoreStatus(env.Name(), env.Exists())
	for _, s := range manager.Status() {
		printStoreStatus(s.Name, s.Stored)
	}
	return nil
}

func printStoreStatus(name string, stored bool) {
	state := ui.Dim("empty")
	if stored {
		state = ui.Green("session available")
	}
	ui.PrintInfo(name, state)
}

// readSecret reads a line from r without echo when r is a terminal
func readSecret(r *os.File) (string, error) {
	if term.IsTerminal(int(r.Fd())) {
		secret, err := term.ReadPassword(int(r.Fd()))
		fmt.Fprintln(ui.Output())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
