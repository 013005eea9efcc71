package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/seoscan/internal/client"
)

type cliOptions struct {
	apiURL      string
	sessionFile string
	noColor     bool
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "seoscan",
		Short:         "Audit websites and read their SEO reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				text.DisableColors()
			}
		},
	}

	_ = godotenv.Load()
	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("SEOSCAN_API_URL", client.DefaultBaseURL), "API base URL")
	root.PersistentFlags().StringVar(&opts.sessionFile, "session-file", defaultSessionFile(), "where the session token is kept")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(
		newSignupCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newProfileCommand(opts),
		newScanCommand(opts),
		newReportCommand(opts),
		newHistoryCommand(opts),
	)
	return root
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".seoscan-session"
	}
	return filepath.Join(dir, "seoscan", "session")
}

// client builds an API client carrying the saved session, if any.
func (o *cliOptions) client() (*client.Client, error) {
	tok, err := o.loadToken()
	if err != nil {
		return nil, err
	}
	return client.New(o.apiURL, tok)
}

func (o *cliOptions) loadToken() (string, error) {
	b, err := os.ReadFile(o.sessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (o *cliOptions) saveToken(tok string) error {
	if tok == "" {
		return errors.New("server did not return a session")
	}
	if err := os.MkdirAll(filepath.Dir(o.sessionFile), 0o700); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return os.WriteFile(o.sessionFile, []byte(tok+"\n"), 0o600)
}

func (o *cliOptions) clearToken() error {
	err := os.Remove(o.sessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
