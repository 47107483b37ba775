// Package cmd contains the CLI commands for brightctl.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/brightminds/internal/client"
)

var (
	// Used for flags
	apiURL      string
	sessionPath string
	verbose     bool
	output      string
	timeout     time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "brightctl",
	Short: "brightctl - BrightMinds command line client",
	Long: `brightctl talks to a BrightMinds API server on behalf of a signed-in
teacher, parent or administrator.

Examples:
  # Sign in and remember the session
  brightctl auth login --email teacher@example.com

  # Accept the beta terms
  brightctl beta accept

  # List your student projects
  brightctl project list

  # Generate and store an analysis
  brightctl project analyze 665f1c2e8a1b2c3d4e5f6a7b --save`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var gateErr *client.GateError
		if errors.As(err, &gateErr) {
			fmt.Fprintln(os.Stderr, gateHint(gateErr))
		}
	}
	return err
}

func init() {
	defaultURL := "http://localhost:5002"
	if v := os.Getenv("BRIGHTMINDS_API_URL"); v != "" {
		defaultURL = v
	}
	defaultSession, _ := client.DefaultSessionPath()
	if v := os.Getenv("BRIGHTMINDS_SESSION"); v != "" {
		defaultSession = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "BrightMinds API base URL (env BRIGHTMINDS_API_URL)")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", defaultSession, "session file (env BRIGHTMINDS_SESSION)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 90*time.Second, "request timeout")
}

// newClient builds an API client backed by the session file.
func newClient() (*client.Client, error) {
	store, err := client.NewStore(sessionPath)
	if err != nil {
		return nil, err
	}
	return client.New(apiURL, store,
		client.WithTimeout(timeout),
		client.WithNavigator(func(path string) {
			if path == client.LoginPath {
				fmt.Fprintln(os.Stderr, "Session expired or invalid. Run 'brightctl auth login' to sign in again.")
			}
		}),
	)
}

// signedInClient returns a client that already holds a session.
func signedInClient() (*client.Client, error) {
	c, err := newClient()
	if err != nil {
		return nil, err
	}
	if !c.Store().Auth().IsAuthenticated {
		return nil, fmt.Errorf("not signed in, run 'brightctl auth login' first")
	}
	return c, nil
}

// gatedClient returns a signed-in client whose user has passed the beta gate.
func gatedClient(ctx context.Context) (*client.Client, error) {
	c, err := signedInClient()
	if err != nil {
		return nil, err
	}
	if err := c.RequireGate(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func gateHint(err *client.GateError) string {
	switch err.Redirect {
	case client.BetaAgreementPath:
		return "Accept the beta terms first: brightctl beta accept"
	case client.BetaConfirmationPath:
		return "Acknowledge the beta confirmation first: brightctl beta confirm"
	}
	return "Sign in first: brightctl auth login"
}

func isJSON() bool {
	return output == "json"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 2 {
		return s[:n]
	}
	return s[:n-2] + ".."
}
