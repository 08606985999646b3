// Package cli implements the secfetch command line tool.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errDenied makes `secfetch check` exit with status 2 after printing a deny.
var errDenied = errors.New("request denied")

var configPath string

var rootCmd = &cobra.Command{
	Use:   "secfetch",
	Short: "Inspect Fetch Metadata CSRF policies",
	Long: "Evaluates requests against an origin policy (Sec-Fetch-Site, Origin, Host)\n" +
		"without running a server. Useful to test a policy file before deploying it.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to policy file (.toml, .yaml or .yml); SECFETCH_* env vars apply on top")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errDenied) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
