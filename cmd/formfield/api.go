package main

import (
	"github.com/spf13/cobra"

	"github.com/formfieldlabs/formfield/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running formfield server via HTTP.

These commands require a running server (formfield serve).
Use --server to specify a custom server URL.

Examples:
  formfield api health                  # Check server health
  formfield api analyze form.pdf        # Submit a form for analysis
  formfield api status <fingerprint>    # Check job state
  formfield api result <fingerprint>    # Fetch the settled result`,
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8585", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))

	// Analysis job commands
	apiCmd.AddCommand((&endpoints.AnalyzeEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.JobStatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.GetResultEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ClearResultEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ClearAllEndpoint{}).Command(getServerURL))

	// Field overlay commands
	apiCmd.AddCommand((&endpoints.ListFieldsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.DetectFieldsEndpoint{}).Command(getServerURL))

	rootCmd.AddCommand(apiCmd)
}
