package main

import (
	"github.com/spf13/cobra"

	"github.com/formfieldlabs/formfield/internal/api"
	"github.com/formfieldlabs/formfield/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "formfield",
	Short: "Form field detection and analysis service for document overlays",
	Long: `Formfield runs a persistent analysis pipeline for filled-in legal forms.

Documents are submitted once; analysis jobs keep running even if the
submitting client goes away, and settled results are cached in memory
and on disk. Detected fields are reconciled onto rendered page
coordinates so an overlay UI can draw and edit them.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.formfield/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "formfield home directory (default: ~/.formfield)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
