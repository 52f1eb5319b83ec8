// Package cli wires the cobra command tree for the github-compliance binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "github-compliance",
	Short: "Audit and remediate GitHub repository settings against a policy",
	Long: `github-compliance audits the repositories of a GitHub organization against a
YAML policy document and, unless run with --dry-run, remediates the drift it finds.

Examples:
	# Show available commands and global flags
	github-compliance --help

	# Preview what would change, without touching anything
	github-compliance run --config compliance.yaml --dry-run

	# Audit and remediate
	github-compliance run --config compliance.yaml

	# Print build info
	github-compliance version`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging (prints every GitHub API call)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
