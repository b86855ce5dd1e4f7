// Package cmd provides the command-line interface for the Loom CLI
// tool.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Loom synchronizes a remote issue tracker with local outline files",
	Long: `Loom is a CLI tool that synchronizes JIRA issues, comments, and
work-time records with a local directory of plain-text outline files.
Edits to the local timer blocks are pushed upstream; upstream changes
are pulled back down without duplicating sections or destroying
unrelated local content.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
