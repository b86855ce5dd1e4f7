package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmattila/loom/internal/config"
	"github.com/pmattila/loom/internal/session"
)

// projectsCmd renders the project index document.
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Fetch all projects into the project index file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		sess, err := session.Open(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		count, err := sess.SyncProjects()
		if err != nil {
			return err
		}

		fmt.Printf("Rendered %d projects to %s\n", count, config.ProjectIndexFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}
