package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmattila/loom/internal/config"
	"github.com/pmattila/loom/internal/session"
)

// worklogsCmd reconciles one issue's local timer block against its
// remote work-log records.
var worklogsCmd = &cobra.Command{
	Use:   "worklogs KEY",
	Short: "Reconcile an issue's timer block with its remote worklogs",
	Long: `Reconcile the local timer block of one issue section against the
remote work-log records:

- linked intervals whose duration or start time changed locally are
  updated remotely
- unchanged intervals are skipped without a network call
- provisional intervals (no remote id yet) are created remotely
- afterwards the timer block is regenerated from the remote record
  set, sorted by start time descending

The issue section must already exist locally (run 'loom sync' first).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		sess, err := session.Open(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		res, err := sess.ReconcileWorklogs(key)
		if err != nil {
			return fmt.Errorf("failed to reconcile worklogs for %s: %w", key, err)
		}

		fmt.Printf("Worklogs for %s: %d created, %d updated, %d unchanged, %d failed\n",
			key, res.Created, res.Updated, res.Skipped, res.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(worklogsCmd)
}
