package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmattila/loom/internal/config"
	"github.com/pmattila/loom/internal/logging"
	"github.com/pmattila/loom/internal/session"
	"github.com/pmattila/loom/pkg/models"
)

// defaultSyncQuery selects the issues synced when no query or board is
// given.
const defaultSyncQuery = "assignee = currentUser() ORDER BY updated DESC"

// syncCmd represents the command to synchronize remote issues into the
// local outline files.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize remote issues into the local outline files",
	Long: `Synchronize remote issues into the working directory.

Each issue is rendered as a section in its project's outline file,
keyed by issue identity: re-running sync updates existing sections in
place instead of duplicating them. Per issue, sub-passes reconcile
comments (filtered and ordered per configuration) and work-time
records (local timer edits are pushed upstream, then the timer block
is regenerated from the remote record set).

The query defaults to the issues assigned to the configured user; pass
--query to sync an arbitrary JQL result set, or --board to sync a
board's issues instead.

Example:
  loom sync --query 'project = EX AND updated >= -7d'
  loom sync --board 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := cmd.Flags().GetString("query")
		if err != nil {
			return err
		}

		boardID, err := cmd.Flags().GetInt("board")
		if err != nil {
			return err
		}

		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		sess, err := session.Open(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		if query == "" && boardID == 0 {
			query = defaultSyncQuery
		}

		logging.Info("starting synchronization",
			"workdir", cfg.Workdir,
			"query", query,
			"board", boardID)

		var res models.SyncResult
		if boardID != 0 {
			res, err = sess.SyncBoard(boardID, limit)
		} else {
			res, err = sess.SyncIssueList(query, limit)
		}
		if err != nil {
			return err
		}

		logging.Info("synchronization complete",
			"created", res.Created,
			"updated", res.Updated,
			"failed", res.Failed)

		fmt.Printf("Synchronized %d issues (%d created, %d updated, %d failed)\n",
			res.Created+res.Updated, res.Created, res.Updated, res.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringP("query", "q", "", "JQL query selecting the issues to sync")
	syncCmd.Flags().IntP("board", "b", 0, "Board id whose issues to sync instead of a query")
	syncCmd.Flags().IntP("limit", "l", 0, "Maximum number of issues to fetch")
}
