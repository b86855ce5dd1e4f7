package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmattila/loom/internal/config"
	"github.com/pmattila/loom/internal/session"
)

// boardsCmd renders the board index document.
var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "Fetch all boards into the board index file",
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

		count, err := sess.SyncBoards()
		if err != nil {
			return err
		}

		fmt.Printf("Rendered %d boards to %s\n", count, config.BoardIndexFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardsCmd)
}
