package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmattila/loom/internal/config"
	"github.com/pmattila/loom/internal/session"
)

// issueCmd groups single-issue operations.
var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Operate on a single issue",
}

// refreshCmd re-fetches one issue and re-renders its section in place.
var refreshCmd = &cobra.Command{
	Use:   "refresh KEY",
	Short: "Re-fetch one issue and re-render its section",
	Long: `Fetch the current remote state of one issue and rewrite its local
section in place, including the comment and worklog sub-passes. The
section is located by identity; siblings are never touched.`,
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

		if err := sess.RefreshIssue(key); err != nil {
			return fmt.Errorf("failed to refresh %s: %w", key, err)
		}

		fmt.Printf("Refreshed %s\n", key)
		return nil
	},
}

// createCmd creates an issue remotely and renders its section.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new issue and render it locally",
	Long: `Create an issue on the remote service and render its section into the
project's outline file.

Example:
  loom issue create --project EX --type Bug --summary 'Flux capacitor leaks'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := cmd.Flags().GetString("project")
		if err != nil {
			return err
		}
		issueType, err := cmd.Flags().GetString("type")
		if err != nil {
			return err
		}
		summary, err := cmd.Flags().GetString("summary")
		if err != nil {
			return err
		}
		description, err := cmd.Flags().GetString("description")
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

		issue, err := sess.CreateIssue(project, issueType, summary, description)
		if err != nil {
			return fmt.Errorf("failed to create issue: %w", err)
		}

		fmt.Printf("Created %s\n", issue.Key)
		return nil
	},
}

// updateCmd pushes a summary/description change upstream.
var updateCmd = &cobra.Command{
	Use:   "update KEY",
	Short: "Update an issue's summary or description remotely",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		summary, err := cmd.Flags().GetString("summary")
		if err != nil {
			return err
		}
		description, err := cmd.Flags().GetString("description")
		if err != nil {
			return err
		}
		if summary == "" && description == "" {
			return fmt.Errorf("nothing to update: pass --summary or --description")
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

		if err := sess.UpdateIssue(key, summary, description); err != nil {
			return fmt.Errorf("failed to update %s: %w", key, err)
		}

		fmt.Printf("Updated %s\n", key)
		return nil
	},
}

// commentCmd posts or edits a comment beneath an issue.
var commentCmd = &cobra.Command{
	Use:   "comment KEY BODY",
	Short: "Post a comment beneath an issue (or edit one with --edit)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, body := args[0], args[1]
		editID, err := cmd.Flags().GetString("edit")
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

		if editID != "" {
			if _, err := sess.EditComment(key, editID, body); err != nil {
				return fmt.Errorf("failed to edit comment %s on %s: %w", editID, key, err)
			}
			fmt.Printf("Edited comment %s on %s\n", editID, key)
			return nil
		}

		comment, err := sess.AddComment(key, body)
		if err != nil {
			return fmt.Errorf("failed to comment on %s: %w", key, err)
		}

		fmt.Printf("Commented on %s (comment %s)\n", key, comment.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(issueCmd)
	issueCmd.AddCommand(refreshCmd)
	issueCmd.AddCommand(createCmd)
	issueCmd.AddCommand(updateCmd)
	issueCmd.AddCommand(commentCmd)

	createCmd.Flags().StringP("project", "p", "", "Project key to create the issue in")
	createCmd.Flags().StringP("type", "t", "Task", "Issue type name")
	createCmd.Flags().StringP("summary", "s", "", "One-line summary")
	createCmd.Flags().StringP("description", "d", "", "Full description text")
	createCmd.MarkFlagRequired("project")
	createCmd.MarkFlagRequired("summary")

	updateCmd.Flags().StringP("summary", "s", "", "New one-line summary")
	updateCmd.Flags().StringP("description", "d", "", "New description text")

	commentCmd.Flags().String("edit", "", "Edit the comment with this id instead of posting")
}
