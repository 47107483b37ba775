package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/brightminds/internal/client"
	"github.com/good-yellow-bee/brightminds/internal/models"
)

var adminRole string

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Superadmin listings",
	Long: `Commands that require a superadmin account.

Create the first superadmin with 'brightctl user create' on the server host.

Examples:
  brightctl admin users --role teacher
  brightctl admin feedback --status pending
  brightctl admin feedback-status <id> resolved`,
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedInClient()
		if err != nil {
			return err
		}
		page, err := c.ListUsers(cmd.Context(), client.ListQuery{Page: fbPage, Limit: fbLimit, Role: adminRole})
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(page)
		}
		if len(page.Items) == 0 {
			fmt.Println("No users found.")
			return nil
		}

		fmt.Printf("\n%-24s  %-24s  %-30s  %-10s  %-12s  %s\n",
			"ID", "NAME", "EMAIL", "ROLE", "BETA", "CREATED")
		fmt.Println(strings.Repeat("-", 115))
		for _, u := range page.Items {
			fmt.Printf("%-24s  %-24s  %-30s  %-10s  %-12s  %s\n",
				u.ID.Hex(),
				truncate(u.Name, 24),
				truncate(u.Email, 30),
				u.Role,
				u.BetaProgram.Gate(),
				u.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		printPagination(page.Pagination)
		return nil
	},
}

var adminFeedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "List all feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedInClient()
		if err != nil {
			return err
		}
		page, err := c.ListFeedback(cmd.Context(), client.ListQuery{Page: fbPage, Limit: fbLimit, Type: fbType, Status: fbStatus})
		if err != nil {
			return err
		}
		return printFeedback(page)
	},
}

var adminFeedbackStatusCmd = &cobra.Command{
	Use:   "feedback-status <id> <status>",
	Short: "Set the triage status of a feedback entry",
	Long: `Set the triage status of a feedback entry.

Statuses: pending, reviewed, in-progress, resolved, closed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !models.ValidFeedbackStatus(args[1]) {
			return fmt.Errorf("invalid status %q", args[1])
		}
		c, err := signedInClient()
		if err != nil {
			return err
		}
		fb, err := c.UpdateFeedbackStatus(cmd.Context(), args[0], models.FeedbackStatus(args[1]))
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(fb)
		}
		fmt.Printf("Feedback %s is now %s.\n", fb.ID.Hex(), fb.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminUsersCmd, adminFeedbackCmd, adminFeedbackStatusCmd)

	for _, c := range []*cobra.Command{adminUsersCmd, adminFeedbackCmd} {
		c.Flags().IntVar(&fbPage, "page", 1, "page number")
		c.Flags().IntVar(&fbLimit, "limit", 10, "items per page (max 100)")
	}
	adminUsersCmd.Flags().StringVar(&adminRole, "role", "", "only this role (teacher, parent, superadmin)")
	adminFeedbackCmd.Flags().StringVar(&fbType, "type", "", "only this type")
	adminFeedbackCmd.Flags().StringVar(&fbStatus, "status", "", "only this status")
}
