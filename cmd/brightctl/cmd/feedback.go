package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/client"
	"github.com/good-yellow-bee/brightminds/internal/models"
)

var (
	fbType         string
	fbRating       int
	fbEmail        string
	fbAllowContact bool
	fbPage         int
	fbLimit        int
	fbStatus       string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Send feedback and review your submissions",
	Long: `Commands for product feedback.

Types: general, bug, feature, improvement, question.

Examples:
  brightctl feedback submit "The analysis page is great" --type general --rating 5
  brightctl feedback mine`,
}

var feedbackSubmitCmd = &cobra.Command{
	Use:   "submit <message>",
	Short: "Submit feedback (10 to 5000 characters)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedInClient()
		if err != nil {
			return err
		}

		in := client.FeedbackInput{
			Type:         fbType,
			Message:      strings.Join(args, " "),
			Email:        fbEmail,
			AllowContact: fbAllowContact,
		}
		if cmd.Flags().Changed("rating") {
			in.Rating = &fbRating
		}

		fb, err := c.SubmitFeedback(cmd.Context(), in)
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(fb)
		}
		fmt.Printf("Feedback submitted (%s). Thank you!\n", fb.ID.Hex())
		return nil
	},
}

var feedbackMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedInClient()
		if err != nil {
			return err
		}
		page, err := c.MyFeedback(cmd.Context(), client.ListQuery{Page: fbPage, Limit: fbLimit, Type: fbType})
		if err != nil {
			return err
		}
		return printFeedback(page)
	},
}

func printFeedback(page *client.Page[models.Feedback]) error {
	if isJSON() {
		return printJSON(page)
	}
	if len(page.Items) == 0 {
		fmt.Println("No feedback found.")
		return nil
	}

	fmt.Printf("\n%-24s  %-11s  %-6s  %-11s  %-16s  %s\n",
		"ID", "TYPE", "RATING", "STATUS", "CREATED", "MESSAGE")
	fmt.Println(strings.Repeat("-", 110))
	for _, fb := range page.Items {
		rating := "-"
		if fb.Rating != nil {
			rating = fmt.Sprint(*fb.Rating)
		}
		fmt.Printf("%-24s  %-11s  %-6s  %-11s  %-16s  %s\n",
			fb.ID.Hex(),
			fb.Type,
			rating,
			fb.Status,
			fb.CreatedAt.Format("2006-01-02 15:04"),
			truncate(strings.ReplaceAll(fb.Message, "\n", " "), 40),
		)
	}
	printPagination(page.Pagination)
	return nil
}

func printPagination(p response.Pagination) {
	fmt.Printf("\nPage %d of %d (%d total, %d per page)\n",
		p.CurrentPage, p.TotalPages, p.TotalItems, p.ItemsPerPage)
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	feedbackCmd.AddCommand(feedbackSubmitCmd, feedbackMineCmd)

	feedbackSubmitCmd.Flags().StringVar(&fbType, "type", "general", "feedback type")
	feedbackSubmitCmd.Flags().IntVar(&fbRating, "rating", 0, "rating from 1 to 5")
	feedbackSubmitCmd.Flags().StringVar(&fbEmail, "email", "", "contact email")
	feedbackSubmitCmd.Flags().BoolVar(&fbAllowContact, "allow-contact", false, "allow the team to contact you")

	feedbackMineCmd.Flags().StringVar(&fbType, "type", "", "only this type")
	feedbackMineCmd.Flags().IntVar(&fbPage, "page", 1, "page number")
	feedbackMineCmd.Flags().IntVar(&fbLimit, "limit", 10, "items per page (max 100)")
}
