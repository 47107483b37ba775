package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/brightminds/internal/client"
	"github.com/good-yellow-bee/brightminds/internal/models"
)

var betaCmd = &cobra.Command{
	Use:   "beta",
	Short: "Respond to the beta program terms",
	Long: `Commands for the beta program.

Records can only be used after the terms are accepted and the confirmation
has been acknowledged. Declining can be reversed by accepting later.

Examples:
  brightctl beta status
  brightctl beta accept
  brightctl beta confirm`,
}

func betaAction(use, short string, run func(*client.Client, context.Context) (*models.BetaProgram, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := signedInClient()
			if err != nil {
				return err
			}
			b, err := run(c, cmd.Context())
			if err != nil {
				return err
			}
			return printBeta(b)
		},
	}
}

func printBeta(b *models.BetaProgram) error {
	if isJSON() {
		return printJSON(b)
	}

	fmt.Printf("  Accepted:          %s\n", when(b.HasAccepted, b.AcceptedAt))
	fmt.Printf("  Declined:          %s\n", when(b.HasDeclined, b.DeclinedAt))
	fmt.Printf("  Confirmation seen: %s\n", when(b.HasSeenConfirmation, b.ConfirmationSeenAt))

	switch b.Gate() {
	case models.GateAgreement:
		fmt.Println("\nRun 'brightctl beta accept' to start using BrightMinds.")
	case models.GateConfirmation:
		fmt.Println("\nRun 'brightctl beta confirm' to finish onboarding.")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(betaCmd)
	betaCmd.AddCommand(
		betaAction("status", "Show your beta program responses", (*client.Client).BetaStatus),
		betaAction("accept", "Accept the beta terms", (*client.Client).AcceptBeta),
		betaAction("decline", "Decline the beta terms", (*client.Client).DeclineBeta),
		betaAction("confirm", "Acknowledge the beta confirmation", (*client.Client).ConfirmBetaSeen),
	)
}

func when(ok bool, at *time.Time) string {
	switch {
	case !ok:
		return "no"
	case at == nil:
		return "yes"
	}
	return "yes (" + at.Local().Format("2006-01-02 15:04") + ")"
}
