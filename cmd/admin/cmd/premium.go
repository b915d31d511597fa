package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/templui/taskpilot/internal/config"
	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/repository"
	"github.com/templui/taskpilot/internal/service"
)

func PremiumCmd() *cobra.Command {
	premiumCmd := &cobra.Command{
		Use:   "premium",
		Short: "Review manual premium requests",
	}

	premiumCmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List premium requests awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPremiumService(func(premiumService *service.PremiumService) error {
				requests, err := premiumService.Pending()
				if err != nil {
					return err
				}
				printRequests(cmd.OutOrStdout(), requests)
				return nil
			})
		},
	})

	premiumCmd.AddCommand(&cobra.Command{
		Use:   "verify <request-id>",
		Short: "Mark a request as paid and grant premium",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPremiumService(func(premiumService *service.PremiumService) error {
				req, err := premiumService.Verify(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "verified %s, user %s is now premium\n", req.ID, req.UserID)
				return nil
			})
		},
	})

	premiumCmd.AddCommand(&cobra.Command{
		Use:   "reject <request-id>",
		Short: "Reject a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPremiumService(func(premiumService *service.PremiumService) error {
				req, err := premiumService.Reject(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rejected %s\n", req.ID)
				return nil
			})
		},
	})

	return premiumCmd
}

// withPremiumService builds the premium flow without a payment provider.
// Manual review never talks to Stripe or Polar.
func withPremiumService(fn func(premiumService *service.PremiumService) error) error {
	return withDatabase(func(cfg *config.Config, database *sqlx.DB) error {
		emailService := service.NewEmailService(
			cfg.ResendAPIKey,
			cfg.EmailFrom,
			cfg.ClientURL,
			cfg.AppName,
			cfg.IsDevelopment(),
		)
		premiumService := service.NewPremiumService(
			repository.NewUserRepository(database),
			repository.NewPremiumRequestRepository(database),
			emailService,
			nil,
			cfg.PremiumRequireVerifiedPayment,
		)
		return fn(premiumService)
	})
}

func printRequests(w io.Writer, requests []*model.PremiumRequest) {
	if len(requests) == 0 {
		fmt.Fprintln(w, "no pending requests")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tMETHOD\tTRANSACTION\tCREATED")
	for _, req := range requests {
		ref := "-"
		if req.TransactionRef != nil {
			ref = *req.TransactionRef
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", req.ID, req.UserID, req.Method, ref, req.CreatedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}
