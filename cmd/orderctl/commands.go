package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"storefront/internal/app"
	"storefront/internal/domain"

	"github.com/spf13/cobra"
)

func expireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Fail pending orders older than ORDER_PENDING_TTL_MINUTES and release their stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Orders.ExpirePending(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "expired %d pending orders\n", n)
				return nil
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [order-id] [status]",
		Short: "Advance a paid order's fulfilment status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				order, err := a.Orders.UpdateStatus(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "order %s is now %q\n", order.ID, order.OrderStatus)
				return nil
			})
		},
	}
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			customer, _ := cmd.Flags().GetString("customer")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var (
					orders []domain.Order
					err    error
				)
				if customer != "" {
					orders, err = a.Orders.ListForCustomer(ctx, customer)
				} else {
					orders, err = a.Orders.ListAll(ctx)
				}
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCREATED\tTOTAL\tPAYMENT\tSTATUS\tITEMS")
				for _, o := range orders {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
						o.ID, o.CreatedAt.Format("2006-01-02 15:04"), domain.FromCents(o.TotalCents).StringFixed(2),
						o.PaymentStatus, o.OrderStatus, len(o.Items))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringP("customer", "c", "", "Only orders placed by this customer id")
	return cmd
}

func stockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stock",
		Short: "Show catalog stock levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				products, err := a.Products.List(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tKEY\tPRICE\tSTOCK\tSELLABLE")
				for _, p := range products {
					sellable := "no"
					if p.Stock > 0 {
						free, err := a.Ledger.Free(ctx, p.ID)
						if err != nil {
							return err
						}
						if free > 0 {
							sellable = "yes"
						} else {
							sellable = "held"
						}
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Key, domain.FromCents(p.PriceCents).StringFixed(2), p.Stock, sellable)
				}
				return w.Flush()
			})
		},
	}
}
