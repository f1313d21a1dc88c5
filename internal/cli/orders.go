package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func (a *app) orderService(ctx context.Context) (orders.Service, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	client, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	provider, err := catalog.NewProvider(catalog.NewRepository(client.DB()))
	if err != nil {
		return nil, err
	}
	return orders.NewService(orders.ServiceParams{
		Tx:                   client,
		Repo:                 orders.NewRepository(client.DB()),
		Carts:                cart.NewStore(client.DB()),
		Catalog:              provider,
		Outbox:               outbox.NewService(outbox.NewRepository(client.DB()), a.logger()),
		Logger:               a.logger(),
		DecrementOnCheckout:  cfg.Checkout.DecrementOnCheckout(),
		DefaultShippingPrice: cfg.Checkout.DefaultShippingPrice,
	})
}

func (a *app) ordersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect and manage orders",
	}

	var limit int
	var cursor string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every order, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.orderService(cmd.Context())
			if err != nil {
				return err
			}
			page, err := svc.ListAllOrders(cmd.Context(), pagination.Params{Limit: limit, Cursor: cursor})
			if err != nil {
				return err
			}
			return a.printJSON(page)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", pagination.DefaultLimit, "page size")
	listCmd.Flags().StringVar(&cursor, "cursor", "", "cursor from a previous page")

	showCmd := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Print one order with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id: %w", err)
			}
			svc, err := a.orderService(cmd.Context())
			if err != nil {
				return err
			}
			view, err := svc.GetOrderDetail(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printJSON(view)
		},
	}

	var detail string
	setStatusCmd := &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Move an order along its lifecycle",
		Long: "Move an order along its lifecycle. Allowed statuses: " +
			strings.Join(statusNames(), ", ") + ".",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id: %w", err)
			}
			svc, err := a.orderService(cmd.Context())
			if err != nil {
				return err
			}
			view, err := svc.UpdateStatus(cmd.Context(), id, args[1], detail)
			if err != nil {
				return err
			}
			return a.printJSON(view)
		},
	}
	setStatusCmd.Flags().StringVar(&detail, "detail", "", "status detail shown to the shopper")

	deleteCmd := &cobra.Command{
		Use:   "delete <order-id>",
		Short: "Delete an order and its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id: %w", err)
			}
			svc, err := a.orderService(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.DeleteOrder(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s deleted\n", id)
			return nil
		},
	}

	exposureCmd := &cobra.Command{
		Use:   "exposure",
		Short: "List products whose open orders need more units than inventory holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := orders.NewExposureReader(client.DB()).Overcommitted(cmd.Context(), nil)
			if err != nil {
				return pkgerrors.Persistence(err, "compute exposure")
			}
			return a.printJSON(rows)
		},
	}

	cmd.AddCommand(listCmd, showCmd, setStatusCmd, deleteCmd, exposureCmd)
	return cmd
}

func statusNames() []string {
	statuses := enums.OrderStatuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
