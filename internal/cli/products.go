package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func (a *app) productsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Inspect and adjust catalog products",
	}

	var limit int
	var cursor string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List products, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			provider, err := catalog.NewProvider(catalog.NewRepository(client.DB()))
			if err != nil {
				return err
			}
			page, err := provider.ListProducts(cmd.Context(), pagination.Params{Limit: limit, Cursor: cursor})
			if err != nil {
				return err
			}
			return a.printJSON(page)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", pagination.DefaultLimit, "page size")
	listCmd.Flags().StringVar(&cursor, "cursor", "", "cursor from a previous page")

	setInventoryCmd := &cobra.Command{
		Use:   "set-inventory <product-id> <units>",
		Short: "Overwrite a product's stock level",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id: %w", err)
			}
			units, err := strconv.Atoi(args[1])
			if err != nil || units < 0 {
				return fmt.Errorf("units must be a non-negative integer")
			}
			client, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			found, err := catalog.NewRepository(client.DB()).SetInventory(cmd.Context(), id, units)
			if err != nil {
				return pkgerrors.Persistence(err, "set inventory")
			}
			if !found {
				return pkgerrors.NotFound(catalog.ResourceProduct, "product not found")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "product %s inventory set to %d\n", id, units)
			return nil
		},
	}

	setPriceCmd := &cobra.Command{
		Use:   "set-price <product-id> <price>",
		Short: "Overwrite a product's live price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id: %w", err)
			}
			price, err := decimal.NewFromString(args[1])
			if err != nil || !price.IsPositive() {
				return fmt.Errorf("price must be a positive decimal")
			}
			client, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			found, err := catalog.NewRepository(client.DB()).SetPrice(cmd.Context(), id, price)
			if err != nil {
				return pkgerrors.Persistence(err, "set price")
			}
			if !found {
				return pkgerrors.NotFound(catalog.ResourceProduct, "product not found")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "product %s price set to %s\n", id, price.StringFixed(2))
			return nil
		},
	}

	// Flags end at the product id so a negative amount reaches validation
	// instead of being parsed as a shorthand flag.
	setInventoryCmd.Flags().SetInterspersed(false)
	setPriceCmd.Flags().SetInterspersed(false)

	cmd.AddCommand(listCmd, setInventoryCmd, setPriceCmd)
	return cmd
}
