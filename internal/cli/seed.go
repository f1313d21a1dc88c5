package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
)

type seedFile struct {
	Products []seedProduct `json:"products"`
}

type seedProduct struct {
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	MainImageURL  string           `json:"main_image_url"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Inventory     int              `json:"inventory"`
	Colors        []seedColor      `json:"colors"`
}

type seedColor struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

func (p seedProduct) toInput() catalog.SeedProductInput {
	in := catalog.SeedProductInput{
		Name:          p.Name,
		Description:   p.Description,
		MainImageURL:  p.MainImageURL,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Inventory:     p.Inventory,
	}
	for _, c := range p.Colors {
		in.Colors = append(in.Colors, catalog.SeedColorInput{Name: c.Name, ImageURL: c.ImageURL})
	}
	return in
}

type seededProduct struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (a *app) seedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load products and colors from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := readSeedFile(file)
			if err != nil {
				return err
			}
			for i, p := range products {
				if err := p.toInput().Validate(); err != nil {
					return fmt.Errorf("product %d (%q): %w", i, p.Name, err)
				}
			}

			client, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			repo := catalog.NewRepository(client.DB())

			created := make([]seededProduct, 0, len(products))
			err = client.WithTx(cmd.Context(), func(tx *gorm.DB) error {
				for _, p := range products {
					snap, err := catalog.Seed(cmd.Context(), repo.WithTx(tx), p.toInput())
					if err != nil {
						return err
					}
					created = append(created, seededProduct{ID: snap.ID, Name: snap.Name})
				}
				return nil
			})
			if err != nil {
				return err
			}

			ctx := a.logger().WithField(cmd.Context(), "products", len(created))
			a.logger().Info(ctx, "catalog seeded")
			return a.printJSON(created)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the seed JSON file, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readSeedFile(path string) ([]seedProduct, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var parsed seedFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if len(parsed.Products) == 0 {
		return nil, fmt.Errorf("seed file has no products")
	}
	return parsed.Products, nil
}
