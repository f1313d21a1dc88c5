package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type harness struct {
	client *db.Client
	cfg    *config.Config
	logg   *logger.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		client: dbtest.OpenClient(t),
		cfg: &config.Config{
			App:      config.AppConfig{Env: config.AppEnvDev, LogLevel: "debug"},
			Checkout: config.CheckoutConfig{InventoryPolicy: config.InventoryPolicyCheckOnly, DefaultShippingPrice: decimal.RequireFromString("5")},
		},
		logg: logger.New(logger.Options{ServiceName: "cli-test", Output: io.Discard}),
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(Options{Config: h.cfg, Logger: h.logg, DB: h.client, Out: &out})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSeedFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const seedBody = `{
  "products": [
    {
      "name": "Linen Shirt",
      "description": "Breathable summer shirt",
      "main_image_url": "https://img.example/shirt.png",
      "price": "24.50",
      "original_price": "30.00",
      "inventory": 12,
      "colors": [{"name": "Sand", "image_url": "https://img.example/sand.png"}, {"name": "Navy"}]
    },
    {
      "name": "Canvas Tote",
      "description": "Everyday bag",
      "main_image_url": "https://img.example/tote.png",
      "price": "15",
      "inventory": 0,
      "colors": [{"name": "Natural"}]
    }
  ]
}`

func seed(t *testing.T, h *harness) []seededProduct {
	t.Helper()
	out, err := h.run(t, "seed", "--file", writeSeedFile(t, seedBody))
	require.NoError(t, err)
	var created []seededProduct
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	return created
}

func TestSeedLoadsCatalog(t *testing.T) {
	h := newHarness(t)
	created := seed(t, h)
	require.Len(t, created, 2)
	require.Equal(t, "Linen Shirt", created[0].Name)

	provider, err := catalog.NewProvider(catalog.NewRepository(h.client.DB()))
	require.NoError(t, err)
	snap, err := provider.GetProduct(context.Background(), created[0].ID)
	require.NoError(t, err)
	require.Equal(t, 12, snap.Inventory)
	require.True(t, snap.UnitPrice.Equal(decimal.RequireFromString("24.50")))
	require.Len(t, snap.Colors, 2)
}

func TestSeedRejectsUnknownFields(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "seed", "-f", writeSeedFile(t, `{"products":[{"name":"x","sku":"nope"}]}`))
	require.ErrorContains(t, err, "decode seed file")
}

func TestSeedValidatesBeforeWriting(t *testing.T) {
	h := newHarness(t)
	body := `{"products":[
		{"name":"Good","main_image_url":"https://img.example/a.png","price":"1","inventory":1,"colors":[{"name":"Red"}]},
		{"name":"Bad","main_image_url":"https://img.example/b.png","price":"-1","inventory":1,"colors":[{"name":"Red"}]}
	]}`
	_, err := h.run(t, "seed", "-f", writeSeedFile(t, body))
	require.ErrorContains(t, err, `product 1 ("Bad")`)

	var count int64
	require.NoError(t, h.client.DB().Table("products").Count(&count).Error)
	require.Zero(t, count)
}

func TestProductsListPrintsPage(t *testing.T) {
	h := newHarness(t)
	seed(t, h)

	out, err := h.run(t, "products", "list", "--limit", "1")
	require.NoError(t, err)
	var page struct {
		Items      []map[string]any `json:"items"`
		NextCursor string           `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Items, 1)
	require.NotEmpty(t, page.NextCursor)
}

func TestProductsSetInventory(t *testing.T) {
	h := newHarness(t)
	created := seed(t, h)

	out, err := h.run(t, "products", "set-inventory", created[1].ID.String(), "40")
	require.NoError(t, err)
	require.Contains(t, out, "inventory set to 40")

	_, err = h.run(t, "products", "set-inventory", uuid.NewString(), "3")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	_, err = h.run(t, "products", "set-inventory", created[1].ID.String(), "-2")
	require.ErrorContains(t, err, "non-negative")
}

func TestProductsSetPrice(t *testing.T) {
	h := newHarness(t)
	created := seed(t, h)

	out, err := h.run(t, "products", "set-price", created[0].ID.String(), "19.9")
	require.NoError(t, err)
	require.Contains(t, out, "price set to 19.90")

	_, err = h.run(t, "products", "set-price", created[0].ID.String(), "0")
	require.ErrorContains(t, err, "positive")

	_, err = h.run(t, "products", "set-price", created[0].ID.String(), "-3.50")
	require.ErrorContains(t, err, "positive")
}

func placeOrder(t *testing.T, h *harness, productID uuid.UUID) *orders.OrderView {
	t.Helper()
	ctx := context.Background()
	conn := h.client.DB()
	provider, err := catalog.NewProvider(catalog.NewRepository(conn))
	require.NoError(t, err)
	store := cart.NewStore(conn)
	carts, err := cart.NewService(cart.ServiceParams{Tx: h.client, Store: store, Catalog: provider, Logger: h.logg})
	require.NoError(t, err)
	shopper := uuid.New()
	line, err := carts.AddOrMergeLine(ctx, shopper, cart.AddLineInput{ProductID: productID, ColorName: "Sand", Quantity: 2})
	require.NoError(t, err)

	a := &app{opts: Options{Config: h.cfg, Logger: h.logg, DB: h.client}}
	svc, err := a.orderService(ctx)
	require.NoError(t, err)
	order, err := svc.CreateOrder(ctx, shopper, orders.CreateOrderInput{
		LineIDs: []uuid.UUID{line.ID},
		Address: orders.Address{FirstName: "Ada", LastName: "Lovelace", Phone: "555-0100", City: "London", Street: "1 Analytical Way", Area: "Marylebone"},
	})
	require.NoError(t, err)
	return order
}

func TestOrdersSetStatusAndShow(t *testing.T) {
	h := newHarness(t)
	created := seed(t, h)
	order := placeOrder(t, h, created[0].ID)
	require.True(t, order.ShippingPrice.Equal(decimal.RequireFromString("5")))

	out, err := h.run(t, "orders", "set-status", order.ID.String(), "processing", "--detail", "Packed")
	require.NoError(t, err)
	var view orders.OrderView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Equal(t, enums.OrderStatusProcessing, view.Status)
	require.Equal(t, "Packed", view.StatusDetail)

	out, err = h.run(t, "orders", "show", order.ID.String())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Len(t, view.Lines, 1)

	_, err = h.run(t, "orders", "set-status", order.ID.String(), "pending")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = h.run(t, "orders", "set-status", "not-a-uuid", "shipped")
	require.ErrorContains(t, err, "invalid order id")
}

func TestOrdersListAndDelete(t *testing.T) {
	h := newHarness(t)
	created := seed(t, h)
	order := placeOrder(t, h, created[0].ID)

	out, err := h.run(t, "orders", "list")
	require.NoError(t, err)
	require.Contains(t, out, order.ID.String())

	out, err = h.run(t, "orders", "delete", order.ID.String())
	require.NoError(t, err)
	require.Contains(t, out, "deleted")

	_, err = h.run(t, "orders", "show", order.ID.String())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMigrateCreateAndValidate(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()

	out, err := h.run(t, "migrate", "create", "Add Wishlist", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "add_wishlist.sql")

	out, err = h.run(t, "migrate", "validate", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "validation passed")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("select 1;"), 0o600))
	_, err = h.run(t, "migrate", "validate", "--dir", dir)
	require.ErrorContains(t, err, "invalid migration filename")
}

func TestOrdersExposure(t *testing.T) {
	h := newHarness(t)
	created := seed(t, h)
	placeOrder(t, h, created[0].ID)
	_, err := h.run(t, "products", "set-inventory", created[0].ID.String(), "1")
	require.NoError(t, err)

	out, err := h.run(t, "orders", "exposure")
	require.NoError(t, err)
	var rows []orders.Exposure
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	require.Equal(t, created[0].ID, rows[0].ProductID)
	require.Equal(t, 2, rows[0].Committed)
}
