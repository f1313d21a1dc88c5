package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// These run against the database named by STOREFRONT_TEST_DB_DSN. Rows from
// other runs may be present, so every assertion is scoped to fresh ids.

func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func TestPostgresConcurrentDecrementingCheckoutsSerialize(t *testing.T) {
	env := newTestEnvOn(t, dbtest.OpenPostgres(t), true)
	ctx := context.Background()
	color := uniqueName("Red")
	shirt := env.seedProduct(t, uniqueName("shirt"), "10.00", 5, color)
	hat := env.seedProduct(t, uniqueName("hat"), "4.00", 100, color)

	const shoppers = 6
	inputs := make(map[uuid.UUID]CreateOrderInput, shoppers)
	for i := range shoppers {
		shopper := uuid.New()
		// Alternate cart order so checkouts would lock the two products in
		// opposite orders if locking followed the cart.
		var first, second uuid.UUID
		if i%2 == 0 {
			first = env.addLine(t, shopper, shirt, color, 2).ID
			second = env.addLine(t, shopper, hat, color, 1).ID
		} else {
			first = env.addLine(t, shopper, hat, color, 1).ID
			second = env.addLine(t, shopper, shirt, color, 2).ID
		}
		inputs[shopper] = CreateOrderInput{LineIDs: []uuid.UUID{first, second}, Address: validAddress()}
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	start := make(chan struct{})
	for shopper, input := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.svc.CreateOrder(ctx, shopper, input)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientInventory), "unexpected error %v", err)
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 2, successes)
	product, err := env.catalog.FindProduct(ctx, shirt.ID)
	require.NoError(t, err)
	require.Equal(t, 1, product.Inventory)
	product, err = env.catalog.FindProduct(ctx, hat.ID)
	require.NoError(t, err)
	require.Equal(t, 98, product.Inventory)
}

func TestPostgresFailedCheckoutLeavesNoTrace(t *testing.T) {
	env := newTestEnvOn(t, dbtest.OpenPostgres(t), true)
	ctx := context.Background()
	shopper := uuid.New()
	color := uniqueName("Blue")
	plenty := env.seedProduct(t, uniqueName("plenty"), "3.00", 50, color)
	scarce := env.seedProduct(t, uniqueName("scarce"), "9.00", 4, color)
	a := env.addLine(t, shopper, plenty, color, 5)
	b := env.addLine(t, shopper, scarce, color, 4)

	ok, err := env.catalog.SetInventory(ctx, scarce.ID, 3)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = env.svc.CreateOrder(ctx, shopper, CreateOrderInput{LineIDs: []uuid.UUID{a.ID, b.ID}, Address: validAddress()})
	requireCode(t, err, pkgerrors.CodeInsufficientInventory)

	var count int64
	require.NoError(t, env.conn.Model(&models.Order{}).Where("user_id = ?", shopper).Count(&count).Error)
	require.Zero(t, count)

	product, err := env.catalog.FindProduct(ctx, plenty.ID)
	require.NoError(t, err)
	require.Equal(t, 50, product.Inventory)

	view, err := env.carts.GetCartView(ctx, shopper)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
}
