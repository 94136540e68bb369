package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/internal/cache"
	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/tokens"
)

type fakeSearcher struct {
	indexed []models.Product
	results []models.Product
	err     error
}

func (f *fakeSearcher) SearchProducts(_ context.Context, _ string, _, _ int) (int64, []models.Product, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.results)), f.results, nil
}

func (f *fakeSearcher) IndexProduct(_ context.Context, p models.Product) error {
	f.indexed = append(f.indexed, p)
	return nil
}

func withCache(t *testing.T, env *testEnv) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.New(context.Background(), mr.Addr(), "", 0, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	env.Catalog.Cache = c
	return mr
}

func TestListProducts_CachedAndInvalidated(t *testing.T) {
	env := newTestEnv(t)
	mr := withCache(t, env)
	ctx := context.Background()
	env.product(t, "Latte", 180, true)

	page, err := env.Catalog.ListProducts(ctx, ProductQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.NotEmpty(t, mr.Keys())

	// a row written behind the service's back is not visible until the
	// cache is invalidated
	env.product(t, "Mocha", 220, true)
	page, err = env.Catalog.ListProducts(ctx, ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = env.Catalog.CreateProduct(ctx, transport.CreateProductRequest{Name: "Cortado", Price: 200})
	require.NoError(t, err)
	page, err = env.Catalog.ListProducts(ctx, ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.EqualValues(t, 3, page.Total)
}

func TestListProducts_CacheDownFallsThrough(t *testing.T) {
	env := newTestEnv(t)
	mr := withCache(t, env)
	env.product(t, "Latte", 180, true)
	mr.Close()

	page, err := env.Catalog.ListProducts(context.Background(), ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestListProducts_Filters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.product(t, "Latte", 180, true)
	env.product(t, "Seasonal", 300, false)
	tea := &models.Product{Name: "Chai", Price: 90, Category: "tea", Available: true}
	require.NoError(t, env.Repo.CreateProduct(ctx, tea))

	yes := true
	page, err := env.Catalog.ListProducts(ctx, ProductQuery{Available: &yes})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = env.Catalog.ListProducts(ctx, ProductQuery{Category: "TEA"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Chai", page.Items[0].Name)

	page, err = env.Catalog.ListProducts(ctx, ProductQuery{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
}

func TestSearchProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.product(t, "Cold Brew", 250, true)
	env.product(t, "Espresso", 120, true)

	_, err := env.Catalog.SearchProducts(ctx, "  ", 1, 10)
	require.ErrorIs(t, err, ErrValidation)

	page, err := env.Catalog.SearchProducts(ctx, "brew", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Cold Brew", page.Items[0].Name)

	searcher := &fakeSearcher{results: []models.Product{{Name: "From Index"}}}
	env.Catalog.Search = searcher
	page, err = env.Catalog.SearchProducts(ctx, "brew", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "From Index", page.Items[0].Name)

	searcher.err = errors.New("cluster red")
	page, err = env.Catalog.SearchProducts(ctx, "espresso", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Espresso", page.Items[0].Name)
}

func TestProductAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	searcher := &fakeSearcher{}
	env.Catalog.Search = searcher

	off := false
	p, err := env.Catalog.CreateProduct(ctx, transport.CreateProductRequest{Name: "Flat White", Price: 210, Category: "coffee", Available: &off})
	require.NoError(t, err)
	assert.False(t, p.Available)
	require.Len(t, searcher.indexed, 1)

	price := int64(230)
	on := true
	p, err = env.Catalog.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Price: &price, Available: &on})
	require.NoError(t, err)
	assert.EqualValues(t, 230, p.Price)
	assert.True(t, p.Available)
	assert.Equal(t, "Flat White", p.Name)
	assert.Equal(t, []string{"product_created", "product_updated"}, env.Events.types(mykafka.TopicProducts))

	_, err = env.Catalog.PatchProduct(ctx, uuid.New(), transport.PatchProductRequest{Price: &price})
	require.ErrorIs(t, err, ErrProductNotFound)

	alice := env.account(t, "alice", tokens.RoleUser)
	_, err = env.Orders.CreateOrder(ctx, alice, codOrder(transport.OrderItemRequest{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	err = env.Catalog.DeleteProduct(ctx, p.ID)
	require.ErrorIs(t, err, ErrConflict)

	spare, err := env.Catalog.CreateProduct(ctx, transport.CreateProductRequest{Name: "Spare", Price: 1})
	require.NoError(t, err)
	require.NoError(t, env.Catalog.DeleteProduct(ctx, spare.ID))
	require.ErrorIs(t, env.Catalog.DeleteProduct(ctx, spare.ID), ErrProductNotFound)
}

func TestEquipmentStoresEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	off := false
	_, err := env.Catalog.CreateEquipment(ctx, transport.CreateEquipmentRequest{Name: "Grinder", WeeklyPrice: 500, MonthlyPrice: 1500, Deposit: 2000})
	require.NoError(t, err)
	_, err = env.Catalog.CreateEquipment(ctx, transport.CreateEquipmentRequest{Name: "Roaster", WeeklyPrice: 900, MonthlyPrice: 3000, Available: &off})
	require.NoError(t, err)
	_, err = env.Catalog.CreateEquipment(ctx, transport.CreateEquipmentRequest{Name: "Vault", MonthlyPrice: math.MaxInt64, Deposit: 1})
	require.ErrorIs(t, err, ErrPriceOverflow)

	all, err := env.Catalog.ListEquipment(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	yes := true
	avail, err := env.Catalog.ListEquipment(ctx, &yes)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, "Grinder", avail[0].Name)

	_, err = env.Catalog.GetEquipment(ctx, uuid.New())
	require.ErrorIs(t, err, ErrEquipmentNotFound)

	_, err = env.Catalog.CreateStore(ctx, transport.CreateStoreRequest{Name: "Indiranagar", Address: "100ft Road", City: "Bengaluru"})
	require.NoError(t, err)
	stores, err := env.Catalog.ListStores(ctx)
	require.NoError(t, err)
	assert.Len(t, stores, 1)

	_, err = env.Catalog.CreateEvent(ctx, transport.CreateEventRequest{Title: "Cupping", StartsAt: "2025-02-01T18:00:00Z"})
	require.NoError(t, err)
	_, err = env.Catalog.CreateEvent(ctx, transport.CreateEventRequest{Title: "Last year", StartsAt: "2024-02-01T18:00:00Z"})
	require.NoError(t, err)
	_, err = env.Catalog.CreateEvent(ctx, transport.CreateEventRequest{Title: "Bad", StartsAt: "tomorrow"})
	require.ErrorIs(t, err, ErrValidation)

	events, err := env.Catalog.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Cupping", events[0].Title)
}
