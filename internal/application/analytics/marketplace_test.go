package analytics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/analytics"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/marketplace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/memory"
)

func TestTopProductsOverMarketplace(t *testing.T) {
	ctx := context.Background()
	svc := marketplace.NewService(memory.NewStore(), nil, nil)

	_, err := svc.Register(ctx, "seller", market.Profile{}, market.RoleSeller)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "buyer", market.Profile{}, market.RoleBuyer)
	require.NoError(t, err)

	sold := map[string]uint32{"A": 5, "B": 3, "C": 3}
	ids := map[string]market.ProductID{}
	for _, name := range []string{"A", "B", "C"} {
		it, err := svc.LoadProduct(ctx, "seller", marketplace.ProductInput{Name: name, Price: 10, Category: "cat-" + name}, 20)
		require.NoError(t, err)
		ids[name] = it.Product.ID

		l, err := svc.CreateListing(ctx, "seller", []market.Line{{ProductID: it.Product.ID, Quantity: sold[name]}})
		require.NoError(t, err)
		o, err := svc.CreateOrder(ctx, "buyer", l.ID)
		require.NoError(t, err)
		_, err = svc.Ship(ctx, "seller", o.ID)
		require.NoError(t, err)
		_, err = svc.Receive(ctx, "buyer", o.ID)
		require.NoError(t, err)
		_, err = svc.Rate(ctx, "buyer", o.ID, 4)
		require.NoError(t, err)
	}

	// a pending order does not count
	l, err := svc.CreateListing(ctx, "seller", []market.Line{{ProductID: ids["C"], Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, "buyer", l.ID)
	require.NoError(t, err)

	agg := analytics.NewAggregator(svc, nil)
	top := 2
	got, err := agg.TopProductsSold(ctx, &top)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, analytics.ProductSales{Product: ids["A"], Quantity: 5}, got[0])
	require.EqualValues(t, 3, got[1].Quantity)
	require.Contains(t, []market.ProductID{ids["B"], ids["C"]}, got[1].Product)

	sellers, err := agg.TopSellers(ctx)
	require.NoError(t, err)
	require.Equal(t, []analytics.ReputationRank{{Account: "seller", Mean: 4}}, sellers)

	perBuyer, err := agg.OrdersPerBuyer(ctx)
	require.NoError(t, err)
	require.Equal(t, []analytics.BuyerOrders{{Account: "buyer", Orders: 4}}, perBuyer)

	stats, err := agg.CategoryStatistics(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	require.Equal(t, analytics.CategoryStats{Category: "cat-A", Units: 5, AverageRating: 0}, stats[0])
}
