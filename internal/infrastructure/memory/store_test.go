package memory

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	"github.com/stretchr/testify/require"
)

func TestStoreBatchIsInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	u, err := market.NewUser("alice", 1, market.Profile{FirstName: "Alice"}, market.RoleSeller)
	require.NoError(t, err)

	b, err := s.Begin(ctx)
	require.NoError(t, err)
	b.PutUser(u)

	_, err = s.User(ctx, "alice")
	require.ErrorIs(t, err, market.ErrUserNotFound)

	require.NoError(t, b.Commit(ctx))
	got, err := s.User(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", got.Profile.FirstName)
	require.Error(t, b.Commit(ctx))
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	it, err := market.NewStockItem(market.Product{ID: 1, Name: "pen", Price: 10}, 4)
	require.NoError(t, err)
	b, _ := s.Begin(ctx)
	b.PutStockItem(it)
	require.NoError(t, b.Commit(ctx))

	it.Stock = 99
	got, err := s.StockItem(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 4, got.Stock)

	got.Stock = 0
	again, _ := s.StockItem(ctx, 1)
	require.EqualValues(t, 4, again.Stock)
}

func TestStoreSequencesAndOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	seq, err := s.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, market.Sequences{User: 1, Product: 1, Listing: 1, Order: 1}, seq)

	b, _ := s.Begin(ctx)
	for i, id := range []market.AccountID{"zed", "amy", "bob"} {
		u, err := market.NewUser(id, uint32(i+1), market.Profile{}, market.RoleBuyer)
		require.NoError(t, err)
		b.PutUser(u)
	}
	b.PutListing(market.NewListing(1, "zed", []market.Line{{ProductID: 1, Quantity: 1}}, 10))
	require.NoError(t, b.Commit(ctx))

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, market.AccountID("zed"), users[0].ID)
	require.Equal(t, market.AccountID("bob"), users[2].ID)

	seq, err = s.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, market.Sequences{User: 4, Product: 1, Listing: 2, Order: 1}, seq)
}

func TestStoreCommitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStore()
	b, _ := s.Begin(ctx)
	b.PutOrder(&market.Order{ID: 1, Status: market.StatusPending})
	cancel()

	require.ErrorIs(t, b.Commit(ctx), context.Canceled)
	orders, err := s.Orders(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}
