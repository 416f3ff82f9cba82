package dsstore

import (
	"context"
	"testing"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
)

func newTestStore() *Store {
	return New(dssync.MutexWrap(datastore.NewMapDatastore()))
}

func seed(t *testing.T, ctx context.Context, s *Store) {
	t.Helper()

	b, err := s.Begin(ctx)
	require.NoError(t, err)

	// registration order differs from key order of the encoded ids
	for i, id := range []market.AccountID{"zoe", "adam/with/slashes", "mia"} {
		u, err := market.NewUser(id, uint32(i+1), market.Profile{Email: string(id) + "@example.com"}, market.RoleBoth)
		require.NoError(t, err)
		u.ReceiveSellerScore(4)
		b.PutUser(u)
	}
	for id := market.ProductID(1); id <= 11; id++ {
		it, err := market.NewStockItem(market.Product{ID: id, Name: "p", Price: 5, Category: "misc"}, 3)
		require.NoError(t, err)
		b.PutStockItem(it)
	}
	b.PutListing(market.NewListing(1, "zoe", []market.Line{{ProductID: 1, Quantity: 2}}, 10))
	require.NoError(t, b.Commit(ctx))
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	seed(t, ctx, s)

	u, err := s.User(ctx, "adam/with/slashes")
	require.NoError(t, err)
	require.Equal(t, "adam/with/slashes@example.com", u.Profile.Email)
	require.Equal(t, market.RoleBoth, u.Role)
	require.Equal(t, []market.Score{4}, u.Seller.Reputation)

	it, err := s.StockItem(ctx, 7)
	require.NoError(t, err)
	require.EqualValues(t, 3, it.Stock)

	l, err := s.Listing(ctx, 1)
	require.NoError(t, err)
	require.True(t, l.Available)
	require.EqualValues(t, 10, l.TotalPrice)

	_, err = s.Order(ctx, 1)
	require.ErrorIs(t, err, market.ErrOrderNotFound)
	_, err = s.User(ctx, "nobody")
	require.ErrorIs(t, err, market.ErrUserNotFound)
}

func TestStoreCollectionsAreOrdered(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	seed(t, ctx, s)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, market.AccountID("zoe"), users[0].ID)
	require.Equal(t, market.AccountID("adam/with/slashes"), users[1].ID)
	require.Equal(t, market.AccountID("mia"), users[2].ID)

	items, err := s.StockItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 11)
	for i, it := range items {
		require.EqualValues(t, i+1, it.Product.ID)
	}
}

func TestStoreSequencesAdvanceOnCommit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	seq, err := s.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, market.Sequences{User: 1, Product: 1, Listing: 1, Order: 1}, seq)

	seed(t, ctx, s)
	seq, err = s.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, market.Sequences{User: 4, Product: 12, Listing: 2, Order: 1}, seq)

	// rewriting an existing entity keeps the sequence
	b, _ := s.Begin(ctx)
	it, _ := s.StockItem(ctx, 2)
	require.NoError(t, it.Deduct(1))
	b.PutStockItem(it)
	require.NoError(t, b.Commit(ctx))

	seq, err = s.Next(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 12, seq.Product)
}

func TestStoreUncommittedBatchHasNoEffect(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	b, _ := s.Begin(ctx)
	b.PutOrder(&market.Order{ID: 1, Status: market.StatusPending})

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestOpenLevelDB(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, closeFn, err := OpenLevelDB(dir)
	require.NoError(t, err)
	seed(t, ctx, s)
	require.NoError(t, closeFn())

	s, closeFn, err = OpenLevelDB(dir)
	require.NoError(t, err)
	defer closeFn() //nolint:errcheck

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	seq, err := s.Next(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, seq.Listing)
}
