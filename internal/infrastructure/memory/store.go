package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
)

// Store keeps marketplace state in process memory. Every value crossing the
// boundary is cloned so callers never alias stored state.
type Store struct {
	mu sync.RWMutex

	users    map[market.AccountID]*market.User
	userIDs  []market.AccountID
	items    map[market.ProductID]*market.StockItem
	itemIDs  []market.ProductID
	listings map[market.ListingID]*market.Listing
	listIDs  []market.ListingID
	orders   map[market.OrderID]*market.Order
	orderIDs []market.OrderID
}

var _ market.Store = (*Store)(nil)

var errBatchCommitted = errors.New("memory store: batch already committed")

func NewStore() *Store {
	return &Store{
		users:    make(map[market.AccountID]*market.User),
		items:    make(map[market.ProductID]*market.StockItem),
		listings: make(map[market.ListingID]*market.Listing),
		orders:   make(map[market.OrderID]*market.Order),
	}
}

func (s *Store) User(ctx context.Context, id market.AccountID) (*market.User, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, market.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *Store) Users(ctx context.Context) ([]*market.User, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*market.User, 0, len(s.userIDs))
	for _, id := range s.userIDs {
		out = append(out, s.users[id].Clone())
	}
	return out, nil
}

func (s *Store) StockItem(ctx context.Context, id market.ProductID) (*market.StockItem, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, market.ErrProductNotFound
	}
	return it.Clone(), nil
}

func (s *Store) StockItems(ctx context.Context) ([]*market.StockItem, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*market.StockItem, 0, len(s.itemIDs))
	for _, id := range s.itemIDs {
		out = append(out, s.items[id].Clone())
	}
	return out, nil
}

func (s *Store) Listing(ctx context.Context, id market.ListingID) (*market.Listing, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, market.ErrListingNotFound
	}
	return l.Clone(), nil
}

func (s *Store) Listings(ctx context.Context) ([]*market.Listing, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*market.Listing, 0, len(s.listIDs))
	for _, id := range s.listIDs {
		out = append(out, s.listings[id].Clone())
	}
	return out, nil
}

func (s *Store) Order(ctx context.Context, id market.OrderID) (*market.Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, market.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *Store) Orders(ctx context.Context) ([]*market.Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*market.Order, 0, len(s.orderIDs))
	for _, id := range s.orderIDs {
		out = append(out, s.orders[id].Clone())
	}
	return out, nil
}

// Next derives the sequences from the collection sizes; nothing is ever
// deleted, so the size is also the highest id handed out.
func (s *Store) Next(ctx context.Context) (market.Sequences, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	return market.Sequences{
		User:    uint32(len(s.userIDs)) + 1,
		Product: market.ProductID(len(s.itemIDs)) + 1,
		Listing: market.ListingID(len(s.listIDs)) + 1,
		Order:   market.OrderID(len(s.orderIDs)) + 1,
	}, nil
}

func (s *Store) Begin(ctx context.Context) (market.Batch, error) {
	_ = ctx
	return &batch{s: s}, nil
}

type batch struct {
	s        *Store
	users    []*market.User
	items    []*market.StockItem
	listings []*market.Listing
	orders   []*market.Order
	done     bool
}

func (b *batch) PutUser(u *market.User)            { b.users = append(b.users, u.Clone()) }
func (b *batch) PutStockItem(it *market.StockItem) { b.items = append(b.items, it.Clone()) }
func (b *batch) PutListing(l *market.Listing)      { b.listings = append(b.listings, l.Clone()) }
func (b *batch) PutOrder(o *market.Order)          { b.orders = append(b.orders, o.Clone()) }

// Commit applies the staged writes under a single lock acquisition.
func (b *batch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.done {
		return errBatchCommitted
	}
	b.done = true

	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range b.users {
		if _, ok := s.users[u.ID]; !ok {
			s.userIDs = append(s.userIDs, u.ID)
		}
		s.users[u.ID] = u
	}
	for _, it := range b.items {
		if _, ok := s.items[it.Product.ID]; !ok {
			s.itemIDs = append(s.itemIDs, it.Product.ID)
		}
		s.items[it.Product.ID] = it
	}
	for _, l := range b.listings {
		if _, ok := s.listings[l.ID]; !ok {
			s.listIDs = append(s.listIDs, l.ID)
		}
		s.listings[l.ID] = l
	}
	for _, o := range b.orders {
		if _, ok := s.orders[o.ID]; !ok {
			s.orderIDs = append(s.orderIDs, o.ID)
		}
		s.orders[o.ID] = o
	}
	return nil
}
