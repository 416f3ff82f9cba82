// Package dsstore persists marketplace state in a go-datastore Batching
// backend. Values are JSON; keys are laid out so a prefix query sorted by key
// returns each collection in id order.
package dsstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	dsq "github.com/ipfs/go-datastore/query"
	levelds "github.com/ipfs/go-ds-leveldb"
	"golang.org/x/xerrors"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
)

var (
	usersPrefix    = datastore.NewKey("/users")
	productsPrefix = datastore.NewKey("/products")
	listingsPrefix = datastore.NewKey("/listings")
	ordersPrefix   = datastore.NewKey("/orders")
	seqPrefix      = datastore.NewKey("/seq")
)

const (
	seqUser    = "user"
	seqProduct = "product"
	seqListing = "listing"
	seqOrder   = "order"
)

type Store struct {
	ds datastore.Batching
}

var _ market.Store = (*Store)(nil)

// New namespaces ds under /market.
func New(ds datastore.Batching) *Store {
	return &Store{ds: namespace.Wrap(ds, datastore.NewKey("/market"))}
}

// OpenLevelDB opens (or creates) a LevelDB datastore in dir. The returned
// closer releases the database.
func OpenLevelDB(dir string) (*Store, func() error, error) {
	ds, err := levelds.NewDatastore(dir, &levelds.Options{})
	if err != nil {
		return nil, nil, xerrors.Errorf("opening leveldb datastore at %s: %w", dir, err)
	}
	return New(ds), ds.Close, nil
}

func userKey(id market.AccountID) datastore.Key {
	return usersPrefix.ChildString(base64.RawURLEncoding.EncodeToString([]byte(id)))
}

func productKey(id market.ProductID) datastore.Key {
	return productsPrefix.ChildString(fmt.Sprintf("%010d", id))
}

func listingKey(id market.ListingID) datastore.Key {
	return listingsPrefix.ChildString(fmt.Sprintf("%010d", id))
}

func orderKey(id market.OrderID) datastore.Key {
	return ordersPrefix.ChildString(fmt.Sprintf("%010d", id))
}

func seqKey(kind string) datastore.Key {
	return seqPrefix.ChildString(kind)
}

func (s *Store) get(ctx context.Context, k datastore.Key, notFound error, out any) error {
	b, err := s.ds.Get(ctx, k)
	if errors.Is(err, datastore.ErrNotFound) {
		return notFound
	}
	if err != nil {
		return xerrors.Errorf("getting %s: %w", k, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return xerrors.Errorf("decoding %s: %w", k, err)
	}
	return nil
}

// list runs a prefix query sorted by key and hands every value to decode.
func (s *Store) list(ctx context.Context, prefix datastore.Key, decode func([]byte) error) error {
	res, err := s.ds.Query(ctx, dsq.Query{
		Prefix: prefix.String(),
		Orders: []dsq.Order{dsq.OrderByKey{}},
	})
	if err != nil {
		return xerrors.Errorf("querying %s: %w", prefix, err)
	}
	defer res.Close() //nolint:errcheck

	for {
		r, ok := res.NextSync()
		if !ok {
			return nil
		}
		if r.Error != nil {
			return xerrors.Errorf("iterating %s: %w", prefix, r.Error)
		}
		if err := decode(r.Value); err != nil {
			return xerrors.Errorf("decoding %s: %w", r.Key, err)
		}
	}
}

func (s *Store) User(ctx context.Context, id market.AccountID) (*market.User, error) {
	var u market.User
	if err := s.get(ctx, userKey(id), market.ErrUserNotFound, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Users sorts by registration sequence; user keys are encoded identities and
// carry no order of their own.
func (s *Store) Users(ctx context.Context) ([]*market.User, error) {
	var out []*market.User
	err := s.list(ctx, usersPrefix, func(b []byte) error {
		var u market.User
		if err := json.Unmarshal(b, &u); err != nil {
			return err
		}
		out = append(out, &u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (s *Store) StockItem(ctx context.Context, id market.ProductID) (*market.StockItem, error) {
	var it market.StockItem
	if err := s.get(ctx, productKey(id), market.ErrProductNotFound, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Store) StockItems(ctx context.Context) ([]*market.StockItem, error) {
	var out []*market.StockItem
	err := s.list(ctx, productsPrefix, func(b []byte) error {
		var it market.StockItem
		if err := json.Unmarshal(b, &it); err != nil {
			return err
		}
		out = append(out, &it)
		return nil
	})
	return out, err
}

func (s *Store) Listing(ctx context.Context, id market.ListingID) (*market.Listing, error) {
	var l market.Listing
	if err := s.get(ctx, listingKey(id), market.ErrListingNotFound, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) Listings(ctx context.Context) ([]*market.Listing, error) {
	var out []*market.Listing
	err := s.list(ctx, listingsPrefix, func(b []byte) error {
		var l market.Listing
		if err := json.Unmarshal(b, &l); err != nil {
			return err
		}
		out = append(out, &l)
		return nil
	})
	return out, err
}

func (s *Store) Order(ctx context.Context, id market.OrderID) (*market.Order, error) {
	var o market.Order
	if err := s.get(ctx, orderKey(id), market.ErrOrderNotFound, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) Orders(ctx context.Context) ([]*market.Order, error) {
	var out []*market.Order
	err := s.list(ctx, ordersPrefix, func(b []byte) error {
		var o market.Order
		if err := json.Unmarshal(b, &o); err != nil {
			return err
		}
		out = append(out, &o)
		return nil
	})
	return out, err
}

func (s *Store) readSeq(ctx context.Context, kind string) (uint32, error) {
	b, err := s.ds.Get(ctx, seqKey(kind))
	if errors.Is(err, datastore.ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, xerrors.Errorf("reading %s sequence: %w", kind, err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 32)
	if err != nil {
		return 0, xerrors.Errorf("parsing %s sequence: %w", kind, err)
	}
	return uint32(v), nil
}

func (s *Store) Next(ctx context.Context) (market.Sequences, error) {
	var seq market.Sequences
	for _, f := range []struct {
		kind string
		set  func(uint32)
	}{
		{seqUser, func(v uint32) { seq.User = v }},
		{seqProduct, func(v uint32) { seq.Product = market.ProductID(v) }},
		{seqListing, func(v uint32) { seq.Listing = market.ListingID(v) }},
		{seqOrder, func(v uint32) { seq.Order = market.OrderID(v) }},
	} {
		v, err := s.readSeq(ctx, f.kind)
		if err != nil {
			return market.Sequences{}, err
		}
		f.set(v)
	}
	return seq, nil
}

func (s *Store) Begin(ctx context.Context) (market.Batch, error) {
	_ = ctx
	return &batch{s: s}, nil
}

type entry struct {
	key datastore.Key
	val any
}

type batch struct {
	s       *Store
	entries []entry
	seq     market.Sequences
}

// bump keeps the highest id seen per kind so Commit can advance the
// sequences in the same write.
func (b *batch) bump(kind string, id uint32) {
	switch kind {
	case seqUser:
		b.seq.User = max(b.seq.User, id)
	case seqProduct:
		b.seq.Product = max(b.seq.Product, market.ProductID(id))
	case seqListing:
		b.seq.Listing = max(b.seq.Listing, market.ListingID(id))
	case seqOrder:
		b.seq.Order = max(b.seq.Order, market.OrderID(id))
	}
}

func (b *batch) PutUser(u *market.User) {
	b.entries = append(b.entries, entry{userKey(u.ID), u.Clone()})
	b.bump(seqUser, u.Seq)
}

func (b *batch) PutStockItem(it *market.StockItem) {
	b.entries = append(b.entries, entry{productKey(it.Product.ID), it.Clone()})
	b.bump(seqProduct, uint32(it.Product.ID))
}

func (b *batch) PutListing(l *market.Listing) {
	b.entries = append(b.entries, entry{listingKey(l.ID), l.Clone()})
	b.bump(seqListing, uint32(l.ID))
}

func (b *batch) PutOrder(o *market.Order) {
	b.entries = append(b.entries, entry{orderKey(o.ID), o.Clone()})
	b.bump(seqOrder, uint32(o.ID))
}

// Commit encodes every staged value first, then writes them together with the
// advanced sequences through one datastore batch.
func (b *batch) Commit(ctx context.Context) error {
	current, err := b.s.Next(ctx)
	if err != nil {
		return err
	}

	type raw struct {
		key datastore.Key
		val []byte
	}
	writes := make([]raw, 0, len(b.entries)+4)
	for _, e := range b.entries {
		v, err := json.Marshal(e.val)
		if err != nil {
			return xerrors.Errorf("encoding %s: %w", e.key, err)
		}
		writes = append(writes, raw{e.key, v})
	}
	for _, sq := range []struct {
		kind    string
		cur, hi uint32
	}{
		{seqUser, current.User, b.seq.User},
		{seqProduct, uint32(current.Product), uint32(b.seq.Product)},
		{seqListing, uint32(current.Listing), uint32(b.seq.Listing)},
		{seqOrder, uint32(current.Order), uint32(b.seq.Order)},
	} {
		if sq.hi >= sq.cur {
			writes = append(writes, raw{seqKey(sq.kind), []byte(strconv.FormatUint(uint64(sq.hi)+1, 10))})
		}
	}

	dsb, err := b.s.ds.Batch(ctx)
	if err != nil {
		return xerrors.Errorf("opening batch: %w", err)
	}
	for _, w := range writes {
		if err := dsb.Put(ctx, w.key, w.val); err != nil {
			return xerrors.Errorf("staging %s: %w", w.key, err)
		}
	}
	if err := dsb.Commit(ctx); err != nil {
		return xerrors.Errorf("committing batch: %w", err)
	}
	return nil
}
