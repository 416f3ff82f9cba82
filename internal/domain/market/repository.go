package market

import "context"

// Sequences are the next free ids per kind. All ids start at 1.
type Sequences struct {
	User    uint32
	Product ProductID
	Listing ListingID
	Order   OrderID
}

// Store is the marketplace state. Readers get copies; writes go through a
// Batch so an operation lands completely or not at all.
type Store interface {
	User(ctx context.Context, id AccountID) (*User, error)
	// Users returns every user in registration order.
	Users(ctx context.Context) ([]*User, error)
	StockItem(ctx context.Context, id ProductID) (*StockItem, error)
	StockItems(ctx context.Context) ([]*StockItem, error)
	Listing(ctx context.Context, id ListingID) (*Listing, error)
	Listings(ctx context.Context) ([]*Listing, error)
	Order(ctx context.Context, id OrderID) (*Order, error)
	Orders(ctx context.Context) ([]*Order, error)
	Next(ctx context.Context) (Sequences, error)
	Begin(ctx context.Context) (Batch, error)
}

// Batch stages writes until Commit. A batch that is never committed has no
// effect.
type Batch interface {
	PutUser(u *User)
	PutStockItem(it *StockItem)
	PutListing(l *Listing)
	PutOrder(o *Order)
	Commit(ctx context.Context) error
}
