package market

import "time"

// Restock targets reported when a cancelled order gives its goods back.
const (
	RestockStock   = "stock"
	RestockListing = "listing"
)

type UserRegisteredEvent struct {
	AccountID  AccountID
	Role       Role
	OccurredAt time.Time
}

func (UserRegisteredEvent) EventName() string { return "account.registered" }

func NewUserRegisteredEvent(u *User) UserRegisteredEvent {
	return UserRegisteredEvent{AccountID: u.ID, Role: u.Role, OccurredAt: time.Now().UTC()}
}

type RoleChangedEvent struct {
	AccountID  AccountID
	From, To   Role
	OccurredAt time.Time
}

func (RoleChangedEvent) EventName() string { return "account.role_changed" }

func NewRoleChangedEvent(id AccountID, from, to Role) RoleChangedEvent {
	return RoleChangedEvent{AccountID: id, From: from, To: to, OccurredAt: time.Now().UTC()}
}

type ProductLoadedEvent struct {
	ProductID  ProductID
	Seller     AccountID
	Stock      uint32
	OccurredAt time.Time
}

func (ProductLoadedEvent) EventName() string { return "inventory.product_loaded" }

func NewProductLoadedEvent(seller AccountID, it *StockItem) ProductLoadedEvent {
	return ProductLoadedEvent{ProductID: it.Product.ID, Seller: seller, Stock: it.Stock, OccurredAt: time.Now().UTC()}
}

type ListingCreatedEvent struct {
	ListingID  ListingID
	Seller     AccountID
	TotalPrice uint64
	OccurredAt time.Time
}

func (ListingCreatedEvent) EventName() string { return "listing.created" }

func NewListingCreatedEvent(l *Listing) ListingCreatedEvent {
	return ListingCreatedEvent{ListingID: l.ID, Seller: l.Seller, TotalPrice: l.TotalPrice, OccurredAt: time.Now().UTC()}
}

// ListingSoldOutEvent is emitted when an order leaves too little stock to
// offer the listing again.
type ListingSoldOutEvent struct {
	ListingID  ListingID
	OccurredAt time.Time
}

func (ListingSoldOutEvent) EventName() string { return "listing.sold_out" }

func NewListingSoldOutEvent(id ListingID) ListingSoldOutEvent {
	return ListingSoldOutEvent{ListingID: id, OccurredAt: time.Now().UTC()}
}

type ListingRestoredEvent struct {
	ListingID  ListingID
	OrderID    OrderID
	OccurredAt time.Time
}

func (ListingRestoredEvent) EventName() string { return "listing.restored" }

func NewListingRestoredEvent(l ListingID, o OrderID) ListingRestoredEvent {
	return ListingRestoredEvent{ListingID: l, OrderID: o, OccurredAt: time.Now().UTC()}
}

type OrderCreatedEvent struct {
	OrderID    OrderID
	ListingID  ListingID
	Buyer      AccountID
	Seller     AccountID
	TotalPrice uint64
	OccurredAt time.Time
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:    o.ID,
		ListingID:  o.Listing.ListingID,
		Buyer:      o.Buyer,
		Seller:     o.Listing.Seller,
		TotalPrice: o.Listing.TotalPrice,
		OccurredAt: time.Now().UTC(),
	}
}

type OrderShippedEvent struct {
	OrderID    OrderID
	OccurredAt time.Time
}

func (OrderShippedEvent) EventName() string { return "order.shipped" }

func NewOrderShippedEvent(o *Order) OrderShippedEvent {
	return OrderShippedEvent{OrderID: o.ID, OccurredAt: time.Now().UTC()}
}

type OrderReceivedEvent struct {
	OrderID    OrderID
	OccurredAt time.Time
}

func (OrderReceivedEvent) EventName() string { return "order.received" }

func NewOrderReceivedEvent(o *Order) OrderReceivedEvent {
	return OrderReceivedEvent{OrderID: o.ID, OccurredAt: time.Now().UTC()}
}

type OrderCancelRequestedEvent struct {
	OrderID    OrderID
	Party      Party
	OccurredAt time.Time
}

func (OrderCancelRequestedEvent) EventName() string { return "order.cancel_requested" }

func NewOrderCancelRequestedEvent(o *Order, p Party) OrderCancelRequestedEvent {
	return OrderCancelRequestedEvent{OrderID: o.ID, Party: p, OccurredAt: time.Now().UTC()}
}

type OrderCancelledEvent struct {
	OrderID    OrderID
	Restock    string
	OccurredAt time.Time
}

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }

func NewOrderCancelledEvent(o *Order, restock string) OrderCancelledEvent {
	return OrderCancelledEvent{OrderID: o.ID, Restock: restock, OccurredAt: time.Now().UTC()}
}

type OrderRatedEvent struct {
	OrderID    OrderID
	Party      Party
	Score      Score
	OccurredAt time.Time
}

func (OrderRatedEvent) EventName() string { return "order.rated" }

func NewOrderRatedEvent(o *Order, p Party, s Score) OrderRatedEvent {
	return OrderRatedEvent{OrderID: o.ID, Party: p, Score: s, OccurredAt: time.Now().UTC()}
}

// EventNames lists every event the marketplace publishes.
func EventNames() []string {
	return []string{
		UserRegisteredEvent{}.EventName(),
		RoleChangedEvent{}.EventName(),
		ProductLoadedEvent{}.EventName(),
		ListingCreatedEvent{}.EventName(),
		ListingSoldOutEvent{}.EventName(),
		ListingRestoredEvent{}.EventName(),
		OrderCreatedEvent{}.EventName(),
		OrderShippedEvent{}.EventName(),
		OrderReceivedEvent{}.EventName(),
		OrderCancelRequestedEvent{}.EventName(),
		OrderCancelledEvent{}.EventName(),
		OrderRatedEvent{}.EventName(),
	}
}
