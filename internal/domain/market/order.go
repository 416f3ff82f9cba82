package market

import (
	"slices"
	"time"
)

type OrderID uint32

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// Delivered reports whether the order left the seller and was not cancelled.
func (s Status) Delivered() bool {
	return s == StatusShipped || s == StatusReceived
}

// Snapshot freezes the listing as it was when the order was placed.
type Snapshot struct {
	ListingID  ListingID `json:"listing_id"`
	Lines      []Line    `json:"lines"`
	TotalPrice uint64    `json:"total_price"`
	Seller     AccountID `json:"seller"`
}

type CancelRequests struct {
	Seller bool `json:"seller"`
	Buyer  bool `json:"buyer"`
}

// Ratings holds the two one-shot rating slots of an order.
type Ratings struct {
	OfBuyer  Score `json:"of_buyer,omitempty"`
	OfSeller Score `json:"of_seller,omitempty"`
}

type Order struct {
	ID        OrderID        `json:"id"`
	Status    Status         `json:"status"`
	Cancel    CancelRequests `json:"cancel"`
	Listing   Snapshot       `json:"listing"`
	Buyer     AccountID      `json:"buyer"`
	Ratings   Ratings        `json:"ratings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewOrder(id OrderID, buyer AccountID, l *Listing) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:     id,
		Status: StatusPending,
		Listing: Snapshot{
			ListingID:  l.ID,
			Lines:      slices.Clone(l.Lines),
			TotalPrice: l.TotalPrice,
			Seller:     l.Seller,
		},
		Buyer:     buyer,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type Party uint8

const (
	PartySeller Party = iota + 1
	PartyBuyer
)

func (p Party) String() string {
	switch p {
	case PartySeller:
		return "seller"
	case PartyBuyer:
		return "buyer"
	default:
		return "none"
	}
}

// PartyOf resolves which side of the order caller is on.
func (o *Order) PartyOf(caller AccountID) (Party, error) {
	switch caller {
	case o.Listing.Seller:
		return PartySeller, nil
	case o.Buyer:
		return PartyBuyer, nil
	default:
		return 0, ErrNotParticipant
	}
}

func (o *Order) Ship() error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnShip(o) })
}

func (o *Order) Receive() error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnReceive(o) })
}

// RequestCancel records p's cancellation request and reports whether the
// order ended up cancelled.
func (o *Order) RequestCancel(p Party) (bool, error) {
	if err := o.apply(func(s OrderState) (OrderState, error) { return s.OnCancelRequest(o, p) }); err != nil {
		return false, err
	}
	return o.Status == StatusCancelled, nil
}

// Rate fills p's rating slot.
func (o *Order) Rate(p Party, s Score) error {
	if s < MinScore || s > MaxScore {
		return ErrInvalidScore
	}
	if o.Status != StatusReceived {
		return ErrOrderNotReceived
	}
	slot := &o.Ratings.OfSeller
	if p == PartySeller {
		slot = &o.Ratings.OfBuyer
	}
	if *slot != 0 {
		return ErrAlreadyRated
	}
	*slot = s
	o.touch()
	return nil
}

func (o *Order) apply(transition func(OrderState) (OrderState, error)) error {
	next, err := transition(stateFor(o.Status))
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Listing.Lines = slices.Clone(o.Listing.Lines)
	return &c
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
