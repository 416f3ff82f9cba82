package marketplace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/fault"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.EventName())
	return p.err
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type fixture struct {
	ctx   context.Context
	svc   *Service
	store *memory.Store
	pub   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	return &fixture{
		ctx:   context.Background(),
		svc:   NewService(store, pub, observability.Nop()),
		store: store,
		pub:   pub,
	}
}

func (f *fixture) register(t *testing.T, id market.AccountID, role market.Role) {
	t.Helper()
	_, err := f.svc.Register(f.ctx, id, market.Profile{FirstName: string(id)}, role)
	require.NoError(t, err)
}

func (f *fixture) product(t *testing.T, seller market.AccountID, price uint64, stock uint32) market.ProductID {
	t.Helper()
	it, err := f.svc.LoadProduct(f.ctx, seller, ProductInput{Name: "item", Price: price, Category: "general"}, stock)
	require.NoError(t, err)
	return it.Product.ID
}

func (f *fixture) stock(t *testing.T, id market.ProductID) uint32 {
	t.Helper()
	it, err := f.store.StockItem(f.ctx, id)
	require.NoError(t, err)
	return it.Stock
}

func (f *fixture) listing(t *testing.T, seller market.AccountID, lines ...market.Line) *market.Listing {
	t.Helper()
	l, err := f.svc.CreateListing(f.ctx, seller, lines)
	require.NoError(t, err)
	return l
}

func line(p market.ProductID, q uint32) market.Line {
	return market.Line{ProductID: p, Quantity: q}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Register(f.ctx, "ana", market.Profile{FirstName: "Ana", Email: "ana@example.com"}, market.RoleBuyer)
	require.NoError(t, err)
	require.NotNil(t, u.Buyer)
	require.Nil(t, u.Seller)
	require.EqualValues(t, 1, u.Seq)

	_, err = f.svc.Register(f.ctx, "ana", market.Profile{FirstName: "Other"}, market.RoleSeller)
	require.ErrorIs(t, err, market.ErrAlreadyRegistered)

	_, err = f.svc.Register(f.ctx, "bob", market.Profile{}, market.Role(9))
	require.ErrorIs(t, err, market.ErrInvalidRole)

	both, err := f.svc.Register(f.ctx, "cai", market.Profile{}, market.RoleBoth)
	require.NoError(t, err)
	require.NotNil(t, both.Buyer)
	require.NotNil(t, both.Seller)
	require.EqualValues(t, 2, both.Seq)

	require.Equal(t, []string{"account.registered", "account.registered"}, f.pub.names())
}

func TestChangeRoleKeepsHistory(t *testing.T) {
	f := newFixture(t)
	f.register(t, "sam", market.RoleSeller)
	p := f.product(t, "sam", 10, 3)

	_, err := f.svc.ChangeRole(f.ctx, "sam", market.RoleSeller)
	require.ErrorIs(t, err, market.ErrSameRole)

	u, err := f.svc.ChangeRole(f.ctx, "sam", market.RoleBuyer)
	require.NoError(t, err)
	require.Equal(t, market.RoleBuyer, u.Role)
	require.NotNil(t, u.Buyer)
	require.Equal(t, []market.ProductID{p}, u.Seller.Products)

	_, err = f.svc.LoadProduct(f.ctx, "sam", ProductInput{Price: 1}, 1)
	require.ErrorIs(t, err, market.ErrNotSeller)

	// the old seller profile is still visible
	items, err := f.svc.ViewProducts(f.ctx, "sam")
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = f.svc.ChangeRole(f.ctx, "ghost", market.RoleBoth)
	require.ErrorIs(t, err, market.ErrUserNotFound)
}

func TestLoadProduct(t *testing.T) {
	f := newFixture(t)
	f.register(t, "sam", market.RoleSeller)
	f.register(t, "bea", market.RoleBuyer)

	it, err := f.svc.LoadProduct(f.ctx, "sam", ProductInput{
		Name: "lamp", Description: "desk lamp", Price: 250, Category: "home",
	}, 7)
	require.NoError(t, err)
	require.EqualValues(t, 1, it.Product.ID)

	got, err := f.store.StockItem(f.ctx, it.Product.ID)
	require.NoError(t, err)
	require.Equal(t, market.Product{ID: 1, Name: "lamp", Description: "desk lamp", Price: 250, Category: "home"}, got.Product)
	require.EqualValues(t, 7, got.Stock)
	require.NoError(t, f.svc.VerifyOwnership(f.ctx, "sam", it.Product.ID))

	_, err = f.svc.LoadProduct(f.ctx, "sam", ProductInput{Price: 0}, 1)
	require.ErrorIs(t, err, market.ErrInvalidPrice)
	_, err = f.svc.LoadProduct(f.ctx, "sam", ProductInput{Price: 1}, 0)
	require.ErrorIs(t, err, market.ErrInvalidStock)
	_, err = f.svc.LoadProduct(f.ctx, "bea", ProductInput{Price: 1}, 1)
	require.ErrorIs(t, err, market.ErrNotSeller)

	require.ErrorIs(t, f.svc.VerifyOwnership(f.ctx, "bea", it.Product.ID), market.ErrNotOwner)
	_, err = f.svc.ViewProducts(f.ctx, "bea")
	require.ErrorIs(t, err, market.ErrNotSeller)
}

func TestCheckStock(t *testing.T) {
	f := newFixture(t)
	f.register(t, "sam", market.RoleSeller)
	p := f.product(t, "sam", 5, 2)

	require.NoError(t, f.svc.CheckStock(f.ctx, []market.Line{line(p, 2)}))
	require.ErrorIs(t, f.svc.CheckStock(f.ctx, []market.Line{line(p, 3)}), market.ErrInsufficientStock)
	require.ErrorIs(t, f.svc.CheckStock(f.ctx, []market.Line{line(99, 1)}), market.ErrProductNotFound)
}

func TestCreateListing(t *testing.T) {
	f := newFixture(t)
	f.register(t, "sam", market.RoleSeller)
	f.register(t, "tom", market.RoleSeller)
	f.register(t, "bea", market.RoleBuyer)
	p1 := f.product(t, "sam", 100, 5)
	p2 := f.product(t, "sam", 30, 4)
	other := f.product(t, "tom", 1, 1)

	l := f.listing(t, "sam", line(p1, 2), line(p2, 1))
	require.EqualValues(t, 230, l.TotalPrice)
	require.True(t, l.Available)
	require.Equal(t, market.AccountID("sam"), l.Seller)
	require.EqualValues(t, 3, f.stock(t, p1))
	require.EqualValues(t, 3, f.stock(t, p2))

	u, err := f.svc.ViewUser(f.ctx, "sam")
	require.NoError(t, err)
	require.Equal(t, []market.ListingID{l.ID}, u.Seller.Listings)

	got, err := f.svc.ViewListing(f.ctx, l.ID)
	require.NoError(t, err)
	require.Equal(t, l.Lines, got.Lines)
	_, err = f.svc.ViewListing(f.ctx, 42)
	require.ErrorIs(t, err, market.ErrListingNotFound)

	cases := []struct {
		name   string
		caller market.AccountID
		lines  []market.Line
		want   error
	}{
		{"buyer", "bea", []market.Line{line(p1, 1)}, market.ErrNotSeller},
		{"empty", "sam", nil, market.ErrEmptyListing},
		{"zero quantity", "sam", []market.Line{line(p1, 1), line(p2, 0)}, market.ErrInvalidQuantity},
		{"duplicate", "sam", []market.Line{line(p1, 1), line(p1, 1)}, market.ErrDuplicateProduct},
		{"not owner", "sam", []market.Line{line(other, 1)}, market.ErrNotOwner},
		{"insufficient", "sam", []market.Line{line(p1, 1), line(p2, 1000)}, market.ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateListing(f.ctx, tc.caller, tc.lines)
			require.ErrorIs(t, err, tc.want)
			require.EqualValues(t, 3, f.stock(t, p1))
			require.EqualValues(t, 3, f.stock(t, p2))
		})
	}
}

func TestCreateListingOverflowLeavesStock(t *testing.T) {
	f := newFixture(t)
	f.register(t, "sam", market.RoleSeller)
	big := f.product(t, "sam", 1<<62, 8)

	_, err := f.svc.CreateListing(f.ctx, "sam", []market.Line{line(big, 4)})
	require.Error(t, err)
	require.Equal(t, "ArithmeticOverflow", fault.CodeOf(err))
	require.EqualValues(t, 8, f.stock(t, big))
}

func TestCreateOrderScenario(t *testing.T) {
	f := newFixture(t)
	f.register(t, "S", market.RoleSeller)
	f.register(t, "B", market.RoleBuyer)
	p := f.product(t, "S", 100, 5)

	l := f.listing(t, "S", line(p, 2))
	require.EqualValues(t, 200, l.TotalPrice)
	require.EqualValues(t, 3, f.stock(t, p))

	o, err := f.svc.CreateOrder(f.ctx, "B", l.ID)
	require.NoError(t, err)
	require.EqualValues(t, 200, o.Listing.TotalPrice)
	require.Equal(t, market.StatusPending, o.Status)
	require.EqualValues(t, 1, f.stock(t, p))

	got, err := f.svc.ViewListing(f.ctx, l.ID)
	require.NoError(t, err)
	require.True(t, got.Available)

	o, err = f.svc.RequestCancel(f.ctx, "B", o.ID)
	require.NoError(t, err)
	require.Equal(t, market.StatusPending, o.Status)
	require.True(t, o.Cancel.Buyer)

	o, err = f.svc.RequestCancel(f.ctx, "S", o.ID)
	require.NoError(t, err)
	require.Equal(t, market.StatusCancelled, o.Status)
	require.EqualValues(t, 3, f.stock(t, p))

	require.Contains(t, f.pub.names(), "order.cancelled")
}

func TestCreateOrderSellsOutAndCancelRestoresListing(t *testing.T) {
	f := newFixture(t)
	f.register(t, "S", market.RoleSeller)
	f.register(t, "B", market.RoleBuyer)
	p := f.product(t, "S", 10, 3)
	l := f.listing(t, "S", line(p, 2))
	require.EqualValues(t, 1, f.stock(t, p))

	o, err := f.svc.CreateOrder(f.ctx, "B", l.ID)
	require.NoError(t, err)
	got, _ := f.svc.ViewListing(f.ctx, l.ID)
	require.False(t, got.Available)
	require.EqualValues(t, 1, f.stock(t, p))
	require.Contains(t, f.pub.names(), "listing.sold_out")

	_, err = f.svc.CreateOrder(f.ctx, "B", l.ID)
	require.ErrorIs(t, err, market.ErrListingUnavailable)

	_, err = f.svc.RequestCancel(f.ctx, "B", o.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestCancel(f.ctx, "S", o.ID)
	require.NoError(t, err)

	got, _ = f.svc.ViewListing(f.ctx, l.ID)
	require.True(t, got.Available)
	require.EqualValues(t, 1, f.stock(t, p))
	require.Contains(t, f.pub.names(), "listing.restored")
}

func TestCreateOrderFailures(t *testing.T) {
	f := newFixture(t)
	f.register(t, "S", market.RoleSeller)
	f.register(t, "B", market.RoleBuyer)
	f.register(t, "X", market.RoleSeller)
	p := f.product(t, "S", 10, 10)
	l := f.listing(t, "S", line(p, 1))

	_, err := f.svc.CreateOrder(f.ctx, "B", 77)
	require.ErrorIs(t, err, market.ErrListingNotFound)
	_, err = f.svc.CreateOrder(f.ctx, "S", l.ID)
	require.ErrorIs(t, err, market.ErrSelfPurchase)
	_, err = f.svc.CreateOrder(f.ctx, "X", l.ID)
	require.ErrorIs(t, err, market.ErrNotBuyer)
	_, err = f.svc.CreateOrder(f.ctx, "nobody", l.ID)
	require.ErrorIs(t, err, market.ErrUserNotFound)

	first, err := f.svc.CreateOrder(f.ctx, "B", l.ID)
	require.NoError(t, err)

	_, err = f.svc.ChangeRole(f.ctx, "S", market.RoleBuyer)
	require.NoError(t, err)
	before := f.stock(t, p)
	_, err = f.svc.CreateOrder(f.ctx, "B", l.ID)
	require.ErrorIs(t, err, market.ErrSellerRoleChanged)
	require.Equal(t, before, f.stock(t, p))

	// earlier orders are untouched and can still be shipped
	o, err := f.svc.Ship(f.ctx, "S", first.ID)
	require.NoError(t, err)
	require.Equal(t, market.StatusShipped, o.Status)
}

func TestShipAndReceive(t *testing.T) {
	f := newFixture(t)
	f.register(t, "S", market.RoleSeller)
	f.register(t, "T", market.RoleBoth)
	f.register(t, "B", market.RoleBuyer)
	p := f.product(t, "S", 10, 10)
	l := f.listing(t, "S", line(p, 1))
	o, err := f.svc.CreateOrder(f.ctx, "B", l.ID)
	require.NoError(t, err)

	_, err = f.svc.Receive(f.ctx, "B", o.ID)
	require.ErrorIs(t, err, market.ErrWrongState)
	_, err = f.svc.Ship(f.ctx, "T", o.ID)
	require.ErrorIs(t, err, market.ErrNotListingOwner)
	_, err = f.svc.Ship(f.ctx, "S", 404)
	require.ErrorIs(t, err, market.ErrOrderNotFound)

	o, err = f.svc.Ship(f.ctx, "S", o.ID)
	require.NoError(t, err)
	require.Equal(t, market.StatusShipped, o.Status)
	_, err = f.svc.Ship(f.ctx, "S", o.ID)
	require.ErrorIs(t, err, market.ErrWrongState)

	_, err = f.svc.Receive(f.ctx, "T", o.ID)
	require.ErrorIs(t, err, market.ErrNotBuyerOnOrder)
	o, err = f.svc.Receive(f.ctx, "B", o.ID)
	require.NoError(t, err)
	require.Equal(t, market.StatusReceived, o.Status)
	_, err = f.svc.Receive(f.ctx, "B", o.ID)
	require.ErrorIs(t, err, market.ErrWrongState)

	got, err := f.svc.ViewOrder(f.ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, market.StatusReceived, got.Status)
}

func TestRequestCancelRules(t *testing.T) {
	f := newFixture(t)
	f.register(t, "S", market.RoleSeller)
	f.register(t, "B", market.RoleBuyer)
	f.register(t, "Z", market.RoleBoth)
	p := f.product(t, "S", 10, 10)
	l := f.listing(t, "S", line(p, 1))
	o, err := f.svc.CreateOrder(f.ctx, "B", l.ID)
	require.NoError(t, err)

	_, err = f.svc.RequestCancel(f.ctx, "S", o.ID)
	require.ErrorIs(t, err, market.ErrBuyerHasNotConsented)
	_, err = f.svc.RequestCancel(f.ctx, "Z", o.ID)
	require.ErrorIs(t, err, market.ErrNotParticipant)

	_, err = f.svc.RequestCancel(f.ctx, "B", o.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestCancel(f.ctx, "B", o.ID)
	require.ErrorIs(t, err, market.ErrAlreadyRequested)

	o2, err := f.svc.CreateOrder(f.ctx, "B", l.ID)
	require.NoError(t, err)
	_, err = f.svc.Ship(f.ctx, "S", o2.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestCancel(f.ctx, "B", o2.ID)
	require.ErrorIs(t, err, market.ErrNotCancellable)
}

func TestRate(t *testing.T) {
	f := newFixture(t)
	f.register(t, "S", market.RoleSeller)
	f.register(t, "B", market.RoleBuyer)
	f.register(t, "Z", market.RoleBoth)
	p := f.product(t, "S", 10, 10)
	l := f.listing(t, "S", line(p, 1))
	o, err := f.svc.CreateOrder(f.ctx, "B", l.ID)
	require.NoError(t, err)

	_, err = f.svc.Rate(f.ctx, "B", o.ID, 4)
	require.ErrorIs(t, err, market.ErrOrderNotReceived)

	_, err = f.svc.Ship(f.ctx, "S", o.ID)
	require.NoError(t, err)
	_, err = f.svc.Receive(f.ctx, "B", o.ID)
	require.NoError(t, err)

	for _, bad := range []int{0, 6, -1, 100} {
		_, err = f.svc.Rate(f.ctx, "B", o.ID, bad)
		require.ErrorIs(t, err, market.ErrInvalidScore)
	}
	_, err = f.svc.Rate(f.ctx, "Z", o.ID, 3)
	require.ErrorIs(t, err, market.ErrNotParticipant)

	o, err = f.svc.Rate(f.ctx, "B", o.ID, 4)
	require.NoError(t, err)
	require.EqualValues(t, 4, o.Ratings.OfSeller)
	_, err = f.svc.Rate(f.ctx, "B", o.ID, 5)
	require.ErrorIs(t, err, market.ErrAlreadyRated)

	o, err = f.svc.Rate(f.ctx, "S", o.ID, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, o.Ratings.OfBuyer)
	_, err = f.svc.Rate(f.ctx, "S", o.ID, 2)
	require.ErrorIs(t, err, market.ErrAlreadyRated)

	seller, _ := f.svc.ViewUser(f.ctx, "S")
	buyer, _ := f.svc.ViewUser(f.ctx, "B")
	require.Equal(t, []market.Score{4}, seller.Seller.Reputation)
	require.Equal(t, []market.Score{2}, buyer.Buyer.Reputation)
}

func TestAccessors(t *testing.T) {
	f := newFixture(t)
	f.register(t, "S", market.RoleSeller)
	f.register(t, "B", market.RoleBuyer)
	p := f.product(t, "S", 10, 10)
	f.product(t, "S", 20, 10)
	l := f.listing(t, "S", line(p, 1))
	_, err := f.svc.CreateOrder(f.ctx, "B", l.ID)
	require.NoError(t, err)

	users, err := f.svc.Users(f.ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, market.AccountID("S"), users[0].ID)

	products, err := f.svc.Products(f.ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.EqualValues(t, 20, products[1].Price)

	orders, err := f.svc.Orders(f.ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestPublishFailureDoesNotFailUseCase(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("bus down")

	_, err := f.svc.Register(f.ctx, "ana", market.Profile{}, market.RoleBuyer)
	require.NoError(t, err)
	_, err = f.svc.ViewUser(f.ctx, "ana")
	require.NoError(t, err)
}

func TestCanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Register(ctx, "ana", market.Profile{}, market.RoleBuyer)
	require.ErrorIs(t, err, context.Canceled)
	_, err = f.svc.ViewUser(f.ctx, "ana")
	require.ErrorIs(t, err, market.ErrUserNotFound)
}
