// Package analytics computes rankings and statistics over marketplace
// snapshots. It keeps no state and never writes.
package analytics

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/checked"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/fault"
)

const (
	serviceName = "analytics-service"
	rankingSize = 5

	useCaseTopSellers     = "analytics.top_sellers"
	useCaseTopBuyers      = "analytics.top_buyers"
	useCaseTopProducts    = "analytics.top_products_sold"
	useCaseOrdersPerBuyer = "analytics.orders_per_buyer"
	useCaseCategories     = "analytics.category_statistics"
)

var (
	ErrNoBuyersFound = fault.New(fault.KindNotFound, "NoBuyersFound", "analytics: no buyers found")
	ErrInvalidTop    = fault.New(fault.KindValidation, "InvalidTop", "analytics: top must not be negative")
)

// Source is the read side of the marketplace. Each call returns a complete
// collection as of the call.
type Source interface {
	Users(ctx context.Context) ([]*market.User, error)
	Orders(ctx context.Context) ([]*market.Order, error)
	Products(ctx context.Context) ([]market.Product, error)
}

type Aggregator struct {
	src Source
	uc  *application.Instrument
}

func NewAggregator(src Source, tel observability.Observability) *Aggregator {
	return &Aggregator{src: src, uc: application.NewInstrument(tel, serviceName)}
}

type ReputationRank struct {
	Account market.AccountID `json:"account"`
	Mean    uint64           `json:"mean"`
}

type ProductSales struct {
	Product  market.ProductID `json:"product"`
	Quantity uint64           `json:"quantity"`
}

type BuyerOrders struct {
	Account market.AccountID `json:"account"`
	Orders  int              `json:"orders"`
}

type CategoryStats struct {
	Category      string `json:"category"`
	Units         uint64 `json:"units"`
	AverageRating uint64 `json:"average_rating"`
}

// TopSellers ranks users currently acting as sellers by mean seller
// reputation and returns at most five. Equal means keep registration order.
func (a *Aggregator) TopSellers(ctx context.Context) ([]ReputationRank, error) {
	return a.topByReputation(ctx, useCaseTopSellers, "TopSellers", func(u *market.User) ([]market.Score, bool) {
		if !u.IsSeller() {
			return nil, false
		}
		if u.Seller == nil {
			return nil, true
		}
		return u.Seller.Reputation, true
	})
}

// TopBuyers is TopSellers for users currently acting as buyers.
func (a *Aggregator) TopBuyers(ctx context.Context) ([]ReputationRank, error) {
	return a.topByReputation(ctx, useCaseTopBuyers, "TopBuyers", func(u *market.User) ([]market.Score, bool) {
		if !u.IsBuyer() {
			return nil, false
		}
		if u.Buyer == nil {
			return nil, true
		}
		return u.Buyer.Reputation, true
	})
}

func (a *Aggregator) topByReputation(
	ctx context.Context,
	useCase, spanName string,
	scores func(*market.User) ([]market.Score, bool),
) ([]ReputationRank, error) {
	var out []ReputationRank
	err := a.uc.Run(ctx, useCase, spanName, func(ctx context.Context, span trace.Span) (application.Report, error) {
		users, err := a.src.Users(ctx)
		if err != nil {
			return application.Report{}, err
		}
		ranks := make([]ReputationRank, 0, len(users))
		for _, u := range users {
			s, ok := scores(u)
			if !ok {
				continue
			}
			ranks = append(ranks, ReputationRank{Account: u.ID, Mean: market.MeanScore(s)})
		}
		sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Mean > ranks[j].Mean })
		if len(ranks) > rankingSize {
			ranks = ranks[:rankingSize]
		}
		span.SetAttributes(attribute.Int("result.count", len(ranks)))
		out = ranks
		return application.Report{}, nil
	})
	return out, err
}

// TopProductsSold sums sold quantities per product over shipped and received
// orders, largest first. A nil top returns every product; otherwise at most
// *top entries.
func (a *Aggregator) TopProductsSold(ctx context.Context, top *int) ([]ProductSales, error) {
	var out []ProductSales
	err := a.uc.Run(ctx, useCaseTopProducts, "TopProductsSold", func(ctx context.Context, span trace.Span) (application.Report, error) {
		if top != nil && *top < 0 {
			return application.Report{}, ErrInvalidTop
		}
		orders, err := a.src.Orders(ctx)
		if err != nil {
			return application.Report{}, err
		}

		idx := map[market.ProductID]int{}
		var sales []ProductSales
		for _, o := range orders {
			if !o.Status.Delivered() {
				continue
			}
			for _, l := range o.Listing.Lines {
				i, ok := idx[l.ProductID]
				if !ok {
					i = len(sales)
					idx[l.ProductID] = i
					sales = append(sales, ProductSales{Product: l.ProductID})
				}
				if sales[i].Quantity, err = checked.AddU64(sales[i].Quantity, uint64(l.Quantity)); err != nil {
					return application.Report{}, err
				}
			}
		}
		sort.SliceStable(sales, func(i, j int) bool { return sales[i].Quantity > sales[j].Quantity })
		if top != nil && *top < len(sales) {
			sales = sales[:*top]
		}
		if sales == nil {
			sales = []ProductSales{}
		}
		span.SetAttributes(attribute.Int("result.count", len(sales)))
		out = sales
		return application.Report{}, nil
	})
	return out, err
}

// OrdersPerBuyer reports how many orders every user with a buyer profile has
// placed, including users who no longer act as buyers.
func (a *Aggregator) OrdersPerBuyer(ctx context.Context) ([]BuyerOrders, error) {
	var out []BuyerOrders
	err := a.uc.Run(ctx, useCaseOrdersPerBuyer, "OrdersPerBuyer", func(ctx context.Context, span trace.Span) (application.Report, error) {
		users, err := a.src.Users(ctx)
		if err != nil {
			return application.Report{}, err
		}
		for _, u := range users {
			if u.Buyer == nil {
				continue
			}
			out = append(out, BuyerOrders{Account: u.ID, Orders: len(u.Buyer.Orders)})
		}
		if len(out) == 0 {
			return application.Report{}, ErrNoBuyersFound
		}
		span.SetAttributes(attribute.Int("result.count", len(out)))
		return application.Report{}, nil
	})
	return out, err
}

// CategoryStatistics groups shipped and received order lines by product
// category. The buyer's rating of an order counts once for each of its lines
// in that category; the average is rating points over units, rounded down.
func (a *Aggregator) CategoryStatistics(ctx context.Context) ([]CategoryStats, error) {
	var out []CategoryStats
	err := a.uc.Run(ctx, useCaseCategories, "CategoryStatistics", func(ctx context.Context, span trace.Span) (application.Report, error) {
		orders, err := a.src.Orders(ctx)
		if err != nil {
			return application.Report{}, err
		}
		products, err := a.src.Products(ctx)
		if err != nil {
			return application.Report{}, err
		}
		category := make(map[market.ProductID]string, len(products))
		for _, p := range products {
			category[p.ID] = p.Category
		}

		type acc struct {
			name          string
			units, points uint64
		}
		idx := map[string]int{}
		var groups []acc
		for _, o := range orders {
			if !o.Status.Delivered() {
				continue
			}
			rating := uint64(o.Ratings.OfSeller)
			for _, l := range o.Listing.Lines {
				name, ok := category[l.ProductID]
				if !ok {
					return application.Report{}, market.ErrProductNotFound
				}
				i, ok := idx[name]
				if !ok {
					i = len(groups)
					idx[name] = i
					groups = append(groups, acc{name: name})
				}
				g := &groups[i]
				if g.units, err = checked.AddU64(g.units, uint64(l.Quantity)); err != nil {
					return application.Report{}, err
				}
				if g.points, err = checked.AddU64(g.points, rating); err != nil {
					return application.Report{}, err
				}
			}
		}

		stats := make([]CategoryStats, 0, len(groups))
		for _, g := range groups {
			avg, err := checked.DivU64(g.points, g.units)
			if err != nil {
				return application.Report{}, err
			}
			stats = append(stats, CategoryStats{Category: g.name, Units: g.units, AverageRating: avg})
		}
		span.SetAttributes(attribute.Int("result.count", len(stats)))
		out = stats
		return application.Report{}, nil
	})
	return out, err
}
