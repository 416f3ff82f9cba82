package marketplace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
)

const (
	useCaseUsers    = "market.users"
	useCaseOrders   = "market.orders"
	useCaseProducts = "market.products"
)

// Users returns every user in registration order.
func (s *Service) Users(ctx context.Context) ([]*market.User, error) {
	var out []*market.User
	err := s.execute(ctx, useCaseUsers, "Users", func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		users, err := s.store.Users(ctx)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		span.SetAttributes(attribute.Int("result.count", len(users)))
		out = users
		return nil, nil
	})
	return out, err
}

// Orders returns every order in id order.
func (s *Service) Orders(ctx context.Context) ([]*market.Order, error) {
	var out []*market.Order
	err := s.execute(ctx, useCaseOrders, "Orders", func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		orders, err := s.store.Orders(ctx)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		span.SetAttributes(attribute.Int("result.count", len(orders)))
		out = orders
		return nil, nil
	})
	return out, err
}

// Products returns every product in id order, without stock.
func (s *Service) Products(ctx context.Context) ([]market.Product, error) {
	var out []market.Product
	err := s.execute(ctx, useCaseProducts, "Products", func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		items, err := s.store.StockItems(ctx)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		out = make([]market.Product, 0, len(items))
		for _, it := range items {
			out = append(out, it.Product)
		}
		span.SetAttributes(attribute.Int("result.count", len(out)))
		return nil, nil
	})
	return out, err
}
