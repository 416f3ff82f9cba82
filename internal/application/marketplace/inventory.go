package marketplace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
)

const (
	useCaseLoadProduct  = "inventory.load_product"
	useCaseCheckStock   = "inventory.check_stock"
	useCaseViewProducts = "inventory.view_products"
)

type ProductInput struct {
	Name        string
	Description string
	Price       uint64
	Category    string
}

// LoadProduct registers a new product with its initial stock under the
// caller's seller profile.
func (s *Service) LoadProduct(ctx context.Context, caller market.AccountID, in ProductInput, stock uint32) (*market.StockItem, error) {
	var out *market.StockItem
	err := s.execute(ctx, useCaseLoadProduct, "LoadProduct", func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		u, err := s.user(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !u.IsSeller() {
			return nil, market.ErrNotSeller
		}
		seq, err := s.next(ctx)
		if err != nil {
			return nil, err
		}
		it, err := market.NewStockItem(market.Product{
			ID:          seq.Product,
			Name:        in.Name,
			Description: in.Description,
			Price:       in.Price,
			Category:    in.Category,
		}, stock)
		if err != nil {
			return nil, err
		}
		u.AddProduct(it.Product.ID)

		if err := s.commit(ctx, func(b market.Batch) {
			b.PutStockItem(it)
			b.PutUser(u)
		}); err != nil {
			return nil, err
		}

		span.SetAttributes(attribute.Int64("product.id", int64(it.Product.ID)))
		out = it
		return []domoutbox.Event{market.NewProductLoadedEvent(caller, it)}, nil
	}, attribute.String("account.id", string(caller)))
	return out, err
}

// CheckStock fails if any line asks for more than the current stock.
func (s *Service) CheckStock(ctx context.Context, lines []market.Line) error {
	return s.execute(ctx, useCaseCheckStock, "CheckStock", func(ctx context.Context, _ trace.Span) ([]domoutbox.Event, error) {
		st, err := s.loadStock(ctx, lines)
		if err != nil {
			return nil, err
		}
		return nil, st.check(lines)
	}, attribute.Int("lines", len(lines)))
}

// ViewProducts lists the caller's products with their current stock.
func (s *Service) ViewProducts(ctx context.Context, caller market.AccountID) ([]*market.StockItem, error) {
	var out []*market.StockItem
	err := s.execute(ctx, useCaseViewProducts, "ViewProducts", func(ctx context.Context, _ trace.Span) ([]domoutbox.Event, error) {
		u, err := s.user(ctx, caller)
		if err != nil {
			return nil, err
		}
		if u.Seller == nil {
			return nil, market.ErrNotSeller
		}
		out = make([]*market.StockItem, 0, len(u.Seller.Products))
		for _, id := range u.Seller.Products {
			it, err := s.store.StockItem(ctx, id)
			if err != nil {
				return nil, wrapStoreError(err)
			}
			out = append(out, it)
		}
		return nil, nil
	}, attribute.String("account.id", string(caller)))
	return out, err
}

// stock is a working copy of the stock items an operation touches. Changes
// reach the store only through stage.
type stock struct {
	items map[market.ProductID]*market.StockItem
	order []market.ProductID
}

func (s *Service) loadStock(ctx context.Context, lines []market.Line) (*stock, error) {
	st := &stock{items: make(map[market.ProductID]*market.StockItem, len(lines))}
	for _, l := range lines {
		if _, ok := st.items[l.ProductID]; ok {
			continue
		}
		it, err := s.store.StockItem(ctx, l.ProductID)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		st.items[l.ProductID] = it
		st.order = append(st.order, l.ProductID)
	}
	return st, nil
}

func (st *stock) check(lines []market.Line) error {
	for _, l := range lines {
		if !st.items[l.ProductID].Covers(l.Quantity) {
			return market.ErrInsufficientStock
		}
	}
	return nil
}

func (st *stock) price(id market.ProductID) (uint64, error) {
	it, ok := st.items[id]
	if !ok {
		return 0, market.ErrProductNotFound
	}
	return it.Product.Price, nil
}

func (st *stock) decrement(lines []market.Line) error {
	for _, l := range lines {
		if err := st.items[l.ProductID].Deduct(l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (st *stock) increment(lines []market.Line) error {
	for _, l := range lines {
		if err := st.items[l.ProductID].Restock(l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (st *stock) stage(b market.Batch) {
	for _, id := range st.order {
		b.PutStockItem(st.items[id])
	}
}
