package market

import (
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/checked"
)

type ProductID uint32

type Product struct {
	ID          ProductID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       uint64    `json:"price"`
	Category    string    `json:"category"`
}

// StockItem is a product together with its stock counter. The counter lives
// next to the product rather than inside it.
type StockItem struct {
	Product   Product   `json:"product"`
	Stock     uint32    `json:"stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Line is one (product, quantity) pair of a listing or order.
type Line struct {
	ProductID ProductID `json:"product_id"`
	Quantity  uint32    `json:"quantity"`
}

func NewStockItem(p Product, stock uint32) (*StockItem, error) {
	if p.Price == 0 {
		return nil, ErrInvalidPrice
	}
	if stock == 0 {
		return nil, ErrInvalidStock
	}
	return &StockItem{
		Product:   p,
		Stock:     stock,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Covers reports whether the stock can serve quantity.
func (i *StockItem) Covers(quantity uint32) bool {
	return quantity <= i.Stock
}

func (i *StockItem) Deduct(quantity uint32) error {
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	if !i.Covers(quantity) {
		return ErrInsufficientStock
	}
	left, err := checked.SubU32(i.Stock, quantity)
	if err != nil {
		return err
	}
	i.Stock = left
	i.touch()
	return nil
}

func (i *StockItem) Restock(quantity uint32) error {
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	total, err := checked.AddU32(i.Stock, quantity)
	if err != nil {
		return err
	}
	i.Stock = total
	i.touch()
	return nil
}

func (i *StockItem) Clone() *StockItem {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func (i *StockItem) touch() {
	i.UpdatedAt = time.Now().UTC()
}

// ValidateLines rejects empty line sets, zero quantities and repeated products.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return ErrEmptyListing
	}
	seen := make(map[ProductID]struct{}, len(lines))
	for _, l := range lines {
		if l.Quantity == 0 {
			return ErrInvalidQuantity
		}
		if _, dup := seen[l.ProductID]; dup {
			return ErrDuplicateProduct
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}
