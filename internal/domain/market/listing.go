package market

import (
	"slices"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/checked"
)

type ListingID uint32

// Listing is a seller's offer of product lines at a price fixed on creation.
// Only Available changes afterwards.
type Listing struct {
	ID         ListingID `json:"id"`
	Lines      []Line    `json:"lines"`
	TotalPrice uint64    `json:"total_price"`
	Seller     AccountID `json:"seller"`
	Available  bool      `json:"available"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewListing(id ListingID, seller AccountID, lines []Line, total uint64) *Listing {
	return &Listing{
		ID:         id,
		Lines:      slices.Clone(lines),
		TotalPrice: total,
		Seller:     seller,
		Available:  true,
		CreatedAt:  time.Now().UTC(),
	}
}

// TotalPrice sums unit price times quantity over lines.
func TotalPrice(lines []Line, price func(ProductID) (uint64, error)) (uint64, error) {
	var total uint64
	for _, l := range lines {
		unit, err := price(l.ProductID)
		if err != nil {
			return 0, err
		}
		sub, err := checked.MulU64(unit, uint64(l.Quantity))
		if err != nil {
			return 0, err
		}
		if total, err = checked.AddU64(total, sub); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.Lines = slices.Clone(l.Lines)
	return &c
}
