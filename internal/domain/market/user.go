package market

import (
	"slices"
	"strings"
	"time"
)

// AccountID is the platform-supplied caller identity. It is opaque.
type AccountID string

type Role uint8

const (
	RoleBuyer Role = iota + 1
	RoleSeller
	RoleBoth
)

func (r Role) Valid() bool { return r >= RoleBuyer && r <= RoleBoth }

func (r Role) CanBuy() bool { return r == RoleBuyer || r == RoleBoth }

func (r Role) CanSell() bool { return r == RoleSeller || r == RoleBoth }

func (r Role) String() string {
	switch r {
	case RoleBuyer:
		return "buyer"
	case RoleSeller:
		return "seller"
	case RoleBoth:
		return "both"
	default:
		return "unknown"
	}
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buyer":
		return RoleBuyer, nil
	case "seller":
		return RoleSeller, nil
	case "both":
		return RoleBoth, nil
	default:
		return 0, ErrInvalidRole
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrInvalidRole
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Email     string `json:"email"`
}

type BuyerProfile struct {
	Orders     []OrderID `json:"orders"`
	Reputation []Score   `json:"reputation"`
}

type SellerProfile struct {
	Products   []ProductID `json:"products"`
	Listings   []ListingID `json:"listings"`
	Reputation []Score     `json:"reputation"`
}

// User keeps both sub-profiles regardless of the current role. A sub-profile
// is allocated the first time the user holds a role that needs it and is
// never dropped afterwards.
type User struct {
	ID           AccountID      `json:"id"`
	Seq          uint32         `json:"seq"`
	Profile      Profile        `json:"profile"`
	Role         Role           `json:"role"`
	Buyer        *BuyerProfile  `json:"buyer,omitempty"`
	Seller       *SellerProfile `json:"seller,omitempty"`
	RegisteredAt time.Time      `json:"registered_at"`
}

func NewUser(id AccountID, seq uint32, profile Profile, role Role) (*User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	u := &User{
		ID:           id,
		Seq:          seq,
		Profile:      profile,
		Role:         role,
		RegisteredAt: time.Now().UTC(),
	}
	u.allocateProfiles()
	return u, nil
}

func (u *User) ChangeRole(role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if role == u.Role {
		return ErrSameRole
	}
	u.Role = role
	u.allocateProfiles()
	return nil
}

func (u *User) allocateProfiles() {
	if u.Role.CanBuy() && u.Buyer == nil {
		u.Buyer = &BuyerProfile{}
	}
	if u.Role.CanSell() && u.Seller == nil {
		u.Seller = &SellerProfile{}
	}
}

func (u *User) IsBuyer() bool { return u.Role.CanBuy() }

func (u *User) IsSeller() bool { return u.Role.CanSell() }

func (u *User) OwnsProduct(id ProductID) bool {
	return u.Seller != nil && slices.Contains(u.Seller.Products, id)
}

func (u *User) PublishedListing(id ListingID) bool {
	return u.Seller != nil && slices.Contains(u.Seller.Listings, id)
}

func (u *User) PlacedOrder(id OrderID) bool {
	return u.Buyer != nil && slices.Contains(u.Buyer.Orders, id)
}

func (u *User) AddProduct(id ProductID) {
	u.sellerProfile().Products = append(u.sellerProfile().Products, id)
}

func (u *User) AddListing(id ListingID) {
	u.sellerProfile().Listings = append(u.sellerProfile().Listings, id)
}

func (u *User) AddOrder(id OrderID) {
	u.buyerProfile().Orders = append(u.buyerProfile().Orders, id)
}

// ReceiveSellerScore appends a score given by a buyer.
func (u *User) ReceiveSellerScore(s Score) {
	u.sellerProfile().Reputation = append(u.sellerProfile().Reputation, s)
}

// ReceiveBuyerScore appends a score given by a seller.
func (u *User) ReceiveBuyerScore(s Score) {
	u.buyerProfile().Reputation = append(u.buyerProfile().Reputation, s)
}

func (u *User) sellerProfile() *SellerProfile {
	if u.Seller == nil {
		u.Seller = &SellerProfile{}
	}
	return u.Seller
}

func (u *User) buyerProfile() *BuyerProfile {
	if u.Buyer == nil {
		u.Buyer = &BuyerProfile{}
	}
	return u.Buyer
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Buyer != nil {
		c.Buyer = &BuyerProfile{
			Orders:     slices.Clone(u.Buyer.Orders),
			Reputation: slices.Clone(u.Buyer.Reputation),
		}
	}
	if u.Seller != nil {
		c.Seller = &SellerProfile{
			Products:   slices.Clone(u.Seller.Products),
			Listings:   slices.Clone(u.Seller.Listings),
			Reputation: slices.Clone(u.Seller.Reputation),
		}
	}
	return &c
}
