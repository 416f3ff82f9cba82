package market

import "github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/fault"

var (
	ErrUserNotFound    = fault.New(fault.KindNotFound, "UserNotFound", "market: user not found")
	ErrProductNotFound = fault.New(fault.KindNotFound, "ProductNotFound", "market: product not found")
	ErrListingNotFound = fault.New(fault.KindNotFound, "ListingNotFound", "market: listing not found")
	ErrOrderNotFound   = fault.New(fault.KindNotFound, "OrderNotFound", "market: order not found")

	ErrNotSeller         = fault.New(fault.KindUnauthorized, "NotSeller", "market: caller is not a seller")
	ErrNotBuyer          = fault.New(fault.KindUnauthorized, "NotBuyer", "market: caller is not a buyer")
	ErrNotOwner          = fault.New(fault.KindUnauthorized, "NotOwner", "market: product not owned by caller")
	ErrNotListingOwner   = fault.New(fault.KindUnauthorized, "NotListingOwner", "market: listing not owned by caller")
	ErrNotBuyerOnOrder   = fault.New(fault.KindUnauthorized, "NotBuyerOnOrder", "market: caller did not place this order")
	ErrNotParticipant    = fault.New(fault.KindUnauthorized, "NotParticipant", "market: caller is not a party to this order")
	ErrSelfPurchase      = fault.New(fault.KindUnauthorized, "SelfPurchase", "market: seller cannot buy own listing")
	ErrSellerRoleChanged = fault.New(fault.KindUnauthorized, "SellerRoleChanged", "market: listing seller is no longer selling")

	ErrAlreadyRegistered  = fault.New(fault.KindConflict, "AlreadyRegistered", "market: user already registered")
	ErrSameRole           = fault.New(fault.KindConflict, "SameRole", "market: role unchanged")
	ErrListingUnavailable = fault.New(fault.KindConflict, "ListingUnavailable", "market: listing unavailable")
	ErrWrongState         = fault.New(fault.KindConflict, "WrongState", "market: order in wrong state")
	ErrNotCancellable     = fault.New(fault.KindConflict, "NotCancellable", "market: order can no longer be cancelled")
	ErrAlreadyRequested   = fault.New(fault.KindConflict, "AlreadyRequested", "market: cancellation already requested")
	ErrOrderNotReceived   = fault.New(fault.KindConflict, "OrderNotReceived", "market: order not received")
	ErrAlreadyRated       = fault.New(fault.KindConflict, "AlreadyRated", "market: order already rated")
	ErrInsufficientStock  = fault.New(fault.KindConflict, "InsufficientStock", "market: insufficient stock")

	ErrInvalidRole      = fault.New(fault.KindValidation, "InvalidRole", "market: invalid role")
	ErrInvalidPrice     = fault.New(fault.KindValidation, "InvalidPrice", "market: price must be greater than zero")
	ErrInvalidStock     = fault.New(fault.KindValidation, "InvalidStock", "market: stock must be greater than zero")
	ErrInvalidQuantity  = fault.New(fault.KindValidation, "InvalidQuantity", "market: quantity must be greater than zero")
	ErrEmptyListing     = fault.New(fault.KindValidation, "EmptyListing", "market: listing needs at least one product")
	ErrDuplicateProduct = fault.New(fault.KindValidation, "DuplicateProduct", "market: product listed more than once")
	ErrInvalidScore     = fault.New(fault.KindValidation, "InvalidScore", "market: score must be between 1 and 5")

	ErrBuyerHasNotConsented = fault.New(fault.KindConsent, "BuyerHasNotConsented", "market: buyer has not requested cancellation")
)
