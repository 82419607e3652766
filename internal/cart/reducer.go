// Package cart implements the optimistic-then-reconcile cart engine.
//
// All state transitions go through Reduce. The Engine applies an optimistic
// intent, persists it, calls the remote cart API and then replaces local
// state with the authoritative cart.
package cart

import (
	"fmt"

	"github.com/hammamikhairi/foodify/internal/domain"
)

// Intent is a cart state transition. The set of intents is closed: only
// the types in this file implement it.
type Intent interface {
	intent()
}

// Add inserts Item, or merges its quantity into the existing line with the
// same MenuItemID.
type Add struct {
	Item domain.CartLineItem
}

// Remove deletes the line item with ItemID.
type Remove struct {
	ItemID string
}

// SetQuantity sets a line item's quantity. Quantity <= 0 removes it.
type SetQuantity struct {
	ItemID   string
	Quantity int
}

// Clear empties the cart.
type Clear struct{}

// SetFromRemote replaces local state with the authoritative cart.
type SetFromRemote struct {
	Cart domain.RemoteCart
}

// SetError records a human readable error. Empty clears it.
type SetError struct {
	Message string
}

// SetLoading toggles the in-flight flag.
type SetLoading struct {
	Loading bool
}

func (Add) intent()           {}
func (Remove) intent()        {}
func (SetQuantity) intent()   {}
func (Clear) intent()         {}
func (SetFromRemote) intent() {}
func (SetError) intent()      {}
func (SetLoading) intent()    {}

// Reduce returns the state that results from applying in to s. The input
// state is not modified. deliveryFee is the optimistic fee charged when an
// Add turns an empty cart into a non-empty one.
func Reduce(s domain.CartState, in Intent, deliveryFee domain.Money) domain.CartState {
	next := s.Clone()

	switch in := in.(type) {
	case Add:
		item := in.Item
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if len(next.Items) == 0 {
			next.RestaurantID = item.RestaurantID
			next.RestaurantName = item.RestaurantName
			next.DeliveryFee = deliveryFee
		}
		merged := false
		for i := range next.Items {
			if next.Items[i].MenuItemID == item.MenuItemID {
				next.Items[i].Quantity += item.Quantity
				merged = true
				break
			}
		}
		if !merged {
			next.Items = append(next.Items, item)
		}

	case Remove:
		next.Items = without(next.Items, in.ItemID)

	case SetQuantity:
		if in.Quantity <= 0 {
			next.Items = without(next.Items, in.ItemID)
			break
		}
		if i := next.Find(in.ItemID); i >= 0 {
			next.Items[i].Quantity = in.Quantity
		}

	case Clear:
		return domain.CartState{Items: []domain.CartLineItem{}, Loading: s.Loading}

	case SetFromRemote:
		next.Items = make([]domain.CartLineItem, 0, len(in.Cart.Items))
		for _, it := range in.Cart.Items {
			if it.Quantity >= 1 {
				next.Items = append(next.Items, it)
			}
		}
		next.DeliveryFee = in.Cart.DeliveryFee
		next.RestaurantID = in.Cart.RestaurantID
		if next.RestaurantID == 0 && len(next.Items) > 0 {
			next.RestaurantID = next.Items[0].RestaurantID
		}
		if len(next.Items) > 0 && next.Items[0].RestaurantName != "" {
			next.RestaurantName = next.Items[0].RestaurantName
		} else if next.RestaurantID != s.RestaurantID {
			next.RestaurantName = ""
		}
		next.Error = ""

	case SetError:
		next.Error = in.Message
		return next

	case SetLoading:
		next.Loading = in.Loading
		return next

	default:
		panic(fmt.Sprintf("cart: unhandled intent %T", in))
	}

	return withTotals(next)
}

// withTotals recomputes derived fields. An empty cart has no restaurant and
// no delivery fee.
func withTotals(s domain.CartState) domain.CartState {
	if len(s.Items) == 0 {
		s.Items = []domain.CartLineItem{}
		s.RestaurantID = 0
		s.RestaurantName = ""
		s.DeliveryFee = 0
	}
	var sub domain.Money
	for _, it := range s.Items {
		sub += it.LineTotal()
	}
	s.Subtotal = sub
	s.Total = sub + s.DeliveryFee
	return s
}

func without(items []domain.CartLineItem, id string) []domain.CartLineItem {
	out := items[:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
