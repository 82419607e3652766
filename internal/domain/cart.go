// Package domain defines the core types and interfaces for Foodify.
// All other packages depend on domain; domain depends on nothing.
package domain

import "fmt"

// Money is an amount in minor currency units (cents).
type Money int64

// String renders the amount as "12.34".
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(m)/100, int64(m)%100)
}

// CartLineItem is a single menu item in the cart.
type CartLineItem struct {
	ID                  string `json:"id"` // "tmp-..." until the server confirms it
	MenuItemID          int64  `json:"menu_item_id"`
	Name                string `json:"name"`
	Price               Money  `json:"price"` // unit price
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	RestaurantID        int64  `json:"restaurant_id"`
	RestaurantName      string `json:"restaurant_name,omitempty"`
	ImageURL            string `json:"image_url,omitempty"`
}

// LineTotal returns price * quantity.
func (i CartLineItem) LineTotal() Money {
	return i.Price * Money(i.Quantity)
}

// CartState is the client-side view of the cart. Items keep insertion order.
type CartState struct {
	Items          []CartLineItem `json:"items"`
	Subtotal       Money          `json:"subtotal"`
	DeliveryFee    Money          `json:"delivery_fee"`
	Total          Money          `json:"total"`
	RestaurantID   int64          `json:"restaurant_id,omitempty"` // 0 when empty
	RestaurantName string         `json:"restaurant_name,omitempty"`
	Loading        bool           `json:"-"`
	Error          string         `json:"-"`
}

// Clone returns a deep copy so callers can't alias the engine's slice.
func (s CartState) Clone() CartState {
	out := s
	if s.Items != nil {
		out.Items = make([]CartLineItem, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}

// ItemCount sums quantities across all line items.
func (s CartState) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Find returns the index of the line item with the given id, or -1.
func (s CartState) Find(itemID string) int {
	for i, it := range s.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// RemoteCart is the authoritative cart returned by GET /cart.
type RemoteCart struct {
	Items        []CartLineItem `json:"items"`
	Subtotal     Money          `json:"subtotal"`
	DeliveryFee  Money          `json:"delivery_fee"`
	Total        Money          `json:"total"`
	RestaurantID int64          `json:"restaurant_id,omitempty"`
}

// ItemData describes the menu item being added, as known by the caller.
type ItemData struct {
	RestaurantID   int64
	RestaurantName string
	Name           string
	Price          Money
	ImageURL       string
}

// AddItemRequest is the body of POST /cart.
type AddItemRequest struct {
	MenuItemID          int64  `json:"menu_item_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
}

// CartSummary is the cart slice of the platform context.
type CartSummary struct {
	ItemCount      int
	Total          Money
	RestaurantName string
}
