package domain

import "context"

// KeyValueStore is the local durable storage (browser local storage in the
// original web client). Get reports ok=false for missing keys.
type KeyValueStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// CartRemote is the authoritative cart backend.
type CartRemote interface {
	FetchCart(ctx context.Context) (*RemoteCart, error)
	AddItem(ctx context.Context, req AddItemRequest) (*CartLineItem, error)
	UpdateItem(ctx context.Context, itemID string, quantity int) (*CartLineItem, error)
	RemoveItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

// Generator produces a completion for a composed prompt. Implementations
// can be Gemini, an offline canned responder, or a test fake.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PageSource reports the current route.
type PageSource interface {
	CurrentPage(ctx context.Context) (PageInfo, error)
}

// UserSource reports the authenticated user.
type UserSource interface {
	CurrentUser(ctx context.Context) (UserInfo, error)
}

// CartSource reports the cart summary. Implemented by cart.Engine.
type CartSource interface {
	Summary() CartSummary
}

// RestaurantSource reports the restaurant being browsed, nil if none.
type RestaurantSource interface {
	CurrentRestaurant(ctx context.Context) (*RestaurantInfo, error)
}

// OrderSource lists the most recent orders, newest first.
type OrderSource interface {
	RecentOrders(ctx context.Context, limit int) ([]OrderSummary, error)
}

// Navigator performs client-side navigation for quick actions.
type Navigator interface {
	Navigate(ctx context.Context, route string) error
}
