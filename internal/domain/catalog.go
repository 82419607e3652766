package domain

import "context"

// Restaurant is a restaurant listed on the platform.
type Restaurant struct {
	ID           int64
	Name         string
	Cuisine      string
	Rating       float64
	DeliveryTime string
	IsOpen       bool
	Menu         []MenuItem
}

// MenuItem is a dish a restaurant sells.
type MenuItem struct {
	ID           int64
	RestaurantID int64
	Name         string
	Description  string
	Category     string
	Price        Money
	ImageURL     string
	Available    bool
}

// Info returns the platform-context view of the restaurant.
func (r *Restaurant) Info() *RestaurantInfo {
	return &RestaurantInfo{
		ID:           r.ID,
		Name:         r.Name,
		Cuisine:      r.Cuisine,
		Rating:       r.Rating,
		DeliveryTime: r.DeliveryTime,
		IsOpen:       r.IsOpen,
	}
}

// CatalogSource provides restaurants and menus. Implementations can be
// in-memory, API-backed, or database-backed.
type CatalogSource interface {
	Restaurants(ctx context.Context) ([]Restaurant, error)
	Restaurant(ctx context.Context, id int64) (*Restaurant, error)
	MenuItem(ctx context.Context, id int64) (*MenuItem, *Restaurant, error)
	Search(ctx context.Context, query string) ([]Restaurant, error)
}

// OrderStore records placed orders.
type OrderStore interface {
	Save(ctx context.Context, order OrderSummary) error
	RecentOrders(ctx context.Context, limit int) ([]OrderSummary, error)
}
