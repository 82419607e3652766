package domain

import "time"

// PageType classifies the route the user is looking at.
type PageType string

const (
	PageHome          PageType = "home"
	PageRestaurants   PageType = "restaurants"
	PageRestaurant    PageType = "restaurant"
	PageCart          PageType = "cart"
	PageCheckout      PageType = "checkout"
	PageOrders        PageType = "orders"
	PageOrderTracking PageType = "order_tracking"
	PageLogin         PageType = "login"
	PageRegister      PageType = "register"
	PageProfile       PageType = "profile"
	PageAdmin         PageType = "admin"
	PageDashboard     PageType = "dashboard"
	PageUnknown       PageType = "unknown"
)

// PageInfo describes the current route.
type PageInfo struct {
	Route  string
	Title  string
	Type   PageType
	Params map[string]string
}

// UserInfo describes the signed-in user, if any.
type UserInfo struct {
	IsAuthenticated bool
	Name            string
	Role            string // "customer", "restaurant_owner", "admin"
}

// RestaurantInfo is the restaurant currently being browsed.
type RestaurantInfo struct {
	ID           int64
	Name         string
	Cuisine      string
	Rating       float64
	DeliveryTime string
	IsOpen       bool
}

// OrderSummary is a compact view of a past order.
type OrderSummary struct {
	ID             string
	RestaurantName string
	Status         string
	Total          Money
	ItemCount      int
	PlacedAt       time.Time
}

// MaxRecentOrders bounds PlatformContext.RecentOrders.
const MaxRecentOrders = 5

// PlatformContext is the read-only snapshot the assistant is grounded on.
type PlatformContext struct {
	Page              PageInfo
	User              UserInfo
	Cart              CartSummary
	CurrentRestaurant *RestaurantInfo
	RecentOrders      []OrderSummary
}

// ContextUpdate carries partial updates to a cached PlatformContext. Nil
// fields are left untouched.
type ContextUpdate struct {
	Page              *PageInfo
	User              *UserInfo
	Cart              *CartSummary
	CurrentRestaurant *RestaurantInfo
	ClearRestaurant   bool
	RecentOrders      []OrderSummary
}
