package chat

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// Sources are the collaborators a ContextService reads from. Any of them
// may be nil.
type Sources struct {
	Pages       domain.PageSource
	Users       domain.UserSource
	Cart        domain.CartSource
	Restaurants domain.RestaurantSource
	Orders      domain.OrderSource
}

// ContextService aggregates a PlatformContext snapshot on demand.
type ContextService struct {
	src Sources
	log *logger.Logger
}

// NewContextService creates a context aggregator.
func NewContextService(src Sources, log *logger.Logger) *ContextService {
	return &ContextService{src: src, log: log.With("component", "context")}
}

// Snapshot reads every source. A failing source is logged and left out.
func (s *ContextService) Snapshot(ctx context.Context) domain.PlatformContext {
	pc := domain.PlatformContext{Page: ResolvePage("/")}

	if s.src.Pages != nil {
		page, err := s.src.Pages.CurrentPage(ctx)
		if err != nil {
			s.log.Warn("reading current page: %v", err)
			pc.Page = ResolvePage("")
		} else {
			pc.Page = page
		}
	}

	if s.src.Users != nil {
		user, err := s.src.Users.CurrentUser(ctx)
		if err != nil {
			s.log.Warn("reading current user: %v", err)
		} else {
			pc.User = user
		}
	}

	if s.src.Cart != nil {
		pc.Cart = s.src.Cart.Summary()
	}

	if s.src.Restaurants != nil {
		r, err := s.src.Restaurants.CurrentRestaurant(ctx)
		if err != nil {
			s.log.Warn("reading current restaurant: %v", err)
		} else {
			pc.CurrentRestaurant = r
		}
	}

	if s.src.Orders != nil && pc.User.IsAuthenticated {
		orders, err := s.src.Orders.RecentOrders(ctx, domain.MaxRecentOrders)
		if err != nil {
			s.log.Warn("reading recent orders: %v", err)
		} else {
			pc.RecentOrders = capOrders(orders)
		}
	}

	s.log.Debug("context: page=%s user=%v cart=%d items", pc.Page.Type, pc.User.IsAuthenticated, pc.Cart.ItemCount)
	return pc
}

func capOrders(orders []domain.OrderSummary) []domain.OrderSummary {
	if len(orders) > domain.MaxRecentOrders {
		orders = orders[:domain.MaxRecentOrders]
	}
	return append([]domain.OrderSummary(nil), orders...)
}

type pageRule struct {
	regex *regexp.Regexp
	page  domain.PageType
	title string
	param string // name of the first capture group, if any
}

var pageRules = []pageRule{
	{regexp.MustCompile(`^/$`), domain.PageHome, "Home", ""},
	{regexp.MustCompile(`^/restaurants/?$`), domain.PageRestaurants, "Restaurants", ""},
	{regexp.MustCompile(`^/restaurants?/([^/]+)/?$`), domain.PageRestaurant, "Restaurant", "id"},
	{regexp.MustCompile(`^/cart/?$`), domain.PageCart, "Cart", ""},
	{regexp.MustCompile(`^/checkout/?$`), domain.PageCheckout, "Checkout", ""},
	{regexp.MustCompile(`^/orders/?$`), domain.PageOrders, "Orders", ""},
	{regexp.MustCompile(`^/orders?/([^/]+)(/track(ing)?)?/?$`), domain.PageOrderTracking, "Order tracking", "id"},
	{regexp.MustCompile(`^/login/?$`), domain.PageLogin, "Sign in", ""},
	{regexp.MustCompile(`^/(register|signup)/?$`), domain.PageRegister, "Create account", ""},
	{regexp.MustCompile(`^/(profile|account)/?$`), domain.PageProfile, "Profile", ""},
	{regexp.MustCompile(`^/admin(/.*)?$`), domain.PageAdmin, "Admin", ""},
	{regexp.MustCompile(`^/(dashboard|restaurant-dashboard)(/.*)?$`), domain.PageDashboard, "Restaurant dashboard", ""},
}

// ResolvePage classifies a route. Query strings and fragments are ignored.
func ResolvePage(route string) domain.PageInfo {
	path := strings.TrimSpace(route)
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	if path == "" {
		return domain.PageInfo{Route: route, Title: "Unknown", Type: domain.PageUnknown}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	for _, rule := range pageRules {
		m := rule.regex.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		info := domain.PageInfo{Route: path, Title: rule.title, Type: rule.page}
		if rule.param != "" && len(m) > 1 {
			info.Params = map[string]string{rule.param: m[1]}
		}
		return info
	}
	return domain.PageInfo{Route: path, Title: "Unknown", Type: domain.PageUnknown}
}
