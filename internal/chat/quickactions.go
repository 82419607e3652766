package chat

import "github.com/hammamikhairi/foodify/internal/domain"

// MaxQuickActions bounds the shortcuts shown at once.
const MaxQuickActions = 4

func qa(id, label string, action domain.ActionType, payload string) domain.QuickAction {
	return domain.QuickAction{ID: id, Label: label, Action: action, Payload: payload}
}

// QuickActionsFor returns the shortcuts for the page in pc.
func QuickActionsFor(pc domain.PlatformContext) []domain.QuickAction {
	var out []domain.QuickAction

	switch pc.Page.Type {
	case domain.PageHome:
		out = []domain.QuickAction{
			qa("find-food", "Find food", domain.ActionSearch, ""),
			qa("browse", "Browse restaurants", domain.ActionNavigate, "/restaurants"),
			qa("delivery", "Delivery info", domain.ActionDeliveryInfo, ""),
			qa("faq", "FAQ", domain.ActionFAQ, ""),
		}
	case domain.PageRestaurants:
		out = []domain.QuickAction{
			qa("search", "Search", domain.ActionSearch, ""),
			qa("filters", "Filters", domain.ActionShowFilters, ""),
			qa("near-me", "Near me", domain.ActionLocationSearch, ""),
		}
	case domain.PageRestaurant:
		out = []domain.QuickAction{
			qa("menu-help", "Help me choose", domain.ActionMenuHelp, ""),
			qa("delivery", "Delivery time", domain.ActionDeliveryInfo, ""),
		}
	case domain.PageCart:
		out = []domain.QuickAction{
			qa("checkout", "Go to checkout", domain.ActionNavigate, "/checkout"),
			qa("checkout-help", "Checkout help", domain.ActionCheckoutHelp, ""),
			qa("modify", "Change items", domain.ActionModifyOrder, ""),
			qa("delivery", "Delivery fee", domain.ActionDeliveryInfo, ""),
		}
	case domain.PageCheckout:
		out = []domain.QuickAction{
			qa("checkout-help", "Checkout help", domain.ActionCheckoutHelp, ""),
			qa("modify", "Change my order", domain.ActionModifyOrder, ""),
			qa("support", "Contact support", domain.ActionContactSupport, ""),
		}
	case domain.PageOrders:
		out = []domain.QuickAction{
			qa("track", "Track order", domain.ActionTrackOrder, ""),
			qa("history", "Order history", domain.ActionOrderHistory, ""),
			qa("support", "Contact support", domain.ActionContactSupport, ""),
		}
	case domain.PageOrderTracking:
		out = []domain.QuickAction{
			qa("track", "Where is it?", domain.ActionTrackOrder, ""),
			qa("driver", "Contact driver", domain.ActionContactDelivery, ""),
			qa("support", "Contact support", domain.ActionContactSupport, ""),
		}
	case domain.PageLogin:
		out = []domain.QuickAction{
			qa("login-help", "Can't sign in", domain.ActionLoginHelp, ""),
			qa("register", "Create account", domain.ActionNavigate, "/register"),
			qa("register-help", "Why sign up?", domain.ActionRegisterHelp, ""),
		}
	case domain.PageRegister:
		out = []domain.QuickAction{
			qa("register-help", "Sign-up help", domain.ActionRegisterHelp, ""),
			qa("login", "I have an account", domain.ActionNavigate, "/login"),
			qa("faq", "FAQ", domain.ActionFAQ, ""),
		}
	case domain.PageProfile, domain.PageDashboard:
		out = []domain.QuickAction{
			qa("account", "Account help", domain.ActionAccountHelp, ""),
			qa("history", "Order history", domain.ActionOrderHistory, ""),
			qa("support", "Contact support", domain.ActionContactSupport, ""),
		}
	case domain.PageAdmin:
		out = []domain.QuickAction{
			qa("support", "Contact support", domain.ActionContactSupport, ""),
			qa("faq", "FAQ", domain.ActionFAQ, ""),
		}
	default:
		out = []domain.QuickAction{
			qa("home", "Home", domain.ActionNavigate, "/"),
			qa("find-food", "Find food", domain.ActionSearch, ""),
			qa("faq", "FAQ", domain.ActionFAQ, ""),
			qa("support", "Contact support", domain.ActionContactSupport, ""),
		}
	}

	// A non-empty cart earns a shortcut on browsing pages.
	if pc.Cart.ItemCount > 0 && (pc.Page.Type == domain.PageRestaurants || pc.Page.Type == domain.PageRestaurant) {
		out = append(out, qa("view-cart", "View cart", domain.ActionNavigate, "/cart"))
	}
	if !pc.User.IsAuthenticated && (pc.Page.Type == domain.PageOrders || pc.Page.Type == domain.PageOrderTracking) {
		out = append([]domain.QuickAction{qa("login", "Sign in", domain.ActionNavigate, "/login")}, out...)
	}

	if len(out) > MaxQuickActions {
		out = out[:MaxQuickActions]
	}
	return out
}

// quickActionPhrases are the messages sent on the user's behalf.
var quickActionPhrases = map[domain.ActionType]string{
	domain.ActionSearch:          "Can you help me find something to eat?",
	domain.ActionShowFilters:     "How can I filter restaurants by cuisine, rating or delivery time?",
	domain.ActionLocationSearch:  "Which restaurants deliver near me?",
	domain.ActionMenuHelp:        "Can you help me choose something from this menu?",
	domain.ActionDeliveryInfo:    "How long does delivery take and how much does it cost?",
	domain.ActionCheckoutHelp:    "Can you help me complete checkout?",
	domain.ActionModifyOrder:     "How can I change the items in my order?",
	domain.ActionTrackOrder:      "Where is my order right now?",
	domain.ActionContactDelivery: "How can I contact my delivery driver?",
	domain.ActionLoginHelp:       "I'm having trouble signing in.",
	domain.ActionRegisterHelp:    "How do I create an account?",
	domain.ActionAccountHelp:     "How do I update my account details?",
	domain.ActionOrderHistory:    "Can you show me my recent orders?",
	domain.ActionContactSupport:  "I need to contact customer support.",
	domain.ActionFAQ:             "What are the most frequently asked questions?",
}
