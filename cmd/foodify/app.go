package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/foodify/internal/cart"
	"github.com/hammamikhairi/foodify/internal/catalog"
	"github.com/hammamikhairi/foodify/internal/chat"
	"github.com/hammamikhairi/foodify/internal/command"
	"github.com/hammamikhairi/foodify/internal/display"
	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
	"github.com/hammamikhairi/foodify/internal/storage"
)

type cliApp struct {
	carts       *cart.Engine
	session     *chat.Session
	catalog     *catalog.MemorySource
	orders      *storage.OrderLog
	nav         *router
	parser      *command.Parser
	log         *logger.Logger
	ui          *display.UI
	defaultUser string

	mu      sync.Mutex
	printed map[string]bool // chat message ids already shown
	chats   sync.WaitGroup
}

func (a *cliApp) run(ctx context.Context) {
	unsubscribe := a.session.Subscribe(a.showMessages)
	defer unsubscribe()
	a.showMessages(a.session.Snapshot())

	if err := a.carts.Mount(ctx); err != nil {
		a.ui.PrintUrgent("Couldn't load your cart: " + err.Error())
	}

	uiCh := a.ui.InputChan()
	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		}

		cmd, err := a.parser.Parse(input)
		if err != nil {
			a.ui.PrintHint(err.Error())
			continue
		}
		a.log.Debug("command: %s", cmd.Kind)

		if cmd.Kind == command.KindQuit {
			a.chats.Wait()
			a.ui.PrintChat("Bye! Enjoy your meal.")
			return
		}
		a.handle(ctx, cmd)
	}
}

func (a *cliApp) handle(ctx context.Context, cmd command.Command) {
	switch cmd.Kind {
	case command.KindNone:
	case command.KindHelp:
		a.showHelp()
	case command.KindRestaurants:
		a.showRestaurants(ctx)
	case command.KindMenu:
		a.showMenu(ctx, cmd.Query)
	case command.KindAdd:
		a.add(ctx, cmd)
	case command.KindRemove:
		a.report(a.carts.RemoveFromCart(ctx, cmd.ItemID))
		a.showCart()
	case command.KindQuantity:
		a.report(a.carts.UpdateQuantity(ctx, cmd.ItemID, cmd.Quantity))
		a.showCart()
	case command.KindCart:
		a.navigate(ctx, "/cart")
		a.showCart()
	case command.KindClear:
		if a.report(a.carts.ClearCart(ctx)) {
			a.ui.PrintHint("Cart cleared.")
		}
	case command.KindCheckout:
		a.checkout(ctx)
	case command.KindGo:
		a.navigate(ctx, cmd.Route)
		a.ui.PrintHint("Now on " + a.session.Snapshot().PlatformContext.Page.Title + ".")
	case command.KindQuick:
		a.quickAction(ctx, cmd.Index)
	case command.KindReset:
		a.session.ClearConversation()
	case command.KindLogin:
		a.login(ctx, cmd.Query)
	case command.KindLogout:
		a.logout(ctx)
	case command.KindChat:
		a.chat(ctx, func(ctx context.Context) { a.session.SendMessage(ctx, cmd.Text) })
	}
}

// chat runs fn in the background so the prompt stays usable while the
// assistant is typing.
func (a *cliApp) chat(ctx context.Context, fn func(context.Context)) {
	a.chats.Add(1)
	go func() {
		defer a.chats.Done()
		fn(ctx)
	}()
}

// showMessages prints bot messages not shown yet. User messages are
// already echoed by the prompt.
func (a *cliApp) showMessages(s domain.ChatSession) {
	a.mu.Lock()
	var fresh []domain.ChatMessage
	for _, m := range s.Messages {
		if a.printed[m.ID] {
			continue
		}
		a.printed[m.ID] = true
		if m.Sender == domain.SenderBot {
			fresh = append(fresh, m)
		}
	}
	a.mu.Unlock()

	for _, m := range fresh {
		if m.Type == domain.MessageError {
			a.ui.PrintUrgent(m.Text)
			continue
		}
		a.ui.PrintChat(m.Text)
	}
}

func (a *cliApp) showHelp() {
	a.ui.PrintHeader("Commands")
	for _, line := range command.Help() {
		a.ui.PrintLine(line)
	}
}

func (a *cliApp) showRestaurants(ctx context.Context) {
	list, err := a.catalog.Restaurants(ctx)
	if err != nil {
		a.ui.PrintUrgent("Couldn't load restaurants: " + err.Error())
		return
	}
	a.navigate(ctx, "/restaurants")
	a.ui.PrintHeader("Restaurants")
	for _, r := range list {
		status := "open"
		if !r.IsOpen {
			status = "closed"
		}
		a.ui.PrintLine(fmt.Sprintf("%-3d %-16s %-10s %.1f★  %s  (%s)", r.ID, r.Name, r.Cuisine, r.Rating, r.DeliveryTime, status))
	}
	a.ui.PrintHint("Type 'menu <name>' to see a menu.")
}

// showMenu prints a restaurant's menu. An empty query means the restaurant
// currently open.
func (a *cliApp) showMenu(ctx context.Context, query string) {
	r, hint := a.findRestaurant(ctx, query)
	if r == nil {
		a.ui.PrintHint(hint)
		return
	}
	a.navigate(ctx, fmt.Sprintf("/restaurants/%d", r.ID))

	a.ui.PrintHeader(fmt.Sprintf("%s · %s · %s", r.Name, r.Cuisine, r.DeliveryTime))
	if !r.IsOpen {
		a.ui.PrintUrgent("Closed right now. You can browse but not order.")
	}
	category := ""
	for _, item := range r.Menu {
		if item.Category != category {
			category = item.Category
			a.ui.PrintHint(category)
		}
		line := fmt.Sprintf("%-3d %-18s $%s", item.ID, item.Name, item.Price)
		if !item.Available {
			line += "  (sold out)"
		}
		a.ui.PrintLine(line)
	}
	a.ui.PrintHint("Type 'add <id> [qty] [note]' to order.")
}

// findRestaurant resolves a menu query. When nothing matches it returns
// nil and a hint for the user.
func (a *cliApp) findRestaurant(ctx context.Context, query string) (*domain.Restaurant, string) {
	if query == "" {
		info, err := a.nav.CurrentRestaurant(ctx)
		if err != nil || info == nil {
			return nil, "Which restaurant? Try 'menu <name>' or 'restaurants'."
		}
		if r, err := a.catalog.Restaurant(ctx, info.ID); err == nil {
			return r, ""
		}
		return nil, "That restaurant is no longer listed."
	}
	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		if r, err := a.catalog.Restaurant(ctx, id); err == nil {
			return r, ""
		}
	}
	found, err := a.catalog.Search(ctx, query)
	if err != nil || len(found) == 0 {
		return nil, fmt.Sprintf("No restaurant matches %q.", query)
	}
	return &found[0], ""
}

func (a *cliApp) add(ctx context.Context, cmd command.Command) {
	item, r, err := a.catalog.MenuItem(ctx, cmd.MenuItemID)
	if err != nil {
		a.ui.PrintHint(fmt.Sprintf("There is no menu item %d.", cmd.MenuItemID))
		return
	}
	err = a.carts.AddToCart(ctx, cart.AddRequest{
		MenuItemID:          cmd.MenuItemID,
		Quantity:            cmd.Quantity,
		SpecialInstructions: cmd.Note,
		Item:                catalog.ItemData(item, r),
	})
	if a.report(err) {
		a.ui.PrintHint(fmt.Sprintf("Added %d × %s.", cmd.Quantity, item.Name))
		a.showCart()
	}
}

func (a *cliApp) showCart() {
	st := a.carts.State()
	if len(st.Items) == 0 {
		a.ui.PrintHint("Your cart is empty.")
		return
	}
	a.ui.PrintHeader("Cart · " + st.RestaurantName)
	for _, it := range st.Items {
		line := fmt.Sprintf("%-10s %d × %-18s $%s", it.ID, it.Quantity, it.Name, it.LineTotal())
		if it.SpecialInstructions != "" {
			line += "  (" + it.SpecialInstructions + ")"
		}
		a.ui.PrintLine(line)
	}
	a.ui.PrintHint(fmt.Sprintf("Subtotal $%s · Delivery $%s · Total $%s", st.Subtotal, st.DeliveryFee, st.Total))
	if st.Error != "" {
		a.ui.PrintUrgent(st.Error)
	}
}

// checkout records the order, then empties the cart.
func (a *cliApp) checkout(ctx context.Context) {
	st := a.carts.State()
	if len(st.Items) == 0 {
		a.ui.PrintHint("Your cart is empty. Add something first.")
		return
	}

	order := domain.OrderSummary{
		ID:             strings.ToUpper(uuid.NewString()[:8]),
		RestaurantName: st.RestaurantName,
		Status:         "placed",
		Total:          st.Total,
		ItemCount:      st.ItemCount(),
		PlacedAt:       time.Now(),
	}
	if err := a.orders.Save(ctx, order); err != nil {
		a.ui.PrintUrgent("Couldn't place the order: " + err.Error())
		return
	}
	if !a.report(a.carts.ClearCart(ctx)) {
		return
	}
	a.navigate(ctx, "/orders/"+order.ID)
	a.ui.PrintChat(fmt.Sprintf("Order #%s placed with %s. Total $%s.", order.ID, order.RestaurantName, order.Total))
}

func (a *cliApp) quickAction(ctx context.Context, n int) {
	actions := a.session.Snapshot().QuickActions
	if n > len(actions) {
		a.showQuickActions(actions)
		return
	}
	action := actions[n-1]
	if action.Action == domain.ActionNavigate {
		if err := a.session.HandleQuickAction(ctx, action); err != nil {
			a.ui.PrintUrgent(err.Error())
			return
		}
		a.ui.PrintHint("Now on " + a.session.Snapshot().PlatformContext.Page.Title + ".")
		a.showQuickActions(a.session.Snapshot().QuickActions)
		return
	}
	a.chat(ctx, func(ctx context.Context) {
		if err := a.session.HandleQuickAction(ctx, action); err != nil {
			a.ui.PrintUrgent(err.Error())
		}
	})
}

func (a *cliApp) showQuickActions(actions []domain.QuickAction) {
	if len(actions) == 0 {
		return
	}
	labels := make([]string, len(actions))
	for i, qa := range actions {
		labels[i] = fmt.Sprintf("[%d] %s", i+1, qa.Label)
	}
	a.ui.PrintHint("Quick: " + strings.Join(labels, "  "))
}

func (a *cliApp) navigate(ctx context.Context, route string) {
	if err := a.nav.Navigate(ctx, route); err != nil {
		a.log.Warn("navigate %s: %v", route, err)
		return
	}
	a.session.RefreshContext(ctx)
}

func (a *cliApp) login(ctx context.Context, name string) {
	if name == "" {
		name = a.defaultUser
	}
	a.nav.login(name)
	a.report(a.carts.FetchCart(ctx))
	a.session.RefreshContext(ctx)
	a.ui.PrintHint("Signed in as " + name + ".")
}

// logout forgets the local cart and the conversation.
func (a *cliApp) logout(ctx context.Context) {
	a.nav.logout()
	a.carts.ResetLocal()
	a.session.ClearConversation()
	a.session.RefreshContext(ctx)
	a.ui.PrintHint("Signed out.")
}

// report prints a cart error. Returns true when err is nil.
func (a *cliApp) report(err error) bool {
	if err == nil {
		return true
	}
	var cross *domain.CrossRestaurantError
	switch {
	case errors.As(err, &cross):
		a.ui.PrintUrgent(cross.Error())
	case errors.Is(err, domain.ErrValidation):
		a.ui.PrintHint(err.Error())
	default:
		a.ui.PrintUrgent("Cart update failed: " + err.Error())
	}
	return false
}
