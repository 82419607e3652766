package chat

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/foodify/internal/domain"
)

// PromptHistoryTurns is how many past turns go into each prompt.
const PromptHistoryTurns = 10

// SystemPrompt sets the assistant's persona. Platform context and the
// conversation are appended to it per request.
const SystemPrompt = `You are the Foodify assistant, a friendly helper inside a food delivery app.

You can see what the user is looking at: the current page, whether they are signed in, their cart, the restaurant they are browsing and their recent orders. Use it to give specific answers.

Rules:
- Answer in 1-4 short sentences.
- Only talk about food, restaurants, the cart, checkout, delivery, orders and the user's account.
- Never invent prices, restaurants or order statuses that are not in the context.
- A cart can only hold items from one restaurant. Say so when it matters.
- If you cannot help, point the user to customer support.
- Plain text only. No markdown, no emojis.`

// composePrompt builds the single prompt string sent to the model: system
// prompt, platform context, past turns and the new user turn.
func composePrompt(pc domain.PlatformContext, history []domain.Turn, message string) string {
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\n")
	b.WriteString(buildContext(pc))

	b.WriteString("\n[Conversation]\n")
	for _, t := range history {
		writeTurn(&b, t.Role, t.Text)
	}
	writeTurn(&b, domain.RoleUser, message)
	b.WriteString("Assistant:")
	return b.String()
}

func writeTurn(b *strings.Builder, role domain.Role, text string) {
	if role == domain.RoleModel {
		fmt.Fprintf(b, "Assistant: %s\n", text)
		return
	}
	fmt.Fprintf(b, "User: %s\n", text)
}

// buildContext serializes the platform snapshot into a plain-text block.
func buildContext(pc domain.PlatformContext) string {
	var b strings.Builder
	b.WriteString("[Platform Context]\n")

	page := pc.Page
	if page.Type == "" {
		page.Type = domain.PageUnknown
	}
	title := page.Title
	if title == "" {
		title = string(page.Type)
	}
	fmt.Fprintf(&b, "Page: %s (%s)\n", title, page.Route)

	if pc.User.IsAuthenticated {
		name := pc.User.Name
		if name == "" {
			name = "signed-in user"
		}
		role := pc.User.Role
		if role == "" {
			role = "customer"
		}
		fmt.Fprintf(&b, "User: %s (%s)\n", name, role)
	} else {
		b.WriteString("User: guest, not signed in\n")
	}

	if pc.Cart.ItemCount == 0 {
		b.WriteString("Cart: empty\n")
	} else {
		fmt.Fprintf(&b, "Cart: %d item(s), total $%s", pc.Cart.ItemCount, pc.Cart.Total)
		if pc.Cart.RestaurantName != "" {
			fmt.Fprintf(&b, ", from %s", pc.Cart.RestaurantName)
		}
		b.WriteString("\n")
	}

	if r := pc.CurrentRestaurant; r != nil {
		status := "open"
		if !r.IsOpen {
			status = "closed"
		}
		fmt.Fprintf(&b, "Current restaurant: %s (%s, rated %.1f, delivery %s, %s)\n", r.Name, r.Cuisine, r.Rating, r.DeliveryTime, status)
	}

	fmt.Fprintf(&b, "Recent orders: %d\n", len(pc.RecentOrders))
	for _, o := range pc.RecentOrders {
		fmt.Fprintf(&b, "- #%s from %s: %s, $%s\n", o.ID, o.RestaurantName, o.Status, o.Total)
	}
	return b.String()
}
