package gemini

import (
	"context"
	"strings"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// Compile-time interface check.
var _ domain.Generator = (*Offline)(nil)

// Offline answers from a small keyword table. Used when no API key is
// configured so the assistant still replies.
type Offline struct {
	log *logger.Logger
}

// NewOffline creates the canned generator.
func NewOffline(log *logger.Logger) *Offline {
	return &Offline{log: log}
}

type cannedReply struct {
	keywords []string
	reply    string
}

var cannedReplies = []cannedReply{
	{[]string{"hello", "hi ", "hey"}, "Hi! I'm the Foodify assistant. I can help you find restaurants, build your cart and track orders."},
	{[]string{"track", "where is my order", "status"}, "You can follow your order from the Orders page. Each order shows its current status and estimated arrival."},
	{[]string{"deliver", "fee", "how long"}, "Delivery usually takes 25 to 50 minutes depending on the restaurant. A flat delivery fee is added once your cart has items."},
	{[]string{"checkout", "pay"}, "Open your cart and choose Checkout. You can review items, add a note for the kitchen and confirm your address there."},
	{[]string{"cart", "remove", "quantity"}, "You can change quantities or remove items from the cart page. A cart can only hold items from one restaurant at a time."},
	{[]string{"menu", "dish", "recommend", "vegetarian"}, "Open a restaurant to see its full menu. Dishes are grouped by category and unavailable ones are marked."},
	{[]string{"login", "sign in", "password", "register", "account"}, "You can sign in or create an account from the top right. Your cart is kept while you sign in."},
	{[]string{"support", "help", "problem"}, "I'm here to help. Tell me what went wrong and I'll point you to the right place, or you can reach support from your profile page."},
}

const offlineFallback = "I'm running in offline mode right now, so my answers are limited. Try asking about delivery, your cart, checkout or order tracking."

// Generate replies to the last user turn found in prompt.
func (o *Offline) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.NetworkError{Op: "offline generate", Err: err}
	}

	msg := prompt
	if i := strings.LastIndex(prompt, "User: "); i >= 0 {
		msg = prompt[i+len("User: "):]
	}
	if i := strings.Index(msg, "\n"); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.ToLower(msg) + " "

	for _, c := range cannedReplies {
		for _, kw := range c.keywords {
			if strings.Contains(msg, kw) {
				o.log.Debug("offline reply matched %q", kw)
				return c.reply, nil
			}
		}
	}
	return offlineFallback, nil
}
