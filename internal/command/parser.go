// Package command turns terminal input into CLI commands. Input that is
// not a command is passed to the assistant as chat.
package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hammamikhairi/foodify/internal/logger"
)

// Kind identifies a command.
type Kind string

const (
	KindNone        Kind = ""
	KindHelp        Kind = "help"
	KindRestaurants Kind = "restaurants"
	KindMenu        Kind = "menu"
	KindAdd         Kind = "add"
	KindRemove      Kind = "rm"
	KindQuantity    Kind = "qty"
	KindCart        Kind = "cart"
	KindClear       Kind = "clear"
	KindCheckout    Kind = "checkout"
	KindGo          Kind = "go"
	KindQuick       Kind = "quick"
	KindReset       Kind = "reset"
	KindLogin       Kind = "login"
	KindLogout      Kind = "logout"
	KindQuit        Kind = "quit"
	KindChat        Kind = "chat"
)

// Command is one parsed line. Only the fields used by Kind are set.
type Command struct {
	Kind       Kind
	MenuItemID int64
	ItemID     string
	Quantity   int
	Note       string
	Query      string // menu restaurant, login name
	Route      string
	Index      int // 1-based quick action number
	Text       string
}

// UsageError reports a recognized command with bad arguments.
type UsageError struct {
	Kind  Kind
	Usage string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s", e.Usage)
}

type patternRule struct {
	regex *regexp.Regexp
	kind  Kind
	build func(m []string) (Command, bool)
}

// usages are shown for malformed commands and by help.
var usages = map[Kind]string{
	KindMenu:     "menu [restaurant]",
	KindAdd:      "add <menuItemID> [qty] [note...]",
	KindRemove:   "rm <itemID>",
	KindQuantity: "qty <itemID> <n>",
	KindGo:       "go <route>",
	KindQuick:    "quick <n>",
	KindLogin:    "login [name]",
}

// Parser matches input against a fixed table of command patterns.
type Parser struct {
	log      *logger.Logger
	patterns []patternRule
	prefixes map[string]Kind
}

func plain(kind Kind) func([]string) (Command, bool) {
	return func([]string) (Command, bool) { return Command{Kind: kind}, true }
}

// NewParser creates a command parser.
func NewParser(log *logger.Logger) *Parser {
	p := &Parser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), KindHelp, plain(KindHelp)},
		{regexp.MustCompile(`(?i)^(restaurants|list|browse)$`), KindRestaurants, plain(KindRestaurants)},
		{regexp.MustCompile(`(?i)^menu(?:\s+(.+))?$`), KindMenu, func(m []string) (Command, bool) {
			return Command{Kind: KindMenu, Query: strings.TrimSpace(m[1])}, true
		}},
		{regexp.MustCompile(`(?i)^add\s+(\d+)(?:\s+(\d+))?(?:\s+(.+))?$`), KindAdd, func(m []string) (Command, bool) {
			id, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil || id <= 0 {
				return Command{}, false
			}
			qty := 1
			if m[2] != "" {
				if qty, err = strconv.Atoi(m[2]); err != nil || qty < 1 {
					return Command{}, false
				}
			}
			return Command{Kind: KindAdd, MenuItemID: id, Quantity: qty, Note: strings.TrimSpace(m[3])}, true
		}},
		{regexp.MustCompile(`(?i)^(?:rm|remove)\s+(\S+)$`), KindRemove, func(m []string) (Command, bool) {
			return Command{Kind: KindRemove, ItemID: m[1]}, true
		}},
		{regexp.MustCompile(`(?i)^(?:qty|quantity)\s+(\S+)\s+(-?\d+)$`), KindQuantity, func(m []string) (Command, bool) {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				return Command{}, false
			}
			return Command{Kind: KindQuantity, ItemID: m[1], Quantity: n}, true
		}},
		{regexp.MustCompile(`(?i)^(cart|c)$`), KindCart, plain(KindCart)},
		{regexp.MustCompile(`(?i)^(clear|empty)$`), KindClear, plain(KindClear)},
		{regexp.MustCompile(`(?i)^(checkout|order|pay)$`), KindCheckout, plain(KindCheckout)},
		{regexp.MustCompile(`(?i)^(?:go|open)\s+(\S+)$`), KindGo, func(m []string) (Command, bool) {
			route := m[1]
			if !strings.HasPrefix(route, "/") {
				route = "/" + route
			}
			return Command{Kind: KindGo, Route: route}, true
		}},
		{regexp.MustCompile(`(?i)^quick\s+(\d+)$`), KindQuick, func(m []string) (Command, bool) {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				return Command{}, false
			}
			return Command{Kind: KindQuick, Index: n}, true
		}},
		{regexp.MustCompile(`(?i)^(reset|new chat)$`), KindReset, plain(KindReset)},
		{regexp.MustCompile(`(?i)^login(?:\s+(.+))?$`), KindLogin, func(m []string) (Command, bool) {
			return Command{Kind: KindLogin, Query: strings.TrimSpace(m[1])}, true
		}},
		{regexp.MustCompile(`(?i)^(logout|sign out)$`), KindLogout, plain(KindLogout)},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), KindQuit, plain(KindQuit)},
	}
	// First words that always mean a command, so typos get a usage hint
	// instead of going to the assistant.
	p.prefixes = map[string]Kind{
		"add": KindAdd, "rm": KindRemove, "remove": KindRemove,
		"qty": KindQuantity, "quantity": KindQuantity,
		"go": KindGo, "open": KindGo, "quick": KindQuick,
	}
	return p
}

// Parse converts one input line into a command. Blank input yields
// KindNone; anything unrecognized is KindChat.
func (p *Parser) Parse(input string) (Command, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Command{Kind: KindNone}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		cmd, ok := rule.build(m)
		if !ok {
			return Command{}, &UsageError{Kind: rule.kind, Usage: usages[rule.kind]}
		}
		cmd.Text = trimmed
		p.log.Debug("matched command: %s", cmd.Kind)
		return cmd, nil
	}

	first := strings.ToLower(strings.Fields(trimmed)[0])
	if kind, ok := p.prefixes[first]; ok {
		return Command{}, &UsageError{Kind: kind, Usage: usages[kind]}
	}

	return Command{Kind: KindChat, Text: trimmed}, nil
}

// Help returns the command reference shown by "help".
func Help() []string {
	return []string{
		"restaurants              list restaurants",
		"menu [restaurant]        show a menu (current restaurant by default)",
		"add <id> [qty] [note]    add a menu item to the cart",
		"rm <itemID>              remove a cart line",
		"qty <itemID> <n>         change a quantity (0 removes)",
		"cart                     show the cart",
		"clear                    empty the cart",
		"checkout                 place the order",
		"go <route>               open a page, e.g. go /orders",
		"quick <n>                run a quick action",
		"reset                    start a new conversation",
		"login [name] / logout    switch user",
		"quit                     exit",
		"anything else            ask the assistant",
	}
}
