package domain

import "time"

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// MessageType distinguishes regular replies from failure notices.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageError MessageType = "error"
)

// ChatMessage is one entry of the visible conversation. Immutable once
// appended; updates replace the whole message.
type ChatMessage struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
	Type      MessageType
}

// ChatSession is a snapshot of the assistant's conversation state.
type ChatSession struct {
	SessionID       string
	Messages        []ChatMessage
	IsTyping        bool
	QuickActions    []QuickAction
	PlatformContext PlatformContext
	Error           string
}

// Role labels a conversation-history turn as sent to the model.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry of the model-facing conversation history.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

// ActionType is the fixed vocabulary of quick actions.
type ActionType string

const (
	ActionNavigate        ActionType = "navigate"
	ActionSearch          ActionType = "search"
	ActionShowFilters     ActionType = "show_filters"
	ActionLocationSearch  ActionType = "location_search"
	ActionMenuHelp        ActionType = "menu_help"
	ActionDeliveryInfo    ActionType = "delivery_info"
	ActionCheckoutHelp    ActionType = "checkout_help"
	ActionModifyOrder     ActionType = "modify_order"
	ActionTrackOrder      ActionType = "track_order"
	ActionContactDelivery ActionType = "contact_delivery"
	ActionLoginHelp       ActionType = "login_help"
	ActionRegisterHelp    ActionType = "register_help"
	ActionAccountHelp     ActionType = "account_help"
	ActionOrderHistory    ActionType = "order_history"
	ActionContactSupport  ActionType = "contact_support"
	ActionFAQ             ActionType = "faq"
)

// QuickAction is a labeled shortcut shown under the chat.
type QuickAction struct {
	ID      string
	Label   string
	Action  ActionType
	Payload string // route for navigate, free text otherwise
}
