package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// WelcomeMessage opens every conversation.
const WelcomeMessage = "Hi! I'm your Foodify assistant. Ask me about restaurants, your cart, checkout or your orders."

const (
	replyRateLimited = "You're sending messages too quickly. Please wait a moment and try again."
	replyUnreadable  = "I couldn't read that message. Could you rephrase it?"
	replyFailed      = "Sorry, I'm having trouble responding right now. Please try again in a moment."
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionClock sets the clock used to stamp messages.
func WithSessionClock(c clock.Clock) SessionOption {
	return func(s *Session) {
		s.clock = c
	}
}

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		s.id = id
	}
}

// Session is the visible conversation with the assistant. Every reply
// goes through the pipeline. Safe for concurrent use.
type Session struct {
	pipeline *Pipeline
	contexts *ContextService
	nav      domain.Navigator
	log      *logger.Logger
	clock    clock.Clock

	life   context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	id        string
	messages  []domain.ChatMessage
	inflight  int
	quick     []domain.QuickAction
	pc        domain.PlatformContext
	lastErr   string
	listeners map[int]func(domain.ChatSession)
	nextSub   int
}

// NewSession starts a conversation holding only the welcome message.
// contexts and nav may be nil.
func NewSession(p *Pipeline, contexts *ContextService, nav domain.Navigator, log *logger.Logger, opts ...SessionOption) *Session {
	s := &Session{
		pipeline:  p,
		contexts:  contexts,
		nav:       nav,
		clock:     clock.New(),
		id:        uuid.NewString(),
		pc:        domain.PlatformContext{Page: ResolvePage("/")},
		listeners: make(map[int]func(domain.ChatSession)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = log.With("session", s.id)
	s.life, s.cancel = context.WithCancel(context.Background())
	s.quick = QuickActionsFor(s.pc)
	s.messages = []domain.ChatMessage{s.welcome()}
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Close detaches the session. Replies that arrive afterwards are dropped.
func (s *Session) Close() {
	s.cancel()
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.ChatSession {
	return domain.ChatSession{
		SessionID:       s.id,
		Messages:        append([]domain.ChatMessage(nil), s.messages...),
		IsTyping:        s.inflight > 0,
		QuickActions:    append([]domain.QuickAction(nil), s.quick...),
		PlatformContext: s.pc,
		Error:           s.lastErr,
	}
}

// Subscribe registers fn to be called after every change. The returned
// func unregisters it.
func (s *Session) Subscribe(fn func(domain.ChatSession)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// SendMessage posts text and waits for the assistant's reply. Blank text
// is ignored. Failures become an error-typed bot message; SendMessage
// itself never fails.
func (s *Session) SendMessage(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if s.life.Err() != nil {
		s.log.Debug("send after close ignored")
		return
	}

	s.update(func() {
		s.messages = append(s.messages, s.message(text, domain.SenderUser, domain.MessageText))
		s.inflight++
	})

	pc := s.refresh(ctx)

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	unlink := context.AfterFunc(s.life, stop)
	defer unlink()

	reply, err := s.pipeline.Generate(ctx, s.id, text, pc)

	s.update(func() {
		s.inflight--
		if s.life.Err() != nil {
			return
		}
		if err != nil {
			s.log.Warn("reply failed: %v", err)
			s.messages = append(s.messages, s.message(failureText(err), domain.SenderBot, domain.MessageError))
			s.lastErr = err.Error()
			return
		}
		s.messages = append(s.messages, s.message(reply, domain.SenderBot, domain.MessageText))
		s.lastErr = ""
	})
}

func failureText(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return replyRateLimited
	case errors.Is(err, domain.ErrValidation):
		return replyUnreadable
	default:
		return replyFailed
	}
}

// HandleQuickAction runs a shortcut: navigate actions move to the payload
// route, everything else asks the assistant a fixed question.
func (s *Session) HandleQuickAction(ctx context.Context, action domain.QuickAction) error {
	s.log.Debug("quick action %s (%s)", action.ID, action.Action)

	if action.Action == domain.ActionNavigate {
		route := action.Payload
		if route == "" {
			route = "/"
		}
		if s.nav != nil {
			if err := s.nav.Navigate(ctx, route); err != nil {
				return err
			}
		}
		page := ResolvePage(route)
		s.UpdatePlatformContext(domain.ContextUpdate{Page: &page})
		return nil
	}

	phrase, ok := quickActionPhrases[action.Action]
	if !ok {
		phrase = action.Payload
		if phrase == "" {
			phrase = action.Label
		}
	}
	s.SendMessage(ctx, phrase)
	return nil
}

// ClearConversation drops every message and the pipeline history, then
// greets the user again.
func (s *Session) ClearConversation() {
	s.pipeline.ClearHistory(s.id)
	s.update(func() {
		s.messages = []domain.ChatMessage{s.welcome()}
		s.lastErr = ""
	})
}

// UpdatePlatformContext merges u into the cached context and recomputes
// the quick actions.
func (s *Session) UpdatePlatformContext(u domain.ContextUpdate) {
	s.update(func() {
		s.pc = mergeContext(s.pc, u)
		s.quick = QuickActionsFor(s.pc)
	})
}

// RefreshContext re-reads every context source.
func (s *Session) RefreshContext(ctx context.Context) {
	s.refresh(ctx)
}

func (s *Session) refresh(ctx context.Context) domain.PlatformContext {
	if s.contexts == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.pc
	}
	pc := s.contexts.Snapshot(ctx)
	s.update(func() {
		s.pc = pc
		s.quick = QuickActionsFor(pc)
	})
	return pc
}

func mergeContext(pc domain.PlatformContext, u domain.ContextUpdate) domain.PlatformContext {
	if u.Page != nil {
		pc.Page = *u.Page
	}
	if u.User != nil {
		pc.User = *u.User
	}
	if u.Cart != nil {
		pc.Cart = *u.Cart
	}
	if u.ClearRestaurant {
		pc.CurrentRestaurant = nil
	}
	if u.CurrentRestaurant != nil {
		r := *u.CurrentRestaurant
		pc.CurrentRestaurant = &r
	}
	if u.RecentOrders != nil {
		pc.RecentOrders = capOrders(u.RecentOrders)
	}
	return pc
}

// update applies fn under the lock, then notifies listeners outside it.
func (s *Session) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	fns := make([]func(domain.ChatSession), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.mu.Unlock()

	for _, l := range fns {
		l(snap)
	}
}

func (s *Session) welcome() domain.ChatMessage {
	return s.message(WelcomeMessage, domain.SenderBot, domain.MessageText)
}

func (s *Session) message(text string, from domain.Sender, typ domain.MessageType) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    from,
		Timestamp: s.clock.Now(),
		Type:      typ,
	}
}
