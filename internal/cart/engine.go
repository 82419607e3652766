package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// DefaultStorageKey is the local storage key holding the cart snapshot.
const DefaultStorageKey = "foodify_cart"

// Compile-time interface check.
var _ domain.CartSource = (*Engine)(nil)

// Option configures the engine.
type Option func(*Engine)

// WithStorageKey overrides the local storage key.
func WithStorageKey(key string) Option {
	return func(e *Engine) {
		e.storageKey = key
	}
}

// WithDeliveryFee sets the fee shown optimistically when the first item is
// added. The server's fee replaces it on reconciliation.
func WithDeliveryFee(fee domain.Money) Option {
	return func(e *Engine) {
		e.deliveryFee = fee
	}
}

// WithSerializedMutations makes mutations run one at a time, each including
// its reconciling fetch. Without it, overlapping mutations race and the
// last fetch to complete wins.
func WithSerializedMutations() Option {
	return func(e *Engine) {
		e.serial = make(chan struct{}, 1)
	}
}

// WithIDGenerator replaces the temporary line item id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// AddRequest describes an add-to-cart call.
type AddRequest struct {
	MenuItemID          int64
	Quantity            int // <= 0 means 1
	SpecialInstructions string
	Item                domain.ItemData
}

// Engine owns the client-side cart. Safe for concurrent use.
type Engine struct {
	remote      domain.CartRemote
	store       domain.KeyValueStore
	log         *logger.Logger
	storageKey  string
	deliveryFee domain.Money
	newID       func() string
	serial      chan struct{}

	life   context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     domain.CartState
	inflight  int
	listeners map[int]func(domain.CartState)
	nextSub   int
}

// New creates a cart engine with an empty cart. Call Mount to hydrate it.
func New(remote domain.CartRemote, store domain.KeyValueStore, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		remote:     remote,
		store:      store,
		log:        log.With("component", "cart"),
		storageKey: DefaultStorageKey,
		newID:      tempID,
		state:      domain.CartState{Items: []domain.CartLineItem{}},
		listeners:  make(map[int]func(domain.CartState)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.life, e.cancel = context.WithCancel(context.Background())
	return e
}

// Mount hydrates the cart from local storage, then reconciles it with the
// remote cart.
func (e *Engine) Mount(ctx context.Context) error {
	if local, ok := e.loadLocal(); ok && len(local.Items) > 0 {
		e.log.Debug("hydrated %d line items from local storage", len(local.Items))
		e.dispatch(SetFromRemote{Cart: asRemote(local)})
	}
	return e.FetchCart(ctx)
}

// Close detaches the engine. Continuations of in-flight calls stop applying
// state once Close returns.
func (e *Engine) Close() {
	e.cancel()
}

// State returns a snapshot of the cart.
func (e *Engine) State() domain.CartState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// CartTotal returns the cart total including delivery.
func (e *Engine) CartTotal() domain.Money {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Total
}

// CartItemCount returns the number of units in the cart.
func (e *Engine) CartItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ItemCount()
}

// Summary returns the cart part of the platform context.
func (e *Engine) Summary() domain.CartSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CartSummary{
		ItemCount:      e.state.ItemCount(),
		Total:          e.state.Total,
		RestaurantName: e.state.RestaurantName,
	}
}

// Subscribe registers fn to be called with every new state. The returned
// func unregisters it.
func (e *Engine) Subscribe(fn func(domain.CartState)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// FetchCart replaces local state with the remote cart. When the remote is
// unreachable it falls back to the persisted cart if that has items, and
// to an empty cart otherwise.
func (e *Engine) FetchCart(ctx context.Context) error {
	ctx, done := e.begin(ctx)
	defer done()
	return e.fetch(ctx)
}

// AddToCart adds an item optimistically, then reconciles with the remote
// cart. Items from a different restaurant than the current non-empty cart
// are rejected with *domain.CrossRestaurantError and leave the cart as is.
func (e *Engine) AddToCart(ctx context.Context, req AddRequest) error {
	if req.MenuItemID <= 0 {
		return &domain.ValidationError{Field: "menu_item_id", Msg: "must be positive"}
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	line := domain.CartLineItem{
		ID:                  e.newID(),
		MenuItemID:          req.MenuItemID,
		Name:                req.Item.Name,
		Price:               req.Item.Price,
		Quantity:            req.Quantity,
		SpecialInstructions: req.SpecialInstructions,
		RestaurantID:        req.Item.RestaurantID,
		RestaurantName:      req.Item.RestaurantName,
		ImageURL:            req.Item.ImageURL,
	}

	check := func(s domain.CartState) error {
		if len(s.Items) > 0 && s.RestaurantID != req.Item.RestaurantID {
			return &domain.CrossRestaurantError{
				CartRestaurantID:   s.RestaurantID,
				CartRestaurantName: s.RestaurantName,
				ItemRestaurantID:   req.Item.RestaurantID,
			}
		}
		return nil
	}
	if err := e.dispatchIf(check, Add{Item: line}); err != nil {
		e.log.Debug("add rejected: %v", err)
		return err
	}
	e.log.Debug("optimistic add: menu item %d x%d", req.MenuItemID, req.Quantity)

	ctx, done := e.begin(ctx)
	defer done()

	_, err = e.remote.AddItem(ctx, domain.AddItemRequest{
		MenuItemID:          req.MenuItemID,
		Quantity:            req.Quantity,
		SpecialInstructions: req.SpecialInstructions,
	})
	return e.settle(ctx, "adding item", err)
}

// RemoveFromCart removes a line item optimistically, then reconciles.
func (e *Engine) RemoveFromCart(ctx context.Context, itemID string) error {
	release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	e.dispatch(Remove{ItemID: itemID})
	e.log.Debug("optimistic remove: %s", itemID)

	ctx, done := e.begin(ctx)
	defer done()

	err = e.remote.RemoveItem(ctx, itemID)
	return e.settle(ctx, "removing item", err)
}

// UpdateQuantity sets a line item's quantity optimistically, removing it
// when quantity <= 0, then reconciles.
func (e *Engine) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	e.dispatch(SetQuantity{ItemID: itemID, Quantity: quantity})
	e.log.Debug("optimistic quantity: %s -> %d", itemID, quantity)

	ctx, done := e.begin(ctx)
	defer done()

	if quantity <= 0 {
		err = e.remote.RemoveItem(ctx, itemID)
	} else {
		_, err = e.remote.UpdateItem(ctx, itemID, quantity)
	}
	return e.settle(ctx, "updating quantity", err)
}

// ClearCart clears the remote cart and, once confirmed, the local one.
// There is no optimistic step.
func (e *Engine) ClearCart(ctx context.Context) error {
	release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	ctx, done := e.begin(ctx)
	defer done()

	if err := e.remote.ClearCart(ctx); err != nil {
		return e.settle(ctx, "clearing cart", err)
	}
	e.dispatch(Clear{})
	e.log.Info("cart cleared")
	return nil
}

// ResetLocal empties the cart and purges local storage without calling the
// remote. Used on logout.
func (e *Engine) ResetLocal() {
	e.dispatch(Clear{})
	e.log.Debug("local cart reset")
}

// settle reconciles with the remote cart after a mutation. A failed
// mutation records its error after the rollback and returns it.
func (e *Engine) settle(ctx context.Context, op string, err error) error {
	if ferr := e.fetch(ctx); ferr != nil && err == nil {
		e.log.Warn("reconcile after %s: %v", op, ferr)
	}
	if err == nil {
		return nil
	}
	e.log.Error("%s: %v", op, err)
	e.dispatch(SetError{Message: userMessage(err)})
	return fmt.Errorf("%s: %w", op, err)
}

func (e *Engine) fetch(ctx context.Context) error {
	remote, err := e.remote.FetchCart(ctx)
	if err == nil {
		e.dispatch(SetFromRemote{Cart: *remote})
		return nil
	}

	e.log.Warn("fetching cart: %v", err)
	if local, ok := e.loadLocal(); ok && len(local.Items) > 0 {
		e.log.Debug("falling back to persisted cart (%d line items)", len(local.Items))
		e.dispatch(SetFromRemote{Cart: asRemote(local)})
	} else {
		e.dispatch(SetFromRemote{Cart: domain.RemoteCart{}})
	}
	e.dispatch(SetError{Message: userMessage(err)})
	return fmt.Errorf("fetching cart: %w", err)
}

// dispatch applies an intent to the latest state.
func (e *Engine) dispatch(in Intent) {
	_ = e.dispatchIf(nil, in)
}

// dispatchIf applies in when check accepts the latest state. Both run under
// the lock so the check and the transition are atomic. Nothing is applied
// after Close.
func (e *Engine) dispatchIf(check func(domain.CartState) error, in Intent) error {
	e.mu.Lock()
	if e.life.Err() != nil {
		e.mu.Unlock()
		return nil
	}
	if check != nil {
		if err := check(e.state); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	e.state = Reduce(e.state, in, e.deliveryFee)
	e.persist(in)
	snap := e.state.Clone()
	fns := make([]func(domain.CartState), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return nil
}

// persist writes the cart snapshot for content-changing intents. Storage
// failures are logged and otherwise ignored. Caller holds e.mu.
func (e *Engine) persist(in Intent) {
	var err error
	switch in.(type) {
	case SetError, SetLoading:
		return
	case Clear:
		err = e.store.Remove(e.storageKey)
	default:
		var data []byte
		data, err = json.Marshal(e.state)
		if err == nil {
			err = e.store.Set(e.storageKey, string(data))
		}
	}
	if err != nil {
		e.log.Warn("persisting cart: %v", err)
	}
}

// loadLocal reads the persisted cart. Any failure is a miss.
func (e *Engine) loadLocal() (domain.CartState, bool) {
	raw, ok, err := e.store.Get(e.storageKey)
	if err != nil {
		e.log.Warn("reading persisted cart: %v", err)
		return domain.CartState{}, false
	}
	if !ok || raw == "" {
		return domain.CartState{}, false
	}
	var s domain.CartState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		e.log.Warn("decoding persisted cart: %v", err)
		return domain.CartState{}, false
	}
	return s, true
}

// begin marks a remote call in flight and derives a context that is also
// cancelled by Close.
func (e *Engine) begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.life, cancel)

	e.mu.Lock()
	e.inflight++
	e.mu.Unlock()
	e.dispatch(SetLoading{Loading: true})

	return ctx, func() {
		stop()
		cancel()
		e.mu.Lock()
		e.inflight--
		idle := e.inflight == 0
		e.mu.Unlock()
		if idle {
			e.dispatch(SetLoading{Loading: false})
		}
	}
}

// acquire takes the mutation slot when mutations are serialized.
func (e *Engine) acquire(ctx context.Context) (func(), error) {
	if e.serial == nil {
		return func() {}, nil
	}
	select {
	case e.serial <- struct{}{}:
		return func() { <-e.serial }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.life.Done():
		return nil, context.Canceled
	}
}

func asRemote(s domain.CartState) domain.RemoteCart {
	return domain.RemoteCart{
		Items:        s.Items,
		Subtotal:     s.Subtotal,
		DeliveryFee:  s.DeliveryFee,
		Total:        s.Total,
		RestaurantID: s.RestaurantID,
	}
}

// userMessage turns an error into text fit for the cart's error field.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNetwork):
		return "We couldn't reach the server. Your cart may be out of date."
	case errors.Is(err, domain.ErrNotFound):
		return "That item is no longer in your cart."
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	default:
		return "Something went wrong updating your cart. Please try again."
	}
}
