package cartapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xeipuuv/gojsonschema"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

const schemaAddItem = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["menu_item_id", "quantity"],
  "properties": {
    "menu_item_id": { "type": "integer", "minimum": 1 },
    "quantity": { "type": "integer", "minimum": 1, "maximum": 99 },
    "special_instructions": { "type": "string", "maxLength": 500 }
  },
  "additionalProperties": false
}`

const schemaUpdateItem = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["quantity"],
  "properties": {
    "quantity": { "type": "integer", "maximum": 99 }
  },
  "additionalProperties": false
}`

var (
	addItemLoader    = gojsonschema.NewStringLoader(schemaAddItem)
	updateItemLoader = gojsonschema.NewStringLoader(schemaUpdateItem)
)

const anonymousUser = "anonymous"

type ctxKey int

const userKey ctxKey = iota

// StubOption configures the stub backend.
type StubOption func(*Stub)

// WithSecret requires HS256 bearer tokens signed with secret.
func WithSecret(secret []byte) StubOption {
	return func(s *Stub) {
		s.secret = secret
	}
}

// WithFlatDeliveryFee sets the fee charged on non-empty carts.
func WithFlatDeliveryFee(fee domain.Money) StubOption {
	return func(s *Stub) {
		s.fee = fee
	}
}

// Stub is an in-memory cart API backed by a catalog. Each authenticated
// subject gets its own cart; without a secret every caller shares the
// anonymous cart.
type Stub struct {
	catalog domain.CatalogSource
	log     *logger.Logger
	fee     domain.Money
	secret  []byte
	router  chi.Router

	mu     sync.Mutex
	carts  map[string][]domain.CartLineItem
	nextID int
}

// NewStub creates the backend and its routes.
func NewStub(catalog domain.CatalogSource, log *logger.Logger, opts ...StubOption) *Stub {
	s := &Stub{
		catalog: catalog,
		log:     log.With("component", "cartapi-stub"),
		fee:     299,
		carts:   make(map[string][]domain.CartLineItem),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.authMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
			next.ServeHTTP(w, r)
		})
	})
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Post("/", s.handleAdd)
		r.Delete("/", s.handleClear)
		r.Put("/{itemID}", s.handleUpdate)
		r.Delete("/{itemID}", s.handleRemove)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Stub) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.secret) == 0 {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, anonymousUser)))
			return
		}

		auth := r.Header.Get("Authorization")
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeError(w, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		subject, err := verifyToken(s.secret, parts[1])
		if err != nil {
			s.log.Debug("rejected token: %v", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, subject)))
	})
}

func (s *Stub) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cart := s.snapshot(userFrom(r))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, cart)
}

func (s *Stub) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req domain.AddItemRequest
	if !s.decode(w, r, addItemLoader, &req) {
		return
	}

	item, rest, err := s.catalog.MenuItem(r.Context(), req.MenuItemID)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("menu item %d not found", req.MenuItemID))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !item.Available || !rest.IsOpen {
		writeError(w, http.StatusConflict, fmt.Sprintf("%s is not available right now", item.Name))
		return
	}

	user := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[user]
	if len(items) > 0 && items[0].RestaurantID != rest.ID {
		writeError(w, http.StatusConflict, "cart contains items from another restaurant")
		return
	}
	for i := range items {
		if items[i].MenuItemID == req.MenuItemID {
			items[i].Quantity += req.Quantity
			if req.SpecialInstructions != "" {
				items[i].SpecialInstructions = req.SpecialInstructions
			}
			s.log.Debug("user %s: merged menu item %d, qty=%d", user, req.MenuItemID, items[i].Quantity)
			writeJSON(w, http.StatusOK, items[i])
			return
		}
	}

	s.nextID++
	line := domain.CartLineItem{
		ID:                  fmt.Sprintf("ci-%d", s.nextID),
		MenuItemID:          item.ID,
		Name:                item.Name,
		Price:               item.Price,
		Quantity:            req.Quantity,
		SpecialInstructions: req.SpecialInstructions,
		RestaurantID:        rest.ID,
		RestaurantName:      rest.Name,
		ImageURL:            item.ImageURL,
	}
	s.carts[user] = append(items, line)
	s.log.Debug("user %s: added menu item %d as %s", user, req.MenuItemID, line.ID)
	writeJSON(w, http.StatusCreated, line)
}

func (s *Stub) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body quantityBody
	if !s.decode(w, r, updateItemLoader, &body) {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	user := userFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[user]
	for i := range items {
		if items[i].ID != itemID {
			continue
		}
		if body.Quantity <= 0 {
			s.carts[user] = append(items[:i], items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		items[i].Quantity = body.Quantity
		writeJSON(w, http.StatusOK, items[i])
		return
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("cart item %s not found", itemID))
}

func (s *Stub) handleRemove(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	user := userFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[user]
	for i := range items {
		if items[i].ID == itemID {
			s.carts[user] = append(items[:i], items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("cart item %s not found", itemID))
}

func (s *Stub) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.carts, userFrom(r))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// snapshot builds the cart answer. Caller holds s.mu.
func (s *Stub) snapshot(user string) domain.RemoteCart {
	cart := domain.RemoteCart{Items: append([]domain.CartLineItem{}, s.carts[user]...)}
	for _, it := range cart.Items {
		cart.Subtotal += it.LineTotal()
	}
	if len(cart.Items) > 0 {
		cart.DeliveryFee = s.fee
		cart.RestaurantID = cart.Items[0].RestaurantID
	}
	cart.Total = cart.Subtotal + cart.DeliveryFee
	return cart
}

// decode validates the body against schema and unmarshals it into out.
// It writes the error response itself and reports false on failure.
func (s *Stub) decode(w http.ResponseWriter, r *http.Request, schema gojsonschema.JSONLoader, out any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read body")
		return false
	}
	if err := validateJSONSchema(schema, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func validateJSONSchema(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for i, e := range result.Errors() {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(e.String())
		}
		return fmt.Errorf("request does not conform to schema: %s", sb.String())
	}
	return nil
}

func userFrom(r *http.Request) string {
	if u, ok := r.Context().Value(userKey).(string); ok && u != "" {
		return u
	}
	return anonymousUser
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
