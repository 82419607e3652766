package main

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/hammamikhairi/foodify/internal/cartapi"
	"github.com/hammamikhairi/foodify/internal/chat"
	"github.com/hammamikhairi/foodify/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.PageSource       = (*router)(nil)
	_ domain.UserSource       = (*router)(nil)
	_ domain.RestaurantSource = (*router)(nil)
	_ domain.Navigator        = (*router)(nil)
	_ cartapi.TokenSource     = (*router)(nil)
)

// router is the CLI's stand-in for the browser: it tracks the current
// route and the signed-in user.
type router struct {
	catalog domain.CatalogSource
	secret  []byte
	token   string

	mu    sync.RWMutex
	route string
	user  domain.UserInfo
}

func newRouter(catalog domain.CatalogSource, user domain.UserInfo, secret []byte, token string) *router {
	return &router{catalog: catalog, route: "/", user: user, secret: secret, token: token}
}

func (r *router) CurrentPage(ctx context.Context) (domain.PageInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return chat.ResolvePage(r.route), nil
}

func (r *router) Navigate(ctx context.Context, route string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.route = route
	return nil
}

func (r *router) CurrentUser(ctx context.Context) (domain.UserInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.user, nil
}

// CurrentRestaurant resolves the restaurant of a /restaurants/{id} route.
func (r *router) CurrentRestaurant(ctx context.Context) (*domain.RestaurantInfo, error) {
	page, _ := r.CurrentPage(ctx)
	if page.Type != domain.PageRestaurant {
		return nil, nil
	}
	id, err := strconv.ParseInt(page.Params["id"], 10, 64)
	if err != nil {
		return nil, nil
	}
	rest, err := r.catalog.Restaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	return rest.Info(), nil
}

func (r *router) login(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = domain.UserInfo{IsAuthenticated: true, Name: name, Role: "customer"}
}

func (r *router) logout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = domain.UserInfo{}
}

// Token signs a short-lived token for the current user when a secret is
// configured. A fixed token always wins.
func (r *router) Token() (string, error) {
	if r.token != "" {
		return r.token, nil
	}
	if len(r.secret) == 0 {
		return "", nil
	}
	r.mu.RLock()
	subject := "guest"
	if r.user.IsAuthenticated {
		subject = r.user.Name
	}
	r.mu.RUnlock()
	return cartapi.MintToken(r.secret, subject, time.Hour)
}
