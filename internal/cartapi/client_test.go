package cartapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/foodify/internal/catalog"
	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

func setupServer(t *testing.T, opts ...StubOption) (*httptest.Server, *logger.Logger) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	stub := NewStub(catalog.NewMemorySource(log), log, opts...)
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return srv, log
}

func TestClientCartLifecycle(t *testing.T) {
	srv, log := setupServer(t)
	c := NewClient(srv.URL, log)
	ctx := context.Background()

	cart, err := c.FetchCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, domain.Money(0), cart.Total)

	item, err := c.AddItem(ctx, domain.AddItemRequest{MenuItemID: 1, Quantity: 1, SpecialInstructions: "no pickles"})
	require.NoError(t, err)
	assert.Equal(t, "Burger", item.Name)
	assert.Equal(t, domain.Money(850), item.Price)
	assert.Equal(t, int64(5), item.RestaurantID)

	// Same menu item merges into the existing line.
	again, err := c.AddItem(ctx, domain.AddItemRequest{MenuItemID: 1, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, 3, again.Quantity)

	cart, err = c.FetchCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, domain.Money(2550), cart.Subtotal)
	assert.Equal(t, domain.Money(299), cart.DeliveryFee)
	assert.Equal(t, domain.Money(2849), cart.Total)
	assert.Equal(t, int64(5), cart.RestaurantID)

	updated, err := c.UpdateItem(ctx, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	removed, err := c.UpdateItem(ctx, item.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, removed)

	_, err = c.AddItem(ctx, domain.AddItemRequest{MenuItemID: 3, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, c.ClearCart(ctx))
	require.NoError(t, c.ClearCart(ctx))

	cart, err = c.FetchCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClientErrors(t *testing.T) {
	srv, log := setupServer(t)
	c := NewClient(srv.URL, log)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		status int
	}{
		{"schema violation", func() error {
			_, err := c.AddItem(ctx, domain.AddItemRequest{MenuItemID: 1, Quantity: 0})
			return err
		}, http.StatusBadRequest},
		{"unknown menu item", func() error {
			_, err := c.AddItem(ctx, domain.AddItemRequest{MenuItemID: 999, Quantity: 1})
			return err
		}, http.StatusNotFound},
		{"closed restaurant", func() error {
			_, err := c.AddItem(ctx, domain.AddItemRequest{MenuItemID: 8, Quantity: 1})
			return err
		}, http.StatusConflict},
		{"unknown line", func() error {
			return c.RemoveItem(ctx, "ci-404")
		}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var apiErr *domain.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.NotEmpty(t, apiErr.Message)
			assert.False(t, domain.IsRetryable(err))
			assert.Equal(t, tt.status == http.StatusNotFound, errors.Is(err, domain.ErrNotFound))
		})
	}
}

func TestClientCrossRestaurantConflict(t *testing.T) {
	srv, log := setupServer(t)
	c := NewClient(srv.URL, log)
	ctx := context.Background()

	_, err := c.AddItem(ctx, domain.AddItemRequest{MenuItemID: 1, Quantity: 1})
	require.NoError(t, err)

	_, err = c.AddItem(ctx, domain.AddItemRequest{MenuItemID: 2, Quantity: 1})
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestClientServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.New(logger.LevelOff, nil))
	_, err := c.FetchCart(context.Background())
	require.ErrorIs(t, err, domain.ErrAPI)
	assert.True(t, domain.IsRetryable(err))
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, logger.New(logger.LevelOff, nil), WithHTTPClient(&http.Client{Timeout: time.Second}))
	_, err := c.FetchCart(context.Background())
	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.True(t, domain.IsRetryable(err))
}

func TestStubRequiresToken(t *testing.T) {
	secret := []byte("test-secret")
	srv, log := setupServer(t, WithSecret(secret))
	ctx := context.Background()

	anon := NewClient(srv.URL, log)
	_, err := anon.FetchCart(ctx)
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	forged, err := MintToken([]byte("other-secret"), "alice", time.Minute)
	require.NoError(t, err)
	_, err = NewClient(srv.URL, log, WithTokenSource(StaticToken(forged))).FetchCart(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	aliceTok, err := MintToken(secret, "alice", time.Minute)
	require.NoError(t, err)
	bobTok, err := MintToken(secret, "bob", time.Minute)
	require.NoError(t, err)

	alice := NewClient(srv.URL, log, WithTokenSource(StaticToken(aliceTok)))
	bob := NewClient(srv.URL, log, WithTokenSource(StaticToken(bobTok)))

	_, err = alice.AddItem(ctx, domain.AddItemRequest{MenuItemID: 1, Quantity: 1})
	require.NoError(t, err)

	cart, err := bob.FetchCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items, "carts are per subject")

	cart, err = alice.FetchCart(ctx)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestMintTokenRejectsEmptySecret(t *testing.T) {
	_, err := MintToken(nil, "alice", time.Minute)
	require.Error(t, err)

	expired, err := MintToken([]byte("s"), "alice", -time.Minute)
	require.NoError(t, err)
	_, err = verifyToken([]byte("s"), expired)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrValidation))
}
