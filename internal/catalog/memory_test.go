package catalog

import (
	"context"
	"testing"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

func TestMemorySourceRestaurants(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	restaurants, err := src.Restaurants(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(restaurants) < 3 {
		t.Fatalf("expected at least 3 restaurants, got %d", len(restaurants))
	}
	for i := 1; i < len(restaurants); i++ {
		if restaurants[i-1].Name > restaurants[i].Name {
			t.Fatal("expected restaurants sorted by name")
		}
	}
}

func TestMemorySourceMenuItem(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	tests := []struct {
		id             int64
		wantRestaurant int64
		wantErr        error
	}{
		{1, 5, nil},
		{2, 7, nil},
		{8, 9, nil},
		{999, 0, domain.ErrNotFound},
	}

	for _, tt := range tests {
		item, r, err := src.MenuItem(ctx, tt.id)
		if tt.wantErr != nil {
			if err != tt.wantErr {
				t.Fatalf("item %d: expected %v, got %v", tt.id, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("item %d: unexpected error: %v", tt.id, err)
		}
		if r.ID != tt.wantRestaurant || item.RestaurantID != tt.wantRestaurant {
			t.Fatalf("item %d: expected restaurant %d, got %d/%d", tt.id, tt.wantRestaurant, r.ID, item.RestaurantID)
		}
	}

	item, r, _ := src.MenuItem(ctx, 1)
	data := ItemData(item, r)
	if data.Price != 850 || data.RestaurantID != 5 || data.Name != "Burger" {
		t.Fatalf("unexpected item data: %+v", data)
	}
}

func TestMemorySourceSearch(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	tests := []struct {
		query string
		want  int
	}{
		{"burger", 1},
		{"JAPANESE", 1},
		{"pizza", 1},
		{"nonexistent-query-xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := src.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(results) != tt.want {
				t.Fatalf("query=%q: expected %d results, got %d", tt.query, tt.want, len(results))
			}
		})
	}
}

func TestMemorySourceAddReplacesMenu(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	src.Add(domain.Restaurant{
		ID:   5,
		Name: "Burger Barn",
		Menu: []domain.MenuItem{{ID: 100, Name: "Smash Burger", Price: 990}},
	})

	if _, _, err := src.MenuItem(ctx, 1); err != domain.ErrNotFound {
		t.Fatalf("expected old menu item to be gone, got %v", err)
	}
	item, _, err := src.MenuItem(ctx, 100)
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	if item.RestaurantID != 5 {
		t.Fatalf("expected restaurant id to be stamped, got %d", item.RestaurantID)
	}
}
