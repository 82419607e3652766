// Package catalog provides restaurant and menu source implementations.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// Compile-time interface check.
var _ domain.CatalogSource = (*MemorySource)(nil)

// MemorySource holds restaurants and menus in memory. Safe for concurrent reads.
type MemorySource struct {
	mu          sync.RWMutex
	restaurants map[int64]*domain.Restaurant
	items       map[int64]*domain.MenuItem
	log         *logger.Logger
}

// NewMemorySource creates a catalog preloaded with built-in restaurants.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		restaurants: make(map[int64]*domain.Restaurant),
		items:       make(map[int64]*domain.MenuItem),
		log:         log,
	}
	src.seed()
	return src
}

// Restaurants returns all restaurants sorted by name.
func (s *MemorySource) Restaurants(ctx context.Context) ([]domain.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("listing all restaurants, count=%d", len(s.restaurants))

	out := make([]domain.Restaurant, 0, len(s.restaurants))
	for _, r := range s.restaurants {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Restaurant returns a restaurant with its menu.
func (s *MemorySource) Restaurant(ctx context.Context, id int64) (*domain.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.restaurants[id]
	if !ok {
		s.log.Debug("restaurant not found: %d", id)
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// MenuItem returns a menu item and the restaurant that sells it.
func (s *MemorySource) MenuItem(ctx context.Context, id int64) (*domain.MenuItem, *domain.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	item, rest := *it, *s.restaurants[it.RestaurantID]
	return &item, &rest, nil
}

// Add registers a restaurant and its menu, replacing any previous entry
// with the same ID.
func (s *MemorySource) Add(r domain.Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.restaurants[r.ID]; ok {
		for _, it := range old.Menu {
			delete(s.items, it.ID)
		}
	}
	menu := make([]domain.MenuItem, len(r.Menu))
	for i, it := range r.Menu {
		it.RestaurantID = r.ID
		menu[i] = it
		cp := it
		s.items[it.ID] = &cp
	}
	r.Menu = menu
	s.restaurants[r.ID] = &r
}

// Search returns restaurants whose name, cuisine or dishes contain the
// query string.
func (s *MemorySource) Search(ctx context.Context, query string) ([]domain.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	s.log.Debug("searching restaurants for: %s", q)

	var out []domain.Restaurant
	for _, r := range s.restaurants {
		if matches(r, q) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matches(r *domain.Restaurant, query string) bool {
	if strings.Contains(strings.ToLower(r.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(r.Cuisine), query) {
		return true
	}
	for _, it := range r.Menu {
		if strings.Contains(strings.ToLower(it.Name), query) || strings.Contains(strings.ToLower(it.Category), query) {
			return true
		}
	}
	return false
}

// ItemData builds the cart-side description of a menu item.
func ItemData(item *domain.MenuItem, r *domain.Restaurant) domain.ItemData {
	return domain.ItemData{
		RestaurantID:   r.ID,
		RestaurantName: r.Name,
		Name:           item.Name,
		Price:          item.Price,
		ImageURL:       item.ImageURL,
	}
}

// seed populates the source with built-in restaurants.
func (s *MemorySource) seed() {
	restaurants := []domain.Restaurant{
		burgerBarn(),
		sakuraSushi(),
		pastaPiazza(),
	}
	for _, r := range restaurants {
		s.Add(r)
	}
	s.log.Debug("seeded %d restaurants", len(restaurants))
}

func burgerBarn() domain.Restaurant {
	return domain.Restaurant{
		ID:           5,
		Name:         "Burger Barn",
		Cuisine:      "American",
		Rating:       4.5,
		DeliveryTime: "25-35 min",
		IsOpen:       true,
		Menu: []domain.MenuItem{
			{ID: 1, Name: "Burger", Description: "Beef patty, cheddar, pickles, house sauce.", Category: "burgers", Price: 850, Available: true},
			{ID: 3, Name: "Cheese Fries", Description: "Crinkle fries under melted cheddar.", Category: "sides", Price: 450, Available: true},
			{ID: 4, Name: "Veggie Burger", Description: "Black bean patty, avocado, chipotle mayo.", Category: "burgers", Price: 900, Available: true},
			{ID: 5, Name: "Chocolate Shake", Description: "Thick and cold.", Category: "drinks", Price: 550, Available: true},
		},
	}
}

func sakuraSushi() domain.Restaurant {
	return domain.Restaurant{
		ID:           7,
		Name:         "Sakura Sushi",
		Cuisine:      "Japanese",
		Rating:       4.7,
		DeliveryTime: "30-45 min",
		IsOpen:       true,
		Menu: []domain.MenuItem{
			{ID: 2, Name: "Salmon Roll", Description: "Eight pieces, fresh salmon, cucumber.", Category: "rolls", Price: 1200, Available: true},
			{ID: 6, Name: "Miso Soup", Description: "Tofu, wakame, scallion.", Category: "soups", Price: 350, Available: true},
			{ID: 7, Name: "Chicken Katsu", Description: "Panko chicken cutlet with curry sauce.", Category: "mains", Price: 1450, Available: true},
		},
	}
}

func pastaPiazza() domain.Restaurant {
	return domain.Restaurant{
		ID:           9,
		Name:         "Pasta Piazza",
		Cuisine:      "Italian",
		Rating:       4.2,
		DeliveryTime: "35-50 min",
		IsOpen:       false,
		Menu: []domain.MenuItem{
			{ID: 8, Name: "Spaghetti Carbonara", Description: "Guanciale, pecorino, egg yolk.", Category: "pasta", Price: 1350, Available: true},
			{ID: 9, Name: "Margherita Pizza", Description: "San Marzano tomato, fior di latte, basil.", Category: "pizza", Price: 1100, Available: true},
			{ID: 10, Name: "Tiramisu", Description: "Espresso-soaked ladyfingers, mascarpone.", Category: "desserts", Price: 650, Available: false},
		},
	}
}
