package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.OrderStore  = (*OrderLog)(nil)
	_ domain.OrderSource = (*OrderLog)(nil)
)

// OrderLog is an in-memory record of placed orders. Safe for concurrent
// access.
type OrderLog struct {
	mu     sync.RWMutex
	orders map[string]domain.OrderSummary
	log    *logger.Logger
}

// NewOrderLog creates an empty order log.
func NewOrderLog(log *logger.Logger) *OrderLog {
	return &OrderLog{
		orders: make(map[string]domain.OrderSummary),
		log:    log,
	}
}

// Save records an order. Overwrites if the ID already exists, which is how
// status updates land.
func (s *OrderLog) Save(ctx context.Context, order domain.OrderSummary) error {
	if order.ID == "" {
		return &domain.ValidationError{Field: "id", Msg: "order id is required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving order %s (restaurant=%s, status=%s)", order.ID, order.RestaurantName, order.Status)
	s.orders[order.ID] = order
	return nil
}

// Load retrieves an order by ID.
func (s *OrderLog) Load(ctx context.Context, id string) (domain.OrderSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.OrderSummary{}, domain.ErrNotFound
	}
	return o, nil
}

// RecentOrders returns up to limit orders, newest first. limit <= 0 means all.
func (s *OrderLog) RecentOrders(ctx context.Context, limit int) ([]domain.OrderSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.OrderSummary, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].PlacedAt.After(out[j].PlacedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	s.log.Debug("listing recent orders, count=%d", len(out))
	return out, nil
}
