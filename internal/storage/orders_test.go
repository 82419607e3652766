package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

func TestOrderLogRecentOrders(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := NewOrderLog(log)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		order := domain.OrderSummary{
			ID:             fmt.Sprintf("ord-%d", i),
			RestaurantName: "Burger Barn",
			Status:         "delivered",
			Total:          domain.Money(1000 + i),
			PlacedAt:       base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.Save(ctx, order); err != nil {
			t.Fatalf("save %s: %v", order.ID, err)
		}
	}

	recent, err := store.RecentOrders(ctx, domain.MaxRecentOrders)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != domain.MaxRecentOrders {
		t.Fatalf("expected %d orders, got %d", domain.MaxRecentOrders, len(recent))
	}
	if recent[0].ID != "ord-6" || recent[4].ID != "ord-2" {
		t.Fatalf("expected newest first, got %s..%s", recent[0].ID, recent[4].ID)
	}

	all, _ := store.RecentOrders(ctx, 0)
	if len(all) != 7 {
		t.Fatalf("expected all 7 orders, got %d", len(all))
	}
}

func TestOrderLogLoadAndValidate(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := NewOrderLog(log)
	ctx := context.Background()

	if err := store.Save(ctx, domain.OrderSummary{}); err == nil {
		t.Fatal("expected validation error for empty id")
	}

	if err := store.Save(ctx, domain.OrderSummary{ID: "a", Status: "placed"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, domain.OrderSummary{ID: "a", Status: "delivered"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	o, err := store.Load(ctx, "a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if o.Status != "delivered" {
		t.Fatalf("expected updated status, got %s", o.Status)
	}
	if _, err := store.Load(ctx, "missing"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
