package cart

import (
	"testing"

	"github.com/hammamikhairi/foodify/internal/domain"
)

func line(id string, menuID int64, price domain.Money, qty int, restaurant int64) domain.CartLineItem {
	return domain.CartLineItem{
		ID:             id,
		MenuItemID:     menuID,
		Name:           "item",
		Price:          price,
		Quantity:       qty,
		RestaurantID:   restaurant,
		RestaurantName: "Burger Barn",
	}
}

func checkTotals(t *testing.T, s domain.CartState) {
	t.Helper()
	var sub domain.Money
	for _, it := range s.Items {
		sub += it.Price * domain.Money(it.Quantity)
		if it.Quantity < 1 {
			t.Fatalf("line %s has quantity %d", it.ID, it.Quantity)
		}
		if it.RestaurantID != s.RestaurantID {
			t.Fatalf("line %s belongs to restaurant %d, cart is %d", it.ID, it.RestaurantID, s.RestaurantID)
		}
	}
	if s.Subtotal != sub {
		t.Fatalf("subtotal %d, expected %d", s.Subtotal, sub)
	}
	if s.Total != s.Subtotal+s.DeliveryFee {
		t.Fatalf("total %d != subtotal %d + fee %d", s.Total, s.Subtotal, s.DeliveryFee)
	}
}

func TestReduceTotalsHoldAcrossIntents(t *testing.T) {
	intents := []Intent{
		Add{Item: line("a", 1, 850, 1, 5)},
		Add{Item: line("b", 3, 450, 2, 5)},
		Add{Item: line("c", 1, 850, 2, 5)},
		SetQuantity{ItemID: "b", Quantity: 5},
		SetLoading{Loading: true},
		SetError{Message: "boom"},
		Remove{ItemID: "a"},
		SetQuantity{ItemID: "missing", Quantity: 3},
		SetFromRemote{Cart: domain.RemoteCart{
			Items:       []domain.CartLineItem{line("srv-1", 4, 900, 3, 5)},
			DeliveryFee: 199,
		}},
		SetQuantity{ItemID: "srv-1", Quantity: 0},
		Clear{},
	}

	s := domain.CartState{}
	for i, in := range intents {
		s = Reduce(s, in, 299)
		checkTotals(t, s)
		if i == 2 && s.Items[0].Quantity != 3 {
			t.Fatalf("expected merged quantity 3, got %d", s.Items[0].Quantity)
		}
	}
	if len(s.Items) != 0 || s.Total != 0 {
		t.Fatalf("expected empty cart, got %+v", s)
	}
}

func TestReduceAdd(t *testing.T) {
	s := Reduce(domain.CartState{}, Add{Item: line("a", 1, 850, 1, 5)}, 299)
	if len(s.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(s.Items))
	}
	if s.RestaurantID != 5 || s.RestaurantName != "Burger Barn" {
		t.Fatalf("expected restaurant 5, got %d %q", s.RestaurantID, s.RestaurantName)
	}
	if s.Subtotal != 850 || s.DeliveryFee != 299 || s.Total != 1149 {
		t.Fatalf("unexpected totals: %+v", s)
	}

	// Merge keeps the original line id.
	s = Reduce(s, Add{Item: line("b", 1, 850, 2, 5)}, 299)
	if len(s.Items) != 1 || s.Items[0].ID != "a" || s.Items[0].Quantity != 3 {
		t.Fatalf("expected merged line a x3, got %+v", s.Items)
	}
}

func TestReduceDoesNotAliasInput(t *testing.T) {
	before := Reduce(domain.CartState{}, Add{Item: line("a", 1, 850, 1, 5)}, 0)
	before = Reduce(before, Add{Item: line("b", 2, 100, 1, 5)}, 0)

	_ = Reduce(before, Remove{ItemID: "a"}, 0)
	_ = Reduce(before, SetQuantity{ItemID: "b", Quantity: 9}, 0)

	if len(before.Items) != 2 || before.Items[0].ID != "a" || before.Items[1].Quantity != 1 {
		t.Fatalf("input state was modified: %+v", before.Items)
	}
}

func TestReduceQuantityFloor(t *testing.T) {
	for _, qty := range []int{0, -1} {
		s := Reduce(domain.CartState{}, Add{Item: line("a", 1, 850, 2, 5)}, 299)
		s = Reduce(s, SetQuantity{ItemID: "a", Quantity: qty}, 299)
		if s.Find("a") != -1 {
			t.Fatalf("quantity %d: expected item removed", qty)
		}
		if s.DeliveryFee != 0 || s.RestaurantID != 0 {
			t.Fatalf("quantity %d: empty cart should carry no fee or restaurant, got %+v", qty, s)
		}
	}
}

func TestReduceSetFromRemote(t *testing.T) {
	s := Reduce(domain.CartState{Error: "old"}, SetFromRemote{Cart: domain.RemoteCart{
		Items: []domain.CartLineItem{
			line("srv-1", 1, 850, 1, 5),
			line("srv-2", 3, 450, 0, 5),
		},
		DeliveryFee: 299,
		Total:       9999,
	}}, 0)

	if len(s.Items) != 1 {
		t.Fatalf("expected zero-quantity line dropped, got %d items", len(s.Items))
	}
	if s.RestaurantID != 5 {
		t.Fatalf("expected restaurant derived from items, got %d", s.RestaurantID)
	}
	if s.Total != 1149 {
		t.Fatalf("expected recomputed total 1149, got %d", s.Total)
	}
	if s.Error != "" {
		t.Fatalf("expected error cleared, got %q", s.Error)
	}
}

func TestReduceClearKeepsLoading(t *testing.T) {
	s := domain.CartState{Loading: true, Error: "x"}
	s = Reduce(s, Add{Item: line("a", 1, 850, 1, 5)}, 0)
	s = Reduce(s, Clear{}, 0)
	if !s.Loading {
		t.Fatal("expected loading flag preserved")
	}
	if s.Error != "" || len(s.Items) != 0 {
		t.Fatalf("expected cleared state, got %+v", s)
	}
}
