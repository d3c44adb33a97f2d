package pos

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
)

func TestNewStoreSeedsBothContexts(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	for _, sc := range saleContexts {
		tabs, activeID, err := s.Tabs(sc)
		if err != nil {
			t.Fatalf("Tabs(%s): %v", sc, err)
		}
		if len(tabs) != 1 {
			t.Fatalf("expected 1 seeded tab in %s, got %d", sc, len(tabs))
		}
		if tabs[0].ID != activeID {
			t.Fatalf("seeded tab must be active in %s", sc)
		}
		if tabs[0].Name != "Order #1" {
			t.Fatalf("expected name Order #1, got %q", tabs[0].Name)
		}
	}
}

func TestCreateAndSwitchTab(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	sc := enums.SaleContextRetail
	first := mustActive(t, s, sc)

	second, err := s.CreateTab(sc)
	if err != nil {
		t.Fatalf("CreateTab: %v", err)
	}
	if second.Name != "Order #2" {
		t.Fatalf("expected Order #2, got %q", second.Name)
	}
	if got := mustActive(t, s, sc); got.ID != second.ID {
		t.Fatalf("new tab must become active")
	}

	if err := s.SwitchTab(sc, first.ID); err != nil {
		t.Fatalf("SwitchTab: %v", err)
	}
	if got := mustActive(t, s, sc); got.ID != first.ID {
		t.Fatalf("expected first tab active after switch")
	}
}

func TestDeleteLastTabRefused(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	sc := enums.SaleContextRetail
	only := mustActive(t, s, sc)

	err := s.DeleteTab(sc, only.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	tabs, _, err := s.Tabs(sc)
	if err != nil {
		t.Fatalf("Tabs: %v", err)
	}
	if len(tabs) != 1 {
		t.Fatalf("tab count must remain 1, got %d", len(tabs))
	}
}

func TestDeleteActiveTabActivatesFirst(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	sc := enums.SaleContextRetail
	first := mustActive(t, s, sc)
	second, err := s.CreateTab(sc)
	if err != nil {
		t.Fatalf("CreateTab: %v", err)
	}

	if err := s.DeleteTab(sc, second.ID); err != nil {
		t.Fatalf("DeleteTab: %v", err)
	}
	if got := mustActive(t, s, sc); got.ID != first.ID {
		t.Fatalf("expected first tab active after deleting active tab")
	}
}

func TestClearActiveTabKeepsIdentity(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	sc := enums.SaleContextRetail
	p := Product{ID: 1, Name: "Nails", Price: dec(t, "200")}
	if err := s.AddToCart(sc, p, "", decimal.NewFromInt(1)); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := s.SetRemark(sc, "hold for pickup"); err != nil {
		t.Fatalf("SetRemark: %v", err)
	}
	before := mustActive(t, s, sc)

	if err := s.ClearActiveTab(sc); err != nil {
		t.Fatalf("ClearActiveTab: %v", err)
	}

	after := mustActive(t, s, sc)
	if after.ID != before.ID {
		t.Fatalf("clearing must not change tab identity")
	}
	if len(after.Cart) != 0 || after.Details.Remark != "" || after.Customer != nil {
		t.Fatalf("expected empty composition, got %+v", after)
	}
}

func TestDuplicateChargeAndPaymentRejected(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	sc := enums.SaleContextRetail
	charge := OtherCharge{ChargeID: 4, Name: "Delivery", Amount: dec(t, "300")}
	if err := s.AddOtherCharge(sc, charge); err != nil {
		t.Fatalf("AddOtherCharge: %v", err)
	}
	err := s.AddOtherCharge(sc, charge)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on duplicate charge, got %v", err)
	}

	pay := PaymentEntry{MethodID: 2, Name: "Card", Amount: dec(t, "100")}
	if err := s.AddPayment(sc, pay); err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
	err = s.AddPayment(sc, pay)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on duplicate payment method, got %v", err)
	}

	tab := mustActive(t, s, sc)
	if len(tab.Details.OtherCharges) != 1 || len(tab.Details.Payments) != 1 {
		t.Fatalf("duplicates must not stack rows: %+v", tab.Details)
	}
}

func TestFlushListenerOrdering(t *testing.T) {
	t.Parallel()

	var snaps []Snapshot
	s := NewStore(func(snap Snapshot) { snaps = append(snaps, snap) })
	sc := enums.SaleContextRetail
	p := Product{ID: 1, Name: "Nails", Price: dec(t, "200")}

	if err := s.AddToCart(sc, p, "", decimal.NewFromInt(1)); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := s.UpdateCartQty(sc, 1, "", 2); err != nil {
		t.Fatalf("UpdateCartQty: %v", err)
	}

	if len(snaps) != 2 {
		t.Fatalf("expected 2 flushes, got %d", len(snaps))
	}
	firstQty := snaps[0].Partitions[sc.String()].Tabs[0].Cart[0].Qty
	lastQty := snaps[1].Partitions[sc.String()].Tabs[0].Cart[0].Qty
	if firstQty != 1 || lastQty != 3 {
		t.Fatalf("flushes out of order: %d then %d", firstQty, lastQty)
	}
}

func TestNoFlushOnNoopMutation(t *testing.T) {
	t.Parallel()

	var flushes int
	s := NewStore(func(Snapshot) { flushes++ })
	if err := s.UpdateCartQty(enums.SaleContextRetail, 99, "", 1); err != nil {
		t.Fatalf("UpdateCartQty: %v", err)
	}
	if flushes != 0 {
		t.Fatalf("no-op mutation must not flush, got %d", flushes)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	sc := enums.SaleContextRetail
	p := Product{ID: 1, Name: "Nails", Price: dec(t, "200")}
	if err := s.AddToCart(sc, p, "", decimal.NewFromInt(1)); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	tab := mustActive(t, s, sc)
	tab.Cart[0].Qty = 99

	if got := mustActive(t, s, sc); got.Cart[0].Qty != 1 {
		t.Fatalf("caller mutation leaked into the store: qty %d", got.Cart[0].Qty)
	}
}
