package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/po_service/models"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func TestUpsertPurchaseOrder_ExistingRowIsNotMutated(t *testing.T) {
	store := newFakeStore()
	store.pos["PO-1"] = models.PurchaseOrder{
		ID:            7,
		PoNumber:      "PO-1",
		VendorId:      1,
		City:          "Chennai",
		PoCreatedDate: datatypes.Date(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		Status:        "Shipped",
	}

	po, err := NewPOUpserter(store).UpsertPurchaseOrder(context.Background(), PurchaseOrderInput{
		PoNumber:    "PO-1",
		VendorId:    2,
		City:        "Mumbai",
		CreatedDate: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if po.ID != 7 || po.Status != "Shipped" || po.City != "Chennai" || po.VendorId != 1 {
		t.Fatalf("existing PO changed: %+v", po)
	}
	if store.count(store.inserts, entityPurchaseOrder) != 0 {
		t.Fatalf("no insert expected")
	}
}

func TestUpsertPurchaseOrder_NewRowIsPending(t *testing.T) {
	store := newFakeStore()
	po, err := NewPOUpserter(store).UpsertPurchaseOrder(context.Background(), PurchaseOrderInput{PoNumber: "PO-9", VendorId: 1, PlatformId: 1})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if po.Status != models.PurchaseOrderStatusPending {
		t.Fatalf("want Pending, got %s", po.Status)
	}
}

func TestUpsertOrderItem_UpdatesOrderedOnly(t *testing.T) {
	store := newFakeStore()
	store.items[itemKey(3, "A")] = models.OrderItem{
		ID:               11,
		PoId:             3,
		SkuId:            "A",
		OrderedQuantity:  decimal.NewFromInt(5),
		ReceivedQuantity: decimal.NewFromInt(2),
	}

	item, err := NewPOUpserter(store).UpsertOrderItem(context.Background(), 3, "A", decimal.NewFromInt(8))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if item.ID != 11 || !item.OrderedQuantity.Equal(decimal.NewFromInt(8)) || !item.ReceivedQuantity.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestUpsertOrderItem_NewItemStartsWithZeroReceived(t *testing.T) {
	store := newFakeStore()
	item, err := NewPOUpserter(store).UpsertOrderItem(context.Background(), 3, "A", decimal.NewFromInt(4))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !item.ReceivedQuantity.IsZero() || !item.OrderedQuantity.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestUpsertOrderItem_ConflictAppliesOrderedQuantityToWinner(t *testing.T) {
	store := newFakeStore()
	store.conflictOnce[entityOrderItem+"|"+itemKey(3, "A")] = true

	item, err := NewPOUpserter(store).UpsertOrderItem(context.Background(), 3, "A", decimal.NewFromInt(6))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	winner := store.items[itemKey(3, "A")]
	if item.ID != winner.ID || !winner.OrderedQuantity.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("winner should carry the new quantity: item=%+v winner=%+v", item, winner)
	}
}

func TestUpsertOrderItem_BackendErrorIsDependencyWriteFailed(t *testing.T) {
	store := newFakeStore()
	store.failFind[entityOrderItem+"|"+itemKey(3, "A")] = errBackend

	_, err := NewPOUpserter(store).UpsertOrderItem(context.Background(), 3, "A", decimal.NewFromInt(1))
	var depErr *models.DependencyWriteFailedError
	if !errors.As(err, &depErr) || depErr.Entity != entityOrderItem || depErr.Key != "3/A" {
		t.Fatalf("expected DependencyWriteFailedError for order_item 3/A, got %v", err)
	}
}
