package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/po_service/models"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PurchaseOrderInput struct {
	PoNumber    string
	VendorId    int
	PlatformId  int
	City        string
	CreatedDate time.Time
}

type POUpserter struct {
	store Store
}

func NewPOUpserter(store Store) *POUpserter {
	return &POUpserter{store: store}
}

// UpsertPurchaseOrder never mutates an existing PO. Status and dates are set
// only when the row is created.
func (u *POUpserter) UpsertPurchaseOrder(ctx context.Context, in PurchaseOrderInput) (*models.PurchaseOrder, error) {
	return getOrCreateInStore(ctx, entityPurchaseOrder, in.PoNumber,
		func(ctx context.Context) (*models.PurchaseOrder, error) {
			return u.store.FindPurchaseOrderByNumber(ctx, in.PoNumber)
		},
		func(ctx context.Context) models.InsertResult[models.PurchaseOrder] {
			return u.store.InsertPurchaseOrder(ctx, &models.PurchaseOrder{
				PoNumber:      in.PoNumber,
				VendorId:      in.VendorId,
				PlatformId:    in.PlatformId,
				City:          in.City,
				PoCreatedDate: datatypes.Date(in.CreatedDate),
				Status:        models.PurchaseOrderStatusPending,
			})
		},
	)
}

// UpsertOrderItem overwrites ordered_quantity of an existing item and leaves
// received_quantity alone. New items start with received_quantity 0.
func (u *POUpserter) UpsertOrderItem(ctx context.Context, poId int, skuId string, orderedQty decimal.Decimal) (*models.OrderItem, error) {
	key := fmt.Sprintf("%d/%s", poId, skuId)

	existing, err := u.store.FindOrderItem(ctx, poId, skuId)
	if err != nil {
		return nil, models.NewDependencyWriteFailed(entityOrderItem, key, err)
	}
	if existing == nil {
		res := u.store.InsertOrderItem(ctx, &models.OrderItem{
			PoId:             poId,
			SkuId:            skuId,
			OrderedQuantity:  orderedQty,
			ReceivedQuantity: decimal.Zero,
		})
		switch res.Outcome {
		case models.InsertOutcomeInserted:
			return res.Row, nil
		case models.InsertOutcomeAlreadyExists:
			existing, err = u.store.FindOrderItem(ctx, poId, skuId)
			if err != nil {
				return nil, models.NewDependencyWriteFailed(entityOrderItem, key, err)
			}
			if existing == nil {
				return nil, models.NewDependencyWriteFailed(entityOrderItem, key, errVanishedAfterConflict)
			}
		default:
			return nil, models.NewDependencyWriteFailed(entityOrderItem, key, res.Err)
		}
	}

	updated, err := u.store.UpdateOrderedQuantity(ctx, existing.ID, orderedQty)
	if err != nil {
		return nil, models.NewDependencyWriteFailed(entityOrderItem, key, err)
	}
	return updated, nil
}
