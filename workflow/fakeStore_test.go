package workflow

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/mmdatafocus/po_service/models"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory Store with failure and conflict injection.
// Rows are copied in and out so callers never share memory with it.
type fakeStore struct {
	mu sync.Mutex

	nextId    int
	platforms map[string]models.Platform
	vendors   map[string]models.Vendor
	skus      map[string]models.LandingRate
	pos       map[string]models.PurchaseOrder
	items     map[string]models.OrderItem

	inserts     map[string]int
	finds       map[string]int
	invalidated map[string]int

	// failures keyed by entity + natural key, e.g. "vendor|Bad"
	failFind   map[string]error
	failInsert map[string]error
	// conflictOnce plants a row written by "someone else" and reports AlreadyExists
	conflictOnce map[string]bool

	insertDelay time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		platforms:    map[string]models.Platform{},
		vendors:      map[string]models.Vendor{},
		skus:         map[string]models.LandingRate{},
		pos:          map[string]models.PurchaseOrder{},
		items:        map[string]models.OrderItem{},
		inserts:      map[string]int{},
		finds:        map[string]int{},
		invalidated:  map[string]int{},
		failFind:     map[string]error{},
		failInsert:   map[string]error{},
		conflictOnce: map[string]bool{},
	}
}

var errBackend = errors.New("backend unavailable")

func itemKey(poId int, skuId string) string {
	return strconv.Itoa(poId) + "/" + skuId
}

func (s *fakeStore) id() int {
	s.nextId++
	return s.nextId
}

func (s *fakeStore) count(m map[string]int, key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return m[key]
}

func fakeFind[T any](s *fakeStore, table map[string]T, entity, key string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds[entity]++
	if err := s.failFind[entity+"|"+key]; err != nil {
		return nil, err
	}
	row, ok := table[key]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func fakeInsert[T any](s *fakeStore, table map[string]T, entity, key string, row *T, setId func(*T, int)) models.InsertResult[T] {
	if s.insertDelay > 0 {
		time.Sleep(s.insertDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts[entity]++
	if err := s.failInsert[entity+"|"+key]; err != nil {
		return models.InsertFailed[T](err)
	}
	if s.conflictOnce[entity+"|"+key] {
		delete(s.conflictOnce, entity+"|"+key)
		winner := *row
		setId(&winner, s.id())
		table[key] = winner
		return models.AlreadyExists[T]()
	}
	if _, ok := table[key]; ok {
		return models.AlreadyExists[T]()
	}
	setId(row, s.id())
	table[key] = *row
	out := *row
	return models.Inserted(&out)
}

func (s *fakeStore) FindPlatformByName(ctx context.Context, name string) (*models.Platform, error) {
	return fakeFind(s, s.platforms, entityPlatform, name)
}

func (s *fakeStore) InsertPlatform(ctx context.Context, p *models.Platform) models.InsertResult[models.Platform] {
	return fakeInsert(s, s.platforms, entityPlatform, p.Name, p, func(r *models.Platform, id int) { r.ID = id })
}

func (s *fakeStore) FindVendorByName(ctx context.Context, name string) (*models.Vendor, error) {
	return fakeFind(s, s.vendors, entityVendor, name)
}

func (s *fakeStore) InsertVendor(ctx context.Context, v *models.Vendor) models.InsertResult[models.Vendor] {
	return fakeInsert(s, s.vendors, entityVendor, v.Name, v, func(r *models.Vendor, id int) { r.ID = id })
}

func (s *fakeStore) FindLandingRateBySkuId(ctx context.Context, skuId string) (*models.LandingRate, error) {
	return fakeFind(s, s.skus, entityLandingRate, skuId)
}

func (s *fakeStore) InsertLandingRate(ctx context.Context, lr *models.LandingRate) models.InsertResult[models.LandingRate] {
	return fakeInsert(s, s.skus, entityLandingRate, lr.SkuId, lr, func(r *models.LandingRate, id int) { r.ID = id })
}

func (s *fakeStore) FindPurchaseOrderByNumber(ctx context.Context, poNumber string) (*models.PurchaseOrder, error) {
	return fakeFind(s, s.pos, entityPurchaseOrder, poNumber)
}

func (s *fakeStore) InsertPurchaseOrder(ctx context.Context, po *models.PurchaseOrder) models.InsertResult[models.PurchaseOrder] {
	return fakeInsert(s, s.pos, entityPurchaseOrder, po.PoNumber, po, func(r *models.PurchaseOrder, id int) { r.ID = id })
}

func (s *fakeStore) FindOrderItem(ctx context.Context, poId int, skuId string) (*models.OrderItem, error) {
	return fakeFind(s, s.items, entityOrderItem, itemKey(poId, skuId))
}

func (s *fakeStore) InsertOrderItem(ctx context.Context, item *models.OrderItem) models.InsertResult[models.OrderItem] {
	return fakeInsert(s, s.items, entityOrderItem, itemKey(item.PoId, item.SkuId), item, func(r *models.OrderItem, id int) { r.ID = id })
}

func (s *fakeStore) UpdateOrderedQuantity(ctx context.Context, itemId int, qty decimal.Decimal) (*models.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, item := range s.items {
		if item.ID == itemId {
			item.OrderedQuantity = qty
			s.items[key] = item
			out := item
			return &out, nil
		}
	}
	return nil, errors.New("order item not found")
}

func (s *fakeStore) InvalidatePurchaseOrder(ctx context.Context, poNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated[poNumber]++
}
