package service

import (
	"context"
	"time"

	"inventory-portal/internal/model"
	"inventory-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the GORM-backed implementations
// closely enough for service tests: missing rows surface as
// gorm.ErrRecordNotFound and list methods paginate the same way.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeWarehouseRepo struct {
	warehouses map[uuid.UUID]*model.Warehouse
}

func (f *fakeWarehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Warehouse, error) {
	if w, ok := f.warehouses[id]; ok {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWarehouseRepo) FindByCode(_ context.Context, code string) (*model.Warehouse, error) {
	for _, w := range f.warehouses {
		if w.Code == code {
			return w, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeMovementRepo struct {
	movements []model.StockMovement
}

func (f *fakeMovementRepo) Create(_ context.Context, movement *model.StockMovement) error {
	movement.ID = uuid.New()
	movement.CreatedAt = time.Now()
	f.movements = append(f.movements, *movement)
	return nil
}

func (f *fakeMovementRepo) List(_ context.Context, filter repository.MovementFilter, page, limit int) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range f.movements {
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.WarehouseID != nil && m.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.Direction != "" && m.Direction != filter.Direction {
			continue
		}
		if filter.RefKind != "" && m.ReferenceKind != filter.RefKind {
			continue
		}
		out = append(out, m)
	}
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (f *fakeMovementRepo) SumForKey(_ context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range f.movements {
		if m.ProductID != productID || m.WarehouseID != warehouseID {
			continue
		}
		if (batchID == nil) != (m.BatchID == nil) {
			continue
		}
		if batchID != nil && *batchID != *m.BatchID {
			continue
		}
		sum = sum.Add(m.SignedQuantity())
	}
	return sum, nil
}

type fakeBalanceRepo struct {
	balances []*model.StockBalance
}

func sameBatch(a, b *uuid.UUID) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func (f *fakeBalanceRepo) find(productID, warehouseID uuid.UUID, batchID *uuid.UUID) *model.StockBalance {
	for _, b := range f.balances {
		if b.ProductID == productID && b.WarehouseID == warehouseID && sameBatch(b.BatchID, batchID) {
			return b
		}
	}
	return nil
}

func (f *fakeBalanceRepo) Find(_ context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error) {
	if b := f.find(productID, warehouseID, batchID); b != nil {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBalanceRepo) GetOrCreate(_ context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error) {
	if b := f.find(productID, warehouseID, batchID); b != nil {
		return b, nil
	}
	b := &model.StockBalance{
		ID:          uuid.New(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		BatchID:     batchID,
		Quantity:    decimal.Zero,
		Reserved:    decimal.Zero,
		Available:   decimal.Zero,
	}
	f.balances = append(f.balances, b)
	return b, nil
}

func (f *fakeBalanceRepo) FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error) {
	return f.Find(ctx, productID, warehouseID, batchID)
}

func (f *fakeBalanceRepo) UpdateQuantities(_ context.Context, id uuid.UUID, quantity, reserved decimal.Decimal) error {
	for _, b := range f.balances {
		if b.ID == id {
			b.Quantity = quantity
			b.Reserved = reserved
			b.Available = quantity.Sub(reserved)
			b.UpdatedAt = time.Now()
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeBalanceRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.StockBalance, error) {
	var out []model.StockBalance
	for _, b := range f.balances {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBalanceRepo) ListByWarehouse(_ context.Context, warehouseID uuid.UUID, page, limit int) ([]model.StockBalance, int64, error) {
	var out []model.StockBalance
	for _, b := range f.balances {
		if b.WarehouseID == warehouseID {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

type fakeBatchRepo struct {
	batches []*model.Batch
}

func (f *fakeBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Batch, error) {
	for _, b := range f.batches {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBatchRepo) FindOrCreate(_ context.Context, productID uuid.UUID, number string, mfgDate, expiryDate *time.Time, notes string) (*model.Batch, error) {
	for _, b := range f.batches {
		if b.ProductID == productID && b.Number == number {
			return b, nil
		}
	}
	b := &model.Batch{
		ID:         uuid.New(),
		ProductID:  productID,
		Number:     number,
		MfgDate:    mfgDate,
		ExpiryDate: expiryDate,
		Notes:      notes,
	}
	f.batches = append(f.batches, b)
	return b, nil
}

func (f *fakeBatchRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.Batch, error) {
	var out []model.Batch
	for _, b := range f.batches {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeSerialRepo struct {
	units []*model.SerialUnit
}

func (f *fakeSerialRepo) CreateBulk(_ context.Context, units []model.SerialUnit) error {
	for i := range units {
		u := units[i]
		u.ID = uuid.New()
		f.units = append(f.units, &u)
	}
	return nil
}

func (f *fakeSerialRepo) FindByNumbers(_ context.Context, productID uuid.UUID, serialNumbers []string) ([]model.SerialUnit, error) {
	wanted := make(map[string]struct{}, len(serialNumbers))
	for _, n := range serialNumbers {
		wanted[n] = struct{}{}
	}
	var out []model.SerialUnit
	for _, u := range f.units {
		if u.ProductID != productID {
			continue
		}
		if _, ok := wanted[u.SerialNumber]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeSerialRepo) UpdateStatus(_ context.Context, ids []uuid.UUID, status string, movementID *uuid.UUID, disposedAt *time.Time) error {
	for _, u := range f.units {
		for _, id := range ids {
			if u.ID == id {
				u.Status = status
				u.LastMovementID = movementID
				u.DisposedAt = disposedAt
			}
		}
	}
	return nil
}

func (f *fakeSerialRepo) UpdateWarehouse(_ context.Context, ids []uuid.UUID, warehouseID uuid.UUID, movementID *uuid.UUID) error {
	for _, u := range f.units {
		for _, id := range ids {
			if u.ID == id {
				u.WarehouseID = warehouseID
				u.LastMovementID = movementID
			}
		}
	}
	return nil
}

func (f *fakeSerialRepo) ListByProduct(_ context.Context, productID uuid.UUID, status string, page, limit int) ([]model.SerialUnit, int64, error) {
	var out []model.SerialUnit
	for _, u := range f.units {
		if u.ProductID != productID {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSerialRepo) byNumber(number string) *model.SerialUnit {
	for _, u := range f.units {
		if u.SerialNumber == number {
			return u
		}
	}
	return nil
}

type fakeRulesRepo struct {
	allowNegative bool
	policies      []model.ApprovalPolicy
}

func (f *fakeRulesRepo) AllowNegativeStock(_ context.Context) (bool, error) {
	return f.allowNegative, nil
}

func (f *fakeRulesRepo) ListPoliciesByType(_ context.Context, entityType string) ([]model.ApprovalPolicy, error) {
	var out []model.ApprovalPolicy
	for _, p := range f.policies {
		if p.Enabled && p.EntityType == entityType {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

func (f *fakeAuditRepo) actions() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeApprovalRepo struct {
	requests  map[uuid.UUID]*model.ApprovalRequest
	createErr error
}

func (f *fakeApprovalRepo) Create(_ context.Context, req *model.ApprovalRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	f.requests[req.ID] = req
	return nil
}

func (f *fakeApprovalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	if r, ok := f.requests[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeApprovalRepo) FindPendingByEntity(_ context.Context, entityType string, entityID uuid.UUID) (*model.ApprovalRequest, error) {
	for _, r := range f.requests {
		if r.EntityType == entityType && r.EntityID == entityID && r.Status == model.ApprovalPending {
			copied := *r
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeApprovalRepo) TransitionFromPending(_ context.Context, id uuid.UUID, status string, reviewerID uuid.UUID, comment string) (int64, error) {
	r, ok := f.requests[id]
	if !ok || r.Status != model.ApprovalPending {
		return 0, nil
	}
	now := time.Now()
	r.Status = status
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &now
	r.ReviewComment = comment
	r.UpdatedAt = now
	return 1, nil
}

func (f *fakeApprovalRepo) List(_ context.Context, status string, entityType string, page, limit int) ([]model.ApprovalRequest, int64, error) {
	var out []model.ApprovalRequest
	for _, r := range f.requests {
		if status != "" && r.Status != status {
			continue
		}
		if entityType != "" && r.EntityType != entityType {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

type fakePurchaseRepo struct {
	requests map[uuid.UUID]*model.PurchaseReceiveRequest
}

func (f *fakePurchaseRepo) Create(_ context.Context, req *model.PurchaseReceiveRequest) error {
	req.ID = uuid.New()
	for i := range req.Items {
		req.Items[i].ID = uuid.New()
		req.Items[i].RequestID = req.ID
	}
	f.requests[req.ID] = req
	return nil
}

func (f *fakePurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseReceiveRequest, error) {
	if r, ok := f.requests[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePurchaseRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if r, ok := f.requests[id]; ok {
		r.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

type fakeSaleRepo struct {
	sales map[uuid.UUID]*model.Sale
}

func (f *fakeSaleRepo) Create(_ context.Context, sale *model.Sale) error {
	sale.ID = uuid.New()
	for i := range sale.Items {
		sale.Items[i].ID = uuid.New()
		sale.Items[i].SaleID = sale.ID
	}
	f.sales[sale.ID] = sale
	return nil
}

func (f *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	if s, ok := f.sales[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSaleRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if s, ok := f.sales[id]; ok {
		s.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

type fakeAdjustmentRepo struct {
	adjustments map[uuid.UUID]*model.StockAdjustment
}

func (f *fakeAdjustmentRepo) Create(_ context.Context, adjustment *model.StockAdjustment) error {
	adjustment.ID = uuid.New()
	f.adjustments[adjustment.ID] = adjustment
	return nil
}

func (f *fakeAdjustmentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockAdjustment, error) {
	if a, ok := f.adjustments[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdjustmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if a, ok := f.adjustments[id]; ok {
		a.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

type fakeTransferRepo struct {
	transfers map[uuid.UUID]*model.StockTransfer
}

func (f *fakeTransferRepo) Create(_ context.Context, transfer *model.StockTransfer) error {
	transfer.ID = uuid.New()
	f.transfers[transfer.ID] = transfer
	return nil
}

func (f *fakeTransferRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	if t, ok := f.transfers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTransferRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if t, ok := f.transfers[id]; ok {
		t.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

type fakeNotifier struct {
	changes [][]StockChange
}

func (f *fakeNotifier) NotifyStockChanged(changes []StockChange) {
	f.changes = append(f.changes, changes)
}
