package service

import "github.com/google/uuid"

// StockChange identifies one (product, warehouse) pair whose balance moved.
type StockChange struct {
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
}

// MetricsNotifier receives affected pairs after a stock-changing transaction
// commits, so dashboard metrics can be recomputed out of band. Notification
// is fire-and-forget; a lost notification never affects ledger correctness.
type MetricsNotifier interface {
	NotifyStockChanged(changes []StockChange)
}

type noopMetricsNotifier struct{}

func (noopMetricsNotifier) NotifyStockChanged([]StockChange) {}

// NewNoopMetricsNotifier is used in tests and when no hub is wired.
func NewNoopMetricsNotifier() MetricsNotifier {
	return noopMetricsNotifier{}
}
