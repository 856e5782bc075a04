package websocket

import (
	"encoding/json"

	"inventory-portal/internal/service"
)

type stockChangedEvent struct {
	Type    string                `json:"type"`
	Changes []service.StockChange `json:"changes"`
}

type hubNotifier struct {
	hub *Hub
}

// NewStockMetricsNotifier bridges committed stock changes onto the hub so
// every connected dashboard recomputes the affected (product, warehouse)
// metrics.
func NewStockMetricsNotifier(hub *Hub) service.MetricsNotifier {
	return &hubNotifier{hub: hub}
}

func (n *hubNotifier) NotifyStockChanged(changes []service.StockChange) {
	if len(changes) == 0 {
		return
	}
	payload, err := json.Marshal(stockChangedEvent{Type: "stock_changed", Changes: changes})
	if err != nil {
		return
	}
	n.hub.Broadcast <- payload
}
