package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"freight-insure/internal/intake"
	"freight-insure/pkg/config"

	"go.uber.org/zap"
)

// OrderService creates insurance orders on the freight backend.
type OrderService struct {
	client *remoteClient
	logger *zap.Logger
}

func NewOrderService(cfg *config.OrderConfig, logger *zap.Logger) *OrderService {
	return &OrderService{
		client: newRemoteClient(cfg.BaseURL, cfg.ServiceToken, cfg.Timeout, logger),
		logger: logger,
	}
}

// CreateOrder implements intake.OrderCreator.
func (s *OrderService) CreateOrder(ctx context.Context, p intake.Payload) (*intake.OrderConfirmation, error) {
	s.logger.Info("Creating order", zap.String("start_time", p.StartTime.Format(intake.DateFormat)))

	var data json.RawMessage
	if err := s.client.post(ctx, "/order", p, &data); err != nil {
		s.logger.Warn("Order creation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	conf := &intake.OrderConfirmation{Data: data, OrderID: orderID(data)}
	s.logger.Info("Order created", zap.String("order_id", conf.OrderID))
	return conf, nil
}

// orderID picks the order identifier from the response data, which is
// either an object carrying id/orderId or a bare id.
func orderID(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var obj struct {
		ID      json.RawMessage `json:"id"`
		OrderID json.RawMessage `json:"orderId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		if id := scalar(obj.OrderID); id != "" {
			return id
		}
		return scalar(obj.ID)
	}
	return scalar(data)
}

func scalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}
