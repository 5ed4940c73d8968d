package stock

import (
	"context"
	"fmt"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// LotDepletedHandler handles LotDepleted events and triggers restock
// notifications when a lot runs dry.
type LotDepletedHandler struct {
	logger   *zap.Logger
	notifier RestockNotifier
}

// RestockNotifier is the interface for sending restock alerts.
// Implementations can support different channels (in-app, email, etc.)
type RestockNotifier interface {
	// NotifyDepleted sends a depletion notification for a lot
	NotifyDepleted(ctx context.Context, alert RestockAlert) error
}

// RestockAlert describes a depleted lot
type RestockAlert struct {
	Category string `json:"category"`
	LotCode  string `json:"lot_code"`
	EntryID  string `json:"entry_id"`
}

// NewLotDepletedHandler creates a new handler for lot depletion events
func NewLotDepletedHandler(logger *zap.Logger) *LotDepletedHandler {
	return &LotDepletedHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending restock alerts
func (h *LotDepletedHandler) WithNotifier(notifier RestockNotifier) *LotDepletedHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LotDepletedHandler) EventTypes() []string {
	return []string{stock.EventTypeLotDepleted}
}

// Handle processes a LotDepletedEvent
func (h *LotDepletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	depletedEvent, ok := event.(*stock.LotDepletedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", stock.EventTypeLotDepleted),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			stock.EventTypeLotDepleted, event.EventType())
	}

	h.logger.Warn("lot depleted",
		zap.String("category", string(depletedEvent.Category)),
		zap.String("lot_code", depletedEvent.LotCode),
		zap.String("entry_id", event.AggregateID().String()),
	)

	if h.notifier != nil {
		alert := RestockAlert{
			Category: string(depletedEvent.Category),
			LotCode:  depletedEvent.LotCode,
			EntryID:  event.AggregateID().String(),
		}
		if err := h.notifier.NotifyDepleted(ctx, alert); err != nil {
			h.logger.Error("failed to send restock notification",
				zap.String("lot_code", alert.LotCode),
				zap.Error(err),
			)
			// Notification failure shouldn't fail the event handling
		}
	}

	return nil
}

// Ensure LotDepletedHandler implements shared.EventHandler
var _ shared.EventHandler = (*LotDepletedHandler)(nil)

// LoggingRestockNotifier logs restock alerts. Useful for development
// deployments that have no notification channel configured.
type LoggingRestockNotifier struct {
	logger *zap.Logger
}

// NewLoggingRestockNotifier creates a new logging notifier
func NewLoggingRestockNotifier(logger *zap.Logger) *LoggingRestockNotifier {
	return &LoggingRestockNotifier{
		logger: logger,
	}
}

// NotifyDepleted logs the restock alert
func (n *LoggingRestockNotifier) NotifyDepleted(ctx context.Context, alert RestockAlert) error {
	n.logger.Warn("RESTOCK ALERT",
		zap.String("category", alert.Category),
		zap.String("lot_code", alert.LotCode),
		zap.String("entry_id", alert.EntryID),
	)
	return nil
}

// Ensure LoggingRestockNotifier implements RestockNotifier
var _ RestockNotifier = (*LoggingRestockNotifier)(nil)
