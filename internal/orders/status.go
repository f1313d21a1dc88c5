package orders

import "github.com/angelmondragon/storefront-backend/pkg/enums"

// StatusCreatedDetail is the detail stamped on every new order.
const StatusCreatedDetail = "Order created"

var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
}

var defaultDetails = map[enums.OrderStatus]string{
	enums.OrderStatusPending:    StatusCreatedDetail,
	enums.OrderStatusProcessing: "Order is being prepared",
	enums.OrderStatusShipped:    "Order has shipped",
	enums.OrderStatusDelivered:  "Order delivered",
	enums.OrderStatusCancelled:  "Order cancelled",
}

// CanTransition reports whether an order in from may move to to.
// Re-applying the current status is always allowed so the detail can change.
func CanTransition(from, to enums.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from the given one.
func NextStatuses(from enums.OrderStatus) []enums.OrderStatus {
	next := allowedTransitions[from]
	out := make([]enums.OrderStatus, len(next))
	copy(out, next)
	return out
}

// DefaultDetail is the detail used when an update supplies none.
func DefaultDetail(status enums.OrderStatus) string {
	return defaultDetails[status]
}
