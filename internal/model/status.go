package model

import "fmt"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus accepts only the known order states.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderCompleted, OrderCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Known reports whether s is one of the declared order states.
func (s OrderStatus) Known() bool {
	_, err := ParseOrderStatus(string(s))
	return err == nil
}

// CountsTowardsTotals reports whether an order in this state contributes
// to a contact's aggregates. Unknown states do not count.
func (s OrderStatus) CountsTowardsTotals() bool {
	switch s {
	case OrderPending, OrderCompleted:
		return true
	}
	return false
}

// DeliveryStatus is the lifecycle state of an inbound delivery.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryReceived  DeliveryStatus = "received"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// ParseDeliveryStatus accepts only the known delivery states.
func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	switch st := DeliveryStatus(s); st {
	case DeliveryPending, DeliveryInTransit, DeliveryReceived, DeliveryCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown delivery status %q", s)
}

// Known reports whether s is one of the declared delivery states.
func (s DeliveryStatus) Known() bool {
	_, err := ParseDeliveryStatus(string(s))
	return err == nil
}

// Final reports whether no further transition is allowed. Unknown states
// are final so a corrupt row cannot book stock.
func (s DeliveryStatus) Final() bool {
	switch s {
	case DeliveryPending, DeliveryInTransit:
		return false
	}
	return true
}

// CanTransitionTo reports whether s may move to next. Staying in the same
// state is always allowed.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if s == next {
		return true
	}
	return !s.Final()
}

// ContactType distinguishes customers from suppliers.
type ContactType string

const (
	ContactCustomer ContactType = "customer"
	ContactSupplier ContactType = "supplier"
)
