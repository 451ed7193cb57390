package orders

import "time"

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// statusTransitions guards the admin status update: an order only moves
// forward through fulfilment, and only unshipped orders can be cancelled.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	UID             string
	ShopperUID      string
	CheckoutUID     string
	Items           []OrderItem
	SubTotal        int64
	Tax             int64
	Total           int64
	Currency        string
	Status          OrderStatus
	PaymentID       string
	PaymentProvider string
	Shipping        ShippingAddress
	CreatedAt       time.Time
	LastModified    *time.Time
}

type OrderItem struct {
	ProductUID string
	Name       string
	Quantity   int
	UnitPrice  int64
	Currency   string
}

type ShippingAddress struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}
