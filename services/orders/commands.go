package orders

import (
	"context"
	"fmt"
	"sort"

	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mystore"
)

func (s *service) listOrders(c context.Context, shopperUID string) ([]Order, error) {
	s.logger.Log(c, shopperUID, mylog.SeverityInfo, "Fetch orders of shopper %s", shopperUID)

	orders, err := s.orderStore.Query(c, []mystore.Filter{
		{Field: "ShopperUID", Compare: "=", Value: shopperUID},
	}, "CreatedAt")
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	sortNewestFirst(orders)

	return orders, nil
}

func (s *service) listAllOrders(c context.Context) ([]Order, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch all orders")

	orders, err := s.orderStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	sortNewestFirst(orders)

	return orders, nil
}

func (s *service) getOrder(c context.Context, orderUID string) (Order, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Fetch details of order %s", orderUID)

	order, found, err := s.orderStore.Get(c, orderUID)
	if err != nil {
		return Order{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Order{}, myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID))
	}

	return order, nil
}

// updateOrderStatus is the admin fulfilment operation. Status only moves
// along the transition table in model.go.
func (s *service) updateOrderStatus(c context.Context, orderUID string, status OrderStatus) (Order, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Update status of order %s to %s", orderUID, status)

	if !status.IsValid() {
		return Order{}, myerrors.NewInvalidInputError(fmt.Errorf("unknown order status %s", status))
	}

	now := s.nower.Now()

	var order Order
	err := s.orderStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		var found bool
		var err error
		order, found, err = s.orderStore.Get(c, orderUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID))
		}

		if order.Status == status {
			return nil
		}
		if !order.Status.CanTransitionTo(status) {
			return myerrors.NewConflictError(fmt.Errorf("order %s is %s, can not become %s", orderUID, order.Status, status))
		}

		order.Status = status
		order.LastModified = &now

		err = s.orderStore.Put(c, orderUID, order)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

func sortNewestFirst(orders []Order) {
	// TODO sort in database
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
