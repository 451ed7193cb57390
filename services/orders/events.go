package orders

import (
	"context"
	"fmt"

	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/myhttp"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/services/checkoutapi"
	"github.com/gemelle/shopbackend/services/checkoutevents"
	"github.com/gemelle/shopbackend/services/orderevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.pubsub.CreateTopic(c, orderevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", orderevents.TopicName, err)
	}

	err = s.pubsub.Subscribe(c, checkoutevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/order/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

func (s *service) OnCheckoutStarted(c context.Context, topic string, event checkoutevents.CheckoutStarted) error {
	return nil
}

// OnCheckoutCompleted turns a successfully verified checkout into an order,
// exactly once: the order is keyed by the OrderUID minted at verification,
// so a redelivered event finds it and leaves it untouched.
func (s *service) OnCheckoutCompleted(c context.Context, topic string, event checkoutevents.CheckoutCompleted) error {
	s.logger.Log(c, event.CheckoutUID, mylog.SeverityInfo, "Checkout %s completed with status %s", event.CheckoutUID, event.CheckoutStatus)

	if event.CheckoutStatus != checkoutevents.CheckoutStatusSuccess {
		return nil
	}
	if event.OrderUID == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("completed checkout %s carries no order uid", event.CheckoutUID))
	}

	now := s.nower.Now()

	checkoutContext, found, err := s.checkoutStore.Get(c, event.CheckoutUID)
	if err != nil {
		return myerrors.NewInternalError(err)
	}
	if !found {
		return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", event.CheckoutUID))
	}

	return s.orderStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		_, exists, err := s.orderStore.Get(c, event.OrderUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if exists {
			// Event redelivery
			return nil
		}

		order := Order{
			UID:             event.OrderUID,
			ShopperUID:      event.ShopperUID,
			CheckoutUID:     event.CheckoutUID,
			Items:           orderItemsFromCheckout(checkoutContext),
			SubTotal:        checkoutContext.SubTotal,
			Tax:             checkoutContext.Tax,
			Total:           checkoutContext.Total,
			Currency:        checkoutContext.Currency,
			Status:          OrderStatusConfirmed,
			PaymentID:       event.PaymentID,
			PaymentProvider: event.ProviderName,
			Shipping: ShippingAddress{
				Street:     checkoutContext.Shipping.Street,
				City:       checkoutContext.Shipping.City,
				State:      checkoutContext.Shipping.State,
				PostalCode: checkoutContext.Shipping.PostalCode,
				Country:    checkoutContext.Shipping.Country,
			},
			CreatedAt: now,
		}

		err = s.orderStore.Put(c, event.OrderUID, order)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, orderevents.TopicName, orderevents.OrderCreated{
			OrderUID:      order.UID,
			CheckoutUID:   order.CheckoutUID,
			ShopperUID:    order.ShopperUID,
			AmountInCents: order.Total,
			Currency:      order.Currency,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
}

func orderItemsFromCheckout(checkoutContext checkoutapi.CheckoutContext) []OrderItem {
	items := []OrderItem{}
	for _, item := range checkoutContext.Items {
		items = append(items, OrderItem{
			ProductUID: item.ProductUID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Currency:   item.Currency,
		})
	}
	return items
}
