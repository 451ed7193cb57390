package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/gemelle/shopbackend/lib/myevents"
	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mypubsub"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/services/auth"
	"github.com/gemelle/shopbackend/services/checkoutapi"
	"github.com/gemelle/shopbackend/services/checkoutevents"
	"github.com/gemelle/shopbackend/services/orderevents"
)

var (
	order1 = Order{
		UID: "order-1", ShopperUID: "shopper-7", CheckoutUID: "checkout-1",
		Total: 342200, Currency: "INR", Status: OrderStatusConfirmed,
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	order2 = Order{
		UID: "order-2", ShopperUID: "shopper-7", CheckoutUID: "checkout-2",
		Total: 40000, Currency: "INR", Status: OrderStatusShipped,
		CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
	order3 = Order{
		UID: "order-3", ShopperUID: "shopper-other", CheckoutUID: "checkout-3",
		Total: 125000, Currency: "INR", Status: OrderStatusConfirmed,
		CreatedAt: time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC),
	}
)

func TestListOrders(t *testing.T) {

	t.Run("Shopper sees own orders, newest first", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, orderStore, _, _, _ := setup(t, ctrl)

		// given
		orderStore.Put(ctx, order1.UID, order1)
		orderStore.Put(ctx, order2.UID, order2)
		orderStore.Put(ctx, order3.UID, order3)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/orders", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		orders := []Order{}
		assert.NoError(t, json.NewDecoder(response.Body).Decode(&orders))
		assert.Len(t, orders, 2)
		assert.Equal(t, "order-2", orders[0].UID)
		assert.Equal(t, "order-1", orders[1].UID)
	})

	t.Run("Admin sees all orders", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, orderStore, _, _, _ := setup(t, ctrl)

		// given
		orderStore.Put(ctx, order1.UID, order1)
		orderStore.Put(ctx, order3.UID, order3)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		orders := []Order{}
		assert.NoError(t, json.NewDecoder(response.Body).Decode(&orders))
		assert.Len(t, orders, 2)
	})
}

func TestGetOrder(t *testing.T) {

	t.Run("Get own order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, orderStore, _, _, _ := setup(t, ctrl)

		// given
		orderStore.Put(ctx, order1.UID, order1)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/orders/order-1", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		order := Order{}
		assert.NoError(t, json.NewDecoder(response.Body).Decode(&order))
		assert.Equal(t, "order-1", order.UID)
		assert.Equal(t, OrderStatusConfirmed, order.Status)
	})

	t.Run("Order of another shopper stays hidden", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, orderStore, _, _, _ := setup(t, ctrl)

		// given
		orderStore.Put(ctx, order3.UID, order3)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/orders/order-3", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 404, response.Code)
	})
}

func TestUpdateOrderStatus(t *testing.T) {

	t.Run("Confirmed order can be shipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, orderStore, _, nower, _ := setup(t, ctrl)

		// given
		orderStore.Put(ctx, order1.UID, order1)
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/admin/orders/order-1/status/shipped", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		order, _, _ := orderStore.Get(ctx, "order-1")
		assert.Equal(t, OrderStatusShipped, order.Status)
	})

	t.Run("Delivered order can not be cancelled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, orderStore, _, nower, _ := setup(t, ctrl)

		// given
		delivered := order1
		delivered.Status = OrderStatusDelivered
		orderStore.Put(ctx, delivered.UID, delivered)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/admin/orders/order-1/status/cancelled", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 409, response.Code)
	})

	t.Run("Unknown status is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/admin/orders/order-1/status/teleported", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})
}

func TestOnCheckoutCompleted(t *testing.T) {

	completedEvent := checkoutevents.CheckoutCompleted{
		CheckoutUID:    "checkout-1",
		ProviderName:   "razorpay",
		ShopperUID:     "shopper-7",
		OrderUID:       "order-uid-1",
		PaymentID:      "pay_123",
		CheckoutStatus: checkoutevents.CheckoutStatusSuccess,
	}

	t.Run("Completed checkout becomes an order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, orderStore, checkouts, nower, publisher := setup(t, ctrl)

		// given
		checkouts.Put(ctx, "checkout-1", succeededCheckout())
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		publisher.EXPECT().Publish(gomock.Any(), orderevents.TopicName, orderevents.OrderCreated{
			OrderUID:      "order-uid-1",
			CheckoutUID:   "checkout-1",
			ShopperUID:    "shopper-7",
			AmountInCents: 342200,
			Currency:      "INR",
		}).Return(nil)

		// when
		response := pushEvent(t, router, completedEvent)

		// then
		assert.Equal(t, 200, response.Code)
		order, found, _ := orderStore.Get(ctx, "order-uid-1")
		assert.True(t, found)
		assert.Equal(t, "shopper-7", order.ShopperUID)
		assert.Equal(t, OrderStatusConfirmed, order.Status)
		assert.Equal(t, int64(342200), order.Total)
		assert.Equal(t, "pay_123", order.PaymentID)
		assert.Len(t, order.Items, 2)
	})

	t.Run("Redelivered event creates the order once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, orderStore, checkouts, nower, publisher := setup(t, ctrl)

		// given
		checkouts.Put(ctx, "checkout-1", succeededCheckout())
		nower.EXPECT().Now().Return(mytime.ExampleTime).Times(2)
		// the order-created event leaves exactly once
		publisher.EXPECT().Publish(gomock.Any(), orderevents.TopicName, gomock.Any()).Return(nil).Times(1)

		// when
		first := pushEvent(t, router, completedEvent)
		second := pushEvent(t, router, completedEvent)

		// then
		assert.Equal(t, 200, first.Code)
		assert.Equal(t, 200, second.Code)
		order, found, _ := orderStore.Get(ctx, "order-uid-1")
		assert.True(t, found)
		assert.Equal(t, OrderStatusConfirmed, order.Status)
	})

	t.Run("Failed checkout is ignored", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, orderStore, _, _, _ := setup(t, ctrl)

		// given
		failed := completedEvent
		failed.CheckoutStatus = checkoutevents.CheckoutStatusFailed

		// when
		response := pushEvent(t, router, failed)

		// then
		assert.Equal(t, 200, response.Code)
		_, found, _ := orderStore.Get(ctx, "order-uid-1")
		assert.False(t, found)
	})
}

func succeededCheckout() checkoutapi.CheckoutContext {
	cc := checkoutapi.NewCheckoutContext()
	cc.CheckoutUID = "checkout-1"
	cc.ShopperUID = "shopper-7"
	cc.Currency = "INR"
	cc.Items = []checkoutapi.CheckoutItem{
		{ProductUID: "prod_gold_ring", Name: "Gold ring", Quantity: 2, UnitPrice: 125000, Currency: "INR"},
		{ProductUID: "prod_silver_necklace", Name: "Silver necklace", Quantity: 1, UnitPrice: 40000, Currency: "INR"},
	}
	cc.Shipping = checkoutapi.Address{
		Street: "12 MG Road", City: "Bengaluru", State: "Karnataka",
		PostalCode: "560001", Country: "IN",
	}
	cc.CalculateTotals()
	cc.WizardState = checkoutapi.StateSuccess
	cc.Verified = true
	cc.PaymentID = "pay_123"
	cc.OrderUID = "order-uid-1"
	return cc
}

func pushEvent(t *testing.T, router *mux.Router, event checkoutevents.CheckoutCompleted) *httptest.ResponseRecorder {
	eventBytes, err := json.Marshal(event)
	assert.NoError(t, err)
	envelope := myevents.EventEnvelope{
		UID:           "event-1",
		CreatedAt:     mytime.ExampleTime,
		Topic:         checkoutevents.TopicName,
		AggregateUID:  event.CheckoutUID,
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(eventBytes),
	}
	envelopeBytes, err := json.Marshal(envelope)
	assert.NoError(t, err)
	reqBytes, err := json.Marshal(myevents.PushRequest{
		Message:      myevents.PushMessage{Data: envelopeBytes},
		Subscription: checkoutevents.TopicName,
	})
	assert.NoError(t, err)

	request, err := http.NewRequest(http.MethodPost, "/api/order/event", strings.NewReader(string(reqBytes)))
	assert.NoError(t, err)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

type sessionGuard struct {
	session auth.Session
}

func (g sessionGuard) Shopper(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, r.WithContext(auth.ContextWithSession(r.Context(), g.session)))
	}
}

func (g sessionGuard) Admin(next http.HandlerFunc) http.HandlerFunc {
	return g.Shopper(next)
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[Order], mystore.Store[checkoutapi.CheckoutContext], *mytime.MockNower, *mypublisher.MockPublisher) {
	c := context.TODO()
	orderStore, _, _ := mystore.New[Order](c)
	checkoutStore, _, _ := mystore.New[checkoutapi.CheckoutContext](c)
	subscriber := mypubsub.NewMockPubSub(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)
	nower := mytime.NewMockNower(ctrl)

	sut := NewWebService(orderStore, checkoutStore, subscriber, publisher, nower, sessionGuard{
		session: auth.Session{Token: "token-7", ShopperUID: "shopper-7"},
	})
	router := mux.NewRouter()

	// These are called by the following call to RegisterEndpoints()
	subscriber.EXPECT().CreateTopic(c, orderevents.TopicName).Return(nil)
	subscriber.EXPECT().Subscribe(c, checkoutevents.TopicName, "http://localhost:8080/api/order/event").Return(nil)

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, orderStore, checkoutStore, nower, publisher
}
