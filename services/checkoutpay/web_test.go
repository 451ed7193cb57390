package checkoutpay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/lib/myvault"
	"github.com/gemelle/shopbackend/services/checkoutapi"
	"github.com/gemelle/shopbackend/services/checkoutevents"
)

var testConfig = Config{
	BaseURL:   "https://api.razorpay.com",
	KeyID:     "rzp_test_key",
	KeySecret: "rzp_test_secret",
}

func TestStartPayment(t *testing.T) {

	t.Run("Start payment returns widget options", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, checkouts, payer, vault, nower, _, publisher := setup(t, ctrl)

		// given
		checkouts.Put(ctx, "checkout-1", reviewedCheckout())
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		vault.EXPECT().Get(gomock.Any(), credentialsVaultKey).Return(Credentials{}, false, nil)
		payer.EXPECT().UseCredentials(testConfig.KeyID, testConfig.KeySecret)
		payer.EXPECT().CreateOrder(gomock.Any(), CreateOrderRequest{
			AmountInCents: 342200,
			Currency:      "INR",
			Receipt:       "checkout-1",
		}).Return(CreateOrderResponse{OrderRef: "order_abc", Status: "created"}, nil)
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.CheckoutStarted{
			CheckoutUID:   "checkout-1",
			ProviderName:  "razorpay",
			AmountInCents: 342200,
			Currency:      "INR",
			ShopperUID:    "shopper-7",
			OrderRef:      "order_abc",
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/checkout-1/payment", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		options := WidgetOptions{}
		assert.NoError(t, json.NewDecoder(response.Body).Decode(&options))
		assert.Equal(t, "rzp_test_key", options.Key)
		assert.Equal(t, int64(342200), options.AmountInCents)
		assert.Equal(t, "order_abc", options.OrderRef)
		assert.Equal(t, "Priya Sharma", options.Prefill.Name)

		cc, _, _ := checkouts.Get(ctx, "checkout-1")
		assert.Equal(t, checkoutapi.StateVerifying, cc.WizardState)
		assert.Equal(t, "order_abc", cc.PaymentOrderRef)
	})

	t.Run("Start payment before review is a conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, checkouts, _, _, nower, _, _ := setup(t, ctrl)

		// given
		early := reviewedCheckout()
		early.WizardState = checkoutapi.StateCustomerInfo
		checkouts.Put(ctx, "checkout-1", early)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/checkout-1/payment", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 409, response.Code)
	})
}

func TestVerifyPayment(t *testing.T) {

	t.Run("Valid signature flips checkout to success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, checkouts, _, vault, nower, uuider, publisher := setup(t, ctrl)

		// given
		checkouts.Put(ctx, "checkout-1", verifyingCheckout())
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		vault.EXPECT().Get(gomock.Any(), credentialsVaultKey).Return(Credentials{}, false, nil)
		uuider.EXPECT().Create().Return("order-uid-1")
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			CheckoutUID:           "checkout-1",
			ProviderName:          "razorpay",
			ShopperUID:            "shopper-7",
			OrderUID:              "order-uid-1",
			PaymentID:             "pay_123",
			CheckoutStatus:        checkoutevents.CheckoutStatusSuccess,
			CheckoutStatusDetails: "payment verified",
		}).Return(nil)

		// when
		response := verify(t, router, "pay_123", "order_abc", signPayment(testConfig.KeySecret, "order_abc", "pay_123"))

		// then
		assert.Equal(t, 200, response.Code)
		resp := VerifyResponse{}
		assert.NoError(t, json.NewDecoder(response.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "order-uid-1", resp.OrderUID)

		cc, _, _ := checkouts.Get(ctx, "checkout-1")
		assert.True(t, cc.Verified)
		assert.Equal(t, checkoutapi.StateSuccess, cc.WizardState)
	})

	t.Run("Replay of the same triple is idempotent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, checkouts, _, vault, nower, uuider, publisher := setup(t, ctrl)

		// given
		checkouts.Put(ctx, "checkout-1", verifyingCheckout())
		nower.EXPECT().Now().Return(mytime.ExampleTime).Times(2)
		vault.EXPECT().Get(gomock.Any(), credentialsVaultKey).Return(Credentials{}, false, nil).Times(2)
		uuider.EXPECT().Create().Return("order-uid-1")
		// the completion event leaves exactly once
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, gomock.Any()).Return(nil).Times(1)

		signature := signPayment(testConfig.KeySecret, "order_abc", "pay_123")

		// when
		first := verify(t, router, "pay_123", "order_abc", signature)
		second := verify(t, router, "pay_123", "order_abc", signature)

		// then
		assert.Equal(t, 200, first.Code)
		assert.Equal(t, 200, second.Code)
		resp := VerifyResponse{}
		assert.NoError(t, json.NewDecoder(second.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "order-uid-1", resp.OrderUID)
	})

	t.Run("Conflicting second payment is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, checkouts, _, vault, nower, _, _ := setup(t, ctrl)

		// given: already verified with pay_123
		verified := verifyingCheckout()
		verified.Verified = true
		verified.PaymentID = "pay_123"
		verified.OrderUID = "order-uid-1"
		verified.WizardState = checkoutapi.StateSuccess
		checkouts.Put(ctx, "checkout-1", verified)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		vault.EXPECT().Get(gomock.Any(), credentialsVaultKey).Return(Credentials{}, false, nil)

		// when
		response := verify(t, router, "pay_456", "order_abc", signPayment(testConfig.KeySecret, "order_abc", "pay_456"))

		// then
		assert.Equal(t, 409, response.Code)
	})

	t.Run("Bad signature fails the checkout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, checkouts, _, vault, nower, _, _ := setup(t, ctrl)

		// given
		checkouts.Put(ctx, "checkout-1", verifyingCheckout())
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		vault.EXPECT().Get(gomock.Any(), credentialsVaultKey).Return(Credentials{}, false, nil)

		// when
		response := verify(t, router, "pay_123", "order_abc", "forged-signature")

		// then
		assert.Equal(t, 403, response.Code)
		assert.Contains(t, response.Body.String(), "signature verification failed")

		cc, _, _ := checkouts.Get(ctx, "checkout-1")
		assert.False(t, cc.Verified)
		assert.Equal(t, checkoutapi.StateFailed, cc.WizardState)
	})

	t.Run("Order of another checkout is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, checkouts, _, vault, nower, _, _ := setup(t, ctrl)

		// given
		checkouts.Put(ctx, "checkout-1", verifyingCheckout())
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		vault.EXPECT().Get(gomock.Any(), credentialsVaultKey).Return(Credentials{}, false, nil)

		// when
		response := verify(t, router, "pay_123", "order_other", signPayment(testConfig.KeySecret, "order_other", "pay_123"))

		// then
		assert.Equal(t, 400, response.Code)
	})
}

func TestDismissPayment(t *testing.T) {

	t.Run("Dismiss returns the wizard to review", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, checkouts, _, _, nower, _, _ := setup(t, ctrl)

		// given
		checkouts.Put(ctx, "checkout-1", verifyingCheckout())
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/checkout-1/dismiss", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		cc, _, _ := checkouts.Get(ctx, "checkout-1")
		assert.Equal(t, checkoutapi.StatePaymentReview, cc.WizardState)
	})

	t.Run("Dismiss after success is a conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, checkouts, _, _, nower, _, _ := setup(t, ctrl)

		// given
		done := verifyingCheckout()
		done.Verified = true
		done.WizardState = checkoutapi.StateSuccess
		checkouts.Put(ctx, "checkout-1", done)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/checkout-1/dismiss", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 409, response.Code)
	})
}

func reviewedCheckout() checkoutapi.CheckoutContext {
	cc := checkoutapi.NewCheckoutContext()
	cc.CheckoutUID = "checkout-1"
	cc.ShopperUID = "shopper-7"
	cc.Currency = "INR"
	cc.Items = []checkoutapi.CheckoutItem{
		{ProductUID: "prod_gold_ring", Name: "Gold ring", Quantity: 2, UnitPrice: 125000, Currency: "INR"},
		{ProductUID: "prod_silver_necklace", Name: "Silver necklace", Quantity: 1, UnitPrice: 40000, Currency: "INR"},
	}
	cc.Shopper = checkoutapi.CustomerInfo{
		FirstName: "Priya", LastName: "Sharma",
		Email: "priya.sharma@gmail.com", Phone: "+919876543210",
	}
	cc.CalculateTotals()
	cc.WizardState = checkoutapi.StatePaymentReview
	return cc
}

func verifyingCheckout() checkoutapi.CheckoutContext {
	cc := reviewedCheckout()
	cc.WizardState = checkoutapi.StateVerifying
	cc.PaymentProvider = "razorpay"
	cc.PaymentOrderRef = "order_abc"
	return cc
}

func verify(t *testing.T, router *mux.Router, paymentID, orderRef, signature string) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"payment_id":%q,"order_id":%q,"signature":%q}`, paymentID, orderRef, signature)
	request, err := http.NewRequest(http.MethodPost, "/api/checkout/checkout-1/verify", strings.NewReader(body))
	assert.NoError(t, err)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[checkoutapi.CheckoutContext], *MockPayer, *myvault.MockVaultReader[Credentials], *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	checkoutStore, _, _ := mystore.New[checkoutapi.CheckoutContext](c)
	payer := NewMockPayer(ctrl)
	vault := myvault.NewMockVaultReader[Credentials](ctrl)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	sut := NewWebService(testConfig, payer, checkoutStore, vault, nower, uuider, publisher)
	router := mux.NewRouter()

	publisher.EXPECT().CreateTopic(c, checkoutevents.TopicName).Return(nil)

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, checkoutStore, payer, vault, nower, uuider, publisher
}
