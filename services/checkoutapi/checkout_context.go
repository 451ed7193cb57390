package checkoutapi

import (
	"time"

	"github.com/gemelle/shopbackend/services/checkoutevents"
)

type WizardState string

const (
	StateCustomerInfo  WizardState = "customer_info"
	StateShipping      WizardState = "shipping"
	StatePaymentReview WizardState = "payment_review"
	StateVerifying     WizardState = "verifying"
	StateSuccess       WizardState = "success"
	StateFailed        WizardState = "failed"
)

// allowedTransitions is the wizard's transition table. Anything not listed
// here is rejected with a conflict.
var allowedTransitions = map[WizardState][]WizardState{
	StateCustomerInfo:  {StateShipping},
	StateShipping:      {StateCustomerInfo, StatePaymentReview},
	StatePaymentReview: {StateShipping, StateVerifying},
	StateVerifying:     {StatePaymentReview, StateSuccess, StateFailed},
	StateFailed:        {StatePaymentReview},
	StateSuccess:       {},
}

func (s WizardState) CanTransitionTo(next WizardState) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s WizardState) IsFinal() bool {
	return s == StateSuccess || s == StateFailed
}

// IsNavigable reports whether the wizard itself may move the checkout into
// this state. Verifying, success and failed are owned by the payment flow:
// only a payment service moves a checkout in or out of them.
func (s WizardState) IsNavigable() bool {
	switch s {
	case StateCustomerInfo, StateShipping, StatePaymentReview:
		return true
	}
	return false
}

func NewCheckoutContext() CheckoutContext {
	return CheckoutContext{
		WizardState:    StateCustomerInfo,
		CheckoutStatus: checkoutevents.CheckoutStatusUndefined,
	}
}

type CheckoutContext struct {
	CheckoutUID           string
	ShopperUID            string
	CartUID               string
	CreatedAt             time.Time
	LastModified          *time.Time
	Items                 []CheckoutItem
	Shopper               CustomerInfo
	Shipping              Address
	SubTotal              int64
	Tax                   int64
	Total                 int64
	Currency              string
	WizardState           WizardState
	PaymentProvider       string
	PaymentOrderRef       string
	PaymentID             string
	PaymentMethod         string
	Verified              bool
	OrderUID              string
	OriginalReturnURL     string
	SessionData           string `datastore:",noindex"`
	CheckoutStatus        checkoutevents.CheckoutStatus
	CheckoutStatusDetails string
}

type CheckoutItem struct {
	ProductUID string
	Name       string
	Quantity   int
	UnitPrice  int64
	Currency   string
}

const taxRatePercent = 18

// CalculateTotals fills in the money fields. Explicitly supplied tax and
// total are served unmodified; otherwise tax falls back to 18% of the item
// subtotal, rounded to the nearest minor unit.
func (cc *CheckoutContext) CalculateTotals() {
	var subTotal int64
	for _, item := range cc.Items {
		subTotal += item.UnitPrice * int64(item.Quantity)
	}
	cc.SubTotal = subTotal

	if cc.Tax == 0 && cc.Total == 0 {
		cc.Tax = (subTotal*taxRatePercent + 50) / 100
		cc.Total = subTotal + cc.Tax
	}
}
