package checkoutpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// WidgetOptions is handed to the hosted payment widget on the client.
type WidgetOptions struct {
	Key           string        `json:"key"`
	AmountInCents int64         `json:"amount"`
	Currency      string        `json:"currency"`
	OrderRef      string        `json:"order_id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Prefill       WidgetPrefill `json:"prefill"`
}

type WidgetPrefill struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"contact"`
}

// VerifyRequest is the signed triple the widget posts back after payment.
type VerifyRequest struct {
	PaymentID string `json:"payment_id"`
	OrderRef  string `json:"order_id"`
	Signature string `json:"signature"`
}

type VerifyResponse struct {
	Success  bool   `json:"success"`
	OrderUID string `json:"order_id"`
}

// checkoutPage is the model for the embedded widget page template.
type checkoutPage struct {
	CheckoutUID string
	Options     WidgetOptions
}

// signPayment computes the hex-encoded HMAC-SHA256 of "orderRef|paymentID"
// keyed with the gateway secret.
func signPayment(secret string, orderRef string, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// signatureIsValid compares in constant time.
func signatureIsValid(secret string, req VerifyRequest) bool {
	expected := signPayment(secret, req.OrderRef, req.PaymentID)
	return hmac.Equal([]byte(expected), []byte(req.Signature))
}
