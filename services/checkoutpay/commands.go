package checkoutpay

import (
	"context"
	"fmt"

	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/services/checkoutapi"
	"github.com/gemelle/shopbackend/services/checkoutevents"
)

const providerName = "razorpay"

// startPayment registers the amount with the gateway, stores the returned
// order token and hands back the widget options. The wizard moves to
// verifying: from there only verify or dismiss can move it on.
func (s *service) startPayment(c context.Context, checkoutUID string) (WidgetOptions, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Start payment for checkout %s", checkoutUID)

	now := s.nower.Now()

	checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
	if err != nil {
		return WidgetOptions{}, myerrors.NewInternalError(err)
	}
	if !found {
		return WidgetOptions{}, myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
	}
	if !checkoutContext.WizardState.CanTransitionTo(checkoutapi.StateVerifying) {
		return WidgetOptions{}, myerrors.NewConflictError(fmt.Errorf("checkout %s is in state %s, payment can not start",
			checkoutUID, checkoutContext.WizardState))
	}
	if checkoutContext.Total <= 0 {
		return WidgetOptions{}, myerrors.NewInvalidInputError(fmt.Errorf("checkout %s has no amount to collect", checkoutUID))
	}

	creds := s.credentials(c, checkoutUID)
	s.payer.UseCredentials(creds.KeyID, creds.KeySecret)

	// Register the collectable amount with the gateway
	orderResp, err := s.payer.CreateOrder(c, CreateOrderRequest{
		AmountInCents: checkoutContext.Total,
		Currency:      checkoutContext.Currency,
		Receipt:       checkoutUID,
	})
	if err != nil {
		return WidgetOptions{}, myerrors.NewInternalError(fmt.Errorf("error creating gateway order for checkout %s: %s", checkoutUID, err))
	}

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext.PaymentProvider = providerName
		checkoutContext.PaymentOrderRef = orderResp.OrderRef
		checkoutContext.WizardState = checkoutapi.StateVerifying
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing checkout: %s", err))
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutStarted{
			CheckoutUID:   checkoutUID,
			ProviderName:  providerName,
			AmountInCents: checkoutContext.Total,
			Currency:      checkoutContext.Currency,
			ShopperUID:    checkoutContext.ShopperUID,
			OrderRef:      orderResp.OrderRef,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return WidgetOptions{}, err
	}

	return WidgetOptions{
		Key:           creds.KeyID,
		AmountInCents: checkoutContext.Total,
		Currency:      checkoutContext.Currency,
		OrderRef:      orderResp.OrderRef,
		Name:          "Gemelle",
		Description:   fmt.Sprintf("Order %s", checkoutUID),
		Prefill: WidgetPrefill{
			Name:  checkoutContext.Shopper.FirstName + " " + checkoutContext.Shopper.LastName,
			Email: checkoutContext.Shopper.Email,
			Phone: checkoutContext.Shopper.Phone,
		},
	}, nil
}

// verifyPayment checks the signed triple the widget posted back. A replay of
// an already-verified triple is answered idempotently, a conflicting one is
// rejected. On the first valid triple the checkout flips to success exactly
// once and exactly one CheckoutCompleted event leaves the outbox.
func (s *service) verifyPayment(c context.Context, checkoutUID string, req VerifyRequest) (VerifyResponse, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Verify payment %s for checkout %s", req.PaymentID, checkoutUID)

	if req.PaymentID == "" || req.OrderRef == "" || req.Signature == "" {
		return VerifyResponse{}, myerrors.NewInvalidInputError(fmt.Errorf("missing payment_id, order_id or signature"))
	}

	now := s.nower.Now()
	creds := s.credentials(c, checkoutUID)

	var resp VerifyResponse
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		if checkoutContext.Verified {
			if checkoutContext.PaymentID == req.PaymentID {
				// Double submit of the same triple
				resp = VerifyResponse{Success: true, OrderUID: checkoutContext.OrderUID}
				return nil
			}
			return myerrors.NewConflictError(fmt.Errorf("checkout %s was already verified with another payment", checkoutUID))
		}

		if checkoutContext.PaymentOrderRef != req.OrderRef {
			return myerrors.NewInvalidInputError(fmt.Errorf("order %s does not belong to checkout %s", req.OrderRef, checkoutUID))
		}

		if !signatureIsValid(creds.KeySecret, req) {
			checkoutContext.WizardState = checkoutapi.StateFailed
			checkoutContext.CheckoutStatus = checkoutevents.CheckoutStatusFailed
			checkoutContext.CheckoutStatusDetails = "signature verification failed"
			checkoutContext.LastModified = &now

			err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
			if err != nil {
				return myerrors.NewInternalError(err)
			}

			return myerrors.NewAuthenticationError(fmt.Errorf("signature verification failed"))
		}

		checkoutContext.Verified = true
		checkoutContext.PaymentID = req.PaymentID
		checkoutContext.OrderUID = s.uuider.Create()
		checkoutContext.WizardState = checkoutapi.StateSuccess
		checkoutContext.CheckoutStatus = checkoutevents.CheckoutStatusSuccess
		checkoutContext.CheckoutStatusDetails = "payment verified"
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			CheckoutUID:           checkoutUID,
			ProviderName:          providerName,
			ShopperUID:            checkoutContext.ShopperUID,
			OrderUID:              checkoutContext.OrderUID,
			PaymentID:             req.PaymentID,
			PaymentMethod:         checkoutContext.PaymentMethod,
			CheckoutStatus:        checkoutevents.CheckoutStatusSuccess,
			CheckoutStatusDetails: "payment verified",
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		resp = VerifyResponse{Success: true, OrderUID: checkoutContext.OrderUID}
		return nil
	})
	if err != nil {
		return VerifyResponse{}, err
	}

	return resp, nil
}

// dismissPayment is the widget-dismissed callback: the shopper closed the
// widget without paying, so the wizard returns to the review step.
func (s *service) dismissPayment(c context.Context, checkoutUID string) (checkoutapi.CheckoutContext, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Payment widget dismissed for checkout %s", checkoutUID)

	now := s.nower.Now()

	var checkoutContext checkoutapi.CheckoutContext
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		var found bool
		var err error
		checkoutContext, found, err = s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		if checkoutContext.WizardState == checkoutapi.StatePaymentReview {
			return nil
		}
		if !checkoutContext.WizardState.CanTransitionTo(checkoutapi.StatePaymentReview) {
			return myerrors.NewConflictError(fmt.Errorf("checkout %s is in state %s, dismiss not possible",
				checkoutUID, checkoutContext.WizardState))
		}

		checkoutContext.WizardState = checkoutapi.StatePaymentReview
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return checkoutapi.CheckoutContext{}, err
	}

	return checkoutContext, nil
}

// widgetPage re-reads the stored context to render the embedded widget page.
func (s *service) widgetPage(c context.Context, checkoutUID string) (checkoutPage, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Render payment page for checkout %s", checkoutUID)

	checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
	if err != nil {
		return checkoutPage{}, myerrors.NewInternalError(err)
	}
	if !found {
		return checkoutPage{}, myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
	}
	if checkoutContext.PaymentOrderRef == "" {
		return checkoutPage{}, myerrors.NewConflictError(fmt.Errorf("checkout %s has no payment in flight", checkoutUID))
	}

	creds := s.credentials(c, checkoutUID)

	return checkoutPage{
		CheckoutUID: checkoutUID,
		Options: WidgetOptions{
			Key:           creds.KeyID,
			AmountInCents: checkoutContext.Total,
			Currency:      checkoutContext.Currency,
			OrderRef:      checkoutContext.PaymentOrderRef,
			Name:          "Gemelle",
			Description:   fmt.Sprintf("Order %s", checkoutUID),
			Prefill: WidgetPrefill{
				Name:  checkoutContext.Shopper.FirstName + " " + checkoutContext.Shopper.LastName,
				Email: checkoutContext.Shopper.Email,
				Phone: checkoutContext.Shopper.Phone,
			},
		},
	}, nil
}
