package checkout

import (
	"context"
	"fmt"

	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/services/checkoutapi"
)

func (s *service) startCheckout(c context.Context, cartUID string, shopperUID string, returnURL string) (checkoutapi.CheckoutContext, error) {
	s.logger.Log(c, cartUID, mylog.SeverityInfo, "Start checkout for cart %s", cartUID)

	checkoutUID := s.uuider.Create()
	now := s.nower.Now()

	var checkoutContext checkoutapi.CheckoutContext
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		shopperCart, found, err := s.cartStore.Get(c, cartUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found || len(shopperCart.Items) == 0 {
			return myerrors.NewInvalidInputError(fmt.Errorf("cart %s is empty", cartUID))
		}

		checkoutContext = checkoutapi.NewCheckoutContext()
		checkoutContext.CheckoutUID = checkoutUID
		checkoutContext.CartUID = cartUID
		checkoutContext.ShopperUID = shopperUID
		checkoutContext.CreatedAt = now
		checkoutContext.OriginalReturnURL = returnURL
		for _, item := range shopperCart.Items {
			checkoutContext.Items = append(checkoutContext.Items, checkoutapi.CheckoutItem{
				ProductUID: item.ProductUID,
				Name:       item.Name,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				Currency:   item.Currency,
			})
			if checkoutContext.Currency == "" {
				checkoutContext.Currency = item.Currency
			}
		}
		checkoutContext.CalculateTotals()

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

func (s *service) getCheckout(c context.Context, checkoutUID string) (checkoutapi.CheckoutContext, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Fetch checkout %s", checkoutUID)

	checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
	if err != nil {
		return checkoutapi.CheckoutContext{}, myerrors.NewInternalError(err)
	}
	if !found {
		return checkoutapi.CheckoutContext{}, myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
	}

	return checkoutContext, nil
}

// replaceCheckout is the wholesale-replace side of the data gateway: the
// caller sends the full resource back, the mutable fields overwrite what is
// stored. A verified checkout can no longer be replaced.
func (s *service) replaceCheckout(c context.Context, checkoutUID string, replacement checkoutapi.CheckoutContext) (checkoutapi.CheckoutContext, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Replace checkout %s", checkoutUID)

	now := s.nower.Now()

	var stored checkoutapi.CheckoutContext
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		existing, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		if existing.Verified {
			return myerrors.NewConflictError(fmt.Errorf("checkout %s is verified and can no longer be modified", checkoutUID))
		}

		if replacement.WizardState != "" && replacement.WizardState != existing.WizardState {
			if !replacement.WizardState.IsNavigable() || !existing.WizardState.IsNavigable() {
				return myerrors.NewConflictError(fmt.Errorf("checkout %s: state %s is reserved for the payment flow",
					checkoutUID, replacement.WizardState))
			}
			if !existing.WizardState.CanTransitionTo(replacement.WizardState) {
				return myerrors.NewConflictError(fmt.Errorf("checkout %s can not move from %s to %s",
					checkoutUID, existing.WizardState, replacement.WizardState))
			}
		}

		stored = existing
		stored.Items = replacement.Items
		stored.Shopper = replacement.Shopper
		stored.Shipping = replacement.Shipping
		stored.Tax = replacement.Tax
		stored.Total = replacement.Total
		if replacement.WizardState != "" {
			stored.WizardState = replacement.WizardState
		}
		stored.SubTotal = 0
		stored.CalculateTotals()
		stored.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, stored)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return checkoutapi.CheckoutContext{}, err
	}

	return stored, nil
}

func (s *service) submitCustomerInfo(c context.Context, checkoutUID string, info checkoutapi.CustomerInfo) (checkoutapi.CheckoutContext, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Submit customer info for checkout %s", checkoutUID)

	// The wizard gate: invalid customer info never advances the wizard
	if err := info.Validate(); err != nil {
		return checkoutapi.CheckoutContext{}, myerrors.NewInvalidInputError(err)
	}

	return s.advance(c, checkoutUID, checkoutapi.StateCustomerInfo, checkoutapi.StateShipping, func(cc *checkoutapi.CheckoutContext) {
		cc.Shopper = info
	})
}

func (s *service) submitShipping(c context.Context, checkoutUID string, address checkoutapi.Address) (checkoutapi.CheckoutContext, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Submit shipping address for checkout %s", checkoutUID)

	if err := address.Validate(); err != nil {
		return checkoutapi.CheckoutContext{}, myerrors.NewInvalidInputError(err)
	}

	return s.advance(c, checkoutUID, checkoutapi.StateShipping, checkoutapi.StatePaymentReview, func(cc *checkoutapi.CheckoutContext) {
		cc.Shipping = address
	})
}

// gotoState moves the wizard between the form steps without touching the
// form data, used for backwards navigation. States owned by the payment flow
// can not be entered or left through here.
func (s *service) gotoState(c context.Context, checkoutUID string, target checkoutapi.WizardState) (checkoutapi.CheckoutContext, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Move checkout %s to state %s", checkoutUID, target)

	now := s.nower.Now()

	var stored checkoutapi.CheckoutContext
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		existing, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		if existing.WizardState == target {
			stored = existing
			return nil
		}
		if !target.IsNavigable() || !existing.WizardState.IsNavigable() {
			return myerrors.NewConflictError(fmt.Errorf("checkout %s: state %s is reserved for the payment flow",
				checkoutUID, target))
		}
		if !existing.WizardState.CanTransitionTo(target) {
			return myerrors.NewConflictError(fmt.Errorf("checkout %s can not move from %s to %s",
				checkoutUID, existing.WizardState, target))
		}

		stored = existing
		stored.WizardState = target
		stored.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, stored)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return checkoutapi.CheckoutContext{}, err
	}

	return stored, nil
}

func (s *service) advance(c context.Context, checkoutUID string, from, to checkoutapi.WizardState, apply func(cc *checkoutapi.CheckoutContext)) (checkoutapi.CheckoutContext, error) {
	now := s.nower.Now()

	var stored checkoutapi.CheckoutContext
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		existing, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		if existing.WizardState != from {
			return myerrors.NewConflictError(fmt.Errorf("checkout %s is in state %s, expected %s",
				checkoutUID, existing.WizardState, from))
		}

		stored = existing
		apply(&stored)
		stored.WizardState = to
		stored.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, stored)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return checkoutapi.CheckoutContext{}, err
	}

	return stored, nil
}
