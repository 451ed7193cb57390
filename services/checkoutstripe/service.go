package checkoutstripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v74"

	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/services/checkoutapi"
	"github.com/gemelle/shopbackend/services/checkoutevents"
)

const providerName = "stripe"

type service struct {
	apiKey        string
	payer         Payer
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	logger        mylog.Logger
	publisher     mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and ease testing
func newService(apiKey string, payer Payer, checkoutStore mystore.Store[checkoutapi.CheckoutContext], nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger, publisher mypublisher.Publisher) *service {
	return &service{
		apiKey:        apiKey,
		payer:         payer,
		checkoutStore: checkoutStore,
		nower:         nower,
		uuider:        uuider,
		logger:        logger,
		publisher:     publisher,
	}
}

func (s *service) CreateTopics(c context.Context) error {
	err := s.publisher.CreateTopic(c, checkoutevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

// startCheckout creates a hosted checkout session for the amount and line
// items of the stored checkout and hands back the session URL to redirect
// the shopper to. The wizard moves to verifying: the definitive outcome
// arrives later over the webhook.
func (s *service) startCheckout(c context.Context, checkoutUID string, returnURL string, successURL string, cancelURL string) (string, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Start hosted checkout for %s", checkoutUID)

	now := s.nower.Now()

	checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
	if err != nil {
		return "", myerrors.NewInternalError(err)
	}
	if !found {
		return "", myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
	}
	if !checkoutContext.WizardState.CanTransitionTo(checkoutapi.StateVerifying) {
		return "", myerrors.NewConflictError(fmt.Errorf("checkout %s is in state %s, payment can not start",
			checkoutUID, checkoutContext.WizardState))
	}
	if checkoutContext.Total <= 0 {
		return "", myerrors.NewInvalidInputError(fmt.Errorf("checkout %s has no amount to collect", checkoutUID))
	}

	s.payer.UseApiKey(s.apiKey)

	session, err := s.payer.CreateCheckoutSession(c, stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(checkoutUID),
		LineItems:         lineItemsFromCheckout(checkoutContext),
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		Currency:          stripe.String(strings.ToLower(checkoutContext.Currency)),
		CustomerEmail:     stripe.String(checkoutContext.Shopper.Email),
	})
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error creating session for checkout %s: %s", checkoutUID, err))
	}

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext.PaymentProvider = providerName
		checkoutContext.PaymentOrderRef = session.ID
		checkoutContext.SessionData = session.ID
		checkoutContext.WizardState = checkoutapi.StateVerifying
		if returnURL != "" {
			checkoutContext.OriginalReturnURL = returnURL
		}
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
			OrderRef:      session.ID,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return session.URL, nil
}

func lineItemsFromCheckout(checkoutContext checkoutapi.CheckoutContext) []*stripe.CheckoutSessionLineItemParams {
	currency := strings.ToLower(checkoutContext.Currency)

	items := []*stripe.CheckoutSessionLineItemParams{}
	for _, item := range checkoutContext.Items {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitPrice),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	// Tax is collected as its own line so the hosted page shows the same
	// total as the review step did
	if checkoutContext.Tax > 0 {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Tax"),
				},
				UnitAmount: stripe.Int64(checkoutContext.Tax),
			},
			Quantity: stripe.Int64(1),
		})
	}

	return items
}

// finalizeCheckout handles the shopper returning from the hosted page. The
// redirect only tells us how the shopper left the page: the webhook remains
// the authority on whether money actually moved.
func (s *service) finalizeCheckout(c context.Context, checkoutUID string, status string) (string, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Redirect (start): hosted checkout %s returned with %s", checkoutUID, status)

	now := s.nower.Now()

	adjustedReturnURL := ""
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", checkoutUID, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		if status == "cancel" && !checkoutContext.Verified {
			if checkoutContext.WizardState.CanTransitionTo(checkoutapi.StatePaymentReview) {
				checkoutContext.WizardState = checkoutapi.StatePaymentReview
			}
			checkoutContext.CheckoutStatus = checkoutevents.CheckoutStatusCancelled
		}
		checkoutContext.CheckoutStatusDetails = fmt.Sprintf("redirect=%s", status)
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		adjustedReturnURL, err = addStatusQueryParam(checkoutContext.OriginalReturnURL, status)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error adjusting url: %s", err))
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Redirect (done): hosted checkout %s returned with %s", checkoutUID, status)

	return adjustedReturnURL, nil
}

// webhookNotification receives the definitive session outcome. A completed
// session flips the checkout to success exactly once and emits exactly one
// CheckoutCompleted event; replays of the same notification are absorbed.
func (s *service) webhookNotification(c context.Context, username, password string, event stripe.Event) error {
	s.logger.Log(c, "", mylog.SeverityInfo, "Webhook: received event %s", event.Type)

	// TODO verify the webhook signing secret once it is provisioned in the vault

	if event.Type != "checkout.session.completed" {
		// Not ours to handle
		return nil
	}

	session := stripe.CheckoutSession{}
	err := json.Unmarshal(event.Data.Raw, &session)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error parsing session from event: %s", err))
	}

	checkoutUID := session.ClientReferenceID
	if checkoutUID == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("event %s carries no client reference", event.ID))
	}

	now := s.nower.Now()

	return s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		if checkoutContext.PaymentOrderRef != session.ID {
			return myerrors.NewInvalidInputError(fmt.Errorf("session %s does not belong to checkout %s", session.ID, checkoutUID))
		}

		if checkoutContext.Verified {
			// Webhook replay
			return nil
		}

		checkoutContext.Verified = true
		if session.PaymentIntent != nil {
			checkoutContext.PaymentID = session.PaymentIntent.ID
		}
		checkoutContext.PaymentMethod = providerName
		checkoutContext.OrderUID = s.uuider.Create()
		checkoutContext.WizardState = checkoutapi.StateSuccess
		checkoutContext.CheckoutStatus = checkoutevents.CheckoutStatusSuccess
		checkoutContext.CheckoutStatusDetails = "session completed"
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
			PaymentID:             checkoutContext.PaymentID,
			PaymentMethod:         checkoutContext.PaymentMethod,
			CheckoutStatus:        checkoutevents.CheckoutStatusSuccess,
			CheckoutStatusDetails: "session completed",
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
}

func addStatusQueryParam(orgURL string, status string) (string, error) {
	u, err := url.Parse(orgURL)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error parsing return URL %s: %s", orgURL, err))
	}
	params := u.Query()
	params.Set("status", status)
	u.RawQuery = params.Encode()
	return u.String(), nil
}
