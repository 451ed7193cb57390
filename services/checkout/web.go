package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gemelle/shopbackend/lib/mycontext"
	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/myhttp"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/services/cart"
	"github.com/gemelle/shopbackend/services/checkoutapi"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewWebService(checkoutStore mystore.Store[checkoutapi.CheckoutContext], cartStore mystore.Store[cart.Cart], nower mytime.Nower, uuider myuuid.UUIDer) *webService {
	logger := mylog.New("checkout")
	return &webService{
		logger:  logger,
		service: newService(checkoutStore, cartStore, nower, uuider, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/checkout", s.startCheckoutPage()).Methods("POST")

	// The data gateway: fetch and wholesale replace
	router.HandleFunc("/api/checkout/{checkoutUID}", s.checkoutDetailsPage()).Methods("GET")
	router.HandleFunc("/api/checkout/{checkoutUID}", s.replaceCheckoutPage()).Methods("PUT")

	// Wizard steps, submitted form-encoded
	router.HandleFunc("/api/checkout/{checkoutUID}/customer-info", s.customerInfoPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{checkoutUID}/shipping", s.shippingPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{checkoutUID}/state/{state}", s.gotoStatePage()).Methods("PUT")
}

type startCheckoutRequest struct {
	CartUID    string `json:"cartUid"`
	ShopperUID string `json:"shopperUid"`
	ReturnURL  string `json:"returnUrl"`
}

func (s *webService) startCheckoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := startCheckoutRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}
		if req.CartUID == "" {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("missing cartUid")))
			return
		}
		if req.ShopperUID == "" {
			req.ShopperUID = req.CartUID
		}

		checkoutContext, err := s.service.startCheckout(c, req.CartUID, req.ShopperUID, req.ReturnURL)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, checkoutContext)
	}
}

func (s *webService) checkoutDetailsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		checkoutContext, err := s.service.getCheckout(c, checkoutUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, checkoutContext)
	}
}

func (s *webService) replaceCheckoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		replacement := checkoutapi.CheckoutContext{}
		err := json.NewDecoder(r.Body).Decode(&replacement)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		checkoutContext, err := s.service.replaceCheckout(c, checkoutUID, replacement)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, checkoutContext)
	}
}

func (s *webService) customerInfoPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		info, err := checkoutapi.CustomerInfoFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing form: %s", err)))
			return
		}

		checkoutContext, err := s.service.submitCustomerInfo(c, checkoutUID, info)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, checkoutContext)
	}
}

func (s *webService) shippingPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		address, err := checkoutapi.AddressFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing form: %s", err)))
			return
		}

		checkoutContext, err := s.service.submitShipping(c, checkoutUID, address)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, checkoutContext)
	}
}

func (s *webService) gotoStatePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]
		target := checkoutapi.WizardState(mux.Vars(r)["state"])

		checkoutContext, err := s.service.gotoState(c, checkoutUID, target)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, checkoutContext)
	}
}
