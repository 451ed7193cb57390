package checkoutpay

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gemelle/shopbackend/lib/mycontext"
	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/myhttp"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/lib/myvault"
	"github.com/gemelle/shopbackend/services/checkoutapi"
)

//go:embed templates
var templateFolder embed.FS
var (
	paymentPageTemplate *template.Template
)

func init() {
	paymentPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/payment.html"))
}

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewWebService(cfg Config, payer Payer, checkoutStore mystore.Store[checkoutapi.CheckoutContext], vault myvault.VaultReader[Credentials], nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher) *webService {
	logger := mylog.New("checkoutpay")
	return &webService{
		logger:  logger,
		service: newCommandService(cfg, payer, checkoutStore, vault, nower, uuider, logger, publisher),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/checkout/{checkoutUID}/payment", s.startPaymentPage()).Methods("POST")
	router.HandleFunc("/api/checkout/{checkoutUID}/verify", s.verifyPaymentPage()).Methods("POST")
	router.HandleFunc("/api/checkout/{checkoutUID}/dismiss", s.dismissPaymentPage()).Methods("POST")

	// The page that embeds the hosted payment widget
	router.HandleFunc("/checkout/{checkoutUID}", s.paymentWidgetPage()).Methods("GET")

	return s.service.CreateTopics(c)
}

func (s *webService) startPaymentPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		options, err := s.service.startPayment(c, checkoutUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, options)
	}
}

func (s *webService) verifyPaymentPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		req := VerifyRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		resp, err := s.service.verifyPayment(c, checkoutUID, req)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) dismissPaymentPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		checkoutContext, err := s.service.dismissPayment(c, checkoutUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, checkoutContext)
	}
}

func (s *webService) paymentWidgetPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		page, err := s.service.widgetPage(c, checkoutUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = paymentPageTemplate.Execute(w, page)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(fmt.Errorf("error executing template: %s", err)))
			return
		}
	}
}
