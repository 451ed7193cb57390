package orders

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gemelle/shopbackend/lib/mycontext"
	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/myhttp"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mypubsub"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/services/auth"
	"github.com/gemelle/shopbackend/services/checkoutapi"
	"github.com/gemelle/shopbackend/services/checkoutevents"
)

type webService struct {
	logger  mylog.Logger
	service *service
	guard   auth.Guard
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewWebService(orderStore mystore.Store[Order], checkoutStore mystore.Store[checkoutapi.CheckoutContext], pubsub mypubsub.PubSub, publisher mypublisher.Publisher, nower mytime.Nower, guard auth.Guard) *webService {
	logger := mylog.New("orders")
	return &webService{
		logger:  logger,
		service: newService(orderStore, checkoutStore, pubsub, publisher, nower, logger),
		guard:   guard,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/orders", s.guard.Shopper(s.listOrdersPage())).Methods("GET")
	router.HandleFunc("/api/orders/{orderUID}", s.guard.Shopper(s.getOrderPage())).Methods("GET")

	router.HandleFunc("/api/admin/orders", s.guard.Admin(s.listAllOrdersPage())).Methods("GET")
	router.HandleFunc("/api/admin/orders/{orderUID}/status/{status}", s.guard.Admin(s.updateOrderStatusPage())).Methods("PUT")

	// push endpoint for completed checkouts
	router.HandleFunc("/api/order/event", s.handleEventEnvelope()).Methods("POST")

	return s.service.Subscribe(c)
}

func (s *webService) listOrdersPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		session, ok := auth.SessionFromContext(r.Context())
		if !ok {
			errorWriter.WriteError(c, w, 1, myerrors.NewAuthenticationError(fmt.Errorf("no session")))
			return
		}

		orders, err := s.service.listOrders(c, session.ShopperUID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, orders)
	}
}

func (s *webService) getOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		orderUID := mux.Vars(r)["orderUID"]

		session, ok := auth.SessionFromContext(r.Context())
		if !ok {
			errorWriter.WriteError(c, w, 1, myerrors.NewAuthenticationError(fmt.Errorf("no session")))
			return
		}

		order, err := s.service.getOrder(c, orderUID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		// an order is only visible to its owner
		if order.ShopperUID != session.ShopperUID && !session.Admin {
			errorWriter.WriteError(c, w, 3, myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID)))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, order)
	}
}

func (s *webService) listAllOrdersPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		orders, err := s.service.listAllOrders(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, orders)
	}
}

func (s *webService) updateOrderStatusPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		orderUID := mux.Vars(r)["orderUID"]
		status := OrderStatus(mux.Vars(r)["status"])

		order, err := s.service.updateOrderStatus(c, orderUID, status)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, order)
	}
}

func (s *webService) handleEventEnvelope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := checkoutevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed event",
		})
	}
}
