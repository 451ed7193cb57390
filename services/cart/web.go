package cart

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
	"github.com/gemelle/shopbackend/services/auth"
	"github.com/gemelle/shopbackend/services/catalog"
)

type webService struct {
	logger  mylog.Logger
	service *service
	guard   auth.Guard
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewWebService(cartStore mystore.Store[Cart], productStore mystore.Store[catalog.Product], nower mytime.Nower, guard auth.Guard) *webService {
	logger := mylog.New("cart")
	return &webService{
		logger:  logger,
		service: newService(cartStore, productStore, nower, logger),
		guard:   guard,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	// Cart UIDs are opaque: the shopper UID after login, a generated guest
	// UID before that
	router.HandleFunc("/api/cart/{cartUID}", s.cartPage()).Methods("GET")
	router.HandleFunc("/api/cart/{cartUID}", s.clearCartPage()).Methods("DELETE")
	router.HandleFunc("/api/cart/{cartUID}/items", s.addItemPage()).Methods("POST")
	router.HandleFunc("/api/cart/{cartUID}/items/{productUID}/increment", s.incrementItemPage()).Methods("POST")
	router.HandleFunc("/api/cart/{cartUID}/items/{productUID}/decrement", s.decrementItemPage()).Methods("POST")
	router.HandleFunc("/api/cart/{cartUID}/items/{productUID}", s.removeItemPage()).Methods("DELETE")

	// Folds the guest cart into the logged-in shopper's cart
	router.HandleFunc("/api/cart/merge", s.guard.Shopper(s.mergeCartPage())).Methods("POST")
}

type addItemRequest struct {
	ProductUID string `json:"productUid"`
	Quantity   int    `json:"quantity"`
}

// cartResponse decorates the stored cart with the derived totals the
// storefront renders in the cart badge and summary line.
type cartResponse struct {
	Cart
	TotalPrice int64
	ItemCount  int
}

func newCartResponse(cart Cart) cartResponse {
	return cartResponse{
		Cart:       cart,
		TotalPrice: cart.TotalPrice(),
		ItemCount:  cart.ItemCount(),
	}
}

type mergeRequest struct {
	GuestCartUID string `json:"guestCartUid"`
}

func (s *webService) cartPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		cartUID := mux.Vars(r)["cartUID"]

		cart, err := s.service.getCart(c, cartUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newCartResponse(cart))
	}
}

func (s *webService) clearCartPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		cartUID := mux.Vars(r)["cartUID"]

		err := s.service.clearCart(c, cartUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Cleared cart %s", cartUID),
		})
	}
}

func (s *webService) addItemPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		cartUID := mux.Vars(r)["cartUID"]

		req := addItemRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}
		if req.ProductUID == "" {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("missing productUid")))
			return
		}

		cart, err := s.service.addItem(c, cartUID, req.ProductUID, req.Quantity)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newCartResponse(cart))
	}
}

func (s *webService) incrementItemPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		cartUID := mux.Vars(r)["cartUID"]
		productUID := mux.Vars(r)["productUID"]

		cart, err := s.service.incrementItem(c, cartUID, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newCartResponse(cart))
	}
}

func (s *webService) decrementItemPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		cartUID := mux.Vars(r)["cartUID"]
		productUID := mux.Vars(r)["productUID"]

		cart, err := s.service.decrementItem(c, cartUID, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newCartResponse(cart))
	}
}

func (s *webService) removeItemPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		cartUID := mux.Vars(r)["cartUID"]
		productUID := mux.Vars(r)["productUID"]

		cart, err := s.service.removeItem(c, cartUID, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newCartResponse(cart))
	}
}

func (s *webService) mergeCartPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		session, ok := auth.SessionFromContext(r.Context())
		if !ok {
			errorWriter.WriteError(c, w, 1, myerrors.NewUnauthorizedError(fmt.Errorf("no session")))
			return
		}

		req := mergeRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}
		if req.GuestCartUID == "" {
			errorWriter.WriteError(c, w, 3, myerrors.NewInvalidInputError(fmt.Errorf("missing guestCartUid")))
			return
		}

		cart, err := s.service.mergeCarts(c, req.GuestCartUID, session.ShopperUID)
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newCartResponse(cart))
	}
}
