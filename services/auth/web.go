package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/gemelle/shopbackend/lib/mycontext"
	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/myhttp"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
)

type ctxSessionKey struct{}

// Guard protects endpoints of other services with bearer-token checks.
type Guard interface {
	Shopper(next http.HandlerFunc) http.HandlerFunc
	Admin(next http.HandlerFunc) http.HandlerFunc
}

func SessionFromContext(c context.Context) (Session, bool) {
	session, ok := c.Value(ctxSessionKey{}).(Session)
	return session, ok
}

func ContextWithSession(c context.Context, session Session) context.Context {
	return context.WithValue(c, ctxSessionKey{}, session)
}

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewWebService(accountStore mystore.Store[Account], sessionStore mystore.Store[Session], nower mytime.Nower, uuider myuuid.UUIDer) *webService {
	logger := mylog.New("auth")
	return &webService{
		logger:  logger,
		service: newService(accountStore, sessionStore, nower, uuider, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	// The login endpoints themselves are never guarded: a rejected login can
	// not trigger another credential-clearing 401 on the login screen itself.
	router.HandleFunc("/api/auth/register", s.registerPage()).Methods("POST")
	router.HandleFunc("/api/auth/login", s.loginPage(false)).Methods("POST")
	router.HandleFunc("/api/admin/auth/login", s.loginPage(true)).Methods("POST")
	router.HandleFunc("/api/auth/logout", s.logoutPage()).Methods("POST")
}

type credentialsRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type sessionResponse struct {
	Token      string `json:"token"`
	ShopperUID string `json:"shopperUid"`
	Email      string `json:"email"`
	Admin      bool   `json:"admin"`
}

func (s *webService) registerPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := credentialsRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		account, err := s.service.register(c, req.Email, req.Password, req.FirstName, req.LastName, req.Phone)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		session, err := s.service.login(c, req.Email, req.Password, false)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, sessionResponse{
			Token:      session.Token,
			ShopperUID: account.UID,
			Email:      account.Email,
		})
	}
}

func (s *webService) loginPage(needAdmin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := credentialsRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		session, err := s.service.login(c, req.Email, req.Password, needAdmin)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, sessionResponse{
			Token:      session.Token,
			ShopperUID: session.ShopperUID,
			Email:      session.Email,
			Admin:      session.Admin,
		})
	}
}

func (s *webService) logoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := s.service.logout(c, bearerToken(r))
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully logged out",
		})
	}
}

func (s *webService) Shopper(next http.HandlerFunc) http.HandlerFunc {
	return s.guard(next, false)
}

func (s *webService) Admin(next http.HandlerFunc) http.HandlerFunc {
	return s.guard(next, true)
}

func (s *webService) guard(next http.HandlerFunc, needAdmin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		session, err := s.service.authenticate(c, bearerToken(r), needAdmin)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		next(w, r.WithContext(ContextWithSession(r.Context(), session)))
	}
}

func bearerToken(r *http.Request) string {
	value := r.Header.Get("Authorization")
	if !strings.HasPrefix(value, "Bearer ") {
		return ""
	}

	return strings.TrimPrefix(value, "Bearer ")
}
