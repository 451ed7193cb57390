package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
)

const sessionTTL = 24 * time.Hour

type service struct {
	accountStore mystore.Store[Account]
	sessionStore mystore.Store[Session]
	nower        mytime.Nower
	uuider       myuuid.UUIDer
	logger       mylog.Logger
}

// Use dependency injection to isolate the infrastructure and ease testing
func newService(accountStore mystore.Store[Account], sessionStore mystore.Store[Session], nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger) *service {
	return &service{
		accountStore: accountStore,
		sessionStore: sessionStore,
		nower:        nower,
		uuider:       uuider,
		logger:       logger,
	}
}

func (s *service) register(c context.Context, email, password, firstName, lastName, phone string) (Account, error) {
	s.logger.Log(c, email, mylog.SeverityInfo, "Registering account for %s", email)

	if email == "" || password == "" {
		return Account{}, myerrors.NewInvalidInputError(fmt.Errorf("missing email or password"))
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return Account{}, myerrors.NewInternalError(fmt.Errorf("error hashing password: %s", err))
	}

	accountUID := s.uuider.Create()
	account := Account{
		UID:          accountUID,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		CreatedAt:    s.nower.Now(),
	}

	err = s.accountStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		existing, err := s.accountStore.Query(c, []mystore.Filter{{Field: "Email", Compare: "=", Value: email}}, "")
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if len(existing) > 0 {
			return myerrors.NewConflictError(fmt.Errorf("account with email %s already exists", email))
		}

		err = s.accountStore.Put(c, accountUID, account)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Account{}, err
	}

	return account, nil
}

func (s *service) login(c context.Context, email, password string, needAdmin bool) (Session, error) {
	s.logger.Log(c, email, mylog.SeverityInfo, "Login attempt for %s (admin=%v)", email, needAdmin)

	accounts, err := s.accountStore.Query(c, []mystore.Filter{{Field: "Email", Compare: "=", Value: email}}, "")
	if err != nil {
		return Session{}, myerrors.NewInternalError(err)
	}
	if len(accounts) == 0 || !accounts[0].PasswordMatches(password) {
		return Session{}, myerrors.NewUnauthorizedError(fmt.Errorf("invalid credentials"))
	}

	account := accounts[0]
	if needAdmin && !account.Admin {
		return Session{}, myerrors.NewAuthenticationError(fmt.Errorf("account %s has no admin role", email))
	}

	now := s.nower.Now()
	session := Session{
		Token:      s.uuider.Create(),
		ShopperUID: account.UID,
		Email:      account.Email,
		Admin:      needAdmin,
		CreatedAt:  now,
		ExpiresAt:  now.Add(sessionTTL),
	}

	err = s.sessionStore.Put(c, session.Token, session)
	if err != nil {
		return Session{}, myerrors.NewInternalError(err)
	}

	return session, nil
}

func (s *service) logout(c context.Context, token string) error {
	s.logger.Log(c, "", mylog.SeverityInfo, "Logout")

	err := s.sessionStore.Delete(c, token)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	return nil
}

// authenticate resolves a bearer token into a live session. An expired
// session is revoked on first sight, so a client that gets a 401 can clear
// its stored credentials exactly once and never observe the token again.
func (s *service) authenticate(c context.Context, token string, needAdmin bool) (Session, error) {
	if token == "" {
		return Session{}, myerrors.NewUnauthorizedError(fmt.Errorf("missing bearer token"))
	}

	session, found, err := s.sessionStore.Get(c, token)
	if err != nil {
		return Session{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Session{}, myerrors.NewUnauthorizedError(fmt.Errorf("unknown token"))
	}

	if session.IsExpired(s.nower.Now()) {
		err = s.sessionStore.Delete(c, token)
		if err != nil {
			return Session{}, myerrors.NewInternalError(err)
		}

		return Session{}, myerrors.NewUnauthorizedError(fmt.Errorf("token expired"))
	}

	if needAdmin && !session.Admin {
		return Session{}, myerrors.NewAuthenticationError(fmt.Errorf("admin role required"))
	}

	return session, nil
}
