package checkoutapi

import (
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	formcodec "github.com/go-playground/form/v4"

	"github.com/gemelle/shopbackend/lib/myerrors"
)

// CustomerInfo is step one of the wizard, submitted form-encoded.
type CustomerInfo struct {
	FirstName string `form:"firstName"`
	LastName  string `form:"lastName"`
	Email     string `form:"email"`
	Phone     string `form:"phone"`
}

func (ci CustomerInfo) Validate() error {
	if strings.TrimSpace(ci.FirstName) == "" {
		return fmt.Errorf("missing firstName")
	}
	if strings.TrimSpace(ci.LastName) == "" {
		return fmt.Errorf("missing lastName")
	}
	if _, err := mail.ParseAddress(ci.Email); err != nil {
		return fmt.Errorf("invalid email %q", ci.Email)
	}
	if strings.TrimSpace(ci.Phone) == "" {
		return fmt.Errorf("missing phone")
	}

	return nil
}

// Address is step two of the wizard.
type Address struct {
	Street     string `form:"street"`
	City       string `form:"city"`
	State      string `form:"state"`
	PostalCode string `form:"postalCode"`
	Country    string `form:"country"`
}

func (a Address) Validate() error {
	if strings.TrimSpace(a.Street) == "" {
		return fmt.Errorf("missing street")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("missing city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("missing postalCode")
	}

	return nil
}

func CustomerInfoFromRequest(r *http.Request) (CustomerInfo, error) {
	err := r.ParseForm()
	if err != nil {
		return CustomerInfo{}, myerrors.NewInvalidInputError(err)
	}
	return CustomerInfoFromValues(r.Form)
}

func CustomerInfoFromValues(values url.Values) (CustomerInfo, error) {
	info := CustomerInfo{}
	err := formcodec.NewDecoder().Decode(&info, values)
	if err != nil {
		return info, fmt.Errorf("error decoding form: %s", err)
	}

	return info, nil
}

func (ci CustomerInfo) ToForm() (url.Values, error) {
	values, err := formcodec.NewEncoder().Encode(ci)
	if err != nil {
		return nil, fmt.Errorf("error encoding form: %s", err)
	}

	return values, nil
}

func AddressFromRequest(r *http.Request) (Address, error) {
	err := r.ParseForm()
	if err != nil {
		return Address{}, myerrors.NewInvalidInputError(err)
	}
	return AddressFromValues(r.Form)
}

func AddressFromValues(values url.Values) (Address, error) {
	address := Address{}
	err := formcodec.NewDecoder().Decode(&address, values)
	if err != nil {
		return address, fmt.Errorf("error decoding form: %s", err)
	}

	return address, nil
}

func (a Address) ToForm() (url.Values, error) {
	values, err := formcodec.NewEncoder().Encode(a)
	if err != nil {
		return nil, fmt.Errorf("error encoding form: %s", err)
	}

	return values, nil
}
