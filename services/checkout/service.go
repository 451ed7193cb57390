package checkout

import (
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/services/cart"
	"github.com/gemelle/shopbackend/services/checkoutapi"
)

type service struct {
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	cartStore     mystore.Store[cart.Cart]
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	logger        mylog.Logger
}

// Use dependency injection to isolate the infrastructure and ease testing
func newService(checkoutStore mystore.Store[checkoutapi.CheckoutContext], cartStore mystore.Store[cart.Cart], nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger) *service {
	return &service{
		checkoutStore: checkoutStore,
		cartStore:     cartStore,
		nower:         nower,
		uuider:        uuider,
		logger:        logger,
	}
}
