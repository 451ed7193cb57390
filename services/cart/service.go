package cart

import (
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/services/catalog"
)

type service struct {
	cartStore    mystore.Store[Cart]
	productStore mystore.Store[catalog.Product]
	nower        mytime.Nower
	logger       mylog.Logger
}

// Use dependency injection to isolate the infrastructure and ease testing
func newService(cartStore mystore.Store[Cart], productStore mystore.Store[catalog.Product], nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		cartStore:    cartStore,
		productStore: productStore,
		nower:        nower,
		logger:       logger,
	}
}
