package orders

import (
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mypubsub"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/services/checkoutapi"
)

type service struct {
	orderStore    mystore.Store[Order]
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	pubsub        mypubsub.PubSub
	publisher     mypublisher.Publisher
	nower         mytime.Nower
	logger        mylog.Logger
}

// Use dependency injection to isolate the infrastructure and ease testing
func newService(orderStore mystore.Store[Order], checkoutStore mystore.Store[checkoutapi.CheckoutContext], pubsub mypubsub.PubSub, publisher mypublisher.Publisher, nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		orderStore:    orderStore,
		checkoutStore: checkoutStore,
		pubsub:        pubsub,
		publisher:     publisher,
		nower:         nower,
		logger:        logger,
	}
}
