package catalog

import (
	"context"
	"fmt"

	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/services/catalogevents"
)

type service struct {
	productStore  mystore.Store[Product]
	categoryStore mystore.Store[Category]
	publisher     mypublisher.Publisher
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	logger        mylog.Logger
}

// Use dependency injection to isolate the infrastructure and ease testing
func newService(productStore mystore.Store[Product], categoryStore mystore.Store[Category], nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger, pub mypublisher.Publisher) *service {
	return &service{
		productStore:  productStore,
		categoryStore: categoryStore,
		publisher:     pub,
		nower:         nower,
		uuider:        uuider,
		logger:        logger,
	}
}

func (s *service) CreateTopics(c context.Context) error {
	err := s.publisher.CreateTopic(c, catalogevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", catalogevents.TopicName, err)
	}

	return nil
}
