package content

import (
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
)

type service struct {
	slideStore mystore.Store[HeroSlide]
	reelStore  mystore.Store[Reel]
	nower      mytime.Nower
	uuider     myuuid.UUIDer
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and ease testing
func newService(slideStore mystore.Store[HeroSlide], reelStore mystore.Store[Reel], nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger) *service {
	return &service{
		slideStore: slideStore,
		reelStore:  reelStore,
		nower:      nower,
		uuider:     uuider,
		logger:     logger,
	}
}
