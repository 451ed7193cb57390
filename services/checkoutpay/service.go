package checkoutpay

import (
	"context"
	"fmt"

	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/lib/myvault"
	"github.com/gemelle/shopbackend/services/checkoutapi"
	"github.com/gemelle/shopbackend/services/checkoutevents"
)

type service struct {
	config        Config
	payer         Payer
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	vault         myvault.VaultReader[Credentials]
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	logger        mylog.Logger
	publisher     mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and ease testing
func newCommandService(cfg Config, payer Payer, checkoutStore mystore.Store[checkoutapi.CheckoutContext], vault myvault.VaultReader[Credentials], nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger, publisher mypublisher.Publisher) *service {
	return &service{
		config:        cfg,
		payer:         payer,
		checkoutStore: checkoutStore,
		vault:         vault,
		nower:         nower,
		uuider:        uuider,
		logger:        logger,
		publisher:     publisher,
	}
}

func (s *service) CreateTopics(c context.Context) error {
	err := s.publisher.CreateTopic(c, checkoutevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

// credentials prefers the key pair from the vault over the statically
// configured one
func (s *service) credentials(c context.Context, checkoutUID string) Credentials {
	creds, exist, err := s.vault.Get(c, credentialsVaultKey)
	if err != nil || !exist || creds.KeyID == "" || creds.KeySecret == "" {
		s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Using configured gateway credentials")
		return Credentials{KeyID: s.config.KeyID, KeySecret: s.config.KeySecret}
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Using gateway credentials from vault")
	return creds
}
