package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/gemelle/shopbackend/lib/myblob"
	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mypubsub"
	"github.com/gemelle/shopbackend/lib/myqueue"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/lib/myvault"
	"github.com/gemelle/shopbackend/services/auth"
	"github.com/gemelle/shopbackend/services/cart"
	"github.com/gemelle/shopbackend/services/catalog"
	"github.com/gemelle/shopbackend/services/checkout"
	"github.com/gemelle/shopbackend/services/checkoutapi"
	"github.com/gemelle/shopbackend/services/checkoutpay"
	"github.com/gemelle/shopbackend/services/checkoutstripe"
	"github.com/gemelle/shopbackend/services/content"
	"github.com/gemelle/shopbackend/services/orders"
	"github.com/gemelle/shopbackend/services/uploads"
)

func main() {
	c := context.Background()

	router := mux.NewRouter()

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	accountStore, accountStoreCleanup, err := mystore.New[auth.Account](c)
	if err != nil {
		log.Fatalf("Error creating account store: %s", err)
	}
	defer accountStoreCleanup()

	sessionStore, sessionStoreCleanup, err := mystore.New[auth.Session](c)
	if err != nil {
		log.Fatalf("Error creating session store: %s", err)
	}
	defer sessionStoreCleanup()

	productStore, productStoreCleanup, err := mystore.New[catalog.Product](c)
	if err != nil {
		log.Fatalf("Error creating product store: %s", err)
	}
	defer productStoreCleanup()

	categoryStore, categoryStoreCleanup, err := mystore.New[catalog.Category](c)
	if err != nil {
		log.Fatalf("Error creating category store: %s", err)
	}
	defer categoryStoreCleanup()

	cartStore, cartStoreCleanup, err := mystore.New[cart.Cart](c)
	if err != nil {
		log.Fatalf("Error creating cart store: %s", err)
	}
	defer cartStoreCleanup()

	checkoutStore, checkoutStoreCleanup, err := mystore.New[checkoutapi.CheckoutContext](c)
	if err != nil {
		log.Fatalf("Error creating checkout store: %s", err)
	}
	defer checkoutStoreCleanup()

	orderStore, orderStoreCleanup, err := mystore.New[orders.Order](c)
	if err != nil {
		log.Fatalf("Error creating order store: %s", err)
	}
	defer orderStoreCleanup()

	slideStore, slideStoreCleanup, err := mystore.New[content.HeroSlide](c)
	if err != nil {
		log.Fatalf("Error creating hero-slide store: %s", err)
	}
	defer slideStoreCleanup()

	reelStore, reelStoreCleanup, err := mystore.New[content.Reel](c)
	if err != nil {
		log.Fatalf("Error creating reel store: %s", err)
	}
	defer reelStoreCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating queue: %s", err)
	}
	defer queueCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	vault, vaultCleanup, err := myvault.New[checkoutpay.Credentials](c)
	if err != nil {
		log.Fatalf("Error creating vault: %s", err)
	}
	defer vaultCleanup()

	blobStore, blobStoreCleanup, err := myblob.New(c)
	if err != nil {
		log.Fatalf("Error creating blob store: %s", err)
	}
	defer blobStoreCleanup()

	authService := auth.NewWebService(accountStore, sessionStore, nower, uuider)
	authService.RegisterEndpoints(c, router)

	catalogService := catalog.NewWebService(productStore, categoryStore, nower, uuider, publisher, authService)
	err = catalogService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering catalog service: %s", err)
	}

	cartService := cart.NewWebService(cartStore, productStore, nower, authService)
	cartService.RegisterEndpoints(c, router)

	checkoutService := checkout.NewWebService(checkoutStore, cartStore, nower, uuider)
	checkoutService.RegisterEndpoints(c, router)

	payConfig := checkoutpay.Config{
		BaseURL:   getenvOrDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		KeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		KeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
	}
	payService := checkoutpay.NewWebService(payConfig, checkoutpay.NewPayer(payConfig.BaseURL), checkoutStore, vault, nower, uuider, publisher)
	err = payService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering razorpay checkout service: %s", err)
	}

	stripeService := checkoutstripe.NewWebService(os.Getenv("STRIPE_API_KEY"), checkoutstripe.NewPayer(), checkoutStore, nower, uuider, publisher)
	err = stripeService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering stripe checkout service: %s", err)
	}

	orderService := orders.NewWebService(orderStore, checkoutStore, pubsub, publisher, nower, authService)
	err = orderService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering order service: %s", err)
	}

	contentService := content.NewWebService(slideStore, reelStore, nower, uuider, authService)
	contentService.RegisterEndpoints(c, router)

	uploadService := uploads.NewWebService(blobStore, uuider, authService)
	uploadService.RegisterEndpoints(c, router)

	startWebServerBlocking(router)
}

func getenvOrDefault(name string, def string) string {
	value := os.Getenv(name)
	if value == "" {
		return def
	}
	return value
}

func startWebServerBlocking(router *mux.Router) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
