package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/services/catalogevents"
)

var (
	categoryRings = Category{UID: "cat_rings", Name: "Rings", CreatedAt: time.Now()}
	ringProduct   = Product{
		UID:             "prod_gold_ring",
		Name:            "Gold ring",
		Description:     "18k gold ring",
		CategoryUID:     "cat_rings",
		Price:           125000,
		Currency:        "INR",
		DiscountPercent: 10,
		AvailableStock:  3,
		CreatedAt:       time.Now(),
	}
	necklaceProduct = Product{
		UID:            "prod_silver_necklace",
		Name:           "Silver necklace",
		CategoryUID:    "cat_necklaces",
		Price:          45000,
		Currency:       "INR",
		AvailableStock: 7,
		CreatedAt:      time.Now(),
	}
)

func TestCatalogService(t *testing.T) {

	t.Run("List products", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, products, _, _, _, _ := setup(t, ctrl)

		// given
		products.Put(ctx, ringProduct.UID, ringProduct)
		products.Put(ctx, necklaceProduct.UID, necklaceProduct)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/products", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, "prod_gold_ring")
		assert.Contains(t, got, "prod_silver_necklace")
	})

	t.Run("List products filtered on category", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, products, _, _, _, _ := setup(t, ctrl)

		// given
		products.Put(ctx, ringProduct.UID, ringProduct)
		products.Put(ctx, necklaceProduct.UID, necklaceProduct)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/products?category=cat_rings", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, "prod_gold_ring")
		assert.NotContains(t, got, "prod_silver_necklace")
	})

	t.Run("Get product", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, products, _, _, _, _ := setup(t, ctrl)

		// given
		products.Put(ctx, ringProduct.UID, ringProduct)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/products/prod_gold_ring", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "Gold ring")
		// 10% off 1250.00, formatted for the storefront
		assert.Contains(t, response.Body.String(), `"DisplayPrice":"INR 1125.00"`)
	})

	t.Run("Get product not exists", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/products/prod_unknown", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 404, response.Code)
	})

	t.Run("Create product", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, products, _, nower, uuider, publisher := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("prod_new_bangle")
		publisher.EXPECT().Publish(gomock.Any(), catalogevents.TopicName, catalogevents.ProductCreated{
			ProductUID:  "prod_new_bangle",
			CategoryUID: "cat_rings",
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(
			`{"Name":"Ruby bangle","CategoryUID":"cat_rings","Price":89000,"Currency":"INR","AvailableStock":2}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		product, exists, _ := products.Get(ctx, "prod_new_bangle")
		assert.True(t, exists)
		assert.Equal(t, "Ruby bangle", product.Name)
		assert.Equal(t, int64(89000), product.Price)
		assert.Equal(t, mytime.ExampleTime, product.CreatedAt)
	})

	t.Run("Create product with invalid discount", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, nower, uuider, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("prod_new_bangle")

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(
			`{"Name":"Ruby bangle","CategoryUID":"cat_rings","Price":89000,"DiscountPercent":250}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Update product keeps creation timestamp", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, products, _, nower, _, publisher := setup(t, ctrl)

		// given
		products.Put(ctx, ringProduct.UID, ringProduct)
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		publisher.EXPECT().Publish(gomock.Any(), catalogevents.TopicName, catalogevents.ProductUpdated{
			ProductUID: ringProduct.UID,
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/admin/products/prod_gold_ring", strings.NewReader(
			`{"Name":"Gold ring","CategoryUID":"cat_rings","Price":130000,"Currency":"INR","AvailableStock":3}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		product, exists, _ := products.Get(ctx, ringProduct.UID)
		assert.True(t, exists)
		assert.Equal(t, int64(130000), product.Price)
		assert.Equal(t, ringProduct.CreatedAt, product.CreatedAt)
		assert.Equal(t, mytime.ExampleTime, *product.LastModified)
	})

	t.Run("Delete product", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, products, _, _, _, publisher := setup(t, ctrl)

		// given
		products.Put(ctx, ringProduct.UID, ringProduct)
		publisher.EXPECT().Publish(gomock.Any(), catalogevents.TopicName, catalogevents.ProductDeleted{
			ProductUID: ringProduct.UID,
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodDelete, "/api/admin/products/prod_gold_ring", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		_, exists, _ := products.Get(ctx, ringProduct.UID)
		assert.False(t, exists)
	})

	t.Run("List categories", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, _, categories, _, _, _ := setup(t, ctrl)

		// given
		categories.Put(ctx, categoryRings.UID, categoryRings)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/categories", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "Rings")
	})

	t.Run("Delete category that still has products", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, products, categories, _, _, _ := setup(t, ctrl)

		// given
		categories.Put(ctx, categoryRings.UID, categoryRings)
		products.Put(ctx, ringProduct.UID, ringProduct)

		// when
		request, err := http.NewRequest(http.MethodDelete, "/api/admin/categories/cat_rings", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
		_, exists, _ := categories.Get(ctx, categoryRings.UID)
		assert.True(t, exists)
	})

	t.Run("Delete empty category", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, _, categories, _, _, _ := setup(t, ctrl)

		// given
		categories.Put(ctx, categoryRings.UID, categoryRings)

		// when
		request, err := http.NewRequest(http.MethodDelete, "/api/admin/categories/cat_rings", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		_, exists, _ := categories.Get(ctx, categoryRings.UID)
		assert.False(t, exists)
	})
}

// The auth service has its own tests: here every admin call is let through.
type allowAllGuard struct{}

func (g allowAllGuard) Shopper(next http.HandlerFunc) http.HandlerFunc { return next }
func (g allowAllGuard) Admin(next http.HandlerFunc) http.HandlerFunc   { return next }

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[Product], mystore.Store[Category], *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	productStore, _, _ := mystore.New[Product](c)
	categoryStore, _, _ := mystore.New[Category](c)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	sut := NewWebService(productStore, categoryStore, nower, uuider, publisher, allowAllGuard{})
	router := mux.NewRouter()

	publisher.EXPECT().CreateTopic(c, catalogevents.TopicName).Return(nil)

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, productStore, categoryStore, nower, uuider, publisher
}
