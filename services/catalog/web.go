package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gemelle/shopbackend/lib/mycontext"
	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/myhttp"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mypublisher"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/services/auth"
)

type webService struct {
	logger  mylog.Logger
	service *service
	guard   auth.Guard
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewWebService(productStore mystore.Store[Product], categoryStore mystore.Store[Category], nower mytime.Nower, uuider myuuid.UUIDer, pub mypublisher.Publisher, guard auth.Guard) *webService {
	logger := mylog.New("catalog")
	return &webService{
		logger:  logger,
		service: newService(productStore, categoryStore, nower, uuider, logger, pub),
		guard:   guard,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Public storefront endpoints
	router.HandleFunc("/api/products", s.productListPage()).Methods("GET")
	router.HandleFunc("/api/products/{productUID}", s.productDetailsPage()).Methods("GET")
	router.HandleFunc("/api/categories", s.categoryListPage()).Methods("GET")
	router.HandleFunc("/api/categories/{categoryUID}", s.categoryDetailsPage()).Methods("GET")
	router.HandleFunc("/api/categories/{categoryUID}/products", s.categoryProductsPage()).Methods("GET")

	// Admin endpoints
	router.HandleFunc("/api/admin/products", s.guard.Admin(s.createProductPage())).Methods("POST")
	router.HandleFunc("/api/admin/products/{productUID}", s.guard.Admin(s.updateProductPage())).Methods("PUT")
	router.HandleFunc("/api/admin/products/{productUID}", s.guard.Admin(s.deleteProductPage())).Methods("DELETE")
	router.HandleFunc("/api/admin/categories", s.guard.Admin(s.createCategoryPage())).Methods("POST")
	router.HandleFunc("/api/admin/categories/{categoryUID}", s.guard.Admin(s.updateCategoryPage())).Methods("PUT")
	router.HandleFunc("/api/admin/categories/{categoryUID}", s.guard.Admin(s.deleteCategoryPage())).Methods("DELETE")

	return s.service.CreateTopics(c)
}

// productResponse decorates a product with the formatted price the
// storefront shows on cards and detail pages.
type productResponse struct {
	Product
	DisplayPrice string
}

func newProductResponse(product Product) productResponse {
	return productResponse{
		Product:      product,
		DisplayPrice: product.GetPriceInCurrency(),
	}
}

func newProductResponses(products []Product) []productResponse {
	responses := make([]productResponse, 0, len(products))
	for _, product := range products {
		responses = append(responses, newProductResponse(product))
	}
	return responses
}

func (s *webService) productListPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		products, err := s.service.listProducts(c, r.URL.Query().Get("category"))
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newProductResponses(products))
	}
}

func (s *webService) productDetailsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		productUID := mux.Vars(r)["productUID"]

		product, err := s.service.getProduct(c, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newProductResponse(product))
	}
}

func (s *webService) categoryListPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		categories, err := s.service.listCategories(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, categories)
	}
}

func (s *webService) categoryDetailsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		categoryUID := mux.Vars(r)["categoryUID"]

		category, err := s.service.getCategory(c, categoryUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, category)
	}
}

func (s *webService) categoryProductsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		categoryUID := mux.Vars(r)["categoryUID"]

		// 404 when the category itself does not exist
		_, err := s.service.getCategory(c, categoryUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		products, err := s.service.listProducts(c, categoryUID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newProductResponses(products))
	}
}

func (s *webService) createProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		product, err := parseProductRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		product, err = s.service.createProduct(c, product)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newProductResponse(product))
	}
}

func (s *webService) updateProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		productUID := mux.Vars(r)["productUID"]

		product, err := parseProductRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		product, err = s.service.upsertProduct(c, productUID, product)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, newProductResponse(product))
	}
}

func (s *webService) deleteProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		productUID := mux.Vars(r)["productUID"]

		err := s.service.deleteProduct(c, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Deleted product %s", productUID),
		})
	}
}

func (s *webService) createCategoryPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		category, err := parseCategoryRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		category, err = s.service.createCategory(c, category)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, category)
	}
}

func (s *webService) updateCategoryPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		categoryUID := mux.Vars(r)["categoryUID"]

		category, err := parseCategoryRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		category, err = s.service.upsertCategory(c, categoryUID, category)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, category)
	}
}

func (s *webService) deleteCategoryPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		categoryUID := mux.Vars(r)["categoryUID"]

		err := s.service.deleteCategory(c, categoryUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Deleted category %s", categoryUID),
		})
	}
}

func parseProductRequest(r *http.Request) (Product, error) {
	product := Product{}
	err := json.NewDecoder(r.Body).Decode(&product)
	if err != nil {
		return Product{}, myerrors.NewInvalidInputError(fmt.Errorf("error parsing product request: %s", err))
	}

	return product, nil
}

func parseCategoryRequest(r *http.Request) (Category, error) {
	category := Category{}
	err := json.NewDecoder(r.Body).Decode(&category)
	if err != nil {
		return Category{}, myerrors.NewInvalidInputError(fmt.Errorf("error parsing category request: %s", err))
	}

	return category, nil
}
