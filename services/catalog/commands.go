package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/myevents"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/services/catalogevents"
)

func (s *service) listProducts(c context.Context, categoryUID string) ([]Product, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch all products (category filter: %q)", categoryUID)

	var products []Product
	var err error
	if categoryUID != "" {
		products, err = s.productStore.Query(c, []mystore.Filter{
			{Field: "CategoryUID", Compare: "=", Value: categoryUID},
		}, "Name")
	} else {
		products, err = s.productStore.List(c)
	}
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})

	return products, nil
}

func (s *service) getProduct(c context.Context, productUID string) (Product, error) {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Fetch details of product %s", productUID)

	product, found, err := s.productStore.Get(c, productUID)
	if err != nil {
		return Product{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Product{}, myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
	}

	return product, nil
}

func (s *service) upsertProduct(c context.Context, productUID string, product Product) (Product, error) {
	now := s.nower.Now()

	if err := validateProduct(product); err != nil {
		return Product{}, myerrors.NewInvalidInputError(err)
	}

	created := false
	err := s.productStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		existing, found, err := s.productStore.Get(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		if found {
			product.UID = productUID
			product.CreatedAt = existing.CreatedAt
			product.LastModified = &now
		} else {
			created = true
			product.UID = productUID
			product.CreatedAt = now
			product.LastModified = nil
		}

		err = s.productStore.Put(c, productUID, product)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		var event myevents.Event
		if created {
			event = catalogevents.ProductCreated{ProductUID: productUID, CategoryUID: product.CategoryUID}
		} else {
			event = catalogevents.ProductUpdated{ProductUID: productUID}
		}

		err = s.publisher.Publish(c, catalogevents.TopicName, event)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Product{}, err
	}

	s.logger.Log(c, productUID, mylog.SeverityInfo, "Stored product %s (created: %t)", productUID, created)

	return product, nil
}

func (s *service) createProduct(c context.Context, product Product) (Product, error) {
	return s.upsertProduct(c, s.uuider.Create(), product)
}

func (s *service) deleteProduct(c context.Context, productUID string) error {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Delete product %s", productUID)

	return s.productStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		_, found, err := s.productStore.Get(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
		}

		err = s.productStore.Delete(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, catalogevents.TopicName, catalogevents.ProductDeleted{
			ProductUID: productUID,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
}

func (s *service) listCategories(c context.Context) ([]Category, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch all categories")

	categories, err := s.categoryStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})

	return categories, nil
}

func (s *service) getCategory(c context.Context, categoryUID string) (Category, error) {
	s.logger.Log(c, categoryUID, mylog.SeverityInfo, "Fetch details of category %s", categoryUID)

	category, found, err := s.categoryStore.Get(c, categoryUID)
	if err != nil {
		return Category{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Category{}, myerrors.NewNotFoundError(fmt.Errorf("category with uid %s not found", categoryUID))
	}

	return category, nil
}

func (s *service) upsertCategory(c context.Context, categoryUID string, category Category) (Category, error) {
	now := s.nower.Now()

	if strings.TrimSpace(category.Name) == "" {
		return Category{}, myerrors.NewInvalidInputError(fmt.Errorf("missing category name"))
	}

	err := s.categoryStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		existing, found, err := s.categoryStore.Get(c, categoryUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		category.UID = categoryUID
		if found {
			category.CreatedAt = existing.CreatedAt
			category.LastModified = &now
		} else {
			category.CreatedAt = now
			category.LastModified = nil
		}

		err = s.categoryStore.Put(c, categoryUID, category)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Category{}, err
	}

	s.logger.Log(c, categoryUID, mylog.SeverityInfo, "Stored category %s", categoryUID)

	return category, nil
}

func (s *service) createCategory(c context.Context, category Category) (Category, error) {
	return s.upsertCategory(c, s.uuider.Create(), category)
}

func (s *service) deleteCategory(c context.Context, categoryUID string) error {
	s.logger.Log(c, categoryUID, mylog.SeverityInfo, "Delete category %s", categoryUID)

	return s.categoryStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		_, found, err := s.categoryStore.Get(c, categoryUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("category with uid %s not found", categoryUID))
		}

		products, err := s.productStore.Query(c, []mystore.Filter{
			{Field: "CategoryUID", Compare: "=", Value: categoryUID},
		}, "")
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if len(products) > 0 {
			return myerrors.NewInvalidInputError(fmt.Errorf("category %s still has %d products", categoryUID, len(products)))
		}

		err = s.categoryStore.Delete(c, categoryUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
}

func validateProduct(product Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("missing product name")
	}
	if product.CategoryUID == "" {
		return fmt.Errorf("missing product category")
	}
	if product.Price < 0 {
		return fmt.Errorf("product price must not be negative")
	}
	if product.DiscountPercent < 0 || product.DiscountPercent > 100 {
		return fmt.Errorf("discount percentage must be between 0 and 100")
	}
	if product.AvailableStock < 0 {
		return fmt.Errorf("available stock must not be negative")
	}

	return nil
}
