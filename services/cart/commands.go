package cart

import (
	"context"
	"fmt"

	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/mylog"
)

func (s *service) getCart(c context.Context, cartUID string) (Cart, error) {
	s.logger.Log(c, cartUID, mylog.SeverityInfo, "Fetch cart %s", cartUID)

	cart, found, err := s.cartStore.Get(c, cartUID)
	if err != nil {
		return Cart{}, myerrors.NewInternalError(err)
	}
	if !found {
		// A cart that was never written to is just empty
		return Cart{UID: cartUID, Items: []CartItem{}}, nil
	}

	return cart, nil
}

func (s *service) addItem(c context.Context, cartUID string, productUID string, quantity int) (Cart, error) {
	s.logger.Log(c, cartUID, mylog.SeverityInfo, "Add %d x product %s to cart %s", quantity, productUID, cartUID)

	if quantity < 1 {
		quantity = 1
	}
	now := s.nower.Now()

	var cart Cart
	err := s.cartStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		product, found, err := s.productStore.Get(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
		}
		if product.AvailableStock < 1 {
			return myerrors.NewConflictError(fmt.Errorf("product %s is out of stock", productUID))
		}

		cart, found, err = s.cartStore.Get(c, cartUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			cart = Cart{UID: cartUID, Items: []CartItem{}, CreatedAt: now}
		}

		if idx, exists := cart.find(productUID); exists {
			cart.Items[idx].Quantity = clamp(cart.Items[idx].Quantity+quantity, product.AvailableStock)
			cart.Items[idx].AvailableStock = product.AvailableStock
		} else {
			cart.Items = append(cart.Items, CartItem{
				ProductUID:     productUID,
				Name:           product.Name,
				ImageURL:       firstOf(product.ImageURLs),
				Quantity:       clamp(quantity, product.AvailableStock),
				UnitPrice:      product.DiscountedPrice(),
				Currency:       product.Currency,
				AvailableStock: product.AvailableStock,
			})
		}
		cart.LastModified = &now

		err = s.cartStore.Put(c, cartUID, cart)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Cart{}, err
	}

	return cart, nil
}

func (s *service) incrementItem(c context.Context, cartUID string, productUID string) (Cart, error) {
	s.logger.Log(c, cartUID, mylog.SeverityInfo, "Increment product %s in cart %s", productUID, cartUID)

	now := s.nower.Now()

	var cart Cart
	err := s.cartStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		var found bool
		var err error
		cart, found, err = s.cartStore.Get(c, cartUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("cart %s not found", cartUID))
		}

		idx, exists := cart.find(productUID)
		if !exists {
			return myerrors.NewNotFoundError(fmt.Errorf("product %s not in cart %s", productUID, cartUID))
		}

		product, productFound, err := s.productStore.Get(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		stock := cart.Items[idx].AvailableStock
		if productFound {
			stock = product.AvailableStock
			cart.Items[idx].AvailableStock = stock
		}

		if cart.Items[idx].Quantity >= stock {
			// Surfaced no-op: the cart is left untouched
			return myerrors.NewConflictError(fmt.Errorf("not enough stock for product %s: only %d available", productUID, stock))
		}

		cart.Items[idx].Quantity++
		cart.LastModified = &now

		err = s.cartStore.Put(c, cartUID, cart)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Cart{}, err
	}

	return cart, nil
}

func (s *service) decrementItem(c context.Context, cartUID string, productUID string) (Cart, error) {
	s.logger.Log(c, cartUID, mylog.SeverityInfo, "Decrement product %s in cart %s", productUID, cartUID)

	now := s.nower.Now()

	var cart Cart
	err := s.cartStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		var found bool
		var err error
		cart, found, err = s.cartStore.Get(c, cartUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("cart %s not found", cartUID))
		}

		idx, exists := cart.find(productUID)
		if !exists {
			return myerrors.NewNotFoundError(fmt.Errorf("product %s not in cart %s", productUID, cartUID))
		}

		if cart.Items[idx].Quantity <= 1 {
			// Below one means gone
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		} else {
			cart.Items[idx].Quantity--
		}
		cart.LastModified = &now

		err = s.cartStore.Put(c, cartUID, cart)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Cart{}, err
	}

	return cart, nil
}

func (s *service) removeItem(c context.Context, cartUID string, productUID string) (Cart, error) {
	s.logger.Log(c, cartUID, mylog.SeverityInfo, "Remove product %s from cart %s", productUID, cartUID)

	now := s.nower.Now()

	var cart Cart
	err := s.cartStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		var found bool
		var err error
		cart, found, err = s.cartStore.Get(c, cartUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("cart %s not found", cartUID))
		}

		idx, exists := cart.find(productUID)
		if !exists {
			return nil
		}

		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		cart.LastModified = &now

		err = s.cartStore.Put(c, cartUID, cart)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Cart{}, err
	}

	return cart, nil
}

func (s *service) clearCart(c context.Context, cartUID string) error {
	s.logger.Log(c, cartUID, mylog.SeverityInfo, "Clear cart %s", cartUID)

	err := s.cartStore.Delete(c, cartUID)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	return nil
}

// mergeCarts folds a guest cart into the shopper's cart: quantities of shared
// products are summed and then clamped against live stock. The guest cart is
// deleted afterwards, so replaying the merge is harmless.
func (s *service) mergeCarts(c context.Context, guestCartUID string, shopperUID string) (Cart, error) {
	s.logger.Log(c, shopperUID, mylog.SeverityInfo, "Merge guest cart %s into cart of shopper %s", guestCartUID, shopperUID)

	now := s.nower.Now()

	var cart Cart
	err := s.cartStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		guestCart, guestFound, err := s.cartStore.Get(c, guestCartUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		var found bool
		cart, found, err = s.cartStore.Get(c, shopperUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			cart = Cart{UID: shopperUID, Items: []CartItem{}, CreatedAt: now}
		}

		if !guestFound {
			// Nothing to fold in: merge of an unknown guest cart is a no-op
			return nil
		}

		for _, guestItem := range guestCart.Items {
			stock := s.liveStock(c, guestItem)
			if stock < 1 {
				// Sold out in the meantime
				continue
			}

			if idx, exists := cart.find(guestItem.ProductUID); exists {
				cart.Items[idx].Quantity = clamp(cart.Items[idx].Quantity+guestItem.Quantity, stock)
				cart.Items[idx].AvailableStock = stock
			} else {
				guestItem.Quantity = clamp(guestItem.Quantity, stock)
				guestItem.AvailableStock = stock
				cart.Items = append(cart.Items, guestItem)
			}
		}
		cart.LastModified = &now

		err = s.cartStore.Put(c, shopperUID, cart)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.cartStore.Delete(c, guestCartUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Cart{}, err
	}

	return cart, nil
}

func (s *service) liveStock(c context.Context, item CartItem) int {
	product, found, err := s.productStore.Get(c, item.ProductUID)
	if err != nil || !found {
		return item.AvailableStock
	}
	return product.AvailableStock
}

func clamp(quantity int, stock int) int {
	if quantity > stock {
		return stock
	}
	if quantity < 1 {
		return 1
	}
	return quantity
}

func firstOf(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}
