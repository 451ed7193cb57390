package cart

import "time"

type Cart struct {
	UID          string
	Items        []CartItem
	CreatedAt    time.Time
	LastModified *time.Time
}

type CartItem struct {
	ProductUID     string
	Name           string
	ImageURL       string
	Quantity       int
	UnitPrice      int64 // discount-adjusted, captured when the item was added
	Currency       string
	AvailableStock int
}

func (c Cart) TotalPrice() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) find(productUID string) (int, bool) {
	for i, item := range c.Items {
		if item.ProductUID == productUID {
			return i, true
		}
	}
	return 0, false
}
