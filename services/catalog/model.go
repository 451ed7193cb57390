package catalog

import (
	"fmt"
	"time"
)

type Product struct {
	UID             string
	Name            string
	Description     string
	CategoryUID     string
	Price           int64 // minor currency units
	Currency        string
	DiscountPercent int
	AvailableStock  int
	ImageURLs       []string
	VideoURL        string
	CreatedAt       time.Time
	LastModified    *time.Time
}

// DiscountedPrice is the unit price after the discount, in minor units.
func (p Product) DiscountedPrice() int64 {
	if p.DiscountPercent <= 0 {
		return p.Price
	}

	return p.Price - (p.Price*int64(p.DiscountPercent))/100
}

func (p Product) GetPriceInCurrency() string {
	return fmt.Sprintf("%s %.2f", p.Currency, float32(p.DiscountedPrice())/100.0)
}

type Category struct {
	UID          string
	Name         string
	Description  string
	ImageURL     string
	CreatedAt    time.Time
	LastModified *time.Time
}
