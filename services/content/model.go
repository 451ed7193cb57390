package content

import "time"

// HeroSlide is a banner on the storefront landing page. Position drives the
// carousel order.
type HeroSlide struct {
	UID          string
	Title        string
	Subtitle     string
	ImageURL     string
	LinkURL      string
	Position     int
	CreatedAt    time.Time
	LastModified *time.Time
}

// Reel is a short product video for the storefront reel strip.
type Reel struct {
	UID          string
	Title        string
	VideoURL     string
	ThumbnailURL string
	ProductUID   string
	CreatedAt    time.Time
	LastModified *time.Time
}
