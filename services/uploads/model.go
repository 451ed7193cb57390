package uploads

// Logical upload categories, used as key prefixes in the media bucket.
const (
	CategoryProduct   = "product"
	CategoryCategory  = "category"
	CategoryHeroSlide = "hero_slide"
	CategoryReel      = "reel"
)

const (
	FileTypeImage = "image"
	FileTypeVideo = "video"

	maxImageSize = 10 << 20  // 10MB
	maxVideoSize = 100 << 20 // 100MB
)

type UploadResult struct {
	Success    bool   `json:"success"`
	Filename   string `json:"filename,omitempty"`
	CDNURL     string `json:"cdn_url,omitempty"`
	StorageURL string `json:"storage_url,omitempty"`
	StorageKey string `json:"storage_key,omitempty"`
	Error      string `json:"error,omitempty"`
}

type BatchUploadResponse struct {
	Results []UploadResult `json:"results"`
}

func isValidCategory(category string) bool {
	switch category {
	case CategoryProduct, CategoryCategory, CategoryHeroSlide, CategoryReel:
		return true
	}
	return false
}
