package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/gemelle/shopbackend/lib/mystore"
	"github.com/gemelle/shopbackend/lib/mytime"
	"github.com/gemelle/shopbackend/lib/myuuid"
)

var (
	slideDiwali = HeroSlide{
		UID: "slide-1", Title: "Diwali Collection", Subtitle: "Up to 20% off",
		ImageURL: "https://cdn.gemelle.in/hero/diwali.jpg", LinkURL: "/collections/diwali",
		Position: 2, CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	slideBridal = HeroSlide{
		UID: "slide-2", Title: "Bridal Edit",
		ImageURL: "https://cdn.gemelle.in/hero/bridal.jpg",
		Position: 1, CreatedAt: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
	}
	reelRing = Reel{
		UID: "reel-1", Title: "Gold ring up close",
		VideoURL:     "https://cdn.gemelle.in/reels/ring.mp4",
		ThumbnailURL: "https://cdn.gemelle.in/reels/ring.jpg",
		ProductUID:   "prod_gold_ring",
		CreatedAt:    time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
	}
)

func TestHeroSlides(t *testing.T) {

	t.Run("List slides ordered by position", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, slides, _, _, _ := setup(t, ctrl)

		// given
		slides.Put(ctx, slideDiwali.UID, slideDiwali)
		slides.Put(ctx, slideBridal.UID, slideBridal)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/hero-slides", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := []HeroSlide{}
		assert.NoError(t, json.NewDecoder(response.Body).Decode(&got))
		assert.Len(t, got, 2)
		assert.Equal(t, "Bridal Edit", got[0].Title)
		assert.Equal(t, "Diwali Collection", got[1].Title)
	})

	t.Run("Create slide", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, slides, _, nower, uuider := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("slide-new")

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/admin/hero-slides",
			strings.NewReader(`{"Title":"Monsoon Sale","ImageURL":"https://cdn.gemelle.in/hero/monsoon.jpg","Position":3}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		stored, found, _ := slides.Get(ctx, "slide-new")
		assert.True(t, found)
		assert.Equal(t, "Monsoon Sale", stored.Title)
		assert.Equal(t, mytime.ExampleTime, stored.CreatedAt)
	})

	t.Run("Slide without image is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, nower, uuider := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		uuider.EXPECT().Create().Return("slide-new").AnyTimes()

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/admin/hero-slides",
			strings.NewReader(`{"Title":"No image"}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Update slide keeps creation time", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, slides, _, nower, _ := setup(t, ctrl)

		// given
		slides.Put(ctx, slideDiwali.UID, slideDiwali)
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/admin/hero-slides/slide-1",
			strings.NewReader(`{"Title":"Diwali Collection","ImageURL":"https://cdn.gemelle.in/hero/diwali-v2.jpg","Position":2}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		stored, _, _ := slides.Get(ctx, "slide-1")
		assert.Equal(t, "https://cdn.gemelle.in/hero/diwali-v2.jpg", stored.ImageURL)
		assert.Equal(t, slideDiwali.CreatedAt, stored.CreatedAt)
		assert.NotNil(t, stored.LastModified)
	})

	t.Run("Delete slide", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, slides, _, _, _ := setup(t, ctrl)

		// given
		slides.Put(ctx, slideDiwali.UID, slideDiwali)

		// when
		request, err := http.NewRequest(http.MethodDelete, "/api/admin/hero-slides/slide-1", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		_, found, _ := slides.Get(ctx, "slide-1")
		assert.False(t, found)
	})
}

func TestReels(t *testing.T) {

	t.Run("List reels", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, _, reels, _, _ := setup(t, ctrl)

		// given
		reels.Put(ctx, reelRing.UID, reelRing)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/reels", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := []Reel{}
		assert.NoError(t, json.NewDecoder(response.Body).Decode(&got))
		assert.Len(t, got, 1)
		assert.Equal(t, "prod_gold_ring", got[0].ProductUID)
	})

	t.Run("Create reel", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, _, reels, nower, uuider := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("reel-new")

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/admin/reels",
			strings.NewReader(`{"Title":"Necklace showcase","VideoURL":"https://cdn.gemelle.in/reels/necklace.mp4"}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		stored, found, _ := reels.Get(ctx, "reel-new")
		assert.True(t, found)
		assert.Equal(t, "Necklace showcase", stored.Title)
	})

	t.Run("Reel without video is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, nower, uuider := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		uuider.EXPECT().Create().Return("reel-new").AnyTimes()

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/admin/reels",
			strings.NewReader(`{"Title":"Missing video"}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Delete unknown reel is a 404", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodDelete, "/api/admin/reels/reel-ghost", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 404, response.Code)
	})
}

type allowAllGuard struct{}

func (g allowAllGuard) Shopper(next http.HandlerFunc) http.HandlerFunc { return next }
func (g allowAllGuard) Admin(next http.HandlerFunc) http.HandlerFunc   { return next }

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[HeroSlide], mystore.Store[Reel], *mytime.MockNower, *myuuid.MockUUIDer) {
	c := context.TODO()
	slideStore, _, _ := mystore.New[HeroSlide](c)
	reelStore, _, _ := mystore.New[Reel](c)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)

	sut := NewWebService(slideStore, reelStore, nower, uuider, allowAllGuard{})
	router := mux.NewRouter()
	sut.RegisterEndpoints(c, router)

	return c, router, slideStore, reelStore, nower, uuider
}
