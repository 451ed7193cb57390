package content

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
func NewWebService(slideStore mystore.Store[HeroSlide], reelStore mystore.Store[Reel], nower mytime.Nower, uuider myuuid.UUIDer, guard auth.Guard) *webService {
	logger := mylog.New("content")
	return &webService{
		logger:  logger,
		service: newService(slideStore, reelStore, nower, uuider, logger),
		guard:   guard,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	// Public storefront endpoints
	router.HandleFunc("/api/hero-slides", s.heroSlideListPage()).Methods("GET")
	router.HandleFunc("/api/reels", s.reelListPage()).Methods("GET")

	// Admin endpoints
	router.HandleFunc("/api/admin/hero-slides", s.guard.Admin(s.createHeroSlidePage())).Methods("POST")
	router.HandleFunc("/api/admin/hero-slides/{slideUID}", s.guard.Admin(s.updateHeroSlidePage())).Methods("PUT")
	router.HandleFunc("/api/admin/hero-slides/{slideUID}", s.guard.Admin(s.deleteHeroSlidePage())).Methods("DELETE")
	router.HandleFunc("/api/admin/reels", s.guard.Admin(s.createReelPage())).Methods("POST")
	router.HandleFunc("/api/admin/reels/{reelUID}", s.guard.Admin(s.updateReelPage())).Methods("PUT")
	router.HandleFunc("/api/admin/reels/{reelUID}", s.guard.Admin(s.deleteReelPage())).Methods("DELETE")
}

func (s *webService) heroSlideListPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		slides, err := s.service.listHeroSlides(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, slides)
	}
}

func (s *webService) reelListPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		reels, err := s.service.listReels(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, reels)
	}
}

func (s *webService) createHeroSlidePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		slide, err := parseHeroSlideRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		stored, err := s.service.createHeroSlide(c, slide)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, stored)
	}
}

func (s *webService) updateHeroSlidePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		slideUID := mux.Vars(r)["slideUID"]

		slide, err := parseHeroSlideRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		stored, err := s.service.upsertHeroSlide(c, slideUID, slide)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, stored)
	}
}

func (s *webService) deleteHeroSlidePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		slideUID := mux.Vars(r)["slideUID"]

		err := s.service.deleteHeroSlide(c, slideUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Deleted hero slide %s", slideUID),
		})
	}
}

func (s *webService) createReelPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		reel, err := parseReelRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		stored, err := s.service.createReel(c, reel)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, stored)
	}
}

func (s *webService) updateReelPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		reelUID := mux.Vars(r)["reelUID"]

		reel, err := parseReelRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		stored, err := s.service.upsertReel(c, reelUID, reel)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, stored)
	}
}

func (s *webService) deleteReelPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		reelUID := mux.Vars(r)["reelUID"]

		err := s.service.deleteReel(c, reelUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Deleted reel %s", reelUID),
		})
	}
}

func parseHeroSlideRequest(r *http.Request) (HeroSlide, error) {
	slide := HeroSlide{}
	err := json.NewDecoder(r.Body).Decode(&slide)
	if err != nil {
		return HeroSlide{}, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err))
	}

	return slide, nil
}

func parseReelRequest(r *http.Request) (Reel, error) {
	reel := Reel{}
	err := json.NewDecoder(r.Body).Decode(&reel)
	if err != nil {
		return Reel{}, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err))
	}

	return reel, nil
}
