package content

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/mylog"
)

func (s *service) listHeroSlides(c context.Context) ([]HeroSlide, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch all hero slides")

	slides, err := s.slideStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	sort.Slice(slides, func(i, j int) bool {
		return slides[i].Position < slides[j].Position
	})

	return slides, nil
}

func (s *service) upsertHeroSlide(c context.Context, slideUID string, slide HeroSlide) (HeroSlide, error) {
	now := s.nower.Now()

	if err := validateHeroSlide(slide); err != nil {
		return HeroSlide{}, myerrors.NewInvalidInputError(err)
	}

	err := s.slideStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		existing, found, err := s.slideStore.Get(c, slideUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		slide.UID = slideUID
		if found {
			slide.CreatedAt = existing.CreatedAt
			slide.LastModified = &now
		} else {
			slide.CreatedAt = now
			slide.LastModified = nil
		}

		err = s.slideStore.Put(c, slideUID, slide)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return HeroSlide{}, err
	}

	s.logger.Log(c, slideUID, mylog.SeverityInfo, "Stored hero slide %s", slideUID)

	return slide, nil
}

func (s *service) createHeroSlide(c context.Context, slide HeroSlide) (HeroSlide, error) {
	return s.upsertHeroSlide(c, s.uuider.Create(), slide)
}

func (s *service) deleteHeroSlide(c context.Context, slideUID string) error {
	s.logger.Log(c, slideUID, mylog.SeverityInfo, "Delete hero slide %s", slideUID)

	return s.slideStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		_, found, err := s.slideStore.Get(c, slideUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("hero slide with uid %s not found", slideUID))
		}

		return s.slideStore.Delete(c, slideUID)
	})
}

func (s *service) listReels(c context.Context) ([]Reel, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch all reels")

	reels, err := s.reelStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	sort.Slice(reels, func(i, j int) bool {
		return reels[i].CreatedAt.After(reels[j].CreatedAt)
	})

	return reels, nil
}

func (s *service) upsertReel(c context.Context, reelUID string, reel Reel) (Reel, error) {
	now := s.nower.Now()

	if err := validateReel(reel); err != nil {
		return Reel{}, myerrors.NewInvalidInputError(err)
	}

	err := s.reelStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		existing, found, err := s.reelStore.Get(c, reelUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		reel.UID = reelUID
		if found {
			reel.CreatedAt = existing.CreatedAt
			reel.LastModified = &now
		} else {
			reel.CreatedAt = now
			reel.LastModified = nil
		}

		err = s.reelStore.Put(c, reelUID, reel)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Reel{}, err
	}

	s.logger.Log(c, reelUID, mylog.SeverityInfo, "Stored reel %s", reelUID)

	return reel, nil
}

func (s *service) createReel(c context.Context, reel Reel) (Reel, error) {
	return s.upsertReel(c, s.uuider.Create(), reel)
}

func (s *service) deleteReel(c context.Context, reelUID string) error {
	s.logger.Log(c, reelUID, mylog.SeverityInfo, "Delete reel %s", reelUID)

	return s.reelStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		_, found, err := s.reelStore.Get(c, reelUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("reel with uid %s not found", reelUID))
		}

		return s.reelStore.Delete(c, reelUID)
	})
}

func validateHeroSlide(slide HeroSlide) error {
	if strings.TrimSpace(slide.Title) == "" {
		return fmt.Errorf("hero slide is missing a title")
	}
	if strings.TrimSpace(slide.ImageURL) == "" {
		return fmt.Errorf("hero slide is missing an image")
	}
	if slide.Position < 0 {
		return fmt.Errorf("hero slide position must not be negative")
	}
	return nil
}

func validateReel(reel Reel) error {
	if strings.TrimSpace(reel.Title) == "" {
		return fmt.Errorf("reel is missing a title")
	}
	if strings.TrimSpace(reel.VideoURL) == "" {
		return fmt.Errorf("reel is missing a video")
	}
	return nil
}
