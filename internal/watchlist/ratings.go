package watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
)

// SetRatingParams carries the requested changes. RatingSet distinguishes
// "rating absent from the request" from "rating explicitly set to null".
type SetRatingParams struct {
	WatchStatus *models.WatchStatus
	Rating      *int
	RatingSet   bool
}

// SetRating creates or updates the caller's rating for a catalog item.
//
// The two rules apply in this order, and the order matters:
//  1. A watch status change away from completed forces the stored rating to
//     null, no matter what rating was supplied alongside it.
//  2. A supplied rating (including an explicit null) is stored only if the
//     resulting watch status is completed; otherwise the write is ignored.
func (s *Service) SetRating(ctx context.Context, userID, itemID uuid.UUID, p SetRatingParams) (*models.UserRating, error) {
	if p.WatchStatus != nil && !p.WatchStatus.Valid() {
		return nil, fmt.Errorf("unknown watch status %q: %w", *p.WatchStatus, ErrInvalidOperation)
	}
	if p.Rating != nil && (*p.Rating < 1 || *p.Rating > 10) {
		return nil, fmt.Errorf("rating must be between 1 and 10: %w", ErrInvalidOperation)
	}

	var saved *models.UserRating
	err := s.store.ExecTx(ctx, func(q Querier) error {
		item, err := q.GetCatalogItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("catalog item %s: %w", itemID, ErrNotFound)
		}

		r, err := q.GetRating(ctx, userID, itemID)
		if err != nil {
			return err
		}
		if r == nil {
			r = &models.UserRating{
				ID:            uuid.New(),
				UserID:        userID,
				CatalogItemID: itemID,
				WatchStatus:   models.StatusNotWatched,
				CreatedAt:     time.Now().UTC(),
			}
		}

		if p.WatchStatus != nil {
			r.WatchStatus = *p.WatchStatus
			if r.WatchStatus != models.StatusCompleted {
				r.Rating = nil
			}
		}
		if p.RatingSet && r.WatchStatus == models.StatusCompleted {
			r.Rating = p.Rating
		}

		r.UpdatedAt = time.Now().UTC()
		if err := q.SaveRating(ctx, r); err != nil {
			return err
		}
		// Summary views over any collection holding this item just changed
		// for every group the rater belongs to.
		if err := q.TouchCollectionsForItem(ctx, itemID, userID); err != nil {
			return err
		}
		saved = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("rating.updated", saved)
	return saved, nil
}

// MyRatings returns the caller's ratings for everything in the collection.
func (s *Service) MyRatings(ctx context.Context, userID, collectionID uuid.UUID) ([]models.UserRating, error) {
	if _, err := getCollection(ctx, s.store, collectionID); err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.store, collectionID, userID); err != nil {
		return nil, err
	}
	return s.store.ListUserRatingsForCollection(ctx, userID, collectionID)
}

// ItemRatings returns every member's rating for an item in the collection,
// plus the membership-scoped aggregate.
func (s *Service) ItemRatings(ctx context.Context, actorID, collectionID, itemID uuid.UUID) ([]models.MemberRating, models.RatingSummary, error) {
	if _, err := getCollection(ctx, s.store, collectionID); err != nil {
		return nil, models.RatingSummary{}, err
	}
	if _, err := requireMember(ctx, s.store, collectionID, actorID); err != nil {
		return nil, models.RatingSummary{}, err
	}
	ratings, err := s.store.ListMemberRatingsForItem(ctx, collectionID, itemID)
	if err != nil {
		return nil, models.RatingSummary{}, err
	}
	summary, err := s.store.AverageRating(ctx, itemID, &collectionID)
	if err != nil {
		return nil, models.RatingSummary{}, err
	}
	return ratings, summary, nil
}

// AverageRating is the membership-scoped aggregate: the mean of non-null
// ratings from current members of the collection. {nil, 0} when nobody in
// the group has rated the item.
func (s *Service) AverageRating(ctx context.Context, actorID, collectionID, itemID uuid.UUID) (models.RatingSummary, error) {
	if _, err := getCollection(ctx, s.store, collectionID); err != nil {
		return models.RatingSummary{}, err
	}
	if _, err := requireMember(ctx, s.store, collectionID, actorID); err != nil {
		return models.RatingSummary{}, err
	}
	return s.store.AverageRating(ctx, itemID, &collectionID)
}

// GlobalAverageRating is the collection-unscoped variant: all users who
// rated the item, regardless of membership.
func (s *Service) GlobalAverageRating(ctx context.Context, itemID uuid.UUID) (models.RatingSummary, error) {
	return s.store.AverageRating(ctx, itemID, nil)
}
