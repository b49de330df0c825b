package watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
	"github.com/whirlwatch/whirlwatch/internal/sharecode"
)

// Join adds the user to the collection behind the share code. The capacity
// check and the membership insert happen under the collection row lock so two
// concurrent joins cannot push the collection past its limit. Each existing
// entry gets a default rating slot for the joiner, so group views include
// them as a non-respondent immediately.
func (s *Service) Join(ctx context.Context, userID uuid.UUID, code string) (*models.Collection, error) {
	code = sharecode.Normalize(code)
	if len(code) != sharecode.Length {
		return nil, fmt.Errorf("share code must be %d characters: %w", sharecode.Length, ErrInvalidOperation)
	}

	var joined *models.Collection
	err := s.store.ExecTx(ctx, func(q Querier) error {
		c, err := q.GetCollectionByShareCode(ctx, code)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("no collection for share code: %w", ErrNotFound)
		}
		if err := q.LockCollection(ctx, c.ID); err != nil {
			return err
		}
		if err := q.LockUser(ctx, userID); err != nil {
			return err
		}
		if c.OwnerID == userID {
			return fmt.Errorf("cannot join your own collection: %w", ErrInvalidOperation)
		}
		if _, ok, err := q.GetMemberRole(ctx, c.ID, userID); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("already a member of collection %s: %w", c.ID, ErrAlreadyExists)
		}
		if n, err := q.CountUserAssociations(ctx, userID); err != nil {
			return err
		} else if n >= s.limits.MaxCollectionsPerUser {
			return fmt.Errorf("user already belongs to %d collections: %w", n, ErrQuotaExceeded)
		}
		if n, err := q.CountMembers(ctx, c.ID); err != nil {
			return err
		} else if n >= s.limits.MaxMembersPerCollection {
			return fmt.Errorf("collection is at its capacity of %d members: %w", s.limits.MaxMembersPerCollection, ErrQuotaExceeded)
		}

		if err := q.AddMembership(ctx, &models.Membership{
			ID:           uuid.New(),
			CollectionID: c.ID,
			UserID:       userID,
			Role:         models.RoleMember,
			CreatedAt:    time.Now().UTC(),
		}); err != nil {
			return err
		}

		entries, err := q.ListEntries(ctx, c.ID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := q.EnsureRating(ctx, userID, e.Item.ID); err != nil {
				return err
			}
		}
		if err := q.TouchCollection(ctx, c.ID); err != nil {
			return err
		}
		joined = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("collection.member_joined", map[string]interface{}{
		"collection_id": joined.ID,
		"user_id":       userID,
	})
	return joined, nil
}

// Leave removes the user's shared access. Entries the user added are deleted
// with it, which is why cleanup afterwards covers both the leaver (against
// everything that was in the collection) and the remaining members (against
// the items that just disappeared). Owners cannot leave; they delete.
func (s *Service) Leave(ctx context.Context, userID, collectionID uuid.UUID) error {
	return s.removeFromCollection(ctx, collectionID, userID, userID)
}

// RemoveMember is the owner-initiated variant of Leave with identical
// cleanup semantics.
func (s *Service) RemoveMember(ctx context.Context, actorID, collectionID, targetID uuid.UUID) error {
	c, err := getCollection(ctx, s.store, collectionID)
	if err != nil {
		return err
	}
	if c.OwnerID != actorID {
		return fmt.Errorf("only the owner may remove members from collection %s: %w", collectionID, ErrForbidden)
	}
	return s.removeFromCollection(ctx, collectionID, targetID, actorID)
}

func (s *Service) removeFromCollection(ctx context.Context, collectionID, departingID, actorID uuid.UUID) error {
	var (
		allItems     []uuid.UUID
		removedItems []uuid.UUID
		remaining    []MemberInfo
	)
	err := s.store.ExecTx(ctx, func(q Querier) error {
		c, err := getCollection(ctx, q, collectionID)
		if err != nil {
			return err
		}
		if c.OwnerID == departingID {
			return fmt.Errorf("the owner cannot leave collection %s, delete it instead: %w", collectionID, ErrInvalidOperation)
		}

		entries, err := q.ListEntries(ctx, collectionID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			allItems = append(allItems, e.Item.ID)
		}

		if removedItems, err = q.DeleteEntriesByAdder(ctx, collectionID, departingID); err != nil {
			return err
		}
		ok, err := q.DeleteMembership(ctx, collectionID, departingID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %s has no shared access to collection %s: %w", departingID, collectionID, ErrNotFound)
		}
		if remaining, err = q.ListMembers(ctx, collectionID); err != nil {
			return err
		}
		return q.TouchCollection(ctx, collectionID)
	})
	if err != nil {
		return err
	}

	s.scheduleCleanup(ctx, departingID, allItems)
	for _, m := range remaining {
		s.scheduleCleanup(ctx, m.UserID, removedItems)
	}
	s.broadcast("collection.member_left", map[string]interface{}{
		"collection_id": collectionID,
		"user_id":       departingID,
	})
	return nil
}

// Members lists the owner and shared users of a collection. Owner only.
func (s *Service) Members(ctx context.Context, actorID, collectionID uuid.UUID) ([]MemberInfo, error) {
	c, err := getCollection(ctx, s.store, collectionID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != actorID {
		return nil, fmt.Errorf("only the owner may list members of collection %s: %w", collectionID, ErrForbidden)
	}
	return s.store.ListMembers(ctx, collectionID)
}
