package watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
	"github.com/whirlwatch/whirlwatch/internal/sharecode"
)

// CreateCollection creates a collection owned by ownerID, allocates its share
// code, and writes the owner membership row in the same transaction.
func (s *Service) CreateCollection(ctx context.Context, ownerID uuid.UUID, name, description string) (*models.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name is required: %w", ErrInvalidOperation)
	}

	var created *models.Collection
	err := s.store.ExecTx(ctx, func(q Querier) error {
		if err := q.LockUser(ctx, ownerID); err != nil {
			return err
		}
		n, err := q.CountUserAssociations(ctx, ownerID)
		if err != nil {
			return err
		}
		if n >= s.limits.MaxCollectionsPerUser {
			return fmt.Errorf("user already belongs to %d collections: %w", n, ErrQuotaExceeded)
		}

		gen := sharecode.NewGenerator(func(ctx context.Context, code string) (bool, error) {
			return q.ShareCodeExists(ctx, code)
		})
		code, err := gen.Generate(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		c := &models.Collection{
			ID:            uuid.New(),
			Name:          name,
			Description:   description,
			OwnerID:       ownerID,
			ShareCode:     code,
			CreatedAt:     now,
			LastUpdatedAt: now,
		}
		if err := q.CreateCollection(ctx, c); err != nil {
			return err
		}
		if err := q.AddMembership(ctx, &models.Membership{
			ID:           uuid.New(),
			CollectionID: c.ID,
			UserID:       ownerID,
			Role:         models.RoleOwner,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("collection.created", created)
	return created, nil
}

// ListCollections returns every collection the user owns or has joined.
// Share codes are withheld from rows where the user is not the owner, same
// as the detail view.
func (s *Service) ListCollections(ctx context.Context, userID uuid.UUID) ([]CollectionSummary, error) {
	list, err := s.store.ListCollectionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Role != models.RoleOwner {
			list[i].ShareCode = ""
		}
	}
	return list, nil
}

// CollectionDetail is the full single-collection view for one caller.
type CollectionDetail struct {
	models.Collection
	Role    models.MemberRole `json:"role"`
	Entries []EntryWithItem   `json:"entries"`
}

// GetCollection returns the collection with its entries, for members only.
// The share code is withheld from non-owners.
func (s *Service) GetCollection(ctx context.Context, actorID, collectionID uuid.UUID) (*CollectionDetail, error) {
	c, err := getCollection(ctx, s.store, collectionID)
	if err != nil {
		return nil, err
	}
	role, err := requireMember(ctx, s.store, collectionID, actorID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntries(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	detail := &CollectionDetail{Collection: *c, Role: role, Entries: entries}
	if role != models.RoleOwner {
		detail.ShareCode = ""
	}
	return detail, nil
}

// ShareCode returns the collection's join code. Owner only.
func (s *Service) ShareCode(ctx context.Context, actorID, collectionID uuid.UUID) (string, error) {
	c, err := getCollection(ctx, s.store, collectionID)
	if err != nil {
		return "", err
	}
	if c.OwnerID != actorID {
		return "", fmt.Errorf("only the owner may share collection %s: %w", collectionID, ErrForbidden)
	}
	return c.ShareCode, nil
}

// UpdateCollection changes name and/or description. Owner only. Nil fields
// are left untouched.
func (s *Service) UpdateCollection(ctx context.Context, actorID, collectionID uuid.UUID, name, description *string) (*models.Collection, error) {
	var updated *models.Collection
	err := s.store.ExecTx(ctx, func(q Querier) error {
		c, err := getCollection(ctx, q, collectionID)
		if err != nil {
			return err
		}
		if c.OwnerID != actorID {
			return fmt.Errorf("only the owner may modify collection %s: %w", collectionID, ErrForbidden)
		}
		if name != nil {
			if *name == "" {
				return fmt.Errorf("collection name is required: %w", ErrInvalidOperation)
			}
			c.Name = *name
		}
		if description != nil {
			c.Description = *description
		}
		if err := q.UpdateCollectionMeta(ctx, c.ID, c.Name, c.Description); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("collection.updated", updated)
	return updated, nil
}

// DeleteCollection removes the collection, its entries, and all membership
// rows, then cleans now-orphaned ratings for every former member. Owner only.
func (s *Service) DeleteCollection(ctx context.Context, actorID, collectionID uuid.UUID) error {
	var (
		members []MemberInfo
		itemIDs []uuid.UUID
	)
	err := s.store.ExecTx(ctx, func(q Querier) error {
		c, err := getCollection(ctx, q, collectionID)
		if err != nil {
			return err
		}
		if c.OwnerID != actorID {
			return fmt.Errorf("only the owner may delete collection %s: %w", collectionID, ErrForbidden)
		}
		if members, err = q.ListMembers(ctx, collectionID); err != nil {
			return err
		}
		if itemIDs, err = q.DeleteEntriesByCollection(ctx, collectionID); err != nil {
			return err
		}
		return q.DeleteCollection(ctx, collectionID)
	})
	if err != nil {
		return err
	}

	// Every (former member, item) pair may now be orphaned. Evaluated after
	// commit with a fresh read, per the cleanup contract.
	for _, m := range members {
		s.scheduleCleanup(ctx, m.UserID, itemIDs)
	}
	s.broadcast("collection.deleted", map[string]interface{}{"id": collectionID})
	return nil
}
