package watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
)

// AddEntry places an externally identified title in the collection. The
// catalog item is resolved (or created) first, so concurrent adds of the same
// title across collections share one canonical row. Adding a title already in
// the collection is an idempotent success returning the existing entry. Every
// current member gets a default rating slot for the item.
func (s *Service) AddEntry(ctx context.Context, actorID, collectionID uuid.UUID, externalID string, kind models.MediaKind) (*EntryWithItem, error) {
	if externalID == "" {
		return nil, fmt.Errorf("external id is required: %w", ErrInvalidOperation)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown media kind %q: %w", kind, ErrInvalidOperation)
	}

	var (
		result  *EntryWithItem
		created bool
	)
	err := s.store.ExecTx(ctx, func(q Querier) error {
		if _, err := getCollection(ctx, q, collectionID); err != nil {
			return err
		}
		if _, err := requireMember(ctx, q, collectionID, actorID); err != nil {
			return err
		}

		item, err := q.ResolveCatalogItem(ctx, externalID, kind)
		if err != nil {
			return err
		}

		if existing, err := q.GetEntryByItem(ctx, collectionID, item.ID); err != nil {
			return err
		} else if existing != nil {
			result = &EntryWithItem{Entry: *existing, Item: *item}
			return nil
		}

		now := time.Now().UTC()
		entry := &models.CollectionEntry{
			ID:            uuid.New(),
			CollectionID:  collectionID,
			CatalogItemID: item.ID,
			AddedByID:     actorID,
			AddedAt:       now,
			LastUpdatedAt: now,
		}
		inserted, err := q.CreateEntry(ctx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			// A concurrent add won the insert between the pre-check and
			// here. Same idempotent outcome: return the surviving entry.
			existing, err := q.GetEntryByItem(ctx, collectionID, item.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("entry for item %s: %w", item.ID, ErrNotFound)
			}
			result = &EntryWithItem{Entry: *existing, Item: *item}
			return nil
		}

		members, err := q.ListMembers(ctx, collectionID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if err := q.EnsureRating(ctx, m.UserID, item.ID); err != nil {
				return err
			}
		}
		if err := q.TouchCollection(ctx, collectionID); err != nil {
			return err
		}
		result = &EntryWithItem{Entry: *entry, Item: *item}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.broadcast("collection.entry_added", result)
	}
	return result, nil
}

// RemoveEntry deletes an entry by its id. Any member may remove entries.
func (s *Service) RemoveEntry(ctx context.Context, actorID, collectionID, entryID uuid.UUID) error {
	return s.removeEntry(ctx, actorID, collectionID, func(ctx context.Context, q Querier) (*models.CollectionEntry, error) {
		return q.GetEntryByID(ctx, collectionID, entryID)
	})
}

// RemoveEntryByExternalID deletes an entry addressed by its external catalog
// identity instead of the entry id.
func (s *Service) RemoveEntryByExternalID(ctx context.Context, actorID, collectionID uuid.UUID, externalID string, kind models.MediaKind) error {
	return s.removeEntry(ctx, actorID, collectionID, func(ctx context.Context, q Querier) (*models.CollectionEntry, error) {
		item, err := q.GetCatalogItemByExternal(ctx, externalID, kind)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, nil
		}
		return q.GetEntryByItem(ctx, collectionID, item.ID)
	})
}

func (s *Service) removeEntry(ctx context.Context, actorID, collectionID uuid.UUID, find func(context.Context, Querier) (*models.CollectionEntry, error)) error {
	var (
		itemID  uuid.UUID
		members []MemberInfo
	)
	err := s.store.ExecTx(ctx, func(q Querier) error {
		if _, err := getCollection(ctx, q, collectionID); err != nil {
			return err
		}
		if _, err := requireMember(ctx, q, collectionID, actorID); err != nil {
			return err
		}

		entry, err := find(ctx, q)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("entry not in collection %s: %w", collectionID, ErrNotFound)
		}
		itemID = entry.CatalogItemID

		if err := q.DeleteEntry(ctx, entry.ID); err != nil {
			return err
		}
		if members, err = q.ListMembers(ctx, collectionID); err != nil {
			return err
		}
		return q.TouchCollection(ctx, collectionID)
	})
	if err != nil {
		return err
	}

	for _, m := range members {
		s.scheduleCleanup(ctx, m.UserID, []uuid.UUID{itemID})
	}
	s.broadcast("collection.entry_removed", map[string]interface{}{
		"collection_id":   collectionID,
		"catalog_item_id": itemID,
	})
	return nil
}
