package watchlist

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
)

// memStore is an in-memory Store. ExecTx serializes transactions under one
// mutex, which stands in for the row locks the Postgres implementation takes.
type memStore struct {
	mu   sync.Mutex
	data *memData
}

type ratingKey struct {
	userID uuid.UUID
	itemID uuid.UUID
}

type memData struct {
	users       map[uuid.UUID]*models.User
	items       map[uuid.UUID]*models.CatalogItem
	collections map[uuid.UUID]*models.Collection
	memberships map[uuid.UUID]*models.Membership
	entries     map[uuid.UUID]*models.CollectionEntry
	ratings     map[ratingKey]*models.UserRating
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		users:       make(map[uuid.UUID]*models.User),
		items:       make(map[uuid.UUID]*models.CatalogItem),
		collections: make(map[uuid.UUID]*models.Collection),
		memberships: make(map[uuid.UUID]*models.Membership),
		entries:     make(map[uuid.UUID]*models.CollectionEntry),
		ratings:     make(map[ratingKey]*models.UserRating),
	}}
}

func (s *memStore) addUser(username string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	s.data.users[u.ID] = u
	return u.ID
}

func (s *memStore) ExecTx(ctx context.Context, fn func(q Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Reads outside a transaction take the same lock.

func (s *memStore) ResolveCatalogItem(ctx context.Context, externalID string, kind models.MediaKind) (*models.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ResolveCatalogItem(ctx, externalID, kind)
}

func (s *memStore) GetCatalogItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetCatalogItem(ctx, id)
}

func (s *memStore) GetCatalogItemByExternal(ctx context.Context, externalID string, kind models.MediaKind) (*models.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetCatalogItemByExternal(ctx, externalID, kind)
}

func (s *memStore) CreateCollection(ctx context.Context, c *models.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CreateCollection(ctx, c)
}

func (s *memStore) GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetCollection(ctx, id)
}

func (s *memStore) GetCollectionByShareCode(ctx context.Context, code string) (*models.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetCollectionByShareCode(ctx, code)
}

func (s *memStore) UpdateCollectionMeta(ctx context.Context, id uuid.UUID, name, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UpdateCollectionMeta(ctx, id, name, description)
}

func (s *memStore) TouchCollection(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.TouchCollection(ctx, id)
}

func (s *memStore) TouchCollectionsForItem(ctx context.Context, itemID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.TouchCollectionsForItem(ctx, itemID, userID)
}

func (s *memStore) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteCollection(ctx, id)
}

func (s *memStore) ShareCodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ShareCodeExists(ctx, code)
}

func (s *memStore) ListCollectionsForUser(ctx context.Context, userID uuid.UUID) ([]CollectionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListCollectionsForUser(ctx, userID)
}

func (s *memStore) LockCollection(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LockCollection(ctx, id)
}

func (s *memStore) LockUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LockUser(ctx, id)
}

func (s *memStore) AddMembership(ctx context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.AddMembership(ctx, m)
}

func (s *memStore) DeleteMembership(ctx context.Context, collectionID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteMembership(ctx, collectionID, userID)
}

func (s *memStore) GetMemberRole(ctx context.Context, collectionID, userID uuid.UUID) (models.MemberRole, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetMemberRole(ctx, collectionID, userID)
}

func (s *memStore) ListMembers(ctx context.Context, collectionID uuid.UUID) ([]MemberInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListMembers(ctx, collectionID)
}

func (s *memStore) CountMembers(ctx context.Context, collectionID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CountMembers(ctx, collectionID)
}

func (s *memStore) CountUserAssociations(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CountUserAssociations(ctx, userID)
}

func (s *memStore) CreateEntry(ctx context.Context, e *models.CollectionEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CreateEntry(ctx, e)
}

func (s *memStore) GetEntryByID(ctx context.Context, collectionID, entryID uuid.UUID) (*models.CollectionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetEntryByID(ctx, collectionID, entryID)
}

func (s *memStore) GetEntryByItem(ctx context.Context, collectionID, itemID uuid.UUID) (*models.CollectionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetEntryByItem(ctx, collectionID, itemID)
}

func (s *memStore) ListEntries(ctx context.Context, collectionID uuid.UUID) ([]EntryWithItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListEntries(ctx, collectionID)
}

func (s *memStore) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteEntry(ctx, id)
}

func (s *memStore) DeleteEntriesByAdder(ctx context.Context, collectionID, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteEntriesByAdder(ctx, collectionID, userID)
}

func (s *memStore) DeleteEntriesByCollection(ctx context.Context, collectionID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteEntriesByCollection(ctx, collectionID)
}

func (s *memStore) GetRating(ctx context.Context, userID, itemID uuid.UUID) (*models.UserRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetRating(ctx, userID, itemID)
}

func (s *memStore) EnsureRating(ctx context.Context, userID, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.EnsureRating(ctx, userID, itemID)
}

func (s *memStore) SaveRating(ctx context.Context, r *models.UserRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SaveRating(ctx, r)
}

func (s *memStore) DeleteRatingIfOrphan(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteRatingIfOrphan(ctx, userID, itemID)
}

func (s *memStore) DeleteAllOrphanRatings(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteAllOrphanRatings(ctx)
}

func (s *memStore) ListUserRatingsForCollection(ctx context.Context, userID, collectionID uuid.UUID) ([]models.UserRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListUserRatingsForCollection(ctx, userID, collectionID)
}

func (s *memStore) ListMemberRatingsForItem(ctx context.Context, collectionID, itemID uuid.UUID) ([]models.MemberRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListMemberRatingsForItem(ctx, collectionID, itemID)
}

func (s *memStore) AverageRating(ctx context.Context, itemID uuid.UUID, collectionID *uuid.UUID) (models.RatingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.AverageRating(ctx, itemID, collectionID)
}

// ──────────────────── memData: the unlocked Querier ────────────────────

func (d *memData) ResolveCatalogItem(ctx context.Context, externalID string, kind models.MediaKind) (*models.CatalogItem, error) {
	for _, it := range d.items {
		if it.ExternalID == externalID && it.Kind == kind {
			cp := *it
			return &cp, nil
		}
	}
	it := &models.CatalogItem{
		ID:         uuid.New(),
		ExternalID: externalID,
		Kind:       kind,
		CreatedAt:  time.Now().UTC(),
	}
	d.items[it.ID] = it
	cp := *it
	return &cp, nil
}

func (d *memData) GetCatalogItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	it, ok := d.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (d *memData) GetCatalogItemByExternal(ctx context.Context, externalID string, kind models.MediaKind) (*models.CatalogItem, error) {
	for _, it := range d.items {
		if it.ExternalID == externalID && it.Kind == kind {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *memData) CreateCollection(ctx context.Context, c *models.Collection) error {
	for _, existing := range d.collections {
		if strings.EqualFold(existing.ShareCode, c.ShareCode) {
			return ErrAlreadyExists
		}
	}
	cp := *c
	d.collections[c.ID] = &cp
	return nil
}

func (d *memData) GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	c, ok := d.collections[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (d *memData) GetCollectionByShareCode(ctx context.Context, code string) (*models.Collection, error) {
	for _, c := range d.collections {
		if strings.EqualFold(c.ShareCode, code) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *memData) UpdateCollectionMeta(ctx context.Context, id uuid.UUID, name, description string) error {
	c, ok := d.collections[id]
	if !ok {
		return ErrNotFound
	}
	c.Name = name
	c.Description = description
	c.LastUpdatedAt = time.Now().UTC()
	return nil
}

func (d *memData) TouchCollection(ctx context.Context, id uuid.UUID) error {
	c, ok := d.collections[id]
	if !ok {
		return ErrNotFound
	}
	c.LastUpdatedAt = time.Now().UTC()
	return nil
}

func (d *memData) TouchCollectionsForItem(ctx context.Context, itemID, userID uuid.UUID) error {
	for _, e := range d.entries {
		if e.CatalogItemID != itemID {
			continue
		}
		if _, ok, _ := d.GetMemberRole(ctx, e.CollectionID, userID); ok {
			if c, found := d.collections[e.CollectionID]; found {
				c.LastUpdatedAt = time.Now().UTC()
			}
		}
	}
	return nil
}

func (d *memData) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	delete(d.collections, id)
	for mid, m := range d.memberships {
		if m.CollectionID == id {
			delete(d.memberships, mid)
		}
	}
	for eid, e := range d.entries {
		if e.CollectionID == id {
			delete(d.entries, eid)
		}
	}
	return nil
}

func (d *memData) ShareCodeExists(ctx context.Context, code string) (bool, error) {
	for _, c := range d.collections {
		if strings.EqualFold(c.ShareCode, code) {
			return true, nil
		}
	}
	return false, nil
}

func (d *memData) ListCollectionsForUser(ctx context.Context, userID uuid.UUID) ([]CollectionSummary, error) {
	var out []CollectionSummary
	for _, m := range d.memberships {
		if m.UserID != userID {
			continue
		}
		c := d.collections[m.CollectionID]
		members, _ := d.CountMembers(ctx, c.ID)
		entryCount := 0
		for _, e := range d.entries {
			if e.CollectionID == c.ID {
				entryCount++
			}
		}
		out = append(out, CollectionSummary{
			Collection:  *c,
			Role:        m.Role,
			MemberCount: members,
			EntryCount:  entryCount,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdatedAt.After(out[j].LastUpdatedAt)
	})
	return out, nil
}

func (d *memData) LockCollection(ctx context.Context, id uuid.UUID) error {
	if _, ok := d.collections[id]; !ok {
		return ErrNotFound
	}
	return nil
}

func (d *memData) LockUser(ctx context.Context, id uuid.UUID) error {
	if _, ok := d.users[id]; !ok {
		return ErrNotFound
	}
	return nil
}

func (d *memData) AddMembership(ctx context.Context, m *models.Membership) error {
	for _, existing := range d.memberships {
		if existing.CollectionID == m.CollectionID && existing.UserID == m.UserID {
			return ErrAlreadyExists
		}
	}
	cp := *m
	d.memberships[m.ID] = &cp
	return nil
}

func (d *memData) DeleteMembership(ctx context.Context, collectionID, userID uuid.UUID) (bool, error) {
	for id, m := range d.memberships {
		if m.CollectionID == collectionID && m.UserID == userID && m.Role == models.RoleMember {
			delete(d.memberships, id)
			return true, nil
		}
	}
	return false, nil
}

func (d *memData) GetMemberRole(ctx context.Context, collectionID, userID uuid.UUID) (models.MemberRole, bool, error) {
	for _, m := range d.memberships {
		if m.CollectionID == collectionID && m.UserID == userID {
			return m.Role, true, nil
		}
	}
	return "", false, nil
}

func (d *memData) ListMembers(ctx context.Context, collectionID uuid.UUID) ([]MemberInfo, error) {
	var out []MemberInfo
	for _, m := range d.memberships {
		if m.CollectionID != collectionID {
			continue
		}
		u := d.users[m.UserID]
		out = append(out, MemberInfo{
			UserID:   m.UserID,
			Username: u.Username,
			Email:    u.Email,
			Role:     m.Role,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role == models.RoleOwner
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (d *memData) CountMembers(ctx context.Context, collectionID uuid.UUID) (int, error) {
	n := 0
	for _, m := range d.memberships {
		if m.CollectionID == collectionID {
			n++
		}
	}
	return n, nil
}

func (d *memData) CountUserAssociations(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, m := range d.memberships {
		if m.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (d *memData) CreateEntry(ctx context.Context, e *models.CollectionEntry) (bool, error) {
	for _, existing := range d.entries {
		if existing.CollectionID == e.CollectionID && existing.CatalogItemID == e.CatalogItemID {
			return false, nil
		}
	}
	cp := *e
	d.entries[e.ID] = &cp
	return true, nil
}

func (d *memData) GetEntryByID(ctx context.Context, collectionID, entryID uuid.UUID) (*models.CollectionEntry, error) {
	e, ok := d.entries[entryID]
	if !ok || e.CollectionID != collectionID {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (d *memData) GetEntryByItem(ctx context.Context, collectionID, itemID uuid.UUID) (*models.CollectionEntry, error) {
	for _, e := range d.entries {
		if e.CollectionID == collectionID && e.CatalogItemID == itemID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *memData) ListEntries(ctx context.Context, collectionID uuid.UUID) ([]EntryWithItem, error) {
	var out []EntryWithItem
	for _, e := range d.entries {
		if e.CollectionID != collectionID {
			continue
		}
		out = append(out, EntryWithItem{Entry: *e, Item: *d.items[e.CatalogItemID]})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Entry.AddedAt.Before(out[j].Entry.AddedAt)
	})
	return out, nil
}

func (d *memData) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if _, ok := d.entries[id]; !ok {
		return ErrNotFound
	}
	delete(d.entries, id)
	return nil
}

func (d *memData) DeleteEntriesByAdder(ctx context.Context, collectionID, userID uuid.UUID) ([]uuid.UUID, error) {
	var removed []uuid.UUID
	for id, e := range d.entries {
		if e.CollectionID == collectionID && e.AddedByID == userID {
			removed = append(removed, e.CatalogItemID)
			delete(d.entries, id)
		}
	}
	return removed, nil
}

func (d *memData) DeleteEntriesByCollection(ctx context.Context, collectionID uuid.UUID) ([]uuid.UUID, error) {
	var removed []uuid.UUID
	for id, e := range d.entries {
		if e.CollectionID == collectionID {
			removed = append(removed, e.CatalogItemID)
			delete(d.entries, id)
		}
	}
	return removed, nil
}

func (d *memData) GetRating(ctx context.Context, userID, itemID uuid.UUID) (*models.UserRating, error) {
	r, ok := d.ratings[ratingKey{userID, itemID}]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (d *memData) EnsureRating(ctx context.Context, userID, itemID uuid.UUID) error {
	key := ratingKey{userID, itemID}
	if _, ok := d.ratings[key]; ok {
		return nil
	}
	now := time.Now().UTC()
	d.ratings[key] = &models.UserRating{
		ID:            uuid.New(),
		UserID:        userID,
		CatalogItemID: itemID,
		WatchStatus:   models.StatusNotWatched,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return nil
}

func (d *memData) SaveRating(ctx context.Context, r *models.UserRating) error {
	cp := *r
	d.ratings[ratingKey{r.UserID, r.CatalogItemID}] = &cp
	return nil
}

func (d *memData) ratingIsOrphan(userID, itemID uuid.UUID) bool {
	for _, e := range d.entries {
		if e.CatalogItemID != itemID {
			continue
		}
		if _, member, _ := d.GetMemberRole(context.Background(), e.CollectionID, userID); member {
			return false
		}
	}
	return true
}

func (d *memData) DeleteRatingIfOrphan(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	key := ratingKey{userID, itemID}
	if _, ok := d.ratings[key]; !ok {
		return false, nil
	}
	if !d.ratingIsOrphan(userID, itemID) {
		return false, nil
	}
	delete(d.ratings, key)
	return true, nil
}

func (d *memData) DeleteAllOrphanRatings(ctx context.Context) (int64, error) {
	var n int64
	for key := range d.ratings {
		if d.ratingIsOrphan(key.userID, key.itemID) {
			delete(d.ratings, key)
			n++
		}
	}
	return n, nil
}

func (d *memData) ListUserRatingsForCollection(ctx context.Context, userID, collectionID uuid.UUID) ([]models.UserRating, error) {
	var out []models.UserRating
	for _, e := range d.entries {
		if e.CollectionID != collectionID {
			continue
		}
		if r, ok := d.ratings[ratingKey{userID, e.CatalogItemID}]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (d *memData) ListMemberRatingsForItem(ctx context.Context, collectionID, itemID uuid.UUID) ([]models.MemberRating, error) {
	members, _ := d.ListMembers(ctx, collectionID)
	var out []models.MemberRating
	for _, m := range members {
		mr := models.MemberRating{
			UserID:      m.UserID,
			Username:    m.Username,
			WatchStatus: models.StatusNotWatched,
		}
		if r, ok := d.ratings[ratingKey{m.UserID, itemID}]; ok {
			mr.WatchStatus = r.WatchStatus
			mr.Rating = r.Rating
		}
		out = append(out, mr)
	}
	return out, nil
}

func (d *memData) AverageRating(ctx context.Context, itemID uuid.UUID, collectionID *uuid.UUID) (models.RatingSummary, error) {
	sum, count := 0, 0
	for _, r := range d.ratings {
		if r.CatalogItemID != itemID || r.Rating == nil {
			continue
		}
		if collectionID != nil {
			if _, member, _ := d.GetMemberRole(ctx, *collectionID, r.UserID); !member {
				continue
			}
		}
		sum += *r.Rating
		count++
	}
	if count == 0 {
		return models.RatingSummary{Count: 0}, nil
	}
	avg := float64(sum) / float64(count)
	return models.RatingSummary{Average: &avg, Count: count}, nil
}
