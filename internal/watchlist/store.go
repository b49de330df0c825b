package watchlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
)

// Querier is the data access surface the engine runs on. The Postgres
// implementation lives in internal/repository; tests use an in-memory fake.
type Querier interface {
	// Catalog. ResolveCatalogItem returns the existing row for
	// (externalID, kind) or creates one, safe under concurrent first-time
	// resolution of the same title.
	ResolveCatalogItem(ctx context.Context, externalID string, kind models.MediaKind) (*models.CatalogItem, error)
	GetCatalogItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
	GetCatalogItemByExternal(ctx context.Context, externalID string, kind models.MediaKind) (*models.CatalogItem, error)

	// Collections.
	CreateCollection(ctx context.Context, c *models.Collection) error
	GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error)
	GetCollectionByShareCode(ctx context.Context, code string) (*models.Collection, error)
	UpdateCollectionMeta(ctx context.Context, id uuid.UUID, name, description string) error
	TouchCollection(ctx context.Context, id uuid.UUID) error
	// TouchCollectionsForItem bumps last_updated_at on every collection that
	// contains the item and counts the user as a member.
	TouchCollectionsForItem(ctx context.Context, itemID, userID uuid.UUID) error
	DeleteCollection(ctx context.Context, id uuid.UUID) error
	ShareCodeExists(ctx context.Context, code string) (bool, error)
	ListCollectionsForUser(ctx context.Context, userID uuid.UUID) ([]CollectionSummary, error)

	// Row locks for capacity checks. Read-count-then-insert is not safe under
	// default isolation, so joins lock the collection row and quota checks
	// lock the user row first.
	LockCollection(ctx context.Context, id uuid.UUID) error
	LockUser(ctx context.Context, id uuid.UUID) error

	// Membership.
	AddMembership(ctx context.Context, m *models.Membership) error
	DeleteMembership(ctx context.Context, collectionID, userID uuid.UUID) (bool, error)
	GetMemberRole(ctx context.Context, collectionID, userID uuid.UUID) (models.MemberRole, bool, error)
	ListMembers(ctx context.Context, collectionID uuid.UUID) ([]MemberInfo, error)
	CountMembers(ctx context.Context, collectionID uuid.UUID) (int, error)
	CountUserAssociations(ctx context.Context, userID uuid.UUID) (int, error)

	// Entries.
	// CreateEntry reports whether the row was inserted; false means another
	// transaction already placed the item in the collection.
	CreateEntry(ctx context.Context, e *models.CollectionEntry) (bool, error)
	GetEntryByID(ctx context.Context, collectionID, entryID uuid.UUID) (*models.CollectionEntry, error)
	GetEntryByItem(ctx context.Context, collectionID, itemID uuid.UUID) (*models.CollectionEntry, error)
	ListEntries(ctx context.Context, collectionID uuid.UUID) ([]EntryWithItem, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	// DeleteEntriesByAdder removes every entry the user added to the
	// collection and returns the catalog item ids that were removed.
	DeleteEntriesByAdder(ctx context.Context, collectionID, userID uuid.UUID) ([]uuid.UUID, error)
	DeleteEntriesByCollection(ctx context.Context, collectionID uuid.UUID) ([]uuid.UUID, error)

	// Ratings.
	GetRating(ctx context.Context, userID, itemID uuid.UUID) (*models.UserRating, error)
	// EnsureRating inserts a default (not_watched, null) row if none exists.
	EnsureRating(ctx context.Context, userID, itemID uuid.UUID) error
	SaveRating(ctx context.Context, r *models.UserRating) error
	// DeleteRatingIfOrphan deletes the rating iff no entry for the item
	// survives in any collection the user belongs to. Reports whether a row
	// was deleted.
	DeleteRatingIfOrphan(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	DeleteAllOrphanRatings(ctx context.Context) (int64, error)
	ListUserRatingsForCollection(ctx context.Context, userID, collectionID uuid.UUID) ([]models.UserRating, error)
	ListMemberRatingsForItem(ctx context.Context, collectionID, itemID uuid.UUID) ([]models.MemberRating, error)
	// AverageRating aggregates non-null ratings for the item. A nil
	// collectionID means the global, membership-unscoped variant.
	AverageRating(ctx context.Context, itemID uuid.UUID, collectionID *uuid.UUID) (models.RatingSummary, error)
}

// Store adds the transactional unit of work. Every mutating engine operation
// runs inside exactly one ExecTx call; reads outside a transaction use the
// embedded Querier.
type Store interface {
	Querier
	ExecTx(ctx context.Context, fn func(q Querier) error) error
}

// ──────────────────── View types ────────────────────

// CollectionSummary is one row of a user's collection listing.
type CollectionSummary struct {
	models.Collection
	Role        models.MemberRole `json:"role"`
	MemberCount int               `json:"member_count"`
	EntryCount  int               `json:"entry_count"`
}

// MemberInfo is a membership row joined with the user it points at.
type MemberInfo struct {
	UserID   uuid.UUID         `json:"user_id"`
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Role     models.MemberRole `json:"role"`
}

// EntryWithItem is a collection entry joined with its catalog item.
type EntryWithItem struct {
	Entry models.CollectionEntry `json:"entry"`
	Item  models.CatalogItem     `json:"item"`
}
