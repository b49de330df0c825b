package models

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────── Enums ────────────────────

type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "tv"
)

func (k MediaKind) Valid() bool {
	return k == KindMovie || k == KindSeries
}

type WatchStatus string

const (
	StatusNotWatched WatchStatus = "not_watched"
	StatusInProgress WatchStatus = "in_progress"
	StatusCompleted  WatchStatus = "completed"
)

func (s WatchStatus) Valid() bool {
	return s == StatusNotWatched || s == StatusInProgress || s == StatusCompleted
}

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

// ──────────────────── User ────────────────────

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ──────────────────── Catalog ────────────────────

// CatalogItem is the canonical record for an externally identified title.
// (external_id, kind) is unique; rows are created lazily and never deleted.
type CatalogItem struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ExternalID string    `json:"external_id" db:"external_id"`
	Kind       MediaKind `json:"kind" db:"kind"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ──────────────────── Collections ────────────────────

type Collection struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	OwnerID       uuid.UUID `json:"owner_id" db:"owner_id"`
	ShareCode     string    `json:"share_code,omitempty" db:"share_code"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at" db:"last_updated_at"`
}

// Membership links a user to a collection. Every collection has exactly one
// owner row; shared users hold member rows. (collection_id, user_id) is unique.
type Membership struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	CollectionID uuid.UUID  `json:"collection_id" db:"collection_id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Role         MemberRole `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// CollectionEntry places a catalog item in a collection.
// (collection_id, catalog_item_id) is unique. AddedByID is validated at
// creation time only; it is not re-checked after the adder leaves.
type CollectionEntry struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CollectionID  uuid.UUID `json:"collection_id" db:"collection_id"`
	CatalogItemID uuid.UUID `json:"catalog_item_id" db:"catalog_item_id"`
	AddedByID     uuid.UUID `json:"added_by_id" db:"added_by_id"`
	AddedAt       time.Time `json:"added_at" db:"added_at"`
	LastUpdatedAt time.Time `json:"last_updated_at" db:"last_updated_at"`
}

// ──────────────────── Ratings ────────────────────

// UserRating is one user's watch status and score for a catalog item. It is
// keyed on (user_id, catalog_item_id), not on any collection entry, so the
// same opinion shows up in every collection containing the item. Rating is
// null unless WatchStatus is completed.
type UserRating struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`
	CatalogItemID uuid.UUID   `json:"catalog_item_id" db:"catalog_item_id"`
	WatchStatus   WatchStatus `json:"watch_status" db:"watch_status"`
	Rating        *int        `json:"rating" db:"rating"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// RatingSummary is the aggregate view over a catalog item: the mean of
// non-null ratings and how many there were. Average is nil when Count is 0.
type RatingSummary struct {
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

// MemberRating pairs a rating with the user it belongs to, for the
// per-collection "what does the group think" view.
type MemberRating struct {
	UserID      uuid.UUID   `json:"user_id"`
	Username    string      `json:"username"`
	WatchStatus WatchStatus `json:"watch_status"`
	Rating      *int        `json:"rating"`
}
