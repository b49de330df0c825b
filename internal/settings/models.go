package settings

import "time"

// Keys recognized by config.MergeFromDB. Unknown keys are stored but have no
// effect until something reads them.
const (
	KeyMaxMembersPerCollection = "max_members_per_collection"
	KeyMaxCollectionsPerUser   = "max_collections_per_user"
	KeyTMDBAPIKey              = "tmdb_api_key"
	KeyWebhookURL              = "webhook_url"
	KeyCleanupSweepSchedule    = "cleanup_sweep_schedule"
)

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
