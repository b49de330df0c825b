package metadata

import (
	"context"

	"github.com/whirlwatch/whirlwatch/internal/models"
)

// ItemDetails is display metadata for a catalog item, fetched from an
// external provider. Enrichment is best-effort: callers treat a nil result
// as "no metadata available" and never fail the underlying operation.
type ItemDetails struct {
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterPath  string   `json:"poster_path"`
	ReleaseDate string   `json:"release_date"`
	VoteAverage float64  `json:"vote_average"`
	Genres      []string `json:"genres,omitempty"`
}

type Enricher interface {
	Enrich(ctx context.Context, externalID string, kind models.MediaKind) (*ItemDetails, error)
}

// Noop is used when no provider is configured.
type Noop struct{}

func (Noop) Enrich(ctx context.Context, externalID string, kind models.MediaKind) (*ItemDetails, error) {
	return nil, nil
}
