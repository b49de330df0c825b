package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/whirlwatch/whirlwatch/internal/httputil"
	"github.com/whirlwatch/whirlwatch/internal/metadata"
	"github.com/whirlwatch/whirlwatch/internal/models"
	"github.com/whirlwatch/whirlwatch/internal/sharecode"
	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", fmt.Errorf("collection x: %w", watchlist.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", fmt.Errorf("user y: %w", watchlist.ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{"invalid", fmt.Errorf("owner cannot leave: %w", watchlist.ErrInvalidOperation), http.StatusBadRequest, "INVALID_OPERATION"},
		{"quota", fmt.Errorf("at capacity: %w", watchlist.ErrQuotaExceeded), http.StatusBadRequest, "QUOTA_EXCEEDED"},
		{"conflict", watchlist.ErrAlreadyExists, http.StatusConflict, "CONFLICT"},
		{"exhausted", sharecode.ErrExhausted, http.StatusInternalServerError, "INTERNAL"},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp httputil.Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if resp.Error == nil {
				t.Fatal("no error body")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestSetRatingRequestDecode(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		ratingSet bool
		isNull    bool
	}{
		{"absent", `{"watch_status":"completed"}`, false, false},
		{"explicit null", `{"rating":null}`, true, true},
		{"value", `{"rating":8}`, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req setRatingRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatal(err)
			}
			gotSet := req.Rating != nil
			if gotSet != tt.ratingSet {
				t.Errorf("key present = %v, want %v", gotSet, tt.ratingSet)
			}
			if gotSet && (string(req.Rating) == "null") != tt.isNull {
				t.Errorf("null detection mismatch for %q", tt.body)
			}
		})
	}
}

type stubEnricher struct {
	fail map[string]bool
}

func (e stubEnricher) Enrich(ctx context.Context, externalID string, kind models.MediaKind) (*metadata.ItemDetails, error) {
	if e.fail[externalID] {
		return nil, errors.New("provider down")
	}
	return &metadata.ItemDetails{Title: "title " + externalID}, nil
}

func TestEnrichEntriesDegradesPerEntry(t *testing.T) {
	s := &Server{enricher: stubEnricher{fail: map[string]bool{"tt2": true}}}
	entries := []watchlist.EntryWithItem{
		{Item: models.CatalogItem{ExternalID: "tt1", Kind: models.KindMovie}},
		{Item: models.CatalogItem{ExternalID: "tt2", Kind: models.KindSeries}},
	}

	got := s.enrichEntries(context.Background(), entries)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Details == nil || got[0].Details.Title != "title tt1" {
		t.Errorf("details[0] = %+v, want enriched", got[0].Details)
	}
	// The failed lookup degrades that entry to identifiers only.
	if got[1].Details != nil {
		t.Errorf("details[1] = %+v, want nil", got[1].Details)
	}
	if got[1].Item.ExternalID != "tt2" {
		t.Errorf("item[1] = %q, identifiers must survive", got[1].Item.ExternalID)
	}
}
