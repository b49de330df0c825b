package api

import (
	"context"
	"log"
	"net/http"

	"github.com/whirlwatch/whirlwatch/internal/auth"
	"github.com/whirlwatch/whirlwatch/internal/httputil"
	"github.com/whirlwatch/whirlwatch/internal/metadata"
	"github.com/whirlwatch/whirlwatch/internal/models"
	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

type addEntryRequest struct {
	ExternalID string `json:"external_id" validate:"required,max=64"`
	Kind       string `json:"kind" validate:"required,oneof=movie tv"`
}

type entryResponse struct {
	*watchlist.EntryWithItem
	Details *metadata.ItemDetails `json:"details,omitempty"`
}

// enrichEntries decorates entries with provider metadata. A failed lookup
// degrades that entry to its bare identifiers; it is logged, never surfaced.
func (s *Server) enrichEntries(ctx context.Context, entries []watchlist.EntryWithItem) []entryResponse {
	out := make([]entryResponse, len(entries))
	for i := range entries {
		e := &entries[i]
		out[i] = entryResponse{EntryWithItem: e}
		details, err := s.enricher.Enrich(ctx, e.Item.ExternalID, e.Item.Kind)
		if err != nil {
			log.Printf("[api] enrich %s/%s: %v", e.Item.Kind, e.Item.ExternalID, err)
			continue
		}
		out[i].Details = details
	}
	return out
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	var req addEntryRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	kind := models.MediaKind(req.Kind)
	entry, err := s.svc.AddEntry(r.Context(), caller.UserID, collectionID, req.ExternalID, kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := entryResponse{EntryWithItem: entry}
	// Metadata is decoration. A provider failure never fails the add.
	if details, derr := s.enricher.Enrich(r.Context(), req.ExternalID, kind); derr != nil {
		log.Printf("[api] enrich %s/%s: %v", kind, req.ExternalID, derr)
	} else {
		resp.Details = details
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	entryID, ok := s.urlUUID(w, r, "entryID")
	if !ok {
		return
	}
	if err := s.svc.RemoveEntry(r.Context(), caller.UserID, collectionID, entryID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"removed": entryID.String()})
}

// handleRemoveEntryByExternal removes an entry addressed by its provider id,
// for clients that never learned the entry's row id.
func (s *Server) handleRemoveEntryByExternal(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	externalID := r.URL.Query().Get("external_id")
	kind := models.MediaKind(r.URL.Query().Get("kind"))
	if externalID == "" || !kind.Valid() {
		httputil.WriteError(w, http.StatusBadRequest, "VALIDATION", "external_id and kind query params required")
		return
	}
	if err := s.svc.RemoveEntryByExternalID(r.Context(), caller.UserID, collectionID, externalID, kind); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"removed": externalID})
}
