package api

import (
	"encoding/json"
	"net/http"

	"github.com/whirlwatch/whirlwatch/internal/auth"
	"github.com/whirlwatch/whirlwatch/internal/httputil"
	"github.com/whirlwatch/whirlwatch/internal/models"
	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

// setRatingRequest distinguishes "rating": null (an explicit clear) from the
// key being absent, so Rating is kept raw until after decode.
type setRatingRequest struct {
	WatchStatus *string         `json:"watch_status"`
	Rating      json.RawMessage `json:"rating"`
}

func (s *Server) handleSetRating(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	itemID, ok := s.urlUUID(w, r, "itemID")
	if !ok {
		return
	}
	var req setRatingRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	var params watchlist.SetRatingParams
	if req.WatchStatus != nil {
		status := models.WatchStatus(*req.WatchStatus)
		params.WatchStatus = &status
	}
	if req.Rating != nil {
		params.RatingSet = true
		if string(req.Rating) != "null" {
			var v int
			if err := json.Unmarshal(req.Rating, &v); err != nil {
				httputil.WriteError(w, http.StatusBadRequest, "VALIDATION", "rating must be an integer or null")
				return
			}
			params.Rating = &v
		}
	}

	rating, err := s.svc.SetRating(r.Context(), caller.UserID, itemID, params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rating)
}

func (s *Server) handleMyRatings(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	ratings, err := s.svc.MyRatings(r.Context(), caller.UserID, collectionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ratings)
}

func (s *Server) handleItemRatings(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	itemID, ok := s.urlUUID(w, r, "itemID")
	if !ok {
		return
	}
	ratings, summary, err := s.svc.ItemRatings(r.Context(), caller.UserID, collectionID, itemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ratings": ratings,
		"summary": summary,
	})
}

func (s *Server) handleAverageRating(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	itemID, ok := s.urlUUID(w, r, "itemID")
	if !ok {
		return
	}
	summary, err := s.svc.AverageRating(r.Context(), caller.UserID, collectionID, itemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGlobalAverage(w http.ResponseWriter, r *http.Request) {
	itemID, ok := s.urlUUID(w, r, "itemID")
	if !ok {
		return
	}
	summary, err := s.svc.GlobalAverageRating(r.Context(), itemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
