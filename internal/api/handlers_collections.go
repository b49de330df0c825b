package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/auth"
	"github.com/whirlwatch/whirlwatch/internal/httputil"
	"github.com/whirlwatch/whirlwatch/internal/models"
)

func (s *Server) urlUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "malformed "+param)
		return uuid.Nil, false
	}
	return id, true
}

type createCollectionRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=80"`
	Description string `json:"description" validate:"max=100"`
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	var req createCollectionRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	col, err := s.svc.CreateCollection(r.Context(), caller.UserID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, col)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	list, err := s.svc.ListCollections(r.Context(), caller.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	detail, err := s.svc.GetCollection(r.Context(), caller.UserID, collectionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, collectionDetailResponse{
		Collection: detail.Collection,
		Role:       detail.Role,
		Entries:    s.enrichEntries(r.Context(), detail.Entries),
	})
}

// collectionDetailResponse is the detail view with provider metadata folded
// into each entry.
type collectionDetailResponse struct {
	models.Collection
	Role    models.MemberRole `json:"role"`
	Entries []entryResponse   `json:"entries"`
}

type updateCollectionRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=80"`
	Description *string `json:"description" validate:"omitempty,max=100"`
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	var req updateCollectionRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	col, err := s.svc.UpdateCollection(r.Context(), caller.UserID, collectionID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, col)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	if err := s.svc.DeleteCollection(r.Context(), caller.UserID, collectionID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": collectionID.String()})
}

func (s *Server) handleShareCode(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	code, err := s.svc.ShareCode(r.Context(), caller.UserID, collectionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"share_code": code})
}

type joinRequest struct {
	ShareCode string `json:"share_code" validate:"required"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	var req joinRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	col, err := s.svc.Join(r.Context(), caller.UserID, req.ShareCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, col)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	if err := s.svc.Leave(r.Context(), caller.UserID, collectionID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"left": collectionID.String()})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	members, err := s.svc.Members(r.Context(), caller.UserID, collectionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, members)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	collectionID, ok := s.urlUUID(w, r, "collectionID")
	if !ok {
		return
	}
	targetID, ok := s.urlUUID(w, r, "userID")
	if !ok {
		return
	}
	if err := s.svc.RemoveMember(r.Context(), caller.UserID, collectionID, targetID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"removed": targetID.String()})
}
