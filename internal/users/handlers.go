package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	authpkg "github.com/whirlwatch/whirlwatch/internal/auth"
	"github.com/whirlwatch/whirlwatch/internal/httputil"
	"github.com/whirlwatch/whirlwatch/internal/models"
	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

type Handler struct {
	repo     *Repository
	validate *validator.Validate
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo, validate: validator.New()}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/me", h.me)
	r.Get("/{id}", h.getByID)
	r.Delete("/{id}", h.delete)
	return r
}

// PublicRouter exposes provisioning without a caller identity, for first-run
// setup before any account exists.
func (h *Handler) PublicRouter() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	return r
}

type createRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	hash, err := authpkg.HashPassword(req.Password)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "VALIDATION", "password does not meet requirements")
		return
	}

	u := &models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        authpkg.NormalizeEmail(req.Email),
		PasswordHash: hash,
	}
	if err := h.repo.Create(r.Context(), u); err != nil {
		if errors.Is(err, watchlist.ErrAlreadyExists) {
			httputil.WriteError(w, http.StatusConflict, "CONFLICT", "username or email already taken")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to create user")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to list users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	caller := authpkg.UserFromContext(r.Context())
	if caller == nil {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}
	u, err := h.repo.GetByID(r.Context(), caller.UserID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "malformed user id")
		return
	}
	u, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	caller := authpkg.UserFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "malformed user id")
		return
	}
	if caller == nil || caller.UserID != id {
		httputil.WriteError(w, http.StatusForbidden, "FORBIDDEN", "cannot delete this user")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, watchlist.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": id.String()})
}
