package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/whirlwatch/whirlwatch/internal/auth"
	"github.com/whirlwatch/whirlwatch/internal/config"
	"github.com/whirlwatch/whirlwatch/internal/db"
	"github.com/whirlwatch/whirlwatch/internal/httputil"
	"github.com/whirlwatch/whirlwatch/internal/metadata"
	"github.com/whirlwatch/whirlwatch/internal/settings"
	"github.com/whirlwatch/whirlwatch/internal/sharecode"
	"github.com/whirlwatch/whirlwatch/internal/users"
	"github.com/whirlwatch/whirlwatch/internal/version"
	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

type Server struct {
	config   *config.Config
	db       *db.DB
	svc      *watchlist.Service
	enricher metadata.Enricher
	users    *users.Handler
	wsHub    *WSHub
	validate *validator.Validate
	router   chi.Router
}

func NewServer(cfg *config.Config, database *db.DB, svc *watchlist.Service, enricher metadata.Enricher) *Server {
	s := &Server{
		config:   cfg,
		db:       database,
		svc:      svc,
		enricher: enricher,
		users:    users.NewHandler(users.NewRepository(database.DB)),
		wsHub:    NewWSHub(),
		validate: validator.New(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) WSHub() *WSHub { return s.wsHub }

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	authmw := auth.NewMiddleware(s.db.DB)

	r.Route("/api/v1", func(r chi.Router) {
		// Provisioning stays open so the first account can be created.
		r.Mount("/signup", s.users.PublicRouter())

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireUser)

			r.Mount("/users", s.users.Router())
			// Settings writes are open to any authenticated user; there is
			// no role model here. Deployments that need operator-only
			// settings restrict this path at the fronting auth layer.
			r.Mount("/settings", settings.NewHandler(settings.NewRepository(s.db.DB)).Router())
			r.Get("/limits", s.handleLimits)
			r.Get("/ws", s.handleWebSocket)

			r.Route("/collections", func(r chi.Router) {
				r.Get("/", s.handleListCollections)
				r.Post("/", s.handleCreateCollection)
				r.Post("/join", s.handleJoin)

				r.Route("/{collectionID}", func(r chi.Router) {
					r.Get("/", s.handleGetCollection)
					r.Put("/", s.handleUpdateCollection)
					r.Delete("/", s.handleDeleteCollection)
					r.Get("/share-code", s.handleShareCode)
					r.Post("/leave", s.handleLeave)
					r.Get("/members", s.handleListMembers)
					r.Delete("/members/{userID}", s.handleRemoveMember)

					r.Post("/entries", s.handleAddEntry)
					r.Delete("/entries/{entryID}", s.handleRemoveEntry)
					r.Delete("/entries", s.handleRemoveEntryByExternal)

					r.Get("/ratings/me", s.handleMyRatings)
					r.Get("/items/{itemID}/ratings", s.handleItemRatings)
					r.Get("/items/{itemID}/average", s.handleAverageRating)
				})
			})

			r.Route("/items/{itemID}", func(r chi.Router) {
				r.Put("/rating", s.handleSetRating)
				r.Get("/average", s.handleGlobalAverage)
			})
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.svc.Limits())
}

// writeServiceError translates engine errors into wire responses. Anything
// unrecognized is logged and reported as a 500 without leaking detail.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, watchlist.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, watchlist.ErrForbidden):
		httputil.WriteError(w, http.StatusForbidden, "FORBIDDEN", "not a member or insufficient role")
	case errors.Is(err, watchlist.ErrInvalidOperation):
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_OPERATION", err.Error())
	case errors.Is(err, watchlist.ErrQuotaExceeded):
		httputil.WriteError(w, http.StatusBadRequest, "QUOTA_EXCEEDED", err.Error())
	case errors.Is(err, watchlist.ErrAlreadyExists):
		httputil.WriteError(w, http.StatusConflict, "CONFLICT", "resource already exists")
	case errors.Is(err, sharecode.ErrExhausted):
		log.Printf("[api] share code generation exhausted: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not allocate share code")
	default:
		log.Printf("[api] internal error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
