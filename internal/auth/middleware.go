package auth

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/httputil"
)

type contextKey string

const ContextUser contextKey = "user"

type ContextUserData struct {
	UserID   uuid.UUID
	Username string
}

// Middleware resolves the pre-authenticated caller identity. Credential and
// token handling live in the fronting auth layer; it forwards the verified
// user id in the X-Whirlwatch-User header, and this middleware only checks
// the id refers to a real account before injecting it into the context.
type Middleware struct {
	db *sql.DB
}

func NewMiddleware(db *sql.DB) *Middleware {
	return &Middleware{db: db}
}

func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Whirlwatch-User")
		if raw == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "caller identity required")
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "malformed caller identity")
			return
		}

		var username string
		err = m.db.QueryRowContext(r.Context(),
			"SELECT username FROM users WHERE id = $1", userID).Scan(&username)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), ContextUser, ContextUserData{
			UserID:   userID,
			Username: username,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserFromContext(ctx context.Context) *ContextUserData {
	if v, ok := ctx.Value(ContextUser).(ContextUserData); ok {
		return &v
	}
	return nil
}
