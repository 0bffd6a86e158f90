package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/leadflow-crm/api/internal/audit"
	"github.com/leadflow-crm/api/internal/auth"
	"github.com/leadflow-crm/api/internal/config"
	"github.com/leadflow-crm/api/internal/httpx"
	"github.com/leadflow-crm/api/internal/importer"
	"github.com/leadflow-crm/api/internal/middleware"
	"github.com/leadflow-crm/api/internal/store"
)

type Server struct {
	Config   config.Config
	Q        *store.Queries
	Audit    *audit.Logger
	Logger   *slog.Logger
	DB       *pgxpool.Pool
	Importer *importer.Pipeline
}

func NewServer(cfg config.Config, q *store.Queries, auditLogger *audit.Logger, logger *slog.Logger, db *pgxpool.Pool) *Server {
	return &Server{
		Config:   cfg,
		Q:        q,
		Audit:    auditLogger,
		Logger:   logger,
		DB:       db,
		Importer: importer.NewPipeline(importer.NewQueriesStore(q), logger, cfg.ImportMaxRows),
	}
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireActor reads the authenticated actor off the context. Routes behind
// RequireAuth always have one; the check guards direct handler use in tests.
func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (middleware.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
	}
	return actor, ok
}

type LoginRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

type UserView struct {
	ID       string              `json:"id"`
	Email    openapi_types.Email `json:"email"`
	FullName string              `json:"fullName"`
	Role     string              `json:"role"`
	IsActive bool                `json:"isActive"`
}

func newUserView(u store.User) UserView {
	return UserView{
		ID:       u.ID.String(),
		Email:    openapi_types.Email(u.Email),
		FullName: u.FullName,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}

func (s *Server) PostAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}

	user, err := s.Q.GetUserByEmail(r.Context(), string(req.Email))
	if err != nil && !isNoRows(err) {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load user", nil)
		return
	}

	authenticated := false
	if err == nil && user.IsActive {
		ok, verr := auth.VerifyPassword(req.Password, user.PasswordHash)
		if verr != nil {
			httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Password verification failed", nil)
			return
		}
		authenticated = ok
	}
	if !authenticated {
		httpx.WriteError(w, r, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password", nil)
		return
	}

	if old, err := r.Cookie(s.Config.SessionCookieName); err == nil && old.Value != "" {
		_, _ = s.Q.RevokeSessionByTokenHash(r.Context(), auth.HashToken(old.Value))
	}

	sessionToken, err := auth.GenerateToken()
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to create session", nil)
		return
	}
	csrfToken, err := auth.GenerateToken()
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to create CSRF token", nil)
		return
	}

	_, err = s.Q.CreateSession(r.Context(), store.CreateSessionParams{
		UserID:    user.ID,
		TokenHash: auth.HashToken(sessionToken),
		CsrfToken: csrfToken,
		ExpiresAt: time.Now().Add(s.Config.SessionTTL),
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to save session", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.Config.SessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Config.SecureCookies,
		Expires:  time.Now().Add(s.Config.SessionTTL),
	})

	userID := user.ID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &userID,
		Action:     "auth.login",
		EntityType: "session",
	})

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": newUserView(user)})
}

func (s *Server) PostAuthLogout(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	if _, err := s.Q.RevokeSessionByID(r.Context(), actor.SessionID); err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to revoke session", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.Config.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Config.SecureCookies,
		MaxAge:   -1,
	})

	userID := actor.UserID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &userID,
		Action:     "auth.logout",
		EntityType: "session",
	})

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetAuthMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": UserView{
		ID:       actor.UserID.String(),
		Email:    openapi_types.Email(actor.Email),
		FullName: actor.FullName,
		Role:     actor.Role,
		IsActive: true,
	}})
}

func (s *Server) GetAuthCsrf(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"csrfToken": actor.CSRFToken})
}
