package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/leadflow-crm/api/internal/audit"
	"github.com/leadflow-crm/api/internal/auth"
	"github.com/leadflow-crm/api/internal/httpx"
	"github.com/leadflow-crm/api/internal/store"
)

// GetUsers returns assignable users. Admins see every active user; everyone
// else only themselves, which is all the UI needs for assignment dropdowns.
func (s *Server) GetUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	if !actor.IsAdmin() {
		user, err := s.Q.GetUserByID(r.Context(), actor.UserID)
		if err != nil {
			httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load user", nil)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": []UserView{newUserView(user)}})
		return
	}

	users, err := s.Q.ListActiveUsers(r.Context())
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to list users", nil)
		return
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": views})
}

type CreateUserRequest struct {
	Email    openapi_types.Email `json:"email"`
	FullName string              `json:"fullName"`
	Password string              `json:"password"`
	Role     string              `json:"role"`
}

func (s *Server) PostAdminUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if req.Email == "" || strings.TrimSpace(req.FullName) == "" || req.Password == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "email, fullName and password are required", nil)
		return
	}
	if len(req.Password) < 8 {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "password must be at least 8 characters", nil)
		return
	}
	role := req.Role
	if role == "" {
		role = store.RoleUser
	}
	if role != store.RoleAdmin && role != store.RoleUser {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "role must be admin or user", nil)
		return
	}

	if _, err := s.Q.GetUserByEmail(r.Context(), string(req.Email)); err == nil {
		httpx.WriteError(w, r, http.StatusConflict, "conflict", "A user with this email already exists", nil)
		return
	} else if !isNoRows(err) {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to check email", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to hash password", nil)
		return
	}

	user, err := s.Q.CreateUser(r.Context(), store.CreateUserParams{
		Email:        strings.ToLower(string(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to create user", nil)
		return
	}

	actorID := actor.UserID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &actorID,
		Action:     "user.create",
		EntityType: "user",
		EntityID:   user.ID.String(),
	})

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"user": newUserView(user)})
}

type UpdateUserRequest struct {
	FullName *string `json:"fullName"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

func (s *Server) PatchAdminUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid user id", nil)
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if req.Role != nil && *req.Role != store.RoleAdmin && *req.Role != store.RoleUser {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "role must be admin or user", nil)
		return
	}
	// Admins cannot demote or deactivate themselves; it would strand the
	// account mid-session.
	if id == actor.UserID && (req.Role != nil || (req.IsActive != nil && !*req.IsActive)) {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Cannot change your own role or active status", nil)
		return
	}

	if _, err := s.Q.GetUserByID(r.Context(), id); err != nil {
		if isNoRows(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "not_found", "User not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load user", nil)
		return
	}

	user, err := s.Q.UpdateUser(r.Context(), store.UpdateUserParams{
		ID:       id,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to update user", nil)
		return
	}

	actorID := actor.UserID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &actorID,
		Action:     "user.update",
		EntityType: "user",
		EntityID:   user.ID.String(),
	})

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": newUserView(user)})
}
