package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/leadflow-crm/api/internal/audit"
	"github.com/leadflow-crm/api/internal/httpx"
	"github.com/leadflow-crm/api/internal/store"
)

type EntityView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newEntityView(e store.CatalogEntity) EntityView {
	return EntityView{
		ID:          e.ID.String(),
		Name:        e.Name,
		Description: e.Description,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt,
	}
}

func (s *Server) listEntities(w http.ResponseWriter, r *http.Request, kind store.EntityKind, key string) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	entities, err := s.Q.ListActiveEntities(r.Context(), kind)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to list "+key, nil)
		return
	}

	views := make([]EntityView, 0, len(entities))
	for _, e := range entities {
		views = append(views, newEntityView(e))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{key: views})
}

type CreateEntityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) createEntity(w http.ResponseWriter, r *http.Request, kind store.EntityKind) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req CreateEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	entity, err := s.Q.CreateEntity(r.Context(), store.CreateEntityParams{
		Kind:        kind,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   actor.UserID,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to create "+string(kind), nil)
		return
	}

	userID := actor.UserID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &userID,
		Action:     string(kind) + ".create",
		EntityType: string(kind),
		EntityID:   entity.ID.String(),
	})

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{string(kind): newEntityView(entity)})
}

func (s *Server) GetProducts(w http.ResponseWriter, r *http.Request) {
	s.listEntities(w, r, store.EntityProduct, "products")
}

func (s *Server) PostProducts(w http.ResponseWriter, r *http.Request) {
	s.createEntity(w, r, store.EntityProduct)
}

func (s *Server) GetSources(w http.ResponseWriter, r *http.Request) {
	s.listEntities(w, r, store.EntitySource, "sources")
}

func (s *Server) PostSources(w http.ResponseWriter, r *http.Request) {
	s.createEntity(w, r, store.EntitySource)
}
