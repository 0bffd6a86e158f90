package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leadflow-crm/api/internal/audit"
	"github.com/leadflow-crm/api/internal/httpx"
	"github.com/leadflow-crm/api/internal/store"
)

func (s *Server) GetLeads(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	scope := actor.Scope()
	if actor.IsAdmin() && q.Get("assignedTo") != "" {
		id, err := uuid.Parse(q.Get("assignedTo"))
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "assignedTo must be a valid user id", nil)
			return
		}
		scope = &id
	}

	status := q.Get("status")
	if status != "" && !store.IsValidLeadStatus(status) {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid status value", nil)
		return
	}

	params := store.ListLeadsParams{
		AssignedTo: scope,
		Status:     status,
		Search:     strings.TrimSpace(q.Get("search")),
		SortBy:     q.Get("sortBy"),
		SortDesc:   q.Get("sortOrder") != "asc",
		Limit:      int32(limit),
		Offset:     int32((page - 1) * limit),
	}

	total, err := s.Q.CountLeads(r.Context(), params)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to count leads", nil)
		return
	}
	leads, err := s.Q.ListLeads(r.Context(), params)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to list leads", nil)
		return
	}

	views := make([]LeadView, 0, len(leads))
	for _, l := range leads {
		views = append(views, newLeadView(l))
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"leads": views,
		"pagination": map[string]any{
			"current": page,
			"limit":   limit,
			"total":   total,
			"pages":   int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

type CreateLeadRequest struct {
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email"`
	WhatsappNumber  string   `json:"whatsappNumber"`
	Address         string   `json:"address"`
	CompanyName     string   `json:"companyName"`
	ProductInterest string   `json:"productInterest"`
	Source          string   `json:"source"`
	LeadValue       *float64 `json:"leadValue"`
	AssignedTo      string   `json:"assignedTo"`
	Priority        string   `json:"priority"`
	Notes           string   `json:"notes"`
}

func (s *Server) PostLeads(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}

	if req.Name == "" || req.Phone == "" || req.ProductInterest == "" || req.Source == "" || req.LeadValue == nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error",
			"name, phone, productInterest, source and leadValue are required", nil)
		return
	}
	if *req.LeadValue < 0 {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "leadValue must not be negative", nil)
		return
	}

	productID, err := uuid.Parse(req.ProductInterest)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "productInterest must be a valid id", nil)
		return
	}
	sourceID, err := uuid.Parse(req.Source)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "source must be a valid id", nil)
		return
	}

	// Non-admins always own what they create; admins may assign to anyone.
	assignedTo := actor.UserID
	if actor.IsAdmin() && req.AssignedTo != "" {
		assignedTo, err = uuid.Parse(req.AssignedTo)
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "assignedTo must be a valid user id", nil)
			return
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = "Medium"
	}
	if priority != "Low" && priority != "Medium" && priority != "High" {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "priority must be Low, Medium or High", nil)
		return
	}

	lead, err := s.Q.CreateLead(r.Context(), store.CreateLeadParams{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		WhatsappNumber: req.WhatsappNumber,
		Address:        req.Address,
		CompanyName:    req.CompanyName,
		ProductID:      productID,
		SourceID:       sourceID,
		LeadValue:      *req.LeadValue,
		AssignedTo:     assignedTo,
		Priority:       priority,
		Notes:          req.Notes,
		CreatedBy:      actor.UserID,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to create lead", nil)
		return
	}

	userID := actor.UserID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &userID,
		Action:     "lead.create",
		EntityType: "lead",
		EntityID:   lead.ID.String(),
	})

	full, err := s.Q.GetLead(r.Context(), store.GetLeadParams{ID: lead.ID})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load lead", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"lead": newLeadView(full)})
}

func (s *Server) GetLead(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid lead id", nil)
		return
	}

	lead, err := s.Q.GetLead(r.Context(), store.GetLeadParams{ID: id, AssignedTo: actor.Scope()})
	if err != nil {
		if isNoRows(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "not_found", "Lead not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load lead", nil)
		return
	}

	interactions, err := s.Q.ListInteractionsByLead(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load interactions", nil)
		return
	}
	interactionViews := make([]InteractionView, 0, len(interactions))
	for _, it := range interactions {
		interactionViews = append(interactionViews, newInteractionView(it))
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"lead":         newLeadView(lead),
		"interactions": interactionViews,
	})
}

type UpdateLeadRequest struct {
	Name            *string  `json:"name"`
	Phone           *string  `json:"phone"`
	Email           *string  `json:"email"`
	WhatsappNumber  *string  `json:"whatsappNumber"`
	Address         *string  `json:"address"`
	CompanyName     *string  `json:"companyName"`
	ProductInterest *string  `json:"productInterest"`
	Source          *string  `json:"source"`
	LeadValue       *float64 `json:"leadValue"`
	AssignedTo      *string  `json:"assignedTo"`
	Status          *string  `json:"status"`
	Priority        *string  `json:"priority"`
	Notes           *string  `json:"notes"`
	FollowUpDate    *string  `json:"followUpDate"`
}

func (s *Server) PutLead(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid lead id", nil)
		return
	}

	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}

	if req.Status != nil && !store.IsValidLeadStatus(*req.Status) {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid status value", nil)
		return
	}
	if req.Priority != nil && *req.Priority != "Low" && *req.Priority != "Medium" && *req.Priority != "High" {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "priority must be Low, Medium or High", nil)
		return
	}
	if req.LeadValue != nil && *req.LeadValue < 0 {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "leadValue must not be negative", nil)
		return
	}
	if req.AssignedTo != nil && !actor.IsAdmin() {
		httpx.WriteError(w, r, http.StatusForbidden, "forbidden", "Only admins can reassign leads", nil)
		return
	}
	if req.FollowUpDate != nil {
		if _, err := time.Parse("2006-01-02", *req.FollowUpDate); err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "followUpDate must be YYYY-MM-DD", nil)
			return
		}
	}

	// Scope check first so out-of-scope ids read as missing, not forbidden.
	if _, err := s.Q.GetLead(r.Context(), store.GetLeadParams{ID: id, AssignedTo: actor.Scope()}); err != nil {
		if isNoRows(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "not_found", "Lead not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load lead", nil)
		return
	}

	params := store.UpdateLeadParams{
		ID:             id,
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		WhatsappNumber: req.WhatsappNumber,
		Address:        req.Address,
		CompanyName:    req.CompanyName,
		LeadValue:      req.LeadValue,
		Status:         req.Status,
		Priority:       req.Priority,
		Notes:          req.Notes,
		FollowUpDate:   req.FollowUpDate,
	}
	if req.ProductInterest != nil {
		pid, err := uuid.Parse(*req.ProductInterest)
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "productInterest must be a valid id", nil)
			return
		}
		params.ProductID = &pid
	}
	if req.Source != nil {
		sid, err := uuid.Parse(*req.Source)
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "source must be a valid id", nil)
			return
		}
		params.SourceID = &sid
	}
	if req.AssignedTo != nil {
		aid, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "assignedTo must be a valid user id", nil)
			return
		}
		params.AssignedTo = &aid
	}

	if _, err := s.Q.UpdateLead(r.Context(), params); err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to update lead", nil)
		return
	}

	userID := actor.UserID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &userID,
		Action:     "lead.update",
		EntityType: "lead",
		EntityID:   id.String(),
	})

	full, err := s.Q.GetLead(r.Context(), store.GetLeadParams{ID: id})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load lead", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"lead": newLeadView(full)})
}

func (s *Server) DeleteLead(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid lead id", nil)
		return
	}

	if err := s.Q.DeleteLeadChildren(r.Context(), id); err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to delete lead history", nil)
		return
	}
	deleted, err := s.Q.DeleteLead(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to delete lead", nil)
		return
	}
	if deleted == 0 {
		httpx.WriteError(w, r, http.StatusNotFound, "not_found", "Lead not found", nil)
		return
	}

	userID := actor.UserID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &userID,
		Action:     "lead.delete",
		EntityType: "lead",
		EntityID:   id.String(),
	})

	w.WriteHeader(http.StatusNoContent)
}

type BulkStatusRequest struct {
	LeadIDs []string `json:"leadIds"`
	Status  string   `json:"status"`
	Notes   string   `json:"notes"`
}

func (s *Server) PostLeadsBulkStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req BulkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if len(req.LeadIDs) == 0 {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "No lead IDs provided", nil)
		return
	}
	if !store.IsValidLeadStatus(req.Status) {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid status value", nil)
		return
	}

	ids, err := parseUUIDs(req.LeadIDs)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "leadIds must be valid ids", nil)
		return
	}

	scope := actor.Scope()
	refs, err := s.Q.ListLeadRefs(r.Context(), store.BulkLeadParams{IDs: ids, AssignedTo: scope})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load leads", nil)
		return
	}
	if len(refs) == 0 {
		httpx.WriteError(w, r, http.StatusNotFound, "not_found", "No leads found to update or insufficient permissions", nil)
		return
	}

	updated, err := s.Q.BulkUpdateLeadStatus(r.Context(), store.BulkUpdateLeadStatusParams{
		IDs:        ids,
		AssignedTo: scope,
		Status:     req.Status,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to update leads", nil)
		return
	}

	if note := strings.TrimSpace(req.Notes); note != "" {
		for _, ref := range refs {
			_, err := s.Q.CreateCommunication(r.Context(), store.CreateCommunicationParams{
				LeadID:    ref.ID,
				Type:      "note",
				Notes:     fmt.Sprintf("Bulk status change to %q: %s", req.Status, note),
				CreatedBy: actor.UserID,
			})
			if err != nil {
				s.Logger.Error("bulk status note failed", "lead_id", ref.ID.String(), "error", err)
			}
		}
	}

	userID := actor.UserID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &userID,
		Action:     "lead.bulk_status",
		EntityType: "lead",
		Meta:       map[string]any{"status": req.Status, "count": updated},
	})

	updatedLeads := make([]map[string]string, 0, len(refs))
	for _, ref := range refs {
		updatedLeads = append(updatedLeads, map[string]string{
			"id":        ref.ID.String(),
			"name":      ref.Name,
			"oldStatus": ref.Status,
			"newStatus": req.Status,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      fmt.Sprintf("Successfully updated %d lead(s) to status %q", updated, req.Status),
		"updatedCount": updated,
		"updatedLeads": updatedLeads,
	})
}

type BulkDeleteRequest struct {
	LeadIDs []string `json:"leadIds"`
}

func (s *Server) PostLeadsBulkDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if len(req.LeadIDs) == 0 {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "No lead IDs provided", nil)
		return
	}
	ids, err := parseUUIDs(req.LeadIDs)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "leadIds must be valid ids", nil)
		return
	}

	scope := actor.Scope()
	refs, err := s.Q.ListLeadRefs(r.Context(), store.BulkLeadParams{IDs: ids, AssignedTo: scope})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load leads", nil)
		return
	}
	if len(refs) == 0 {
		httpx.WriteError(w, r, http.StatusNotFound, "not_found", "No leads found to delete or insufficient permissions", nil)
		return
	}

	for _, ref := range refs {
		if err := s.Q.DeleteLeadChildren(r.Context(), ref.ID); err != nil {
			httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to delete lead history", nil)
			return
		}
	}
	deleted, err := s.Q.BulkDeleteLeads(r.Context(), store.BulkLeadParams{IDs: ids, AssignedTo: scope})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to delete leads", nil)
		return
	}

	userID := actor.UserID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &userID,
		Action:     "lead.bulk_delete",
		EntityType: "lead",
		Meta:       map[string]any{"count": deleted},
	})

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      fmt.Sprintf("Successfully deleted %d lead(s)", deleted),
		"deletedCount": deleted,
	})
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
