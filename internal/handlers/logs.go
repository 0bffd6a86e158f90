package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/leadflow-crm/api/internal/httpx"
	"github.com/leadflow-crm/api/internal/middleware"
	"github.com/leadflow-crm/api/internal/store"
)

// scopedLeadID parses the leadId query/body value and confirms the actor can
// see that lead. Out-of-scope leads read as missing.
func (s *Server) scopedLeadID(w http.ResponseWriter, r *http.Request, actor middleware.Actor, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "leadId must be a valid id", nil)
		return uuid.Nil, false
	}
	if _, err := s.Q.GetLead(r.Context(), store.GetLeadParams{ID: id, AssignedTo: actor.Scope()}); err != nil {
		if isNoRows(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "not_found", "Lead not found", nil)
			return uuid.Nil, false
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load lead", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) GetCommunications(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	leadID, ok := s.scopedLeadID(w, r, actor, r.URL.Query().Get("leadId"))
	if !ok {
		return
	}

	comms, err := s.Q.ListCommunicationsByLead(r.Context(), leadID)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to list communications", nil)
		return
	}
	views := make([]CommunicationView, 0, len(comms))
	for _, c := range comms {
		views = append(views, newCommunicationView(c))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"communications": views})
}

type CreateCommunicationRequest struct {
	LeadID           string  `json:"leadId"`
	Type             string  `json:"type"`
	Direction        string  `json:"direction"`
	Subject          string  `json:"subject"`
	Notes            string  `json:"notes"`
	DurationMinutes  *int32  `json:"durationMinutes"`
	Outcome          string  `json:"outcome"`
	FollowUpRequired bool    `json:"followUpRequired"`
	FollowUpDate     *string `json:"followUpDate"`
}

var communicationTypes = map[string]bool{
	"call": true, "email": true, "sms": true, "meeting": true, "note": true,
}

func (s *Server) PostCommunications(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req CreateCommunicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if !communicationTypes[req.Type] {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "type must be call, email, sms, meeting or note", nil)
		return
	}

	leadID, ok := s.scopedLeadID(w, r, actor, req.LeadID)
	if !ok {
		return
	}

	followUpDate, ok := parseOptionalDate(w, r, req.FollowUpDate)
	if !ok {
		return
	}

	comm, err := s.Q.CreateCommunication(r.Context(), store.CreateCommunicationParams{
		LeadID:           leadID,
		Type:             req.Type,
		Direction:        req.Direction,
		Subject:          req.Subject,
		Notes:            req.Notes,
		DurationMinutes:  req.DurationMinutes,
		Outcome:          req.Outcome,
		FollowUpRequired: req.FollowUpRequired,
		FollowUpDate:     followUpDate,
		CreatedBy:        actor.UserID,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to record communication", nil)
		return
	}

	if err := s.Q.TouchLeadContact(r.Context(), leadID); err != nil {
		s.Logger.Error("touch lead contact failed", "lead_id", leadID.String(), "error", err)
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"communication": newCommunicationView(comm)})
}

func (s *Server) GetInteractions(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	leadID, ok := s.scopedLeadID(w, r, actor, r.URL.Query().Get("leadId"))
	if !ok {
		return
	}

	interactions, err := s.Q.ListInteractionsByLead(r.Context(), leadID)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to list interactions", nil)
		return
	}
	views := make([]InteractionView, 0, len(interactions))
	for _, it := range interactions {
		views = append(views, newInteractionView(it))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"interactions": views})
}

type CreateInteractionRequest struct {
	LeadID          string  `json:"leadId"`
	Type            string  `json:"type"`
	Outcome         string  `json:"outcome"`
	Notes           string  `json:"notes"`
	DurationMinutes *int32  `json:"durationMinutes"`
	FollowUpDate    *string `json:"followUpDate"`
	NewStatus       *string `json:"newStatus"`
}

var interactionTypes = map[string]bool{
	"Call": true, "Email": true, "WhatsApp": true, "Meeting": true, "Note": true,
}

// PostInteractions appends to a lead's interaction history. When newStatus
// is given the lead moves to it and the transition is recorded on the entry.
func (s *Server) PostInteractions(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req CreateInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if !interactionTypes[req.Type] {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "type must be Call, Email, WhatsApp, Meeting or Note", nil)
		return
	}
	if req.NewStatus != nil && !store.IsValidLeadStatus(*req.NewStatus) {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid status value", nil)
		return
	}

	leadID, err := uuid.Parse(req.LeadID)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "leadId must be a valid id", nil)
		return
	}
	lead, err := s.Q.GetLead(r.Context(), store.GetLeadParams{ID: leadID, AssignedTo: actor.Scope()})
	if err != nil {
		if isNoRows(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "not_found", "Lead not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load lead", nil)
		return
	}

	followUpDate, ok := parseOptionalDate(w, r, req.FollowUpDate)
	if !ok {
		return
	}

	previousStatus := lead.Status
	newStatus := lead.Status
	if req.NewStatus != nil {
		newStatus = *req.NewStatus
	}

	interaction, err := s.Q.CreateInteraction(r.Context(), store.CreateInteractionParams{
		LeadID:          leadID,
		UserID:          actor.UserID,
		Type:            req.Type,
		Outcome:         req.Outcome,
		Notes:           req.Notes,
		DurationMinutes: req.DurationMinutes,
		FollowUpDate:    followUpDate,
		PreviousStatus:  previousStatus,
		NewStatus:       newStatus,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to record interaction", nil)
		return
	}

	if req.NewStatus != nil && *req.NewStatus != previousStatus {
		if _, err := s.Q.UpdateLead(r.Context(), store.UpdateLeadParams{ID: leadID, Status: req.NewStatus}); err != nil {
			httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to update lead status", nil)
			return
		}
	}
	if err := s.Q.TouchLeadContact(r.Context(), leadID); err != nil {
		s.Logger.Error("touch lead contact failed", "lead_id", leadID.String(), "error", err)
	}

	interaction.UserName = actor.FullName
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"interaction": newInteractionView(interaction)})
}

func parseOptionalDate(w http.ResponseWriter, r *http.Request, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "followUpDate must be YYYY-MM-DD", nil)
		return nil, false
	}
	return &t, true
}
