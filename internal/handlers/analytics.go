package handlers

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leadflow-crm/api/internal/analytics"
	"github.com/leadflow-crm/api/internal/httpx"
)

func (s *Server) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	facts, err := s.Q.ListLeadFacts(r.Context(), actor.Scope())
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load analytics data", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, analytics.Compute(facts, actor.Role, actor.IsAdmin()))
}

// GetAdminUserStats is the per-employee drill-down for admins: one
// assignee's status breakdown, call volume and lead value totals.
func (s *Server) GetAdminUserStats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_id", "Invalid user id", nil)
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

	stats, err := s.Q.GetEmployeeStats(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load employee stats", nil)
		return
	}

	conversionRate := 0.0
	avgLeadValue := 0.0
	if stats.TotalLeads > 0 {
		conversionRate = math.Round(float64(stats.ConvertedLeads)/float64(stats.TotalLeads)*1000) / 10
		avgLeadValue = math.Round(stats.TotalValue / float64(stats.TotalLeads))
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"stats": map[string]any{
			"totalLeads":      stats.TotalLeads,
			"newLeads":        stats.NewLeads,
			"contactedLeads":  stats.ContactedLeads,
			"inProgressLeads": stats.InProgressLeads,
			"convertedLeads":  stats.ConvertedLeads,
			"lostLeads":       stats.LostLeads,
			"followUpLeads":   stats.FollowUpLeads,
			"totalCalls":      stats.TotalCalls,
			"conversionRate":  conversionRate,
			"avgLeadValue":    avgLeadValue,
			"totalValue":      stats.TotalValue,
		},
	})
}

// GetDashboardStats reports the caller's own pipeline regardless of role;
// the dashboard is always personal.
func (s *Server) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	self := actor.UserID
	counts, err := s.Q.GetDashboardCounts(r.Context(), &self)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load dashboard stats", nil)
		return
	}
	followUpsToday, err := s.Q.CountFollowUpsDueToday(r.Context(), &self)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to count follow-ups", nil)
		return
	}

	pendingLeads := counts.NewLeads + counts.ContactedLeads + counts.InProgressLeads
	conversionRate := 0.0
	if counts.TotalLeads > 0 {
		conversionRate = math.Round(float64(counts.ConvertedLeads)/float64(counts.TotalLeads)*1000) / 10
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"stats": map[string]any{
			"totalLeads":     counts.TotalLeads,
			"convertedLeads": counts.ConvertedLeads,
			"pendingLeads":   pendingLeads,
			"followUpsToday": followUpsToday,
			"conversionRate": conversionRate,
			"pipelineValue":  counts.PipelineValue,
			"convertedValue": counts.ConvertedValue,
			"leadsThisMonth": counts.LeadsThisMonth,
		},
	})
}
