package store

import (
	"context"

	"github.com/google/uuid"
)

// ListLeadFacts pulls the flattened rows the aggregator works over. A nil
// assignedTo means the caller sees every lead.
func (q *Queries) ListLeadFacts(ctx context.Context, assignedTo *uuid.UUID) ([]LeadFact, error) {
	rows, err := q.db.Query(ctx, `
		SELECT l.status, s.name, l.assigned_to, a.full_name, l.lead_value, l.created_at
		FROM leads l
		JOIN sources s ON s.id = l.source_id
		JOIN users a ON a.id = l.assigned_to
		WHERE ($1::uuid IS NULL OR l.assigned_to = $1)`, assignedTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	facts := []LeadFact{}
	for rows.Next() {
		var f LeadFact
		if err := rows.Scan(&f.Status, &f.SourceName, &f.AssigneeID, &f.AssigneeName, &f.Value, &f.CreatedAt); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// CountFollowUpsDueToday counts communications flagged for follow-up whose
// date falls on the current day, over the given assignee's leads.
func (q *Queries) CountFollowUpsDueToday(ctx context.Context, assignedTo *uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM communications c
		JOIN leads l ON l.id = c.lead_id
		WHERE c.follow_up_required
		  AND c.follow_up_date >= CURRENT_DATE
		  AND c.follow_up_date < CURRENT_DATE + 1
		  AND ($1::uuid IS NULL OR l.assigned_to = $1)`, assignedTo).Scan(&count)
	return count, err
}

type EmployeeStats struct {
	TotalLeads      int64
	NewLeads        int64
	ContactedLeads  int64
	InProgressLeads int64
	FollowUpLeads   int64
	ConvertedLeads  int64
	LostLeads       int64
	TotalCalls      int64
	TotalValue      float64
}

// GetEmployeeStats aggregates one assignee's leads plus the call count
// across those leads, for the admin drill-down view.
func (q *Queries) GetEmployeeStats(ctx context.Context, userID uuid.UUID) (EmployeeStats, error) {
	var s EmployeeStats
	err := q.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'New'),
			COUNT(*) FILTER (WHERE status = 'Contacted'),
			COUNT(*) FILTER (WHERE status = 'In Progress'),
			COUNT(*) FILTER (WHERE status = 'Follow-up'),
			COUNT(*) FILTER (WHERE status = 'Converted'),
			COUNT(*) FILTER (WHERE status = 'Lost'),
			(SELECT COUNT(*)
			 FROM communications c
			 JOIN leads cl ON cl.id = c.lead_id
			 WHERE c.type = 'call' AND cl.assigned_to = $1),
			COALESCE(SUM(lead_value), 0)
		FROM leads
		WHERE assigned_to = $1`, userID).
		Scan(&s.TotalLeads, &s.NewLeads, &s.ContactedLeads, &s.InProgressLeads, &s.FollowUpLeads,
			&s.ConvertedLeads, &s.LostLeads, &s.TotalCalls, &s.TotalValue)
	return s, err
}

type DashboardCounts struct {
	TotalLeads       int64
	NewLeads         int64
	ConvertedLeads   int64
	FollowUpsDue     int64
	PipelineValue    float64
	ConvertedValue   float64
	LeadsThisMonth   int64
	ContactedLeads   int64
	InProgressLeads  int64
	LostLeads        int64
	FollowUpLeads    int64
}

func (q *Queries) GetDashboardCounts(ctx context.Context, assignedTo *uuid.UUID) (DashboardCounts, error) {
	var c DashboardCounts
	err := q.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'New'),
			COUNT(*) FILTER (WHERE status = 'Contacted'),
			COUNT(*) FILTER (WHERE status = 'In Progress'),
			COUNT(*) FILTER (WHERE status = 'Follow-up'),
			COUNT(*) FILTER (WHERE status = 'Converted'),
			COUNT(*) FILTER (WHERE status = 'Lost'),
			COUNT(*) FILTER (WHERE follow_up_date IS NOT NULL AND follow_up_date <= CURRENT_DATE AND status NOT IN ('Converted', 'Lost')),
			COALESCE(SUM(lead_value) FILTER (WHERE status NOT IN ('Converted', 'Lost')), 0),
			COALESCE(SUM(lead_value) FILTER (WHERE status = 'Converted'), 0),
			COUNT(*) FILTER (WHERE created_at >= date_trunc('month', now()))
		FROM leads
		WHERE ($1::uuid IS NULL OR assigned_to = $1)`, assignedTo).
		Scan(&c.TotalLeads, &c.NewLeads, &c.ContactedLeads, &c.InProgressLeads, &c.FollowUpLeads,
			&c.ConvertedLeads, &c.LostLeads, &c.FollowUpsDue, &c.PipelineValue, &c.ConvertedValue, &c.LeadsThisMonth)
	return c, err
}
