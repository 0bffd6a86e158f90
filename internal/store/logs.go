package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateCommunicationParams struct {
	LeadID           uuid.UUID
	Type             string
	Direction        string
	Subject          string
	Notes            string
	DurationMinutes  *int32
	Outcome          string
	FollowUpRequired bool
	FollowUpDate     *time.Time
	CreatedBy        uuid.UUID
}

func (q *Queries) CreateCommunication(ctx context.Context, arg CreateCommunicationParams) (Communication, error) {
	var c Communication
	err := q.db.QueryRow(ctx, `
		INSERT INTO communications (lead_id, type, direction, subject, notes,
			duration_minutes, outcome, follow_up_required, follow_up_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, lead_id, type, direction, subject, notes,
			duration_minutes, outcome, follow_up_required, follow_up_date, created_by, created_at`,
		arg.LeadID, arg.Type, arg.Direction, arg.Subject, arg.Notes,
		arg.DurationMinutes, arg.Outcome, arg.FollowUpRequired, arg.FollowUpDate, arg.CreatedBy).
		Scan(&c.ID, &c.LeadID, &c.Type, &c.Direction, &c.Subject, &c.Notes,
			&c.DurationMinutes, &c.Outcome, &c.FollowUpRequired, &c.FollowUpDate, &c.CreatedBy, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListCommunicationsByLead(ctx context.Context, leadID uuid.UUID) ([]Communication, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, lead_id, type, direction, subject, notes,
			duration_minutes, outcome, follow_up_required, follow_up_date, created_by, created_at
		FROM communications
		WHERE lead_id = $1
		ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comms := []Communication{}
	for rows.Next() {
		var c Communication
		if err := rows.Scan(&c.ID, &c.LeadID, &c.Type, &c.Direction, &c.Subject, &c.Notes,
			&c.DurationMinutes, &c.Outcome, &c.FollowUpRequired, &c.FollowUpDate, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		comms = append(comms, c)
	}
	return comms, rows.Err()
}

type CreateInteractionParams struct {
	LeadID          uuid.UUID
	UserID          uuid.UUID
	Type            string
	Outcome         string
	Notes           string
	DurationMinutes *int32
	FollowUpDate    *time.Time
	PreviousStatus  string
	NewStatus       string
}

func (q *Queries) CreateInteraction(ctx context.Context, arg CreateInteractionParams) (Interaction, error) {
	var it Interaction
	err := q.db.QueryRow(ctx, `
		INSERT INTO interactions (lead_id, user_id, type, outcome, notes,
			duration_minutes, follow_up_date, previous_status, new_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, lead_id, user_id, type, outcome, notes,
			duration_minutes, follow_up_date, previous_status, new_status, created_at`,
		arg.LeadID, arg.UserID, arg.Type, arg.Outcome, arg.Notes,
		arg.DurationMinutes, arg.FollowUpDate, arg.PreviousStatus, arg.NewStatus).
		Scan(&it.ID, &it.LeadID, &it.UserID, &it.Type, &it.Outcome, &it.Notes,
			&it.DurationMinutes, &it.FollowUpDate, &it.PreviousStatus, &it.NewStatus, &it.CreatedAt)
	return it, err
}

func (q *Queries) ListInteractionsByLead(ctx context.Context, leadID uuid.UUID) ([]Interaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT i.id, i.lead_id, i.user_id, u.full_name, i.type, i.outcome, i.notes,
			i.duration_minutes, i.follow_up_date, i.previous_status, i.new_status, i.created_at
		FROM interactions i
		JOIN users u ON u.id = i.user_id
		WHERE i.lead_id = $1
		ORDER BY i.created_at DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Interaction{}
	for rows.Next() {
		var it Interaction
		if err := rows.Scan(&it.ID, &it.LeadID, &it.UserID, &it.UserName, &it.Type, &it.Outcome, &it.Notes,
			&it.DurationMinutes, &it.FollowUpDate, &it.PreviousStatus, &it.NewStatus, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteLeadChildren removes the append-only logs for a lead before the lead
// row itself goes away.
func (q *Queries) DeleteLeadChildren(ctx context.Context, leadID uuid.UUID) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM communications WHERE lead_id = $1`, leadID); err != nil {
		return err
	}
	_, err := q.db.Exec(ctx, `DELETE FROM interactions WHERE lead_id = $1`, leadID)
	return err
}
