package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const leadColumns = `l.id, l.name, l.phone, l.email, l.whatsapp_number, l.address, l.company_name,
	l.product_id, l.source_id, l.lead_value, l.assigned_to, l.status, l.priority, l.notes,
	l.follow_up_date, l.last_contacted_at, l.converted_at, l.created_by, l.created_at, l.updated_at`

const leadJoins = `
	FROM leads l
	JOIN products p ON p.id = l.product_id
	JOIN sources s ON s.id = l.source_id
	JOIN users a ON a.id = l.assigned_to
	JOIN users c ON c.id = l.created_by`

func scanLead(row interface{ Scan(dest ...any) error }) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.Name, &l.Phone, &l.Email, &l.WhatsappNumber, &l.Address, &l.CompanyName,
		&l.ProductID, &l.SourceID, &l.LeadValue, &l.AssignedTo, &l.Status, &l.Priority, &l.Notes,
		&l.FollowUpDate, &l.LastContactedAt, &l.ConvertedAt, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func scanLeadWithNames(row interface{ Scan(dest ...any) error }) (LeadWithNames, error) {
	var l LeadWithNames
	err := row.Scan(
		&l.ID, &l.Name, &l.Phone, &l.Email, &l.WhatsappNumber, &l.Address, &l.CompanyName,
		&l.ProductID, &l.SourceID, &l.LeadValue, &l.AssignedTo, &l.Status, &l.Priority, &l.Notes,
		&l.FollowUpDate, &l.LastContactedAt, &l.ConvertedAt, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
		&l.ProductName, &l.SourceName, &l.AssigneeName, &l.AssigneeEmail, &l.CreatorName,
	)
	return l, err
}

type CreateLeadParams struct {
	Name           string
	Phone          string
	Email          string
	WhatsappNumber string
	Address        string
	CompanyName    string
	ProductID      uuid.UUID
	SourceID       uuid.UUID
	LeadValue      float64
	AssignedTo     uuid.UUID
	Priority       string
	Notes          string
	CreatedBy      uuid.UUID
}

func (q *Queries) CreateLead(ctx context.Context, arg CreateLeadParams) (Lead, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO leads (name, phone, email, whatsapp_number, address, company_name,
			product_id, source_id, lead_value, assigned_to, priority, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+strings.ReplaceAll(leadColumns, "l.", ""),
		arg.Name, arg.Phone, arg.Email, arg.WhatsappNumber, arg.Address, arg.CompanyName,
		arg.ProductID, arg.SourceID, arg.LeadValue, arg.AssignedTo, arg.Priority, arg.Notes, arg.CreatedBy)
	return scanLead(row)
}

// BulkInsertLeads persists one import batch in a single statement so the
// insert is all-or-nothing.
func (q *Queries) BulkInsertLeads(ctx context.Context, leads []CreateLeadParams) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	n := len(leads)
	names := make([]string, n)
	phones := make([]string, n)
	emails := make([]string, n)
	companies := make([]string, n)
	productIDs := make([]uuid.UUID, n)
	sourceIDs := make([]uuid.UUID, n)
	values := make([]float64, n)
	assignees := make([]uuid.UUID, n)
	priorities := make([]string, n)
	notes := make([]string, n)
	creators := make([]uuid.UUID, n)
	for i, l := range leads {
		names[i] = l.Name
		phones[i] = l.Phone
		emails[i] = l.Email
		companies[i] = l.CompanyName
		productIDs[i] = l.ProductID
		sourceIDs[i] = l.SourceID
		values[i] = l.LeadValue
		assignees[i] = l.AssignedTo
		priorities[i] = l.Priority
		notes[i] = l.Notes
		creators[i] = l.CreatedBy
	}

	tag, err := q.db.Exec(ctx, `
		INSERT INTO leads (name, phone, email, company_name, product_id, source_id,
			lead_value, assigned_to, priority, notes, created_by)
		SELECT * FROM unnest(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::uuid[], $6::uuid[],
			$7::float8[], $8::uuid[], $9::text[], $10::text[], $11::uuid[])`,
		names, phones, emails, companies, productIDs, sourceIDs,
		values, assignees, priorities, notes, creators)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GetLeadParams carries the caller's visibility scope: a nil AssignedTo means
// unrestricted (admin), otherwise only that assignee's leads are visible.
type GetLeadParams struct {
	ID         uuid.UUID
	AssignedTo *uuid.UUID
}

func (q *Queries) GetLead(ctx context.Context, arg GetLeadParams) (LeadWithNames, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+leadColumns+`, p.name, s.name, a.full_name, a.email, c.full_name`+leadJoins+`
		WHERE l.id = $1 AND ($2::uuid IS NULL OR l.assigned_to = $2)`,
		arg.ID, arg.AssignedTo)
	return scanLeadWithNames(row)
}

type ListLeadsParams struct {
	AssignedTo *uuid.UUID
	Status     string
	Search     string
	SortBy     string
	SortDesc   bool
	Limit      int32
	Offset     int32
}

var leadSortColumns = map[string]string{
	"createdAt":    "l.created_at",
	"updatedAt":    "l.updated_at",
	"name":         "l.name",
	"leadValue":    "l.lead_value",
	"status":       "l.status",
	"priority":     "l.priority",
	"followUpDate": "l.follow_up_date",
}

func leadListFilter(arg ListLeadsParams) (string, []any) {
	where := []string{"($1::uuid IS NULL OR l.assigned_to = $1)"}
	args := []any{arg.AssignedTo}
	if arg.Status != "" {
		args = append(args, arg.Status)
		where = append(where, fmt.Sprintf("l.status = $%d", len(args)))
	}
	if arg.Search != "" {
		args = append(args, "%"+arg.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(l.name ILIKE $%d OR l.phone ILIKE $%d OR l.email ILIKE $%d OR l.company_name ILIKE $%d)", n, n, n, n))
	}
	return strings.Join(where, " AND "), args
}

func (q *Queries) ListLeads(ctx context.Context, arg ListLeadsParams) ([]LeadWithNames, error) {
	filter, args := leadListFilter(arg)

	sortCol, ok := leadSortColumns[arg.SortBy]
	if !ok {
		sortCol = "l.created_at"
	}
	direction := "ASC"
	if arg.SortDesc {
		direction = "DESC"
	}

	args = append(args, arg.Limit, arg.Offset)
	sql := fmt.Sprintf(`
		SELECT %s, p.name, s.name, a.full_name, a.email, c.full_name %s
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`,
		leadColumns, leadJoins, filter, sortCol, direction, len(args)-1, len(args))

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []LeadWithNames{}
	for rows.Next() {
		l, err := scanLeadWithNames(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (q *Queries) CountLeads(ctx context.Context, arg ListLeadsParams) (int64, error) {
	filter, args := leadListFilter(arg)
	var count int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads l WHERE `+filter, args...).Scan(&count)
	return count, err
}

type UpdateLeadParams struct {
	Name           *string
	Phone          *string
	Email          *string
	WhatsappNumber *string
	Address        *string
	CompanyName    *string
	ProductID      *uuid.UUID
	SourceID       *uuid.UUID
	LeadValue      *float64
	AssignedTo     *uuid.UUID
	Status         *string
	Priority       *string
	Notes          *string
	FollowUpDate   *string
	ID             uuid.UUID
}

func (q *Queries) UpdateLead(ctx context.Context, arg UpdateLeadParams) (Lead, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE leads SET
			name = COALESCE($1, name),
			phone = COALESCE($2, phone),
			email = COALESCE($3, email),
			whatsapp_number = COALESCE($4, whatsapp_number),
			address = COALESCE($5, address),
			company_name = COALESCE($6, company_name),
			product_id = COALESCE($7, product_id),
			source_id = COALESCE($8, source_id),
			lead_value = COALESCE($9, lead_value),
			assigned_to = COALESCE($10, assigned_to),
			status = COALESCE($11, status),
			priority = COALESCE($12, priority),
			notes = COALESCE($13, notes),
			follow_up_date = COALESCE($14::date, follow_up_date),
			converted_at = CASE WHEN $11 = 'Converted' AND status <> 'Converted' THEN now() ELSE converted_at END,
			updated_at = now()
		WHERE id = $15
		RETURNING `+strings.ReplaceAll(leadColumns, "l.", ""),
		arg.Name, arg.Phone, arg.Email, arg.WhatsappNumber, arg.Address, arg.CompanyName,
		arg.ProductID, arg.SourceID, arg.LeadValue, arg.AssignedTo, arg.Status, arg.Priority,
		arg.Notes, arg.FollowUpDate, arg.ID)
	return scanLead(row)
}

func (q *Queries) DeleteLead(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	return tag.RowsAffected(), err
}

// LeadRef is the minimal projection bulk operations report back.
type LeadRef struct {
	ID     uuid.UUID
	Name   string
	Status string
}

type BulkLeadParams struct {
	IDs        []uuid.UUID
	AssignedTo *uuid.UUID
}

func (q *Queries) ListLeadRefs(ctx context.Context, arg BulkLeadParams) ([]LeadRef, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, status FROM leads
		WHERE id = ANY($1) AND ($2::uuid IS NULL OR assigned_to = $2)`,
		arg.IDs, arg.AssignedTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []LeadRef{}
	for rows.Next() {
		var ref LeadRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Status); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

type BulkUpdateLeadStatusParams struct {
	IDs        []uuid.UUID
	AssignedTo *uuid.UUID
	Status     string
}

func (q *Queries) BulkUpdateLeadStatus(ctx context.Context, arg BulkUpdateLeadStatusParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE leads SET
			status = $3,
			converted_at = CASE WHEN $3 = 'Converted' AND status <> 'Converted' THEN now() ELSE converted_at END,
			updated_at = now()
		WHERE id = ANY($1) AND ($2::uuid IS NULL OR assigned_to = $2)`,
		arg.IDs, arg.AssignedTo, arg.Status)
	return tag.RowsAffected(), err
}

func (q *Queries) BulkDeleteLeads(ctx context.Context, arg BulkLeadParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM leads
		WHERE id = ANY($1) AND ($2::uuid IS NULL OR assigned_to = $2)`,
		arg.IDs, arg.AssignedTo)
	return tag.RowsAffected(), err
}

func (q *Queries) TouchLeadContact(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE leads SET last_contacted_at = now(), updated_at = now() WHERE id = $1`, id)
	return err
}

// ExportLeadsRows returns the caller-visible leads for CSV export, newest first.
func (q *Queries) ExportLeadsRows(ctx context.Context, assignedTo *uuid.UUID) ([]LeadWithNames, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+leadColumns+`, p.name, s.name, a.full_name, a.email, c.full_name`+leadJoins+`
		WHERE ($1::uuid IS NULL OR l.assigned_to = $1)
		ORDER BY l.created_at DESC`, assignedTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []LeadWithNames{}
	for rows.Next() {
		l, err := scanLeadWithNames(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
