package handlers

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/leadflow-crm/api/internal/store"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

type RefView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AssigneeView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type LeadView struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	Email           string       `json:"email"`
	WhatsappNumber  string       `json:"whatsappNumber"`
	Address         string       `json:"address"`
	CompanyName     string       `json:"companyName"`
	ProductInterest RefView      `json:"productInterest"`
	Source          RefView      `json:"source"`
	LeadValue       float64      `json:"leadValue"`
	AssignedTo      AssigneeView `json:"assignedTo"`
	Status          string       `json:"status"`
	Priority        string       `json:"priority"`
	Notes           string       `json:"notes"`
	FollowUpDate    *time.Time   `json:"followUpDate"`
	LastContactedAt *time.Time   `json:"lastContactedAt"`
	ConvertedAt     *time.Time   `json:"convertedAt"`
	CreatedBy       RefView      `json:"createdBy"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

func newLeadView(l store.LeadWithNames) LeadView {
	return LeadView{
		ID:              l.ID.String(),
		Name:            l.Name,
		Phone:           l.Phone,
		Email:           l.Email,
		WhatsappNumber:  l.WhatsappNumber,
		Address:         l.Address,
		CompanyName:     l.CompanyName,
		ProductInterest: RefView{ID: l.ProductID.String(), Name: l.ProductName},
		Source:          RefView{ID: l.SourceID.String(), Name: l.SourceName},
		LeadValue:       l.LeadValue,
		AssignedTo:      AssigneeView{ID: l.AssignedTo.String(), Name: l.AssigneeName, Email: l.AssigneeEmail},
		Status:          l.Status,
		Priority:        l.Priority,
		Notes:           l.Notes,
		FollowUpDate:    l.FollowUpDate,
		LastContactedAt: l.LastContactedAt,
		ConvertedAt:     l.ConvertedAt,
		CreatedBy:       RefView{ID: l.CreatedBy.String(), Name: l.CreatorName},
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

type CommunicationView struct {
	ID               string     `json:"id"`
	LeadID           string     `json:"leadId"`
	Type             string     `json:"type"`
	Direction        string     `json:"direction"`
	Subject          string     `json:"subject"`
	Notes            string     `json:"notes"`
	DurationMinutes  *int32     `json:"durationMinutes"`
	Outcome          string     `json:"outcome"`
	FollowUpRequired bool       `json:"followUpRequired"`
	FollowUpDate     *time.Time `json:"followUpDate"`
	CreatedBy        string     `json:"createdBy"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func newCommunicationView(c store.Communication) CommunicationView {
	return CommunicationView{
		ID:               c.ID.String(),
		LeadID:           c.LeadID.String(),
		Type:             c.Type,
		Direction:        c.Direction,
		Subject:          c.Subject,
		Notes:            c.Notes,
		DurationMinutes:  c.DurationMinutes,
		Outcome:          c.Outcome,
		FollowUpRequired: c.FollowUpRequired,
		FollowUpDate:     c.FollowUpDate,
		CreatedBy:        c.CreatedBy.String(),
		CreatedAt:        c.CreatedAt,
	}
}

type InteractionView struct {
	ID              string     `json:"id"`
	LeadID          string     `json:"leadId"`
	User            RefView    `json:"user"`
	Type            string     `json:"type"`
	Outcome         string     `json:"outcome"`
	Notes           string     `json:"notes"`
	DurationMinutes *int32     `json:"durationMinutes"`
	FollowUpDate    *time.Time `json:"followUpDate"`
	PreviousStatus  string     `json:"previousStatus"`
	NewStatus       string     `json:"newStatus"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func newInteractionView(it store.Interaction) InteractionView {
	return InteractionView{
		ID:              it.ID.String(),
		LeadID:          it.LeadID.String(),
		User:            RefView{ID: it.UserID.String(), Name: it.UserName},
		Type:            it.Type,
		Outcome:         it.Outcome,
		Notes:           it.Notes,
		DurationMinutes: it.DurationMinutes,
		FollowUpDate:    it.FollowUpDate,
		PreviousStatus:  it.PreviousStatus,
		NewStatus:       it.NewStatus,
		CreatedAt:       it.CreatedAt,
	}
}
