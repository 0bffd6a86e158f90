package store

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Lead statuses, exactly the set the UI and analytics bucket on.
const (
	StatusNew        = "New"
	StatusContacted  = "Contacted"
	StatusInProgress = "In Progress"
	StatusFollowUp   = "Follow-up"
	StatusConverted  = "Converted"
	StatusLost       = "Lost"
)

var ValidLeadStatuses = []string{StatusNew, StatusContacted, StatusInProgress, StatusFollowUp, StatusConverted, StatusLost}

func IsValidLeadStatus(status string) bool {
	for _, s := range ValidLeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type User struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SessionPrincipal struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	Email     string
	FullName  string
	Role      string
	CsrfToken string
	ExpiresAt time.Time
}

// EntityKind selects the catalog table a query runs against.
type EntityKind string

const (
	EntityProduct EntityKind = "product"
	EntitySource  EntityKind = "source"
)

func (k EntityKind) table() string {
	if k == EntitySource {
		return "sources"
	}
	return "products"
}

type CatalogEntity struct {
	ID          uuid.UUID
	Name        string
	Description string
	IsActive    bool
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Lead struct {
	ID              uuid.UUID
	Name            string
	Phone           string
	Email           string
	WhatsappNumber  string
	Address         string
	CompanyName     string
	ProductID       uuid.UUID
	SourceID        uuid.UUID
	LeadValue       float64
	AssignedTo      uuid.UUID
	Status          string
	Priority        string
	Notes           string
	FollowUpDate    *time.Time
	LastContactedAt *time.Time
	ConvertedAt     *time.Time
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LeadWithNames joins in the display names list and detail views need.
type LeadWithNames struct {
	Lead
	ProductName   string
	SourceName    string
	AssigneeName  string
	AssigneeEmail string
	CreatorName   string
}

type Communication struct {
	ID               uuid.UUID
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
	CreatedAt        time.Time
}

type Interaction struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	UserID          uuid.UUID
	UserName        string
	Type            string
	Outcome         string
	Notes           string
	DurationMinutes *int32
	FollowUpDate    *time.Time
	PreviousStatus  string
	NewStatus       string
	CreatedAt       time.Time
}

// LeadFact is the flattened row the analytics aggregator consumes.
type LeadFact struct {
	Status       string
	SourceName   string
	AssigneeID   uuid.UUID
	AssigneeName string
	Value        float64
	CreatedAt    time.Time
}
