package domain

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusApplied     Status = "Applied"
	StatusUnderReview Status = "Under Review"
	StatusPhoneScreen Status = "Phone Screen"
	StatusInterview   Status = "Interview"
	StatusOffer       Status = "Offer"
	StatusAccepted    Status = "Accepted"
	StatusRejected    Status = "Rejected"
	StatusWithdrawn   Status = "Withdrawn"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusApplied,
	StatusUnderReview,
	StatusPhoneScreen,
	StatusInterview,
	StatusOffer,
	StatusAccepted,
	StatusRejected,
	StatusWithdrawn,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ChangedBy names the origin of a status change.
type ChangedBy string

const (
	ChangedByUser        ChangedBy = "user"
	ChangedByEmailParser ChangedBy = "email_parser"
	ChangedBySystem      ChangedBy = "system"
)

func (c ChangedBy) Valid() bool {
	switch c {
	case ChangedByUser, ChangedByEmailParser, ChangedBySystem:
		return true
	}
	return false
}

const (
	SourceEmail = "Email"

	MaxCompanyLen = 255
	MaxTitleLen   = 255
)

type Application struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	CompanyName    string          `json:"company_name"`
	JobTitle       string          `json:"job_title"`
	DateApplied    time.Time       `json:"date_applied"`
	Deadline       *time.Time      `json:"deadline,omitempty"`
	FollowUpDate   *time.Time      `json:"follow_up_date,omitempty"`
	Status         Status          `json:"status"`
	Source         *string         `json:"source"`
	JobURL         *string         `json:"job_url,omitempty"`
	Location       *string         `json:"location,omitempty"`
	SalaryMin      *int            `json:"salary_min,omitempty"`
	SalaryMax      *int            `json:"salary_max,omitempty"`
	SalaryCurrency *string         `json:"salary_currency,omitempty"`
	Notes          *string         `json:"notes"`
	NeedsReview    bool            `json:"is_needs_review"`
	Confidence     *float64        `json:"confidence_score,omitempty"`
	ParseMetadata  json.RawMessage `json:"parse_metadata,omitempty"`
	RawEmailHash   *string         `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      *time.Time      `json:"-"`
}

// StatusChange is one row of an application's status audit trail.
type StatusChange struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	OldStatus     *Status   `json:"old_status"`
	NewStatus     Status    `json:"new_status"`
	ChangedBy     ChangedBy `json:"changed_by"`
	ChangedAt     time.Time `json:"changed_at"`
}
