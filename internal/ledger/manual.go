package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/events"
	"havenjob-engine/internal/store"
)

// NewApplication is a user-entered application.
type NewApplication struct {
	CompanyName    string        `json:"company_name"`
	JobTitle       string        `json:"job_title"`
	DateApplied    time.Time     `json:"date_applied"`
	Status         domain.Status `json:"status"`
	Source         *string       `json:"source"`
	Notes          *string       `json:"notes"`
	Deadline       *time.Time    `json:"deadline"`
	FollowUpDate   *time.Time    `json:"follow_up_date"`
	JobURL         *string       `json:"job_url"`
	Location       *string       `json:"location"`
	SalaryMin      *int          `json:"salary_min"`
	SalaryMax      *int          `json:"salary_max"`
	SalaryCurrency *string       `json:"salary_currency"`
}

func (n NewApplication) validate() error {
	if err := bounded("company_name", n.CompanyName, 1, domain.MaxCompanyLen); err != nil {
		return err
	}
	if err := bounded("job_title", n.JobTitle, 1, domain.MaxTitleLen); err != nil {
		return err
	}
	if n.DateApplied.IsZero() {
		return fmt.Errorf("%w: date_applied is required", ErrInvalidInput)
	}
	if !n.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, n.Status)
	}
	if n.Source != nil {
		if err := bounded("source", *n.Source, 0, 255); err != nil {
			return err
		}
	}
	if n.Location != nil {
		if err := bounded("location", *n.Location, 0, 255); err != nil {
			return err
		}
	}
	if n.SalaryCurrency != nil {
		if err := bounded("salary_currency", *n.SalaryCurrency, 0, 3); err != nil {
			return err
		}
	}
	return nil
}

func bounded(field, v string, lo, hi int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	if n < lo || n > hi {
		return fmt.Errorf("%w: %s must be %d-%d characters", ErrInvalidInput, field, lo, hi)
	}
	return nil
}

// CreateManual stores an application entered by the user. It writes no
// history row and no notification.
func (l *Ledger) CreateManual(ctx context.Context, userID string, in NewApplication) (domain.Application, error) {
	if err := in.validate(); err != nil {
		return domain.Application{}, err
	}

	now := l.now()
	app := domain.Application{
		ID:             uuid.NewString(),
		UserID:         userID,
		CompanyName:    strings.TrimSpace(in.CompanyName),
		JobTitle:       strings.TrimSpace(in.JobTitle),
		DateApplied:    in.DateApplied.UTC(),
		Deadline:       utcPtr(in.Deadline),
		FollowUpDate:   utcPtr(in.FollowUpDate),
		Status:         in.Status,
		Source:         in.Source,
		JobURL:         in.JobURL,
		Location:       in.Location,
		SalaryMin:      in.SalaryMin,
		SalaryMax:      in.SalaryMax,
		SalaryCurrency: in.SalaryCurrency,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.InsertApplication(ctx, l.DB, app); err != nil {
		return domain.Application{}, err
	}
	l.publish(userID, events.TypeApplicationCreated, app)
	return app, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
