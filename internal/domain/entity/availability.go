package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProviderAvailability is one row of a provider's recurring weekly template.
// Times are wall-clock "15:04" strings in the provider's timezone; windows
// never cross midnight (start and end are on the same day).
type ProviderAvailability struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index:idx_availability_provider_weekday" json:"provider_id"`
	Weekday    int       `gorm:"not null;index:idx_availability_provider_weekday" json:"weekday"`
	StartTime  string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime    string    `gorm:"type:varchar(5);not null" json:"end_time"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Provider Provider `gorm:"foreignKey:ProviderID;references:UserID" json:"provider,omitempty"`
}

func (ProviderAvailability) TableName() string {
	return "provider_availability"
}

// Active reports whether this template row currently applies.
func (a *ProviderAvailability) Active() bool {
	return a.IsActive == nil || *a.IsActive
}

// WindowOn anchors the template's wall-clock times onto a concrete date in
// the given location.
func (a *ProviderAvailability) WindowOn(date time.Time, loc *time.Location) (start, end time.Time, err error) {
	start, err = AtTimeOfDay(date, a.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = AtTimeOfDay(date, a.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// AtTimeOfDay combines a date with an "15:04" wall-clock string.
func AtTimeOfDay(date time.Time, hm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// TimeSlot is a bookable window returned by the availability calculator.
// Start/End bound the service time; the trailing buffer is accounted for
// during generation, not displayed.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
