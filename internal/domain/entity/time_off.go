package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProviderTimeOff is an explicit date-range exclusion (vacation, personal).
// StartTime/EndTime, when set, make the boundary days partial: only the
// [StartTime,EndTime) sub-range of each day in the range is blocked.
type ProviderTimeOff struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index" json:"provider_id"`
	StartDate  time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null" json:"end_date"`
	StartTime  string    `gorm:"type:varchar(5)" json:"start_time,omitempty"`
	EndTime    string    `gorm:"type:varchar(5)" json:"end_time,omitempty"`
	Reason     string    `gorm:"type:varchar(255)" json:"reason,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Provider Provider `gorm:"foreignKey:ProviderID;references:UserID" json:"provider,omitempty"`
}

func (ProviderTimeOff) TableName() string {
	return "provider_time_off"
}

// CoversDate reports whether the given date falls inside the off range.
func (t *ProviderTimeOff) CoversDate(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(t.StartDate.Truncate(24*time.Hour)) && !d.After(t.EndDate.Truncate(24*time.Hour))
}

// PartialDay reports whether this entry only blocks part of each day.
func (t *ProviderTimeOff) PartialDay() bool {
	return t.StartTime != "" && t.EndTime != ""
}

// BlockedRangeOn returns the blocked interval on the given date. Full-day
// entries block the whole day; ok is false when the date is outside the range.
func (t *ProviderTimeOff) BlockedRangeOn(date time.Time, loc *time.Location) (start, end time.Time, ok bool) {
	if !t.CoversDate(date) {
		return time.Time{}, time.Time{}, false
	}
	if !t.PartialDay() {
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
		return dayStart, dayStart.Add(24 * time.Hour), true
	}
	s, err := AtTimeOfDay(date, t.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	e, err := AtTimeOfDay(date, t.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return s, e, true
}
