package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// AvailabilityRowRequest is one weekly-template row. Times are wall-clock
// HH:MM in the provider's timezone.
type AvailabilityRowRequest struct {
	Weekday   int    `json:"weekday" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

type SetAvailabilityRequest struct {
	Rows []AvailabilityRowRequest `json:"rows" validate:"required,min=1,dive"`
}

type CreateTimeOffRequest struct {
	StartDate string `json:"start_date" validate:"required,dateymd"`
	EndDate   string `json:"end_date" validate:"required,dateymd"`
	StartTime string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime   string `json:"end_time" validate:"omitempty,hhmm"`
	Reason    string `json:"reason" validate:"omitempty,max=255"`
}

// Response DTOs

type AvailabilityRowResponse struct {
	ID        int    `json:"id"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
}

type AvailabilityListResponse struct {
	ProviderID uuid.UUID                 `json:"provider_id"`
	Rows       []AvailabilityRowResponse `json:"rows"`
}

type TimeOffResponse struct {
	ID        int    `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type TimeOffListResponse struct {
	Entries []TimeOffResponse `json:"entries"`
	Total   int               `json:"total"`
}

// SlotResponse is one offerable slot. Start/End bound the service time.
type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailableSlotsResponse struct {
	ProviderID uuid.UUID      `json:"provider_id"`
	ServiceID  uuid.UUID      `json:"service_id"`
	Date       string         `json:"date"`
	Timezone   string         `json:"timezone"`
	Slots      []SlotResponse `json:"slots"`
}
