package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoundStatus string

const (
	RoundActive RoundStatus = "active"
	RoundClosed RoundStatus = "closed"
)

// Round is a bounded period during which tickets may be submitted. A closed
// round with drawn numbers is published; that is derived, not a status.
type Round struct {
	ID           uuid.UUID   `json:"id"`
	Status       RoundStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	ClosedAt     *time.Time  `json:"closed_at"`
	DrawnNumbers []int       `json:"drawn_numbers"`
}

func (r Round) IsActive() bool {
	return r.Status == RoundActive
}

func (r Round) IsPublished() bool {
	return r.DrawnNumbers != nil
}

type RoundSummary struct {
	IsActive     bool  `json:"isActive"`
	TicketCount  int64 `json:"ticketCount"`
	DrawnNumbers []int `json:"drawnNumbers"`
}
