package domain

import (
	"time"

	"github.com/google/uuid"
)

type Ticket struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    string    `json:"-"`
	PersonalID string    `json:"personal_id"`
	Numbers    []int     `json:"numbers"`
	RoundID    uuid.UUID `json:"round_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TicketView joins a ticket with the drawn numbers and status of its round.
type TicketView struct {
	ID           uuid.UUID   `json:"id"`
	PersonalID   string      `json:"personal_id"`
	Numbers      []int       `json:"numbers"`
	DrawnNumbers []int       `json:"drawn_numbers"`
	RoundStatus  RoundStatus `json:"round_status"`
}

type TicketQR struct {
	QRCode    string     `json:"qrCode"`
	TicketURL string     `json:"ticketUrl"`
	Ticket    TicketView `json:"ticket"`
}
