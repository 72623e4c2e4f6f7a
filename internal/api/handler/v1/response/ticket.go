package response

import (
	"github.com/google/uuid"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/domain"
)

type SubmitTicketResponse struct {
	TicketID uuid.UUID `json:"ticketId"`
	Message  string    `json:"message"`
}

type TicketResponse struct {
	Ticket domain.TicketView `json:"ticket"`
}
