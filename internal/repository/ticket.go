package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/repository/dao"
)

var (
	ErrTicketNotFound        = dao.ErrTicketNotFound
	ErrTicketExists          = dao.ErrTicketExists
	ErrInvalidRoundReference = dao.ErrInvalidRoundReference
	ErrInvalidTicketData     = dao.ErrInvalidTicketData
)

type TicketDAO interface {
	InsertIntoActiveRound(ctx context.Context, ticket dao.Ticket, now time.Time) (dao.Ticket, error)
	FindView(ctx context.Context, id uuid.UUID) (dao.TicketView, error)
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

// CreateInActiveRound stores the ticket against whichever round is active at
// commit time. ErrNoActiveRound is returned when none is.
func (r *TicketRepository) CreateInActiveRound(ctx context.Context, ticket domain.Ticket, now time.Time) (domain.Ticket, error) {
	created, err := r.dao.InsertIntoActiveRound(ctx, dao.Ticket{
		OwnerID:    ticket.OwnerID,
		PersonalID: ticket.PersonalID,
		Numbers:    toInt64s(ticket.Numbers),
	}, now)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.InsertIntoActiveRound -> %w", err)
	}

	return domain.Ticket{
		ID:         created.ID,
		OwnerID:    created.OwnerID,
		PersonalID: created.PersonalID,
		Numbers:    toInts(created.Numbers),
		RoundID:    created.RoundID,
		CreatedAt:  created.CreatedAt,
	}, nil
}

// FindView treats a malformed id like an unknown one.
func (r *TicketRepository) FindView(ctx context.Context, id string) (domain.TicketView, error) {
	parsed, ok := parseID(id)
	if !ok {
		return domain.TicketView{}, ErrTicketNotFound
	}

	found, err := r.dao.FindView(ctx, parsed)
	if err != nil {
		return domain.TicketView{}, fmt.Errorf("r.dao.FindView -> %w", err)
	}

	view := domain.TicketView{
		ID:           found.ID,
		PersonalID:   found.PersonalID,
		Numbers:      toInts(found.Numbers),
		DrawnNumbers: toInts(found.DrawnNumbers),
	}
	if found.RoundStatus != nil {
		view.RoundStatus = domain.RoundStatus(*found.RoundStatus)
	}

	return view, nil
}
