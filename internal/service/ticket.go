package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/logger"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/metrics"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/repository"
)

var (
	ErrTicketNotFound        = repository.ErrTicketNotFound
	ErrTicketExists          = repository.ErrTicketExists
	ErrInvalidRoundReference = repository.ErrInvalidRoundReference
	ErrInvalidTicketData     = repository.ErrInvalidTicketData
)

type TicketRepository interface {
	CreateInActiveRound(ctx context.Context, ticket domain.Ticket, now time.Time) (domain.Ticket, error)
	FindView(ctx context.Context, id string) (domain.TicketView, error)
}

// Clock supplies the creation time written to tickets.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

type QREncoder interface {
	EncodeDataURL(content string) (string, error)
}

type TicketService struct {
	repo        TicketRepository
	qr          QREncoder
	frontendURL string
	now         Clock
}

func NewTicketService(repo TicketRepository, qr QREncoder, frontendURL string, clock Clock) *TicketService {
	if clock == nil {
		clock = systemClock
	}

	return &TicketService{
		repo:        repo,
		qr:          qr,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         clock,
	}
}

// Submit validates the entry and binds it to the round active at commit time.
// Validation failures never reach the store.
func (s *TicketService) Submit(ctx context.Context, ownerID, personalID string, numbers domain.RawNumbers) (uuid.UUID, error) {
	started := time.Now()

	valid, err := domain.ValidateTicket(personalID, numbers)
	if err != nil {
		metrics.RecordSubmission(metrics.OutcomeInvalid, started)
		return uuid.Nil, err
	}

	created, err := s.repo.CreateInActiveRound(ctx, domain.Ticket{
		OwnerID:    ownerID,
		PersonalID: valid.PersonalID,
		Numbers:    valid.Numbers,
	}, s.now())
	if err != nil {
		if errors.Is(err, ErrNoActiveRound) {
			metrics.RecordSubmission(metrics.OutcomeNoActiveRound, started)
			return uuid.Nil, ErrNoActiveRound
		}

		metrics.RecordSubmission(metrics.OutcomeError, started)
		return uuid.Nil, fmt.Errorf("s.repo.CreateInActiveRound -> %w", err)
	}

	metrics.RecordSubmission(metrics.OutcomeAccepted, started)
	logger.FromContext(ctx).Info("ticket accepted",
		zap.Stringer("ticket_id", created.ID),
		zap.Stringer("round_id", created.RoundID),
	)

	return created.ID, nil
}

// Lookup reads a ticket with the current state of its round. Malformed ids
// are reported as ErrTicketNotFound.
func (s *TicketService) Lookup(ctx context.Context, ticketID string) (domain.TicketView, error) {
	view, err := s.repo.FindView(ctx, ticketID)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return domain.TicketView{}, ErrTicketNotFound
		}

		return domain.TicketView{}, fmt.Errorf("s.repo.FindView -> %w", err)
	}

	return view, nil
}

func (s *TicketService) TicketURL(ticketID string) string {
	return s.frontendURL + "/ticket/" + ticketID
}

// TicketQR looks the ticket up and renders a QR code pointing at its page.
// Encoding happens after the read transaction has finished.
func (s *TicketService) TicketQR(ctx context.Context, ticketID string) (domain.TicketQR, error) {
	view, err := s.Lookup(ctx, ticketID)
	if err != nil {
		return domain.TicketQR{}, err
	}

	url := s.TicketURL(view.ID.String())
	code, err := s.qr.EncodeDataURL(url)
	if err != nil {
		return domain.TicketQR{}, fmt.Errorf("s.qr.EncodeDataURL -> %w", err)
	}

	return domain.TicketQR{
		QRCode:    code,
		TicketURL: url,
		Ticket:    view,
	}, nil
}
