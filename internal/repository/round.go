package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/repository/dao"
)

var (
	ErrNoActiveRound  = dao.ErrNoActiveRound
	ErrNoPendingRound = dao.ErrNoPendingRound
	ErrPersistence    = dao.ErrPersistence
)

type RoundDAO interface {
	Open(ctx context.Context) (dao.Round, error)
	Close(ctx context.Context) (dao.Round, bool, error)
	Publish(ctx context.Context, numbers []int64) (dao.Round, error)
	Summary(ctx context.Context) (dao.Round, int64, bool, error)
	LatestDrawnNumbers(ctx context.Context) ([]int64, error)
}

type RoundRepository struct {
	dao RoundDAO
}

func NewRoundRepository(dao RoundDAO) *RoundRepository {
	return &RoundRepository{
		dao: dao,
	}
}

func (r *RoundRepository) Open(ctx context.Context) (domain.Round, error) {
	opened, err := r.dao.Open(ctx)
	if err != nil {
		return domain.Round{}, fmt.Errorf("r.dao.Open -> %w", err)
	}

	return r.daoToDomain(opened), nil
}

// Close returns false when there was no active round to close.
func (r *RoundRepository) Close(ctx context.Context) (domain.Round, bool, error) {
	closed, ok, err := r.dao.Close(ctx)
	if err != nil {
		return domain.Round{}, false, fmt.Errorf("r.dao.Close -> %w", err)
	}
	if !ok {
		return domain.Round{}, false, nil
	}

	return r.daoToDomain(closed), true, nil
}

func (r *RoundRepository) Publish(ctx context.Context, numbers []int) (domain.Round, error) {
	published, err := r.dao.Publish(ctx, toInt64s(numbers))
	if err != nil {
		return domain.Round{}, fmt.Errorf("r.dao.Publish -> %w", err)
	}

	return r.daoToDomain(published), nil
}

func (r *RoundRepository) Summary(ctx context.Context) (domain.RoundSummary, error) {
	round, count, found, err := r.dao.Summary(ctx)
	if err != nil {
		return domain.RoundSummary{}, fmt.Errorf("r.dao.Summary -> %w", err)
	}
	if !found {
		return domain.RoundSummary{}, nil
	}

	return domain.RoundSummary{
		IsActive:     round.Status == dao.StatusActive,
		TicketCount:  count,
		DrawnNumbers: toInts(round.DrawnNumbers),
	}, nil
}

func (r *RoundRepository) LatestDrawnNumbers(ctx context.Context) ([]int, error) {
	numbers, err := r.dao.LatestDrawnNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.LatestDrawnNumbers -> %w", err)
	}

	return toInts(numbers), nil
}

func (r *RoundRepository) daoToDomain(round dao.Round) domain.Round {
	return domain.Round{
		ID:           round.ID,
		Status:       domain.RoundStatus(round.Status),
		CreatedAt:    round.CreatedAt,
		ClosedAt:     round.ClosedAt,
		DrawnNumbers: toInts(round.DrawnNumbers),
	}
}

func toInt64s(values []int) []int64 {
	if values == nil {
		return nil
	}

	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}

	return out
}

// toInts keeps nil distinct from empty so unpublished results stay null.
func toInts(values []int64) []int {
	if values == nil {
		return nil
	}

	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}

	return out
}

func parseID(id string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}

	return parsed, true
}
