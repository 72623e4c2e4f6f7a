package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/logger"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/metrics"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/repository"
)

var (
	ErrNoActiveRound  = repository.ErrNoActiveRound
	ErrNoPendingRound = repository.ErrNoPendingRound
	ErrPersistence    = repository.ErrPersistence
)

type RoundRepository interface {
	Open(ctx context.Context) (domain.Round, error)
	Close(ctx context.Context) (domain.Round, bool, error)
	Publish(ctx context.Context, numbers []int) (domain.Round, error)
	Summary(ctx context.Context) (domain.RoundSummary, error)
	LatestDrawnNumbers(ctx context.Context) ([]int, error)
}

// RoundService drives round transitions. Their timestamps come from the
// store so that every instance orders rounds on the same clock.
type RoundService struct {
	repo RoundRepository
}

func NewRoundService(repo RoundRepository) *RoundService {
	return &RoundService{
		repo: repo,
	}
}

// Open starts a new round, closing the active one first if there is one.
func (s *RoundService) Open(ctx context.Context) (domain.Round, error) {
	started := time.Now()

	round, err := s.repo.Open(ctx)
	if err != nil {
		metrics.RecordRound("open", "fail", started)
		return domain.Round{}, fmt.Errorf("s.repo.Open -> %w", err)
	}

	metrics.RecordRound("open", "success", started)
	logger.FromContext(ctx).Info("round opened", zap.Stringer("round_id", round.ID))

	return round, nil
}

// Close ends the active round. Closing when nothing is active is a no-op and
// reports false.
func (s *RoundService) Close(ctx context.Context) (domain.Round, bool, error) {
	started := time.Now()

	round, closed, err := s.repo.Close(ctx)
	if err != nil {
		metrics.RecordRound("close", "fail", started)
		return domain.Round{}, false, fmt.Errorf("s.repo.Close -> %w", err)
	}
	if !closed {
		metrics.RecordRound("close", "noop", started)
		logger.FromContext(ctx).Info("close requested with no active round")
		return domain.Round{}, false, nil
	}

	metrics.RecordRound("close", "success", started)
	logger.FromContext(ctx).Info("round closed", zap.Stringer("round_id", round.ID))

	return round, true, nil
}

// Publish attaches drawn numbers to the most recently closed round, once.
func (s *RoundService) Publish(ctx context.Context, numbers []int) (domain.Round, error) {
	started := time.Now()

	valid, err := domain.ValidateDrawnNumbers(numbers)
	if err != nil {
		metrics.RecordRound("publish", "fail", started)
		return domain.Round{}, err
	}

	round, err := s.repo.Publish(ctx, valid)
	if err != nil {
		metrics.RecordRound("publish", "fail", started)
		if errors.Is(err, ErrNoPendingRound) {
			return domain.Round{}, ErrNoPendingRound
		}

		return domain.Round{}, fmt.Errorf("s.repo.Publish -> %w", err)
	}

	metrics.RecordRound("publish", "success", started)
	logger.FromContext(ctx).Info("round results published",
		zap.Stringer("round_id", round.ID),
		zap.Ints("drawn_numbers", round.DrawnNumbers),
	)

	return round, nil
}

func (s *RoundService) CurrentSummary(ctx context.Context) (domain.RoundSummary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return domain.RoundSummary{}, fmt.Errorf("s.repo.Summary -> %w", err)
	}

	return summary, nil
}

// LatestDrawnNumbers returns nil when no round has been published yet.
func (s *RoundService) LatestDrawnNumbers(ctx context.Context) ([]int, error) {
	numbers, err := s.repo.LatestDrawnNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.LatestDrawnNumbers -> %w", err)
	}

	return numbers, nil
}
