package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	StatusActive = "active"
	StatusClosed = "closed"

	singleActiveIndex = "rounds_single_active"

	// Key of the transaction-scoped advisory lock that serialises Open, Close
	// and Publish across every service instance.
	roundLifecycleLockKey int64 = 0x6c6f746f
)

type Round struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Status       string        `gorm:"type:varchar(16);not null;index;uniqueIndex:rounds_single_active,where:status = 'active'"`
	CreatedAt    time.Time     `gorm:"not null;index"`
	ClosedAt     *time.Time    `gorm:"index"`
	DrawnNumbers pq.Int64Array `gorm:"type:integer[]"`
}

func (Round) TableName() string {
	return "rounds"
}

type RoundDAO struct {
	tx txRunner
}

func NewRoundDAO(db *gorm.DB, opts ...Option) *RoundDAO {
	return &RoundDAO{
		tx: newTxRunner(db, opts...),
	}
}

func lockLifecycle(tx *gorm.DB) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", roundLifecycleLockKey).Error
}

// storeNow is evaluated by PostgreSQL. Lifecycle timestamps are taken after
// the advisory lock, so their order follows the order of the transitions
// whichever instance runs them.
var storeNow = gorm.Expr("clock_timestamp()")

// Open closes the active round, if any, and inserts a new active round in the
// same transaction.
func (d *RoundDAO) Open(ctx context.Context) (Round, error) {
	var opened Round

	err := d.tx.run(ctx, nil, func(tx *gorm.DB) error {
		if err := lockLifecycle(tx); err != nil {
			return err
		}

		err := tx.Model(&Round{}).
			Where("status = ?", StatusActive).
			Updates(map[string]interface{}{"status": StatusClosed, "closed_at": storeNow}).Error
		if err != nil {
			return err
		}

		opened = Round{}
		result := tx.Raw(
			"INSERT INTO rounds (id, status, created_at) VALUES (?, ?, clock_timestamp()) RETURNING *",
			uuid.New(), StatusActive,
		).Scan(&opened)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("insert round returned no row")
		}

		return nil
	})
	if err != nil {
		return Round{}, translate(err)
	}

	return opened, nil
}

// Close transitions the active round to closed. ok is false when no round was
// active.
func (d *RoundDAO) Close(ctx context.Context) (closed Round, ok bool, err error) {
	err = d.tx.run(ctx, nil, func(tx *gorm.DB) error {
		ok = false
		if err := lockLifecycle(tx); err != nil {
			return err
		}

		var active Round
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ?", StatusActive).
			Take(&active).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		err = tx.Model(&active).
			Clauses(clause.Returning{}).
			Updates(map[string]interface{}{"status": StatusClosed, "closed_at": storeNow}).Error
		if err != nil {
			return err
		}

		closed, ok = active, true

		return nil
	})
	if err != nil {
		return Round{}, false, translate(err)
	}

	return closed, ok, nil
}

// Publish attaches drawn numbers to the most recently closed round. It fails
// with ErrNoPendingRound when that round already has results.
func (d *RoundDAO) Publish(ctx context.Context, numbers []int64) (Round, error) {
	var published Round

	err := d.tx.run(ctx, nil, func(tx *gorm.DB) error {
		if err := lockLifecycle(tx); err != nil {
			return err
		}

		var latest Round
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ? AND closed_at IS NOT NULL", StatusClosed).
			Order("closed_at DESC").
			Order("created_at DESC").
			Take(&latest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoPendingRound
		}
		if err != nil {
			return err
		}
		if latest.DrawnNumbers != nil {
			return ErrNoPendingRound
		}

		result := tx.Model(&Round{}).
			Where("id = ? AND status = ? AND drawn_numbers IS NULL", latest.ID, StatusClosed).
			Update("drawn_numbers", pq.Int64Array(numbers))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNoPendingRound
		}

		published = latest
		published.DrawnNumbers = numbers

		return nil
	})
	if err != nil {
		return Round{}, translate(err)
	}

	return published, nil
}

// Summary resolves the active round, or else the most recently created one,
// and counts its tickets in the same snapshot. found is false when no round
// exists yet.
func (d *RoundDAO) Summary(ctx context.Context) (round Round, ticketCount int64, found bool, err error) {
	err = d.tx.run(ctx, readOnly, func(tx *gorm.DB) error {
		found = false
		ticketCount = 0

		err := tx.Where("status = ?", StatusActive).Take(&round).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = tx.Order("created_at DESC").Take(&round).Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		return tx.Model(&Ticket{}).Where("round_id = ?", round.ID).Count(&ticketCount).Error
	})
	if err != nil {
		return Round{}, 0, false, translate(err)
	}

	return round, ticketCount, found, nil
}

// LatestDrawnNumbers returns the drawn numbers of the most recently created
// published round, or nil when nothing has been published.
func (d *RoundDAO) LatestDrawnNumbers(ctx context.Context) ([]int64, error) {
	var round Round

	err := d.tx.run(ctx, readOnly, func(tx *gorm.DB) error {
		err := tx.Where("drawn_numbers IS NOT NULL").
			Order("created_at DESC").
			Take(&round).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			round = Round{}
			return nil
		}

		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	return round.DrawnNumbers, nil
}
