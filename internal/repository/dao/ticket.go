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

type Ticket struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	OwnerID    string        `gorm:"type:text;not null;index"`
	PersonalID string        `gorm:"type:varchar(20);not null"`
	Numbers    pq.Int64Array `gorm:"type:integer[];not null"`
	RoundID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	Round      *Round        `gorm:"foreignKey:RoundID;constraint:OnDelete:RESTRICT"`
	CreatedAt  time.Time     `gorm:"not null"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// TicketView is a ticket joined with the state of its round.
type TicketView struct {
	ID           uuid.UUID
	PersonalID   string
	Numbers      pq.Int64Array
	RoundID      uuid.UUID
	DrawnNumbers pq.Int64Array
	RoundStatus  *string
}

type TicketDAO struct {
	tx txRunner
}

func NewTicketDAO(db *gorm.DB, opts ...Option) *TicketDAO {
	return &TicketDAO{
		tx: newTxRunner(db, opts...),
	}
}

// InsertIntoActiveRound binds the ticket to the round that is active at commit
// time. The active row is share-locked so a concurrent Close either waits for
// this insert or is observed before it.
func (d *TicketDAO) InsertIntoActiveRound(ctx context.Context, ticket Ticket, now time.Time) (Ticket, error) {
	var created Ticket

	err := d.tx.run(ctx, nil, func(tx *gorm.DB) error {
		var active Round
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("status = ?", StatusActive).
			Take(&active).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActiveRound
		}
		if err != nil {
			return err
		}

		created = ticket
		created.ID = uuid.New()
		created.RoundID = active.ID
		created.Round = nil
		created.CreatedAt = now

		return tx.Omit(clause.Associations).Create(&created).Error
	})
	if err != nil {
		return Ticket{}, translate(err)
	}

	return created, nil
}

// FindView reads a ticket together with its round in one statement.
func (d *TicketDAO) FindView(ctx context.Context, id uuid.UUID) (TicketView, error) {
	var view TicketView

	err := d.tx.run(ctx, readOnly, func(tx *gorm.DB) error {
		result := tx.Table("tickets AS t").
			Select("t.id, t.personal_id, t.numbers, t.round_id, r.drawn_numbers, r.status AS round_status").
			Joins("LEFT JOIN rounds AS r ON r.id = t.round_id").
			Where("t.id = ?", id).
			Limit(1).
			Scan(&view)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTicketNotFound
		}

		return nil
	})
	if err != nil {
		return TicketView{}, translate(err)
	}

	return view, nil
}
