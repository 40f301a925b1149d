package queueing

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type SequenceRepo interface {
	// Next reserves the next ticket number for a prefix in a branch on a day.
	// Call it inside the transaction that creates the ticket.
	Next(dbc dbctx.Context, branchID uuid.UUID, prefix, day string) (int, error)
}

type sequenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSequenceRepo(db *gorm.DB, baseLog *logger.Logger) SequenceRepo {
	repoLog := baseLog.With("repo", "SequenceRepo")
	return &sequenceRepo{db: db, log: repoLog}
}

func (r *sequenceRepo) Next(dbc dbctx.Context, branchID uuid.UUID, prefix, day string) (int, error) {
	tx := dbc.DB(r.db)
	for attempt := 0; attempt < 2; attempt++ {
		res := tx.Model(&types.TicketSequence{}).
			Where("branch_id = ? AND prefix = ? AND day = ?", branchID, prefix, day).
			Update("last_seq", gorm.Expr("last_seq + 1"))
		if res.Error != nil {
			return 0, fmt.Errorf("bump sequence: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&types.TicketSequence{BranchID: branchID, Prefix: prefix, Day: day, Last: 1})
			if ins.Error != nil {
				return 0, fmt.Errorf("start sequence: %w", ins.Error)
			}
			if ins.RowsAffected == 1 {
				return 1, nil
			}
			// Lost the insert race; bump the row the other writer created.
			continue
		}
		var seq types.TicketSequence
		if err := tx.Where("branch_id = ? AND prefix = ? AND day = ?", branchID, prefix, day).First(&seq).Error; err != nil {
			return 0, fmt.Errorf("read sequence: %w", err)
		}
		return seq.Last, nil
	}
	return 0, fmt.Errorf("sequence %s for branch %s day %s: contention", prefix, branchID, day)
}
