package content

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type AdRepo interface {
	Create(dbc dbctx.Context, ad *types.Ad) error
	GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Ad, error)
	ListByBranch(dbc dbctx.Context, branchID uuid.UUID, activeOnly bool) ([]*types.Ad, error)
	MaxPosition(dbc dbctx.Context, branchID uuid.UUID) (int, error)
	Update(dbc dbctx.Context, branchID, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, branchID, id uuid.UUID) error
}

type adRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdRepo(db *gorm.DB, baseLog *logger.Logger) AdRepo {
	repoLog := baseLog.With("repo", "AdRepo")
	return &adRepo{db: db, log: repoLog}
}

func (r *adRepo) Create(dbc dbctx.Context, ad *types.Ad) error {
	return dbc.DB(r.db).Create(ad).Error
}

func (r *adRepo) GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Ad, error) {
	var a types.Ad
	err := dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *adRepo) ListByBranch(dbc dbctx.Context, branchID uuid.UUID, activeOnly bool) ([]*types.Ad, error) {
	q := dbc.DB(r.db).Where("branch_id = ?", branchID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []*types.Ad
	if err := q.Order("position ASC, created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *adRepo) MaxPosition(dbc dbctx.Context, branchID uuid.UUID) (int, error) {
	var max int
	err := dbc.DB(r.db).Model(&types.Ad{}).
		Where("branch_id = ?", branchID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	return max, err
}

func (r *adRepo) Update(dbc dbctx.Context, branchID, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Ad{}).Where("branch_id = ? AND id = ?", branchID, id).Updates(updates).Error
}

func (r *adRepo) Delete(dbc dbctx.Context, branchID, id uuid.UUID) error {
	return dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).Delete(&types.Ad{}).Error
}
