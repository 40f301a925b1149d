package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type SettingRepo interface {
	Create(dbc dbctx.Context, setting *types.Setting) error
	GetByBranchID(dbc dbctx.Context, branchID uuid.UUID) (*types.Setting, error)
	Update(dbc dbctx.Context, branchID uuid.UUID, updates map[string]any) error
	UpdateLogo(dbc dbctx.Context, branchID uuid.UUID, key, url string) error
}

type settingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSettingRepo(db *gorm.DB, baseLog *logger.Logger) SettingRepo {
	repoLog := baseLog.With("repo", "SettingRepo")
	return &settingRepo{db: db, log: repoLog}
}

func (r *settingRepo) Create(dbc dbctx.Context, setting *types.Setting) error {
	return dbc.DB(r.db).Create(setting).Error
}

func (r *settingRepo) GetByBranchID(dbc dbctx.Context, branchID uuid.UUID) (*types.Setting, error) {
	var s types.Setting
	err := dbc.DB(r.db).Where("branch_id = ?", branchID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingRepo) Update(dbc dbctx.Context, branchID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Setting{}).Where("branch_id = ?", branchID).Updates(updates).Error
}

func (r *settingRepo) UpdateLogo(dbc dbctx.Context, branchID uuid.UUID, key, url string) error {
	return r.Update(dbc, branchID, map[string]any{"logo_key": key, "logo_url": url})
}
