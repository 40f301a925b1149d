package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	ListByBranch(dbc dbctx.Context, branchID uuid.UUID) ([]*types.User, error)
	CountByRole(dbc dbctx.Context, roleID uuid.UUID) (int64, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	UpdatePassword(dbc dbctx.Context, id uuid.UUID, hash string) error
	TouchLastLogin(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		u.Email = normalizeEmail(u.Email)
	}
	if err := dbc.DB(ur.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	var u types.User
	err := dbc.DB(ur.db).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.DB(ur.db).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var u types.User
	err := dbc.DB(ur.db).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var count int64
	if err := dbc.DB(ur.db).
		Model(&types.User{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) ListByBranch(dbc dbctx.Context, branchID uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if err := dbc.DB(ur.db).
		Where("branch_id = ?", branchID).
		Order("first_name ASC, last_name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) CountByRole(dbc dbctx.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := dbc.DB(ur.db).Model(&types.User{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

func (ur *userRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if e, ok := updates["email"].(string); ok {
		updates["email"] = normalizeEmail(e)
	}
	return dbc.DB(ur.db).Model(&types.User{}).Where("id = ?", id).Updates(updates).Error
}

func (ur *userRepo) UpdatePassword(dbc dbctx.Context, id uuid.UUID, hash string) error {
	return dbc.DB(ur.db).Model(&types.User{}).Where("id = ?", id).Update("password", hash).Error
}

func (ur *userRepo) TouchLastLogin(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.DB(ur.db).Model(&types.User{}).Where("id = ?", id).Update("last_login_at", at).Error
}

func (ur *userRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(ur.db).Where("id = ?", id).Delete(&types.User{}).Error
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
