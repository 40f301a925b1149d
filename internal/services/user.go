package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

const minPasswordLen = 8

type UserInput struct {
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone"`
	RoleID    *uuid.UUID `json:"role_id"`
	Active    *bool      `json:"active"`
}

type UserUpdate struct {
	Email     *string    `json:"email"`
	Password  *string    `json:"password"`
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Phone     *string    `json:"phone"`
	RoleID    *uuid.UUID `json:"role_id"`
	Active    *bool      `json:"active"`
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	ChangePassword(ctx context.Context, current, next string) error
	List(ctx context.Context) ([]*types.User, error)
	Get(ctx context.Context, id uuid.UUID) (*types.User, error)
	Create(ctx context.Context, in UserInput) (*types.User, error)
	Update(ctx context.Context, id uuid.UUID, in UserUpdate) (*types.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	roleRepo      repos.RoleRepo
	userTokenRepo repos.UserTokenRepo
	logRepo       repos.ActivityLogRepo
	hashCost      int
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	roleRepo repos.RoleRepo,
	userTokenRepo repos.UserTokenRepo,
	logRepo repos.ActivityLogRepo,
) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		roleRepo:      roleRepo,
		userTokenRepo: userTokenRepo,
		logRepo:       logRepo,
		hashCost:      bcrypt.DefaultCost,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if u == nil {
		return nil, notFound("user_not_found", "user", rd.UserID)
	}
	return u, nil
}

func (us *userService) ChangePassword(ctx context.Context, current, next string) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	if len(next) < minPasswordLen {
		return apierr.BadRequest("weak_password", fmt.Errorf("password must be at least %d characters", minPasswordLen))
	}
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := us.userRepo.GetByID(dbc, rd.UserID)
		if err != nil {
			return fmt.Errorf("error fetching user: %w", err)
		}
		if u == nil {
			return notFound("user_not_found", "user", rd.UserID)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)); err != nil {
			return apierr.BadRequest("wrong_password", errors.New("current password is incorrect"))
		}
		hash, err := us.hash(next)
		if err != nil {
			return err
		}
		return us.userRepo.UpdatePassword(dbc, u.ID, hash)
	})
}

func (us *userService) List(ctx context.Context) ([]*types.User, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return us.userRepo.ListByBranch(dbctx.Context{Ctx: ctx}, branchID)
}

func (us *userService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return us.getInBranch(dbctx.Context{Ctx: ctx}, branchID, id)
}

func (us *userService) getInBranch(dbc dbctx.Context, branchID, id uuid.UUID) (*types.User, error) {
	u, err := us.userRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if u == nil || u.BranchID == nil || *u.BranchID != branchID {
		return nil, notFound("user_not_found", "user", id)
	}
	return u, nil
}

func (us *userService) Create(ctx context.Context, in UserInput) (*types.User, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen {
		return nil, apierr.BadRequest("weak_password", fmt.Errorf("password must be at least %d characters", minPasswordLen))
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return nil, apierr.BadRequest("missing_name", errors.New("first_name and last_name are required"))
	}
	hash, err := us.hash(in.Password)
	if err != nil {
		return nil, err
	}

	b := branchID
	user := &types.User{
		BranchID:  &b,
		RoleID:    in.RoleID,
		Email:     email,
		Password:  hash,
		FirstName: first,
		LastName:  last,
		Phone:     strings.TrimSpace(in.Phone),
		Active:    true,
	}
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := us.checkRole(dbc, branchID, in.RoleID); err != nil {
			return err
		}
		exists, err := us.userRepo.EmailExists(dbc, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.Conflict("email_taken", fmt.Errorf("email %s already registered", email))
		}
		if _, err := us.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		// the column defaults to true, so inactive users are written in a second step
		if in.Active != nil && !*in.Active {
			if err := us.userRepo.Update(dbc, user.ID, map[string]any{"active": false}); err != nil {
				return err
			}
			user.Active = false
		}
		return us.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityUser, user.ID, "created", "", map[string]any{"email": email}),
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (us *userService) Update(ctx context.Context, id uuid.UUID, in UserUpdate) (*types.User, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.User
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := us.getInBranch(dbc, branchID, id)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		revoke := false
		if in.Email != nil {
			email, err := normalizeEmail(*in.Email)
			if err != nil {
				return err
			}
			if email != u.Email {
				exists, err := us.userRepo.EmailExists(dbc, email)
				if err != nil {
					return fmt.Errorf("check email: %w", err)
				}
				if exists {
					return apierr.Conflict("email_taken", fmt.Errorf("email %s already registered", email))
				}
				updates["email"] = email
			}
		}
		if in.FirstName != nil {
			updates["first_name"] = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			updates["last_name"] = strings.TrimSpace(*in.LastName)
		}
		if in.Phone != nil {
			updates["phone"] = strings.TrimSpace(*in.Phone)
		}
		if in.RoleID != nil {
			if err := us.checkRole(dbc, branchID, in.RoleID); err != nil {
				return err
			}
			updates["role_id"] = *in.RoleID
			revoke = true
		}
		if in.Active != nil {
			if !*in.Active && u.ID == rd.UserID {
				return apierr.BadRequest("cannot_deactivate_self", errors.New("you cannot deactivate your own account"))
			}
			updates["active"] = *in.Active
			revoke = revoke || !*in.Active
		}
		if in.Password != nil {
			if len(*in.Password) < minPasswordLen {
				return apierr.BadRequest("weak_password", fmt.Errorf("password must be at least %d characters", minPasswordLen))
			}
			hash, err := us.hash(*in.Password)
			if err != nil {
				return err
			}
			updates["password"] = hash
			revoke = true
		}
		if len(updates) > 0 {
			if err := us.userRepo.Update(dbc, u.ID, updates); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}
		// role and credential changes take effect on the next login
		if revoke {
			if err := us.userTokenRepo.DeleteByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil {
				return fmt.Errorf("revoke sessions: %w", err)
			}
		}
		if err := us.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityUser, u.ID, "updated", "", mapKeys(updates)),
		}); err != nil {
			return err
		}
		out, err = us.userRepo.GetByID(dbc, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (us *userService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return err
	}
	if id == rd.UserID {
		return apierr.BadRequest("cannot_delete_self", errors.New("you cannot delete your own account"))
	}
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := us.getInBranch(dbc, branchID, id)
		if err != nil {
			return err
		}
		if err := us.userTokenRepo.DeleteByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		if err := us.userRepo.Delete(dbc, u.ID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return us.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityUser, u.ID, "deleted", "", map[string]any{"email": u.Email}),
		})
	})
}

func (us *userService) checkRole(dbc dbctx.Context, branchID uuid.UUID, roleID *uuid.UUID) error {
	if roleID == nil {
		return nil
	}
	r, err := us.roleRepo.GetByID(dbc, branchID, *roleID)
	if err != nil {
		return fmt.Errorf("load role: %w", err)
	}
	if r == nil {
		return apierr.BadRequest("unknown_role", fmt.Errorf("role %s not found in branch", *roleID))
	}
	return nil
}

func (us *userService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), us.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apierr.BadRequest("missing_email", errors.New("email is required"))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apierr.BadRequest("invalid_email", fmt.Errorf("invalid email %q", raw))
	}
	return email, nil
}
