package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

var errInvalidCredentials = errors.New("invalid email or password")

// JWTClaims are carried by every access token. SessionID is the user_token row id.
type JWTClaims struct {
	BranchID   string `json:"branch_id,omitempty"`
	RoleID     string `json:"role_id,omitempty"`
	SuperAdmin bool   `json:"super_admin,omitempty"`
	SessionID  string `json:"sid"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         *types.User `json:"user,omitempty"`
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apierr.BadRequest("missing_credentials", errors.New("email and password are required"))
	}

	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		user, err := as.userRepo.GetByEmail(dbc, email)
		if err != nil {
			return fmt.Errorf("lookup user: %w", err)
		}
		if user == nil || !user.Active {
			return apierr.Unauthorized("invalid_credentials", errInvalidCredentials)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
			return apierr.Unauthorized("invalid_credentials", errInvalidCredentials)
		}

		now := as.now()
		sessionID := uuid.New()
		access, err := as.generateAccessToken(user, sessionID, now)
		if err != nil {
			return fmt.Errorf("generate access token: %w", err)
		}
		userToken := &types.UserToken{
			ID:           sessionID,
			UserID:       user.ID,
			AccessToken:  access,
			RefreshToken: uuid.NewString(),
			ExpiresAt:    now.Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{userToken}); err != nil {
			return fmt.Errorf("create user token: %w", err)
		}
		if err := as.userRepo.TouchLastLogin(dbc, user.ID, now); err != nil {
			return fmt.Errorf("touch last login: %w", err)
		}
		pair = &TokenPair{
			AccessToken:  access,
			RefreshToken: userToken.RefreshToken,
			ExpiresAt:    now.Add(as.accessTTL),
			User:         user,
		}
		return nil
	})
	if err != nil {
		if _, ok := apierr.As(err); !ok {
			as.log.Warn("login failed", "error", err)
		}
		return nil, err
	}
	return pair, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.BadRequest("missing_refresh_token", errors.New("refresh token is required"))
	}

	var (
		pair    *TokenPair
		expired uuid.UUID
	)
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userTokenRepo.GetByRefreshToken(dbc, refreshToken)
		if err != nil {
			return fmt.Errorf("lookup refresh token: %w", err)
		}
		if existing == nil {
			return apierr.Unauthorized("invalid_refresh_token", errors.New("refresh token not recognised"))
		}
		now := as.now()
		if existing.ExpiresAt.Before(now) {
			expired = existing.ID
			return apierr.Unauthorized("refresh_token_expired", errors.New("refresh token expired"))
		}
		user, err := as.userRepo.GetByID(dbc, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if user == nil || !user.Active {
			return apierr.Unauthorized("invalid_refresh_token", errors.New("user no longer active"))
		}
		access, err := as.generateAccessToken(user, existing.ID, now)
		if err != nil {
			return fmt.Errorf("generate access token: %w", err)
		}
		next := uuid.NewString()
		if err := as.userTokenRepo.Rotate(dbc, existing.ID, access, next, now.Add(as.refreshTTL)); err != nil {
			return fmt.Errorf("rotate token: %w", err)
		}
		pair = &TokenPair{
			AccessToken:  access,
			RefreshToken: next,
			ExpiresAt:    now.Add(as.accessTTL),
			User:         user,
		}
		return nil
	})
	if expired != uuid.Nil {
		if derr := as.userTokenRepo.DeleteByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{expired}); derr != nil {
			as.log.Warn("delete expired token failed", "error", derr)
		}
	}
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	if rd.SessionID == uuid.Nil {
		return apierr.Unauthorized("unauthorized", errors.New("no session in request"))
	}
	return as.userTokenRepo.DeleteByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{rd.SessionID})
}

func (as *authService) generateAccessToken(user *types.User, sessionID uuid.UUID, now time.Time) (string, error) {
	claims := JWTClaims{
		SuperAdmin: user.SuperAdmin,
		SessionID:  sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if user.BranchID != nil {
		claims.BranchID = user.BranchID.String()
	}
	if user.RoleID != nil {
		claims.RoleID = user.RoleID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken validates an access token and attaches the caller to ctx.
// The session row must still exist, so logout revokes outstanding access tokens.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing_token", errors.New("missing access token"))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("parse token: %w", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthorized("invalid_token", errors.New("invalid or expired token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("invalid user id in token: %w", err))
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("invalid session id in token: %w", err))
	}

	found, err := as.userTokenRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{sessionID})
	if err != nil {
		return ctx, fmt.Errorf("lookup session: %w", err)
	}
	if len(found) == 0 || found[0] == nil || found[0].AccessToken != tokenString {
		return ctx, apierr.Unauthorized("session_revoked", errors.New("session no longer valid"))
	}

	rd := &ctxutil.RequestData{
		TokenString:  tokenString,
		RefreshToken: found[0].RefreshToken,
		UserID:       userID,
		SessionID:    sessionID,
		SuperAdmin:   claims.SuperAdmin,
	}
	if claims.BranchID != "" {
		if id, err := uuid.Parse(claims.BranchID); err == nil {
			rd.BranchID = id
		}
	}
	if claims.RoleID != "" {
		if id, err := uuid.Parse(claims.RoleID); err == nil {
			rd.RoleID = id
		}
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
