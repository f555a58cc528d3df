package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/repos"
	"github.com/wellbeam/burnout-backend/internal/requestdata"
	"github.com/wellbeam/burnout-backend/internal/types"
	"github.com/wellbeam/burnout-backend/internal/utils"
)

const resetTokenPurpose = "password_reset"

type AuthService interface {
	Register(ctx context.Context, email, password, fullName string) (*types.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *types.User, err error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context) error
	RecoverPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	avatarService AvatarService
	auditService  AuditService
	mailer        Mailer
	validate      *validator.Validate
	jwtSecretKey  string
	appHost       string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	avatarService AvatarService,
	auditService AuditService,
	mailer Mailer,
	jwtSecretKey string,
	appHost string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	resetTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
		auditService:  auditService,
		mailer:        mailer,
		validate:      validator.New(),
		jwtSecretKey:  jwtSecretKey,
		appHost:       appHost,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		resetTTL:      resetTTL,
	}
}

func (as *authService) Register(ctx context.Context, email, password, fullName string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)

	if err := as.validate.Var(email, "required,email"); err != nil {
		return nil, &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if err := as.validate.Var(password, "required,min=8"); err != nil {
		return nil, &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &types.User{
		Email:    email,
		Password: hashed,
		FullName: fullName,
		IsActive: true,
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
			if isUniqueViolation(err) {
				return ErrEmailExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		if as.avatarService != nil {
			if err := as.avatarService.CreateAndUploadUserAvatar(ctx, tx, user); err != nil {
				return fmt.Errorf("create user avatar: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	as.auditService.Record(ctx, user.ID, "register_user", fmt.Sprintf("email=%s", email))
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, *types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", "", nil, fmt.Errorf("look up user: %w", err)
	}
	if len(users) == 0 {
		return "", "", nil, ErrInvalidCredentials
	}
	user := users[0]
	if err := utils.CheckPassword(user.Password, password); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	var accessToken, refreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// One active token row per user; a new login replaces it.
		if err := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); err != nil {
			return fmt.Errorf("clear old tokens: %w", err)
		}
		accessToken, err = as.generateAccessToken(user.ID)
		if err != nil {
			return err
		}
		refreshToken = uuid.New().String()
		token := &types.UserToken{
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{token}); err != nil {
			return fmt.Errorf("create user token: %w", err)
		}
		now := time.Now().UTC()
		if err := as.userRepo.UpdateLastLogin(ctx, tx, user.ID, now); err != nil {
			return fmt.Errorf("update last login: %w", err)
		}
		user.LastLogin = &now
		return nil
	})
	if err != nil {
		return "", "", nil, err
	}

	as.auditService.Record(ctx, user.ID, "login", "")
	return accessToken, refreshToken, user, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	token, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("look up refresh token: %w", err)
	}
	if token == nil || token.ExpiresAt.Before(time.Now()) {
		return "", "", ErrUnauthorized
	}

	var newAccess, newRefresh string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{token.UserID}); err != nil {
			return fmt.Errorf("rotate tokens: %w", err)
		}
		newAccess, err = as.generateAccessToken(token.UserID)
		if err != nil {
			return err
		}
		newRefresh = uuid.New().String()
		replacement := &types.UserToken{
			UserID:       token.UserID,
			AccessToken:  newAccess,
			RefreshToken: newRefresh,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		_, err = as.userTokenRepo.Create(ctx, tx, []*types.UserToken{replacement})
		return err
	})
	if err != nil {
		return "", "", err
	}
	return newAccess, newRefresh, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return ErrUnauthorized
	}
	if err := as.userTokenRepo.FullDeleteByUserIDs(ctx, nil, []uuid.UUID{rd.UserID}); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	as.auditService.Record(ctx, rd.UserID, "logout", "")
	return nil
}

func (as *authService) RecoverPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if len(users) == 0 {
		return gorm.ErrRecordNotFound
	}
	user := users[0]

	claims := jwt.MapClaims{
		"sub":     user.ID.String(),
		"purpose": resetTokenPurpose,
		"exp":     time.Now().Add(as.resetTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return fmt.Errorf("sign reset token: %w", err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", as.appHost, token)
	body := fmt.Sprintf(`Click here to reset your password: <a href="%s">%s</a>`, resetLink, resetLink)
	if err := as.mailer.Send(ctx, user.Email, "Password Reset", body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	as.auditService.Record(ctx, user.ID, "recover_password", "")
	return nil
}

func (as *authService) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	if err := as.validate.Var(newPassword, "required,min=8"); err != nil {
		return &ValidationError{Field: "new_password", Reason: "must be at least 8 characters"}
	}

	userID, err := as.parseToken(tokenString, resetTokenPurpose)
	if err != nil {
		return ErrInvalidResetToken
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.userRepo.UpdatePassword(ctx, tx, userID, hashed); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		// A password change invalidates every outstanding session.
		return as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{userID})
	})
	if err != nil {
		return err
	}

	as.auditService.Record(ctx, userID, "reset_password", "")
	return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	userID, err := as.parseToken(tokenString, "")
	if err != nil {
		return ctx, ErrUnauthorized
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) generateAccessToken(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(as.accessTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

// parseToken verifies the signature and expiry and returns the subject.
// wantPurpose guards reset tokens against being replayed as access
// tokens and vice versa.
func (as *authService) parseToken(tokenString, wantPurpose string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("unexpected claims type")
	}
	purpose, _ := claims["purpose"].(string)
	if purpose != wantPurpose {
		return uuid.Nil, fmt.Errorf("token purpose mismatch")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}
	return userID, nil
}
