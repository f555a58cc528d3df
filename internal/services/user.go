package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/repos"
	"github.com/wellbeam/burnout-backend/internal/requestdata"
	"github.com/wellbeam/burnout-backend/internal/types"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, fullName string) (*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	avatarService AvatarService
	auditService  AuditService
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, avatarService AvatarService, auditService AuditService) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		avatarService: avatarService,
		auditService:  auditService,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	found, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if len(found) == 0 || found[0] == nil {
		return nil, fmt.Errorf("user does not exist")
	}
	return found[0], nil
}

func (us *userService) UpdateProfile(ctx context.Context, fullName string) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, &ValidationError{Field: "full_name", Reason: "must not be empty"}
	}

	var out *types.User
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := us.userRepo.GetByIDs(ctx, tx, []uuid.UUID{rd.UserID})
		if err != nil || len(found) == 0 || found[0] == nil {
			return fmt.Errorf("user not found")
		}
		user := found[0]

		if err := us.userRepo.UpdateFullName(ctx, tx, rd.UserID, fullName); err != nil {
			return fmt.Errorf("update full name: %w", err)
		}
		user.FullName = fullName

		// New initials, new avatar.
		if us.avatarService != nil {
			if err := us.avatarService.CreateAndUploadUserAvatar(ctx, tx, user); err != nil {
				return fmt.Errorf("regenerate avatar: %w", err)
			}
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	us.auditService.Record(ctx, rd.UserID, "edit_profile", fmt.Sprintf("name=%s", fullName))
	return out, nil
}
