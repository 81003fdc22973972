// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sapphirus/sapphirus-backend/internal/models"
	"github.com/sapphirus/sapphirus-backend/internal/utils"
)

var ErrPendingOrders = errors.New("account has pending orders")

type UserService struct {
	db      *gorm.DB
	storage *StorageService
}

func NewUserService(db *gorm.DB, storage *StorageService) *UserService {
	return &UserService{
		db:      db,
		storage: storage,
	}
}

type UpdateProfileRequest struct {
	FirstName   *string      `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string      `json:"last_name" validate:"omitempty,min=1,max=100"`
	ProfileData models.JSONB `json:"profile_data"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strong_password"`
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.ProfileData != nil {
		merged := user.ProfileData
		if merged == nil {
			merged = models.JSONB{}
		}
		for k, v := range req.ProfileData {
			merged[k] = v
		}
		updates["profile_data"] = merged
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.CheckPassword(req.CurrentPassword); err != nil {
		return ErrInvalidCredentials
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).
		Update("password_hash", user.PasswordHash).Error; err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	return nil
}

func (s *UserService) UploadAvatar(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploadResult, err := s.storage.UploadFile(ctx, file, UploadOptions{
		Folder:    "avatars",
		MaxSize:   5 * 1024 * 1024,
		FileTypes: []string{"image/jpeg", "image/png", "image/webp"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).
		Update("avatar_url", uploadResult.URL).Error; err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	user.AvatarURL = uploadResult.URL
	return user, nil
}

// DeleteAccount soft-deletes the user and their cart. Accounts with orders
// still awaiting payment are refused so a webhook cannot complete an order
// for a deleted customer.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	var pendingCount int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("user_id = ? AND status = ?", userID, models.OrderStatusPending).
		Count(&pendingCount).Error; err != nil {
		return fmt.Errorf("failed to check pending orders: %w", err)
	}

	if pendingCount > 0 {
		return ErrPendingOrders
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Cart{}).Error; err != nil {
			return fmt.Errorf("failed to delete cart: %w", err)
		}
		if err := tx.Delete(user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}
