// internal/services/address_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sapphirus/sapphirus-backend/internal/models"
	"github.com/sapphirus/sapphirus-backend/internal/utils"
)

var ErrAddressNotFound = errors.New("address not found")

const maxAddressesPerUser = 20

type AddressService struct {
	db *gorm.DB
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

type AddressRequest struct {
	Label        string `json:"label" validate:"max=50"`
	Street       string `json:"street" validate:"required,max=255"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	Zip          string `json:"zip" validate:"required,max=20"`
	Phone        string `json:"phone" validate:"max=30"`
	Instructions string `json:"instructions" validate:"max=500"`
}

func (s *AddressService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (s *AddressService) GetAddress(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&address, "id = ?", addressID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &address, nil
}

func (s *AddressService) CreateAddress(ctx context.Context, userID uuid.UUID, req *AddressRequest) (*models.Address, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Address{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count addresses: %w", err)
	}
	if count >= maxAddressesPerUser {
		return nil, fmt.Errorf("address limit of %d reached", maxAddressesPerUser)
	}

	address := &models.Address{
		UserID:       userID,
		Label:        req.Label,
		Street:       req.Street,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		Phone:        req.Phone,
		Instructions: req.Instructions,
	}

	if err := s.db.WithContext(ctx).Create(address).Error; err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return address, nil
}

func (s *AddressService) UpdateAddress(ctx context.Context, addressID, userID uuid.UUID, req *AddressRequest) (*models.Address, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	address, err := s.GetAddress(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"label":        req.Label,
		"street":       req.Street,
		"city":         req.City,
		"state":        req.State,
		"zip":          req.Zip,
		"phone":        req.Phone,
		"instructions": req.Instructions,
	}
	if err := s.db.WithContext(ctx).Model(address).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}

	return s.GetAddress(ctx, addressID, userID)
}

// DeleteAddress removes an address. Orders keep their own address
// snapshot, so history is unaffected.
func (s *AddressService) DeleteAddress(ctx context.Context, addressID, userID uuid.UUID) error {
	address, err := s.GetAddress(ctx, addressID, userID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(address).Error; err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

// Snapshot converts an address into the JSONB form stored on an order.
func (s *AddressService) Snapshot(address *models.Address) models.JSONB {
	return models.JSONB{
		"label":        address.Label,
		"street":       address.Street,
		"city":         address.City,
		"state":        address.State,
		"zip":          address.Zip,
		"phone":        address.Phone,
		"instructions": address.Instructions,
	}
}
