// internal/services/guest_cart.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sapphirus/sapphirus-backend/internal/models"
	"github.com/sapphirus/sapphirus-backend/internal/utils"
)

const guestCartKeyPrefix = "cart:guest:"

// GuestCartStore keeps anonymous carts in Redis under an opaque token.
// Every write refreshes the TTL so active guests never lose their cart.
type GuestCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGuestCartStore(client *redis.Client, ttlHours int) *GuestCartStore {
	return &GuestCartStore{
		client: client,
		ttl:    time.Duration(ttlHours) * time.Hour,
	}
}

// NewToken mints the token handed to a guest on their first cart write.
func (s *GuestCartStore) NewToken() (string, error) {
	return utils.GenerateCartToken()
}

func (s *GuestCartStore) Load(ctx context.Context, token string) (models.CartItems, error) {
	if token == "" {
		return models.CartItems{}, nil
	}

	data, err := s.client.Get(ctx, guestCartKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.CartItems{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}

	var items models.CartItems
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}
	return items, nil
}

func (s *GuestCartStore) Save(ctx context.Context, token string, items models.CartItems) error {
	if token == "" {
		return errors.New("guest cart token is required")
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}

	if err := s.client.Set(ctx, guestCartKeyPrefix+token, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write guest cart: %w", err)
	}
	return nil
}

func (s *GuestCartStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.client.Del(ctx, guestCartKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete guest cart: %w", err)
	}
	return nil
}
