package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eshop-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	otpWindow   = 5 * time.Minute
	otpMaxSends = 3

	productCacheTTL = 10 * time.Minute
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AllowOtpSend rate-limits OTP issuance per email. The counter expires
// with the OTP validity window.
func (c *Client) AllowOtpSend(ctx context.Context, email string) (bool, error) {
	key := fmt.Sprintf("otp:sends:%s", email)

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("otp throttle incr: %w", err)
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, otpWindow).Err(); err != nil {
			return false, fmt.Errorf("otp throttle expire: %w", err)
		}
	}
	return count <= otpMaxSends, nil
}

// CacheProduct stores a product snapshot for read-path lookups.
func (c *Client) CacheProduct(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	return c.rdb.Set(ctx, productKey(p.ID), data, productCacheTTL).Err()
}

// GetCachedProduct returns the cached product, or nil on a miss.
func (c *Client) GetCachedProduct(ctx context.Context, productID int64) (*models.Product, error) {
	data, err := c.rdb.Get(ctx, productKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal cached product: %w", err)
	}
	return &p, nil
}

// InvalidateProduct drops the cached snapshot after a write.
func (c *Client) InvalidateProduct(ctx context.Context, productID int64) error {
	return c.rdb.Del(ctx, productKey(productID)).Err()
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}
