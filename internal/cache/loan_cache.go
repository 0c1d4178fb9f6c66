// Package cache keeps read-through copies of loan aggregates.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/loan-origination/internal/domain"
)

// ErrMiss is returned by Get when the loan is not cached.
var ErrMiss = errors.New("cache miss")

type LoanCache interface {
	Get(ctx context.Context, loanID string) (*domain.LoanApplication, error)
	// Set stores the loan unless the cache already holds the same or a newer version.
	Set(ctx context.Context, loan *domain.LoanApplication) error
	Delete(ctx context.Context, loanID string) error
}

func loanKey(loanID string) string {
	return "loan:" + loanID
}

// Entries are hashes {version, data}. The write is skipped when the stored
// version is not older, so a slow reader cannot replace a fresher entry.
var setScript = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], "version")
if current and tonumber(current) >= tonumber(ARGV[1]) then
	return 0
end
redis.call("HSET", KEYS[1], "version", ARGV[1], "data", ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[3])
end
return 1
`)

type RedisLoanCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisLoanCache(client redis.Cmdable, ttl time.Duration) *RedisLoanCache {
	return &RedisLoanCache{client: client, ttl: ttl}
}

func (c *RedisLoanCache) Get(ctx context.Context, loanID string) (*domain.LoanApplication, error) {
	data, err := c.client.HGet(ctx, loanKey(loanID), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var loan domain.LoanApplication
	if err := json.Unmarshal(data, &loan); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (c *RedisLoanCache) Set(ctx context.Context, loan *domain.LoanApplication) error {
	data, err := json.Marshal(loan)
	if err != nil {
		return err
	}
	return setScript.Run(ctx, c.client, []string{loanKey(loan.ID)}, loan.Version, data, c.ttl.Milliseconds()).Err()
}

func (c *RedisLoanCache) Delete(ctx context.Context, loanID string) error {
	return c.client.Del(ctx, loanKey(loanID)).Err()
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.LoanApplication, error) { return nil, ErrMiss }
func (Noop) Set(context.Context, *domain.LoanApplication) error         { return nil }
func (Noop) Delete(context.Context, string) error                         { return nil }
