package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// LoginTrackerConfig holds configuration for sign-in lockout
type LoginTrackerConfig struct {
	MaxAttempts   int           // Failed attempts before block (default: 5)
	AttemptWindow time.Duration // Window for counting attempts (default: 15min)
	BlockDuration time.Duration // How long a block lasts (default: 15min)
}

// DefaultLoginTrackerConfig returns sensible defaults
func DefaultLoginTrackerConfig() LoginTrackerConfig {
	return LoginTrackerConfig{
		MaxAttempts:   5,
		AttemptWindow: 15 * time.Minute,
		BlockDuration: 15 * time.Minute,
	}
}

// LoginTracker counts failed sign-ins per email in Redis and blocks an email
// once it reaches MaxAttempts. Without a Redis client every check passes.
type LoginTracker struct {
	client *goredis.Client
	config LoginTrackerConfig
	audit  *AuditLogger
}

func NewLoginTracker(client *goredis.Client, config LoginTrackerConfig, audit *AuditLogger) *LoginTracker {
	defaults := DefaultLoginTrackerConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.AttemptWindow <= 0 {
		config.AttemptWindow = defaults.AttemptWindow
	}
	if config.BlockDuration <= 0 {
		config.BlockDuration = defaults.BlockDuration
	}
	if audit == nil {
		audit = NewAuditLogger(nil, "", "")
	}
	return &LoginTracker{client: client, config: config, audit: audit}
}

// Redis key patterns; the email is hashed so keys carry no PII.
const (
	failSignInPrefix    = "fail:signin:"
	blockedSignInPrefix = "blocked:signin:"
)

// KEYS[1] = counter key, ARGV[1] = TTL in seconds. Returns the new count.
const incrWithTTLScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`

func subject(email string) string {
	return HashValue(strings.ToLower(strings.TrimSpace(email)))
}

// Blocked reports whether email is blocked and for how long.
func (lt *LoginTracker) Blocked(ctx context.Context, email string) (time.Duration, bool, error) {
	if lt.client == nil {
		return 0, false, nil
	}

	ttl, err := lt.client.TTL(ctx, blockedSignInPrefix+subject(email)).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to check sign-in block: %w", err)
	}
	// -2 missing, -1 no expiry
	if ttl == -2 || ttl == 0 {
		return 0, false, nil
	}
	if ttl < 0 {
		ttl = lt.config.BlockDuration
	}

	lt.audit.LogSignInBlocked(email, ttl)
	return ttl, true, nil
}

// RecordFailure counts a failed sign-in and reports whether the email is now blocked.
func (lt *LoginTracker) RecordFailure(ctx context.Context, email string) (bool, error) {
	if lt.client == nil {
		return false, nil
	}

	key := failSignInPrefix + subject(email)
	result, err := lt.client.Eval(ctx, incrWithTTLScript, []string{key}, int(lt.config.AttemptWindow.Seconds())).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count sign-in failure: %w", err)
	}
	count, ok := result.(int64)
	if !ok {
		return false, errors.New("unexpected result type from Lua script")
	}

	lt.audit.LogSignInFailed(email, int(count))

	if int(count) < lt.config.MaxAttempts {
		return false, nil
	}

	pipe := lt.client.TxPipeline()
	pipe.Set(ctx, blockedSignInPrefix+subject(email), "1", lt.config.BlockDuration)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to create sign-in block: %w", err)
	}

	lt.audit.LogBlockCreated(email, lt.config.BlockDuration)
	return true, nil
}

// Reset clears the failure counter after a successful sign-in.
func (lt *LoginTracker) Reset(ctx context.Context, email string) error {
	lt.audit.LogSignInSucceeded(email)
	if lt.client == nil {
		return nil
	}
	if err := lt.client.Del(ctx, failSignInPrefix+subject(email)).Err(); err != nil {
		return fmt.Errorf("failed to clear sign-in failures: %w", err)
	}
	return nil
}
