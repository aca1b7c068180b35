package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-storefront/internal/domain"
	"go-storefront/pkg/utils"
)

const (
	// DefaultMaxAttempts failed logins lock an email out for DefaultBlockDuration.
	DefaultMaxAttempts   = 5
	DefaultBlockDuration = time.Hour

	attemptKeyPrefix = "login_attempts:"
)

// AttemptStore is the slice of the key-value store the failure counter
// lives in. A missing key reads as (nil, nil).
type AttemptStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// AuthGate validates credentials against the user store and throttles
// brute-force attempts with a per-email TTL counter. It never writes to
// the user store during authorization; its only side effects are the
// counter keys.
type AuthGate struct {
	users    domain.UserRepository
	attempts AttemptStore
	maxTries int
	block    time.Duration
	log      *zap.Logger
}

type AuthGateOpts struct {
	MaxAttempts   int
	BlockDuration time.Duration
}

func NewAuthGate(users domain.UserRepository, attempts AttemptStore, log *zap.Logger, opts AuthGateOpts) *AuthGate {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BlockDuration <= 0 {
		opts.BlockDuration = DefaultBlockDuration
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthGate{
		users:    users,
		attempts: attempts,
		maxTries: opts.MaxAttempts,
		block:    opts.BlockDuration,
		log:      log,
	}
}

// NormalizeEmail is the single normalization used for both counter keys
// and user lookups, so case/whitespace variants cannot dodge the limiter.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func attemptKey(email string) string { return attemptKeyPrefix + email }

// Authorize runs the credential check:
//
//	reject bad input → fail fast if locked → look up user → verify hash →
//	on failure count+re-arm TTL, on success clear the counter.
//
// Unknown emails and accounts without a password hash take the same
// counted path as a wrong password, so responses don't reveal which
// accounts exist.
func (g *AuthGate) Authorize(ctx context.Context, rawEmail, rawPassword string) (*domain.Identity, error) {
	if strings.TrimSpace(rawEmail) == "" || rawPassword == "" {
		return nil, domain.ErrInvalidInput
	}
	email := NormalizeEmail(rawEmail)
	key := attemptKey(email)

	// Lockout read only; a blocked probe must not extend the TTL.
	if n, ok := g.currentAttempts(ctx, key); ok && n >= g.maxTries {
		g.log.Warn("login blocked", zap.String("email", email), zap.Int("attempts", n))
		return nil, domain.ErrTooManyAttempts
	}

	u, err := g.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil || u.PasswordHash == "" {
		g.recordFailure(ctx, key, email)
		return nil, domain.ErrInvalidCredentials
	}

	if !utils.CheckPassword(rawPassword, u.PasswordHash) {
		if n := g.recordFailure(ctx, key, email); n >= int64(g.maxTries) {
			return nil, domain.ErrTooManyAttempts
		}
		return nil, domain.ErrInvalidCredentials
	}

	// Success always clears history, whatever the count was.
	if err := g.attempts.Del(ctx, key); err != nil {
		g.log.Warn("clear attempts failed", zap.String("email", email), zap.Error(err))
	}
	return domain.NewIdentity(u), nil
}

// currentAttempts reads the counter. Store failures fail open: the user
// store still gates credentials, so losing the limiter briefly only
// loosens throttling.
func (g *AuthGate) currentAttempts(ctx context.Context, key string) (int, bool) {
	b, err := g.attempts.Get(ctx, key)
	if err != nil {
		g.log.Warn("attempt counter read failed, failing open", zap.Error(err))
		return 0, false
	}
	if b == nil {
		return 0, false
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, false
	}
	return n, true
}

// recordFailure bumps the counter and re-arms the full block window.
// Returns the post-increment count (0 when the store is down).
func (g *AuthGate) recordFailure(ctx context.Context, key, email string) int64 {
	n, err := g.attempts.Incr(ctx, key)
	if err != nil {
		g.log.Warn("attempt counter incr failed", zap.String("email", email), zap.Error(err))
		return 0
	}
	if err := g.attempts.Expire(ctx, key, g.block); err != nil {
		g.log.Warn("attempt counter expire failed", zap.String("email", email), zap.Error(err))
	}
	g.log.Info("login failed", zap.String("email", email), zap.Int64("attempts", n))
	return n
}

// Register creates a new account. Duplicate emails are reported as
// domain.ErrEmailTaken, both via the pre-check and via the unique-index
// race fallback on insert.
func (g *AuthGate) Register(ctx context.Context, rawEmail, password, name string) (*domain.Identity, error) {
	if strings.TrimSpace(rawEmail) == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}
	email := NormalizeEmail(rawEmail)

	existing, err := g.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	u := &domain.User{
		ID:           utils.NewID(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: utils.HashPassword(password),
		Role:         domain.RoleUser,
	}
	if err := g.users.Create(ctx, u); err != nil {
		if utils.IsDupKey(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	g.log.Info("user registered", zap.String("id", u.ID), zap.String("email", email))
	return domain.NewIdentity(u), nil
}
