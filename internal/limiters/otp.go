package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrOTPRateLimited        = errors.New("otp flow rate limited")
	ErrOTPLimiterUnavailable = errors.New("otp limiter unavailable")
)

// Policy is a fixed window: at most Limit calls per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

func (p Policy) enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

type OTPConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	Signup                   Policy
	Resend                   Policy
	Verify                   Policy
}

// OTPLimiter throttles the signup, resend and verify steps of the one-time
// code flow per email and per client IP.
type OTPLimiter struct {
	redis  redis.UniversalClient
	config OTPConfig
}

func NewOTPLimiter(redisClient redis.UniversalClient, cfg OTPConfig) *OTPLimiter {
	return &OTPLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *OTPLimiter) CheckSignup(ctx context.Context, identifier, ip string) error {
	if l == nil {
		return nil
	}
	return l.check(ctx, "ckls", l.config.Signup, identifier, ip)
}

func (l *OTPLimiter) CheckResend(ctx context.Context, identifier, ip string) error {
	if l == nil {
		return nil
	}
	return l.check(ctx, "cklr", l.config.Resend, identifier, ip)
}

func (l *OTPLimiter) CheckVerify(ctx context.Context, identifier, ip string) error {
	if l == nil {
		return nil
	}
	return l.check(ctx, "cklv", l.config.Verify, identifier, ip)
}

func (l *OTPLimiter) check(ctx context.Context, prefix string, policy Policy, identifier, ip string) error {
	if !policy.enabled() {
		return nil
	}
	if l.config.EnableIdentifierThrottle && identifier != "" {
		if err := l.enforceFixedWindow(ctx, prefix+":"+identifier, policy); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, prefix+"ip:"+ip, policy); err != nil {
			return err
		}
	}
	return nil
}

func (l *OTPLimiter) enforceFixedWindow(ctx context.Context, key string, policy Policy) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOTPLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, policy.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrOTPLimiterUnavailable, err)
		}
	}

	if count > int64(policy.Limit) {
		return ErrOTPRateLimited
	}

	return nil
}
