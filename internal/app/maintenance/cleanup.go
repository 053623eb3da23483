package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/agoralabs/agora/internal/auth"
	"github.com/agoralabs/agora/pkg/logger"
)

const (
	defaultSessionSpec = "@hourly"
	defaultTokenSpec   = "@daily"
)

// Cleaner coordinates background maintenance: purging expired sessions and
// consumed or expired password reset tokens.
type Cleaner struct {
	sessions    *iauth.SessionService
	credentials *iauth.CredentialService
	cron        *cron.Cron
	log         *zap.Logger
	enabled     bool

	sessionSchedule string
	tokenSchedule   string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithTokenSchedule overrides the cron specification for token cleanup.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding cleanup job being skipped.
func NewCleaner(sessions *iauth.SessionService, credentials *iauth.CredentialService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		sessions:        sessions,
		credentials:     credentials,
		sessionSchedule: defaultSessionSpec,
		tokenSchedule:   defaultTokenSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.sessions != nil || cleaner.credentials != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.sessions != nil {
		if _, err := c.cron.AddFunc(c.sessionSchedule, func() {
			if n, err := c.sessions.DeleteExpired(); err != nil {
				c.log.Warn("session cleanup failed", zap.Error(err))
			} else if n > 0 {
				c.log.Info("expired sessions removed", zap.Int64("count", n))
			}
		}); err != nil {
			return err
		}
	}

	if c.credentials != nil {
		if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
			if n, err := c.credentials.DeleteExpiredResetTokens(); err != nil {
				c.log.Warn("reset token cleanup failed", zap.Error(err))
			} else if n > 0 {
				c.log.Info("expired reset tokens removed", zap.Int64("count", n))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily
// used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce() error {
	var errs error

	if c.sessions != nil {
		if _, err := c.sessions.DeleteExpired(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.credentials != nil {
		if _, err := c.credentials.DeleteExpiredResetTokens(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
