package usecase

import (
	"time"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/interfaces"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/service/messenger"
	"github.com/taskbridge-dev/taskbridge/pkg/service/portal"
)

const (
	defaultProcessTimeout = 30 * time.Second
	defaultLookupAttempts = 3
	defaultLookupBackoff  = 250 * time.Millisecond
)

// UseCases wires the webhook pipeline: decode and verification, event
// classification, identifier resolution, identity translation and
// reconciliation against the portal's own records.
type UseCases struct {
	repo          interfaces.Repository
	portal        portal.Service
	notifier      messenger.Service
	expectedToken types.Secret

	processTimeout time.Duration
	lookupAttempts int
	lookupBackoff  time.Duration
}

type Option func(*UseCases)

// WithNotifier sets the notification dispatcher. Without one, resolved
// events are logged but not delivered.
func WithNotifier(notifier messenger.Service) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

// WithProcessTimeout bounds the processing of a single envelope.
func WithProcessTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.processTimeout = d
	}
}

// WithLookupRetry tunes the bounded retry of portal dependency lookups.
func WithLookupRetry(attempts int, backoff time.Duration) Option {
	return func(uc *UseCases) {
		uc.lookupAttempts = attempts
		uc.lookupBackoff = backoff
	}
}

func New(repo interfaces.Repository, portalSvc portal.Service, expectedToken types.Secret, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:           repo,
		portal:         portalSvc,
		expectedToken:  expectedToken,
		processTimeout: defaultProcessTimeout,
		lookupAttempts: defaultLookupAttempts,
		lookupBackoff:  defaultLookupBackoff,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
