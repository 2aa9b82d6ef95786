package usecase

import "errors"

// Sentinel errors for the webhook pipeline
var (
	// ErrAuthRejected means the envelope's application token did not
	// match the configured expected token. Security-relevant: logged
	// distinctly from other failures.
	ErrAuthRejected = errors.New("webhook authentication rejected")

	// ErrUnresolvableIdentifier means an event carried only sentinel
	// identifiers. It likely indicates an upstream contract change and
	// is surfaced to the operator rather than silently dropped.
	ErrUnresolvableIdentifier = errors.New("no resolvable identifier in event")

	// ErrDependencyLookup means a follow-up lookup against the portal
	// failed or timed out after bounded retries. Transient.
	ErrDependencyLookup = errors.New("dependency lookup failed")

	// ErrUnknownMappingDomain means a mapping listing named a domain
	// that does not exist.
	ErrUnknownMappingDomain = errors.New("unknown mapping domain")
)
