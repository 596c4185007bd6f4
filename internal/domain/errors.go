package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Configuration errors
	ErrMsgMissingConfiguration = "missing required configuration"

	// State token errors
	ErrMsgInvalidState = "invalid or expired state token"

	// Verification errors
	ErrMsgUserMismatch         = "authorizing user does not match requester"
	ErrMsgVerificationTimeout  = "verification window expired"
	ErrMsgVerificationDisabled = "subscriber verification is not enabled"
	ErrMsgNoLinkedChannels     = "no linked channels found"
	ErrMsgRecordNotFound       = "authorization record not found"
	ErrMsgRecordConsumed       = "authorization record already consumed"

	// Provider errors
	ErrMsgProviderFailure = "provider request failed"

	// Tier errors
	ErrMsgTierConfigNotFound = "no subscriber tiers configured"
	ErrMsgDuplicateThreshold = "a tier with that threshold already exists"
	ErrMsgBelowMinimumTier   = "subscriber count below lowest configured tier"
	ErrMsgTierNotFound       = "tier not found"

	// Role errors
	ErrMsgRoleHierarchy = "role is above the bot's highest role"
	ErrMsgRoleNotFound  = "role not found"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Configuration errors
	ErrMissingConfiguration = errors.New(ErrMsgMissingConfiguration)

	// State token errors
	ErrInvalidState = errors.New(ErrMsgInvalidState)

	// Verification errors
	ErrUserMismatch         = errors.New(ErrMsgUserMismatch)
	ErrVerificationTimeout  = errors.New(ErrMsgVerificationTimeout)
	ErrVerificationDisabled = errors.New(ErrMsgVerificationDisabled)
	ErrNoLinkedChannels     = errors.New(ErrMsgNoLinkedChannels)
	ErrRecordNotFound       = errors.New(ErrMsgRecordNotFound)
	ErrRecordConsumed       = errors.New(ErrMsgRecordConsumed)

	// Provider errors
	ErrProviderFailure = errors.New(ErrMsgProviderFailure)

	// Tier errors
	ErrTierConfigNotFound = errors.New(ErrMsgTierConfigNotFound)
	ErrDuplicateThreshold = errors.New(ErrMsgDuplicateThreshold)
	ErrBelowMinimumTier   = errors.New(ErrMsgBelowMinimumTier)
	ErrTierNotFound       = errors.New(ErrMsgTierNotFound)

	// Role errors
	ErrRoleHierarchy = errors.New(ErrMsgRoleHierarchy)
	ErrRoleNotFound  = errors.New(ErrMsgRoleNotFound)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)
