package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/matchday/internal/domain/balancing"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/teamtemplate"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrInvalidState          = errors.New("invalid state")
	ErrMethodDisabled        = errors.New("balancing method disabled")
	ErrInvalidPoolSize       = errors.New("invalid pool size")
	ErrDuplicateEntry        = errors.New("duplicate entry")
	ErrConcurrencyConflict   = errors.New("concurrency conflict")
	ErrTimeout               = errors.New("timeout")
)

// translateError maps domain and store sentinels onto the caller-facing
// taxonomy. The original error stays in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var target error
	switch {
	case errors.Is(err, match.ErrVersionConflict):
		target = ErrConcurrencyConflict
	case errors.Is(err, match.ErrFixtureNotFound),
		errors.Is(err, match.ErrPoolEntryNotFound),
		errors.Is(err, match.ErrSlotNotFound):
		target = ErrNotFound
	case errors.Is(err, match.ErrInvalidTransition),
		errors.Is(err, match.ErrIncompleteAssignment):
		target = ErrInvalidState
	case errors.Is(err, match.ErrDuplicateEntry):
		target = ErrDuplicateEntry
	case errors.Is(err, match.ErrPoolSizeOutOfRange):
		target = ErrInvalidPoolSize
	case errors.Is(err, match.ErrInvalidSlot),
		errors.Is(err, balancing.ErrUnknownMethod),
		errors.Is(err, balancing.ErrInvalidWeights),
		errors.Is(err, balancing.ErrInvalidRequest),
		errors.Is(err, teamtemplate.ErrUnknownTeamSize):
		target = ErrInvalidInput
	case errors.Is(err, balancing.ErrMethodDisabled):
		target = ErrMethodDisabled
	case errors.Is(err, match.ErrLockTimeout),
		errors.Is(err, context.DeadlineExceeded):
		target = ErrTimeout
	default:
		return err
	}

	if errors.Is(err, target) {
		return err
	}
	return fmt.Errorf("%w: %w", target, err)
}
