package match

import "errors"

var (
	ErrFixtureNotFound      = errors.New("fixture not found")
	ErrVersionConflict      = errors.New("fixture version conflict")
	ErrInvalidTransition    = errors.New("invalid fixture state transition")
	ErrDuplicateEntry       = errors.New("player already in pool")
	ErrPoolEntryNotFound    = errors.New("player not in pool")
	ErrSlotNotFound         = errors.New("player has no slot")
	ErrInvalidSlot          = errors.New("invalid slot")
	ErrIncompleteAssignment = errors.New("slot assignment incomplete")
	ErrPoolSizeOutOfRange   = errors.New("pool size out of range")
	ErrLockTimeout          = errors.New("fixture lock timeout")
)
