package services

import (
	"errors"
	"fmt"

	"foyer-backend/store"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
)

// DomainError carries the failing entity and key so callers can report them.
// errors.Is matches it against its Kind.
type DomainError struct {
	Kind   error
	Entity string
	Key    interface{}
	Detail string
}

func (e *DomainError) Error() string {
	msg := e.Kind.Error()
	if e.Entity != "" {
		msg = fmt.Sprintf("%s %v: %s", e.Entity, e.Key, msg)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DomainError) Is(target error) bool {
	return target == e.Kind
}

func notFound(entity string, key interface{}) error {
	return &DomainError{Kind: ErrNotFound, Entity: entity, Key: key}
}

func invalidState(entity string, key interface{}, detail string) error {
	return &DomainError{Kind: ErrInvalidState, Entity: entity, Key: key, Detail: detail}
}

func capacityExceeded(roomID uint, detail string) error {
	return &DomainError{Kind: ErrCapacityExceeded, Entity: "room", Key: roomID, Detail: detail}
}

func conflict(entity string, key interface{}, detail string) error {
	return &DomainError{Kind: ErrConflict, Entity: entity, Key: key, Detail: detail}
}

func validationError(detail string) error {
	return &DomainError{Kind: ErrValidation, Detail: detail}
}

// lookupErr turns a store miss into a NotFound for the given entity and
// passes every other store failure through.
func lookupErr(err error, entity string, key interface{}) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(entity, key)
	}
	return fmt.Errorf("load %s %v: %w", entity, key, err)
}

func isStoreNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
