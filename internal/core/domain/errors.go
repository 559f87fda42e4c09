package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrConfigNotFound = errors.New("scoring config not found")
	ErrImageNotFound  = errors.New("image not found")
	ErrDuplicate      = errors.New("duplicate entry")
	ErrTemporary      = errors.New("temporary failure")
	ErrTimeout        = errors.New("scoring timed out")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
