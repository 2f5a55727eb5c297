package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrRecordNotFound       = errors.New("record not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("registry rejected credential")
	ErrTemporary            = errors.New("temporary failure")
	ErrPublishFailed        = errors.New("publish failed")
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
