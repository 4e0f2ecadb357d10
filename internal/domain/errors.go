package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	ErrOwnerNotFound    = fmt.Errorf("owner %w", ErrNotFound)
	ErrStoreNotFound    = fmt.Errorf("store %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrBlogPostNotFound = fmt.Errorf("blog post %w", ErrNotFound)
	ErrIndustryNotFound = fmt.Errorf("industry %w", ErrNotFound)

	ErrAuthRequired   = errors.New("authentication required")
	ErrForbidden      = errors.New("permission denied")
	ErrInvalidInput   = errors.New("invalid input")
	ErrSubdomainTaken = errors.New("subdomain already taken")
)

// InvalidInput wraps ErrInvalidInput with a field-specific message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
