package services

import (
	"context"
	"errors"

	"github.com/malakmiqdad/storefront/internal/models"
)

func isUpstream(err error) bool {
	return errors.Is(err, models.ErrUpstream) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Retryable reports whether a failed webhook delivery should be redelivered
// by the provider. Only store and transport failures qualify.
func Retryable(err error) bool {
	return err != nil && isUpstream(err)
}
