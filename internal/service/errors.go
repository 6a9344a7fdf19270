// Package service holds the authentication, password reset and payment
// settlement logic.  Storage and payment providers are reached through the
// small interfaces declared in stores.go so the rules here can be tested
// without MySQL or network access.
package service

import (
	"errors"
	"fmt"

	"github.com/fitforxe/gym-backend/internal/gateway"
	"github.com/fitforxe/gym-backend/internal/repository"
)

var (
	ErrUnauthorized          = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrConflict              = errors.New("already exists")
	ErrNotFound              = errors.New("not found")
	ErrGateway               = errors.New("payment gateway error")
	ErrSignatureInvalid      = errors.New("invalid signature")
	ErrValidation            = errors.New("validation failed")
)

// storeErr maps repository sentinels onto the service taxonomy.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrEmailExists):
		return ErrConflict
	}
	return err
}

// gatewayErr wraps any provider failure in ErrGateway, keeping the detail.
func gatewayErr(op string, err error) error {
	if errors.Is(err, gateway.ErrBadSignature) {
		return ErrSignatureInvalid
	}
	return fmt.Errorf("%w: %s: %w", ErrGateway, op, err)
}
