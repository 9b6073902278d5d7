package app_error

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type statusError struct {
	error
	status int
}

func (e statusError) Unwrap() error {
	return e.error
}

func (e statusError) HTTPStatus() int {
	return e.status
}

var (
	// ErrUnauthorized is returned when the acting user fails the moderation gate.
	ErrUnauthorized = statusError{errors.New("you are not allowed to perform this action"), 403}
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = statusError{errors.New("record not found"), 404}
	// ErrInvalidState is returned when a transition is attempted on a submission
	// that is no longer pending. The operation is a no-op, not a failure.
	ErrInvalidState = statusError{errors.New("submission has already been reviewed"), 200}
	// ErrExpired is returned when a promo code is outside its validity window.
	ErrExpired = statusError{errors.New("promo code is expired"), 400}
	// ErrBelowMinimum is returned when the amount is below the promo code minimum.
	ErrBelowMinimum = statusError{errors.New("amount is below the promo code minimum"), 400}
	// ErrUsageExhausted is returned when a promo code has reached its usage limit.
	ErrUsageExhausted = statusError{errors.New("promo code usage limit reached"), 400}
	// ErrStoreUnavailable is returned when the database could not be reached. It is
	// surfaced to the caller and never retried here, since retrying a non-idempotent
	// increment with an ambiguous outcome could double-credit points.
	ErrStoreUnavailable = statusError{errors.New("storage is unavailable"), 503}
)

func BelowMinimum(minAmount decimal.Decimal) error {
	return fmt.Errorf("minimum amount of %s required: %w", minAmount.StringFixed(2), ErrBelowMinimum)
}

// HTTPStatus resolves the response code for an error, defaulting to 500.
func HTTPStatus(err error) int {
	var se statusError
	if errors.As(err, &se) {
		return se.HTTPStatus()
	}
	return 500
}

func Respond(c *gin.Context, err error) {
	c.JSON(HTTPStatus(err), gin.H{"error": err.Error()})
}
