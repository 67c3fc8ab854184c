package errors

import "errors"

var (
	ErrInvalidAccountInput = errors.New("invalid account input")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
