package service

import "errors"

// Service errors surfaced to handlers. Anything else coming out of the
// service is a store failure and must not leak detail to clients.
var (
	ErrValidation     = errors.New("missing required field") // Required input missing
	ErrAppletNotFound = errors.New("applet not found")       // Unknown applet id
	ErrUserNotFound   = errors.New("user not found")         // Unknown wallet address
)
