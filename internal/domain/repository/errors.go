package repository

import "errors"

var ErrIdempotencyKeyConflict = errors.New("idempotency key conflicts with request")
var ErrInvalidCursor = errors.New("invalid cursor")
var ErrEventNotFound = errors.New("sync event not found")
var ErrNotificationNotFound = errors.New("notification not found")
var ErrProfileNotFound = errors.New("portal profile not found")
