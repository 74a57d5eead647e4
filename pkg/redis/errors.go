package redis

import "errors"

var (
	ErrEmptyURL   = errors.New("redis: connection url is empty")
	ErrInvalidURL = errors.New("redis: invalid connection url")
	ErrNotReady   = errors.New("redis: server not ready")
	ErrUnhealthy  = errors.New("redis: ping failed")
)
