package service

import "errors"

var (
	// ErrNotStarted is returned by operations that need the worker pool.
	ErrNotStarted = errors.New("service not started")
	// ErrBackpressure is returned when the delivery queue is full.
	ErrBackpressure = errors.New("delivery queue is full")
	// ErrInvalidInput is returned for requests that fail validation.
	ErrInvalidInput = errors.New("invalid input")
)
