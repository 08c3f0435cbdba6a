package model

import "errors"

// Sentinel errors making up the taxonomy of spec.md §7, surfaced to
// internal/fusefs via errors.Is and translated there to syscall.Errno.
var (
	ErrNoSuchEntry  = errors.New("model: no such entry")
	ErrAccessDenied = errors.New("model: access denied")
	ErrAlreadyExists = errors.New("model: already exists")
	ErrInvalidData  = errors.New("model: invalid data")
	ErrIOError      = errors.New("model: io error")
	ErrLoadError    = errors.New("model: load error")
)
