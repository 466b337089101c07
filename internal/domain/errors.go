package domain

import "errors"

var (
	ErrBadRequest         = errors.New("bad request")
	ErrGeneration         = errors.New("generation failed")
	ErrImageDecode        = errors.New("image decode failed")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrNotFound           = errors.New("not found")
)
