package config

import (
	"errors"
)

// Sentinel error kinds for crew configuration. Callers match with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid crew config")
	ErrLoadConfig    = errors.New("crew config load failed")
)
