package config

import "errors"

var (
	// ErrLoadConfig wraps failures reading the .env file, the YAML file or
	// the environment.
	ErrLoadConfig = errors.New("load config failed")
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownDriver is returned with ErrInvalidConfig when a backend
	// driver name is not recognized.
	ErrUnknownDriver = errors.New("unknown driver")
)
