package config

import (
	"errors"
	"fmt"
)

var ErrNoOptions = errors.New("no publisher options provided: set the MQTT_* environment variables or pass options explicitly")

// MissingFieldError reports a required option that neither source supplied.
type MissingFieldError struct {
	Field  string
	EnvVar string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required option %s: provide it explicitly or via environment variable %s", e.Field, e.EnvVar)
}

type InvalidClientIDError struct {
	ClientID string
	Reason   string
}

func (e *InvalidClientIDError) Error() string {
	return fmt.Sprintf("invalid client ID %q: %s", e.ClientID, e.Reason)
}

type InvalidValueError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Field, e.Err)
}

func (e *InvalidValueError) Unwrap() error {
	return e.Err
}
