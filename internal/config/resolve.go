package config

import (
	"errors"
	"time"

	"github.com/speedwagon-io/kpipublisher/internal/validate"
)

// Resolve merges the environment and programmatic sources into one Options.
// For every field the environment wins when it supplies a value, then the
// programmatic source, then the compiled-in default. Either source may be
// nil, but not both.
func Resolve(env, arg *Source) (Options, error) {
	if env == nil && arg == nil {
		return Options{}, ErrNoOptions
	}
	if env == nil {
		env = &Source{}
	}
	if arg == nil {
		arg = &Source{}
	}

	opts := defaultOptions()

	var err error
	if opts.ClientID, err = required("client ID", EnvClientID, env.ClientID, arg.ClientID); err != nil {
		return Options{}, err
	}
	if opts.BrokerURL, err = required("broker URL", EnvBrokerURL, env.BrokerURL, arg.BrokerURL); err != nil {
		return Options{}, err
	}
	if opts.Topic, err = required("topic", EnvTopic, env.Topic, arg.Topic); err != nil {
		return Options{}, err
	}
	if res := validate.ClientID(opts.ClientID, validate.DefaultClientIDLength, validate.DefaultClientIDPattern); !res.OK() {
		return Options{}, &InvalidClientIDError{ClientID: opts.ClientID, Reason: res.Message()}
	}

	optional(&opts.InitialDelay, env.InitialDelay, arg.InitialDelay)
	optional(&opts.TaskInterval, env.TaskInterval, arg.TaskInterval)
	optional(&opts.ConnectTimeout, env.ConnectTimeout, arg.ConnectTimeout)

	if opts.InitialDelay < 0 {
		return Options{}, &InvalidValueError{Field: "initial delay", Value: opts.InitialDelay.String(), Err: errors.New("must not be negative")}
	}
	if opts.TaskInterval <= 0 {
		return Options{}, &InvalidValueError{Field: "task interval", Value: opts.TaskInterval.String(), Err: errors.New("must be positive")}
	}
	if opts.ConnectTimeout <= 0 {
		return Options{}, &InvalidValueError{Field: "connection timeout", Value: opts.ConnectTimeout.String(), Err: errors.New("must be positive")}
	}

	return opts, nil
}

func required(field, envVar string, env, arg *string) (string, error) {
	if env != nil {
		return *env, nil
	}
	if arg != nil {
		return *arg, nil
	}
	return "", &MissingFieldError{Field: field, EnvVar: envVar}
}

func optional(dst *time.Duration, env, arg *time.Duration) {
	switch {
	case env != nil:
		*dst = *env
	case arg != nil:
		*dst = *arg
	}
}
