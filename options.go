// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package looper

import (
	"fmt"

	"github.com/joeycumines/logiface"
)

// defaultMaxEvents is the number of ready fds retrieved per backend wait.
const defaultMaxEvents = 16

// looperOptions holds configuration options for Looper creation.
type looperOptions struct {
	logger            *logiface.Logger[logiface.Event]
	observer          Observer
	backend           BackendKind
	maxEvents         int
	allowNonCallbacks bool
}

// --- Looper Options ---

// Option configures a Looper instance.
type Option interface {
	applyLooper(*looperOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyLooperFunc func(*looperOptions) error
}

func (o *optionImpl) applyLooper(opts *looperOptions) error {
	return o.applyLooperFunc(opts)
}

// WithAllowNonCallbacks sets whether AddFd accepts registrations without a
// callback. Such registrations are reported by PollOnce as their ident.
// Disabled by default.
func WithAllowNonCallbacks(enabled bool) Option {
	return &optionImpl{func(opts *looperOptions) error {
		opts.allowNonCallbacks = enabled
		return nil
	}}
}

// WithBackend selects the readiness backend. See BackendKind.
func WithBackend(kind BackendKind) Option {
	return &optionImpl{func(opts *looperOptions) error {
		switch kind {
		case BackendNotify, BackendPoll:
		default:
			return fmt.Errorf("looper: unknown backend %d", kind)
		}
		opts.backend = kind
		return nil
	}}
}

// WithLogger attaches a structured logger. A nil logger disables logging,
// which is also the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *looperOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithObserver attaches an Observer, receiving wake and poll notifications.
// See Stats for a ready-made implementation.
func WithObserver(observer Observer) Option {
	return &optionImpl{func(opts *looperOptions) error {
		opts.observer = observer
		return nil
	}}
}

// WithMaxEvents sets the maximum number of ready fds retrieved per wait, for
// the notification backend. The poll backend always reports every ready fd.
func WithMaxEvents(n int) Option {
	return &optionImpl{func(opts *looperOptions) error {
		if n <= 0 {
			return fmt.Errorf("looper: max events must be positive, got %d", n)
		}
		opts.maxEvents = n
		return nil
	}}
}

// resolveOptions applies Option instances to looperOptions.
func resolveOptions(opts []Option) (*looperOptions, error) {
	cfg := &looperOptions{
		backend:   BackendNotify,
		maxEvents: defaultMaxEvents,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLooper(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
