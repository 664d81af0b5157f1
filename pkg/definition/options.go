package definition

import (
	"time"

	"github.com/aretw0/vanity/pkg/domain"
)

type options struct {
	hooks domain.LifecycleHooks
	now   func() time.Time
}

// Option configures a handle.
type Option func(*options)

// WithLifecycleHooks sets the hooks fired by handle operations.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithClock overrides the time source used to stamp observations.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
