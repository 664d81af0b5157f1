package domain

import (
	"context"
	"time"
)

// LoadEvent describes a completed load pass for one family.
type LoadEvent struct {
	Family   Family        `json:"family"`
	Path     string        `json:"path"`
	Count    int           `json:"count"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// ConnectionEvent describes an establish or disconnect of the store adapter.
type ConnectionEvent struct {
	Adapter string `json:"adapter"`
	Err     error  `json:"-"`
}

// TrackEvent describes an observation forwarded to a metric.
type TrackEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	Metric    Identifier `json:"metric"`
	Identity  string     `json:"identity,omitempty"`
	Amount    int        `json:"amount"`
}

// LifecycleHooks defines callbacks for registry observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnLoad       func(context.Context, *LoadEvent)
	OnConnect    func(context.Context, *ConnectionEvent)
	OnDisconnect func(context.Context, *ConnectionEvent)
	OnTrack      func(context.Context, *TrackEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnLoad:       chain(h.OnLoad, other.OnLoad),
		OnConnect:    chain(h.OnConnect, other.OnConnect),
		OnDisconnect: chain(h.OnDisconnect, other.OnDisconnect),
		OnTrack:      chain(h.OnTrack, other.OnTrack),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
