/*
Package observability turns registry and connection lifecycle events into
Prometheus metrics and structured log lines.

Both are exposed as domain.LifecycleHooks, so they can be merged and handed to
the registry and the connection manager:

	m, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := m.Hooks().Merge(observability.LoggingHooks(logger))
*/
package observability
