/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
structured log lines.

Both helpers return domain.LifecycleHooks; combine them with Merge:

	hooks := observability.LogHooks(logger).Merge(metrics.Hooks())
*/
package observability
