/*
Package observability turns engine lifecycle events into Prometheus metrics and
structured log lines.

Hooks from several sources can be chained with Combine and passed to
povrewrite.WithLifecycleHooks.
*/
package observability
