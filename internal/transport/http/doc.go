// Package http serves the status endpoints of a running sync job.
//
// The router exposes two routes:
//
//	GET /healthz   supervisor status as JSON, 503 once the session has failed
//	GET /metrics   Prometheus exposition of the OpenTelemetry meters
//
// Errors are rendered as RFC 7807 problem details by the shared error
// handler.
package http
