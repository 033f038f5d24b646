// Package pipeline supervises the warranty sync run: the weekday gate,
// bounded restarts with exponential backoff, the per-site loop and the
// run telemetry.
package pipeline
