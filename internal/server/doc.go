// Package server implements the HTTP JSON API for inbox triage.
//
// The API server exposes the OAuth web flow (/api/auth/*) and the processing
// endpoint (/api/process), plus health endpoints for Kubernetes probes.
// Prometheus metrics are served by a separate MetricsServer on a dedicated
// port so operational data is never exposed on the public listener.
package server
