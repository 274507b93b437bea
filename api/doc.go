// Package api defines the HTTP surface of the VoiceGate gateway.
//
// # API Overview
//
// VoiceGate exposes two entry points:
//   - POST /v1/realtime/client_secrets mints a short-lived, single-use
//     client secret bound to a resolved session configuration.
//   - GET /v1/realtime upgrades to a WebSocket carrying the realtime
//     event protocol; the secret is presented as a Bearer token or the
//     client_secret query parameter.
//
// Operational endpoints:
//   - GET /healthz reports liveness and registered dependency checks.
//   - GET /metrics serves Prometheus metrics.
//
// # Authentication
//
// The client-secret endpoint is the authenticated, server-side surface;
// the realtime socket authenticates solely by redeeming the one-time
// secret during connection setup. A secret is invalidated on its first
// redemption attempt whether or not the attempt succeeds.
package api
