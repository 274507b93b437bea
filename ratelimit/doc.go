// Package ratelimit implements a fixed-window, per-session quota
// tracker for requests and consumed tokens.
//
// Window policy: windows are anchored to first use, not to the
// wall-clock epoch. When a window elapses the counters reset fully and
// the window start rebases to "now"; there is no sliding or partial
// carry-over. The window size and per-tier limits come from deployment
// configuration.
package ratelimit
